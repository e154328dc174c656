package command

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/urfave/cli/v2"
)

// The commands return cli.Exit errors; cli's default handler would
// os.Exit the test binary inside app.Run before any assertion runs.
// Stub the exiter so Run returns the error to the tests instead.
func TestMain(m *testing.M) {
	cli.OsExiter = func(int) {}
	os.Exit(m.Run())
}

func TestApp(t *testing.T) {
	app := App()
	if app.Name != "strata-cli" {
		t.Errorf("Name = %q, want strata-cli", app.Name)
	}

	commandNames := make(map[string]bool)
	for _, cmd := range app.Commands {
		commandNames[cmd.Name] = true
	}
	for _, name := range []string{"inspect", "export", "import", "visualize", "benchmark"} {
		if !commandNames[name] {
			t.Errorf("missing required command: %s", name)
		}
	}
}

func TestApp_GlobalFlags(t *testing.T) {
	app := App()

	flagNames := make(map[string]bool)
	for _, flag := range app.Flags {
		flagNames[flag.Names()[0]] = true
	}
	for _, name := range []string{"config", "data-dir", "namespace", "profile", "passphrase", "verbose"} {
		if !flagNames[name] {
			t.Errorf("missing required flag: %s", name)
		}
	}
}

func TestImport_MissingFileFails(t *testing.T) {
	app := App()
	err := app.Run([]string{"strata-cli", "--data-dir", t.TempDir(), "import"})
	if err == nil {
		t.Fatal("import without a file argument succeeded")
	}
}

func TestExportImport_RoundTripThroughFiles(t *testing.T) {
	dataDir := t.TempDir()
	archive := filepath.Join(t.TempDir(), "backup.json")

	// Seed one entry through a directly opened engine, export it, wipe
	// the store, and import it back.
	seed := filepath.Join(t.TempDir(), "seed.jsonl")
	line := []byte(`{"key":"user:1","value":{"name":"ada"}}` + "\n")
	if err := os.WriteFile(seed, line, 0o600); err != nil {
		t.Fatalf("write seed: %v", err)
	}

	run := func(args ...string) error {
		return App().Run(append([]string{"strata-cli", "--data-dir", dataDir}, args...))
	}

	if err := run("import", "--format", "lines", seed); err != nil {
		t.Fatalf("import seed: %v", err)
	}
	if err := run("export", "--format", "text", archive); err != nil {
		t.Fatalf("export: %v", err)
	}

	freshDir := t.TempDir()
	if err := App().Run([]string{"strata-cli", "--data-dir", freshDir, "import", archive}); err != nil {
		t.Fatalf("import into fresh store: %v", err)
	}

	data, err := os.ReadFile(archive)
	if err != nil {
		t.Fatalf("read archive: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("exported archive is empty")
	}
}

func TestBenchmark_Runs(t *testing.T) {
	app := App()
	err := app.Run([]string{"strata-cli", "--data-dir", t.TempDir(), "benchmark", "--ops", "5"})
	if err != nil {
		t.Fatalf("benchmark: %v", err)
	}
}
