// Package command provides CLI command definitions for strata-cli.
package command

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/strata-go/internal/codec"
	"github.com/yndnr/strata-go/internal/config"
	"github.com/yndnr/strata-go/internal/engine"
	"github.com/yndnr/strata-go/internal/infra/buildinfo"
	"github.com/yndnr/strata-go/internal/storage"
	"github.com/yndnr/strata-go/internal/storage/badgerstore"
	"github.com/yndnr/strata-go/internal/storage/filestore"
	"github.com/yndnr/strata-go/internal/storage/memstore"
	"github.com/yndnr/strata-go/internal/telemetry/logger"
	"github.com/yndnr/strata-go/pkg/crypto/seal"
)

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "strata-cli",
		Usage:   "Tiered storage engine management tool",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			InspectCommand(),
			ExportCommand(),
			ImportCommand(),
			VisualizeCommand(),
			BenchmarkCommand(),
		},
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Configuration file (YAML)",
			EnvVars: []string{"STRATA_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "data-dir",
			Aliases: []string{"d"},
			Usage:   "Data directory for persistent backends",
			EnvVars: []string{"STRATA_DATA_DIR"},
		},
		&cli.StringFlag{
			Name:    "namespace",
			Aliases: []string{"n"},
			Usage:   "Key namespace to operate in",
		},
		&cli.StringFlag{
			Name:  "profile",
			Usage: "Named settings preset (compact, throughput, strictness)",
		},
		&cli.StringFlag{
			Name:    "passphrase",
			Usage:   "Payload encryption passphrase",
			EnvVars: []string{"STRATA_PASSPHRASE"},
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"V"},
			Usage:   "Enable verbose logging",
		},
	}
}

// loadConfig builds the effective configuration from the config file,
// environment and flags.
func loadConfig(c *cli.Context) (*config.Config, error) {
	loader := config.NewLoader(config.WithConfigFile(c.String("config")))

	overrides := map[string]any{}
	if v := c.String("data-dir"); v != "" {
		overrides["storage.data_dir"] = v
	}
	if v := c.String("namespace"); v != "" {
		overrides["engine.namespace"] = v
	}
	if v := c.String("profile"); v != "" {
		overrides["profile"] = v
	}
	if v := c.String("passphrase"); v != "" {
		overrides["codec.passphrase"] = v
	}
	loader.Override(overrides)

	return loader.Load()
}

// openEngine opens the configured store. The caller must Close it.
func openEngine(c *cli.Context) (*engine.Engine, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}

	level := cfg.Log.Level
	if c.Bool("verbose") {
		level = "debug"
	}
	log := logger.New(logger.Config{Level: level, Format: "text", Output: os.Stderr})

	// Long-running commands pick up log-level edits without a restart.
	// The watcher lives for the remainder of the process.
	if path := c.String("config"); path != "" {
		if watcher, werr := config.NewWatcher(path, config.WithWatcherLogger(log)); werr == nil {
			watcher.OnChange(func(string) {
				if next, lerr := loadConfig(c); lerr == nil {
					logger.SetLevel(next.Log.Level)
				}
			})
			watcher.StartAsync()
		} else {
			log.Warn("config watcher unavailable", "file", path, "error", werr)
		}
	}

	var backends []storage.Backend
	for _, name := range cfg.Storage.Backends {
		switch name {
		case "badger":
			backends = append(backends, badgerstore.New(
				filepath.Join(cfg.Storage.DataDir, "index"),
				badgerstore.WithLogger(log),
			))
		case "file":
			var opts []filestore.Option
			if cfg.Storage.FileMaxBytes > 0 {
				opts = append(opts, filestore.WithMaxBytes(cfg.Storage.FileMaxBytes))
			}
			backends = append(backends, filestore.New(
				filepath.Join(cfg.Storage.DataDir, "strata.json"), opts...,
			))
		case "memory":
			backends = append(backends, memstore.New())
		}
	}

	var sealer seal.Sealer
	if cfg.Codec.Passphrase != "" {
		sealer, err = seal.FromPassphrase(cfg.Codec.Passphrase)
		if err != nil {
			return nil, err
		}
	}

	cacheTTL := cfg.Cache.TTL
	if cfg.Cache.Disabled {
		cacheTTL = -1
	}

	return engine.New(context.Background(), engine.Options{
		Backends: backends,
		Codec: codec.Options{
			Serializer: cfg.Codec.Serializer,
			Compressor: cfg.Codec.Compressor,
			Sealer:     sealer,
		},
		Namespace:     cfg.Engine.Namespace,
		CacheTTL:      cacheTTL,
		SafeMode:      engine.ParseSafeModeLevel(cfg.Engine.SafeMode),
		RetryAttempts: cfg.Engine.RetryAttempts,
		Logger:        log,
	})
}

// PrintError prints an error message to stderr.
func PrintError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}
