// Package command provides CLI command definitions for strata-cli.
package command

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/strata-go/internal/engine"
)

// ExportCommand returns the export command.
func ExportCommand() *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "Export the store to an archive",
		ArgsUsage: "[FILE]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Archive format: text, lines, binary",
				Value:   "text",
			},
		},
		Action: exportStore,
	}
}

func exportStore(c *cli.Context) error {
	eng, err := openEngine(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("error: %v", err), 1)
	}
	defer eng.Close()

	archive, err := eng.Export(c.Context, engine.ExportFormat(c.String("format")))
	if err != nil {
		return cli.Exit(fmt.Sprintf("error: %v", err), 1)
	}

	if path := c.Args().First(); path != "" {
		if err := os.WriteFile(path, archive, 0o600); err != nil {
			return cli.Exit(fmt.Sprintf("error: write %s: %v", path, err), 1)
		}
		fmt.Fprintf(os.Stderr, "exported to %s (%d bytes)\n", path, len(archive))
		return nil
	}

	_, err = os.Stdout.Write(archive)
	return err
}

// ImportCommand returns the import command.
func ImportCommand() *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Import an archive into the store",
		ArgsUsage: "FILE",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Archive format: text, lines, binary (default: detect)",
			},
		},
		Action: importStore,
	}
}

func importStore(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return cli.Exit("error: import requires an archive file argument", 1)
	}
	archive, err := os.ReadFile(path)
	if err != nil {
		return cli.Exit(fmt.Sprintf("error: read %s: %v", path, err), 1)
	}

	format := engine.ExportFormat(c.String("format"))
	if format == "" {
		format = engine.DetectFormat(archive)
	}

	eng, err := openEngine(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("error: %v", err), 1)
	}
	defer eng.Close()

	n, err := eng.Import(c.Context, format, archive)
	if err != nil {
		return cli.Exit(fmt.Sprintf("error: import %s: %v", path, err), 1)
	}
	fmt.Fprintf(os.Stderr, "imported %d entries from %s\n", n, path)
	return nil
}
