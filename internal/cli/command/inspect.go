// Package command provides CLI command definitions for strata-cli.
package command

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/strata-go/internal/cli/output"
)

// InspectCommand returns the inspect command.
func InspectCommand() *cli.Command {
	return &cli.Command{
		Name:  "inspect",
		Usage: "Show store contents and metadata",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "key",
				Aliases: []string{"k"},
				Usage:   "Inspect a single key",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Emit JSON instead of a table",
			},
		},
		Action: inspect,
	}
}

func inspect(c *cli.Context) error {
	eng, err := openEngine(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("error: %v", err), 1)
	}
	defer eng.Close()

	if key := c.String("key"); key != "" {
		value, err := eng.Read(c.Context, key)
		if err != nil {
			return cli.Exit(fmt.Sprintf("error: %v", err), 1)
		}
		return output.JSON(os.Stdout, map[string]any{"key": key, "value": value})
	}

	data, err := eng.ExportAll(c.Context)
	if err != nil {
		return cli.Exit(fmt.Sprintf("error: %v", err), 1)
	}

	if c.Bool("json") {
		return output.JSON(os.Stdout, map[string]any{
			"backend": eng.ActiveBackend(),
			"entries": data,
		})
	}

	fmt.Printf("backend: %s\n", eng.ActiveBackend())
	fmt.Printf("entries: %d\n\n", len(data))

	table := &output.Table{Headers: []string{"KEY", "VALUE"}}
	for _, k := range output.SortedKeys(data) {
		table.AddRow(k, summarize(data[k]))
	}
	return table.Render(os.Stdout)
}

// summarize renders a value on one short line.
func summarize(v any) string {
	const maxLen = 60
	s := fmt.Sprintf("%v", v)
	if len(s) > maxLen {
		return s[:maxLen-3] + "..."
	}
	return s
}
