// Package command provides CLI command definitions for strata-cli.
package command

import (
	"fmt"
	"os"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/strata-go/internal/cli/output"
	"github.com/yndnr/strata-go/internal/migrate"
)

// VisualizeCommand returns the visualize command.
func VisualizeCommand() *cli.Command {
	return &cli.Command{
		Name:   "visualize",
		Usage:  "Show the key space grouped by model",
		Action: visualize,
	}
}

func visualize(c *cli.Context) error {
	eng, err := openEngine(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("error: %v", err), 1)
	}
	defer eng.Close()

	keys, err := eng.Keys(c.Context)
	if err != nil {
		return cli.Exit(fmt.Sprintf("error: %v", err), 1)
	}

	counts := map[string]int{}
	max := 0
	for _, k := range keys {
		model := migrate.ModelOf(k)
		counts[model]++
		if counts[model] > max {
			max = counts[model]
		}
	}

	fmt.Printf("backend: %s\n", eng.ActiveBackend())
	fmt.Printf("entries: %d in %d models\n\n", len(keys), len(counts))

	table := &output.Table{Headers: []string{"MODEL", "ENTRIES", ""}}
	for _, model := range output.SortedKeys(counts) {
		n := counts[model]
		table.AddRow(model, strconv.Itoa(n), output.Bar(n, max, 40))
	}
	return table.Render(os.Stdout)
}
