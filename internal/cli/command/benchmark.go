// Package command provides CLI command definitions for strata-cli.
package command

import (
	"fmt"
	"net/http"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/strata-go/internal/cli/output"
	"github.com/yndnr/strata-go/internal/telemetry/metric"
)

// BenchmarkCommand returns the benchmark command.
func BenchmarkCommand() *cli.Command {
	return &cli.Command{
		Name:  "benchmark",
		Usage: "Measure raw storage throughput",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "ops",
				Aliases: []string{"o"},
				Usage:   "Number of operations per phase",
				Value:   1000,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Emit JSON instead of a table",
			},
			&cli.StringFlag{
				Name:  "listen",
				Usage: "Serve Prometheus metrics at this address during the run",
			},
		},
		Action: benchmark,
	}
}

func benchmark(c *cli.Context) error {
	eng, err := openEngine(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("error: %v", err), 1)
	}
	defer eng.Close()

	if addr := c.String("listen"); addr != "" {
		reg, rerr := metric.Register(eng.Metrics)
		if rerr != nil {
			return cli.Exit(fmt.Sprintf("error: %v", rerr), 1)
		}
		srv := &http.Server{Addr: addr, Handler: metric.Handler(reg)}
		go srv.ListenAndServe()
		defer srv.Close()
	}

	report, err := eng.Benchmark(c.Context, c.Int("ops"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("error: %v", err), 1)
	}

	if c.Bool("json") {
		return output.JSON(os.Stdout, report)
	}

	fmt.Printf("backend: %s, %d ops per phase\n\n", report.Backend, report.Ops)
	table := &output.Table{Headers: []string{"PHASE", "TOTAL", "MEAN", "OPS/S"}}
	table.AddRow("write", report.WriteTotal.String(), report.MeanWrite.String(),
		fmt.Sprintf("%.0f", report.WritesPerSecond()))
	table.AddRow("read", report.ReadTotal.String(), report.MeanRead.String(),
		fmt.Sprintf("%.0f", report.ReadsPerSecond()))
	return table.Render(os.Stdout)
}
