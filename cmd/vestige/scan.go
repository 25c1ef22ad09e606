package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/vestige-dev/vestige/internal/output"
	"github.com/vestige-dev/vestige/internal/progress"
	"github.com/vestige-dev/vestige/internal/service/analysis"
	"github.com/vestige-dev/vestige/pkg/analyzer/retention"
	"github.com/vestige-dev/vestige/pkg/config"
	"github.com/vestige-dev/vestige/pkg/index"
)

func scanCmd() *cli.Command {
	return &cli.Command{
		Name:      "scan",
		Usage:     "Scan an index for unreferenced declarations",
		ArgsUsage: "<index-store-dir>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "scip",
				Usage: "Read a SCIP index file instead of a JSON-Lines store",
			},
			&cli.StringFlag{
				Name:  "module",
				Value: "main",
				Usage: "Module name applied to SCIP occurrences",
			},
			&cli.BoolFlag{
				Name:  "retain-public",
				Usage: "Seed-retain public and open declarations",
			},
			&cli.BoolFlag{
				Name:  "retain-objc-annotated",
				Usage: "Seed-retain @objc annotated declarations",
			},
			&cli.BoolFlag{
				Name:  "retain-assign-only-properties",
				Usage: "Do not report assign-only properties",
			},
			&cli.BoolFlag{
				Name:  "retain-unused-protocol-func-params",
				Usage: "Retain all parameters of protocol requirements",
			},
			&cli.StringSliceFlag{
				Name:  "entry-point-filename",
				Usage: "File basename treated as an entry point (repeatable)",
			},
			&cli.StringSliceFlag{
				Name:  "report-exclude",
				Usage: "Path glob excluded from the report (repeatable)",
			},
		},
		Action: runScan,
	}
}

func runScan(c *cli.Context) error {
	cfg, err := scanConfig(c)
	if err != nil {
		return err
	}

	provider, err := scanProvider(c)
	if err != nil {
		return err
	}

	tracker := progress.NewSpinner("Indexing...")
	svc := analysis.New(analysis.WithConfig(cfg))
	scan, err := svc.Scan(context.Background(), provider, analysis.ScanOptions{
		OnUnit: tracker.Tick,
	})
	if err != nil {
		tracker.FinishError(err)
		return err
	}
	tracker.FinishSuccess()

	for _, w := range scan.Warnings {
		if w.Location.IsZero() {
			fmt.Fprintf(os.Stderr, "%s %s\n", color.YellowString("warning:"), w.Message)
		} else {
			fmt.Fprintf(os.Stderr, "%s %s: %s\n", color.YellowString("warning:"), w.Location, w.Message)
		}
	}

	formatter, err := output.NewFormatter(
		output.ParseFormat(c.String("format")),
		c.String("output"),
		!c.Bool("no-color"),
	)
	if err != nil {
		return err
	}
	defer formatter.Close()

	if formatter.Format() == output.FormatJSON || formatter.Format() == output.FormatTOON {
		return formatter.Output(scan.Result)
	}
	return renderTables(formatter, scan.Result)
}

func scanConfig(c *cli.Context) (*config.Config, error) {
	var cfg *config.Config
	if path := c.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = config.LoadOrDefault()
	}

	if c.Bool("retain-public") {
		cfg.RetainPublic = true
	}
	if c.Bool("retain-objc-annotated") {
		cfg.RetainObjcAnnotated = true
	}
	if c.Bool("retain-assign-only-properties") {
		cfg.RetainAssignOnlyProperties = true
	}
	if c.Bool("retain-unused-protocol-func-params") {
		cfg.RetainUnusedProtocolFuncParams = true
	}
	if names := c.StringSlice("entry-point-filename"); len(names) > 0 {
		cfg.EntryPointFilenames = names
		cfg.EntryPointsExplicit = true
	}
	if globs := c.StringSlice("report-exclude"); len(globs) > 0 {
		cfg.ReportExclude = append(cfg.ReportExclude, globs...)
	}
	return cfg, cfg.Validate()
}

func scanProvider(c *cli.Context) (index.Provider, error) {
	if scipPath := c.String("scip"); scipPath != "" {
		return index.NewSCIPProvider(scipPath, c.String("module"))
	}
	if c.Args().Len() == 0 {
		return nil, fmt.Errorf("an index store directory or --scip file is required")
	}
	return index.NewStoreProvider(c.Args().First())
}

func renderTables(formatter *output.Formatter, result *retention.Result) error {
	if len(result.Unreferenced) > 0 {
		if err := formatter.Output(itemTable("Unreferenced Declarations", result.Unreferenced)); err != nil {
			return err
		}
	}
	if len(result.AssignOnly) > 0 {
		if err := formatter.Output(itemTable("Assign-Only Properties", result.AssignOnly)); err != nil {
			return err
		}
	}
	if len(result.UnusedParameters) > 0 {
		if err := formatter.Output(itemTable("Unused Parameters", result.UnusedParameters)); err != nil {
			return err
		}
	}

	summary := result.Summary
	footer := []string{
		"Total", strconv.Itoa(summary.Declarations),
		fmt.Sprintf("retained %d, ignored %d", summary.Retained, summary.Ignored),
	}
	rows := [][]string{
		{"Unreferenced", strconv.Itoa(summary.Unreferenced), ""},
		{"Assign-only", strconv.Itoa(summary.AssignOnly), ""},
		{"Unused parameters", strconv.Itoa(summary.UnusedParameters), ""},
	}
	return formatter.Output(output.NewTable(
		"Summary",
		[]string{"Category", "Count", "Notes"},
		rows,
		footer,
		summary,
	))
}

func itemTable(title string, items []retention.Item) *output.Table {
	rows := make([][]string, 0, len(items))
	for _, it := range items {
		rows = append(rows, []string{
			it.Location.String(),
			string(it.Kind),
			it.Name,
			string(it.Reason),
		})
	}
	return output.NewTable(title, []string{"Location", "Kind", "Name", "Reason"}, rows, nil, items)
}
