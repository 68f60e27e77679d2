package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ericfisherdev/deploywatch/internal/config"
	"github.com/ericfisherdev/deploywatch/internal/report"
)

var (
	batchFile string
	batchJSON bool
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Query deployment status for multiple targets concurrently",
	Long: `Run one status query per target listed in a YAML file. Queries run
concurrently; provider calls are capped by DEPLOYWATCH_MAX_INFLIGHT.

The exit code is the worst individual verdict code.`,
	Example: `  deploywatch batch --file targets.yaml
  deploywatch batch --file targets.yaml --json`,
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().StringVarP(&batchFile, "file", "f", "", "YAML targets file (required)")
	batchCmd.Flags().BoolVar(&batchJSON, "json", false, "Emit machine-readable reports instead of text")
	_ = batchCmd.MarkFlagRequired("file")
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	targets, err := config.LoadTargets(batchFile)
	if err != nil {
		return err
	}

	svc, _, cleanup, err := buildService(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	results, err := svc.CheckAll(ctx, targets)
	if err != nil {
		return err
	}

	reports := make([]report.Report, 0, len(results))
	for _, res := range results {
		if res.Err != nil {
			reports = append(reports, report.BuildError(res.Target, res.Err))
		} else {
			reports = append(reports, report.Build(res.Verdict))
		}
	}

	if batchJSON {
		return printReports(reports)
	}

	for i, rep := range reports {
		if i > 0 {
			fmt.Println()
		}
		fmt.Print(rep.Text())
	}

	for _, rep := range reports {
		if code := rep.ExitCode(); code > exitCode {
			exitCode = code
		}
	}
	return nil
}

func printReports(reports []report.Report) error {
	for _, rep := range reports {
		if err := printReport(rep, true); err != nil {
			return err
		}
		if code := rep.ExitCode(); code > exitCode {
			exitCode = code
		}
	}
	return nil
}
