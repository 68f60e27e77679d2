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
	historyRepo  string
	historyLimit int
	historyJSON  bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent recorded verdicts for a repository",
	Long: `List verdicts previously recorded by check, batch, or serve queries,
newest first. History lives in the local SQLite database.`,
	Example: `  deploywatch history --repo acme/webapp
  deploywatch history --repo acme/webapp --limit 5 --json`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().StringVarP(&historyRepo, "repo", "r", "", "Repository in owner/name format (required)")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum number of verdicts to list")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "Emit machine-readable reports instead of text")
	_ = historyCmd.MarkFlagRequired("repo")
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.DBPath == "" || cfg.DBPath == "none" {
		return fmt.Errorf("verdict history is disabled: set DEPLOYWATCH_DB_PATH")
	}

	_, store, cleanup, err := buildService(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	verdicts, err := store.ListByRepo(ctx, historyRepo, historyLimit)
	if err != nil {
		return err
	}

	if len(verdicts) == 0 {
		fmt.Printf("no recorded verdicts for %s\n", historyRepo)
		return nil
	}

	for _, v := range verdicts {
		rep := report.Build(v)
		if historyJSON {
			if err := printReport(rep, true); err != nil {
				return err
			}
			continue
		}

		line := fmt.Sprintf("%s  %-9s  %s", rep.CheckedAt, rep.Verdict, abbreviated(rep.Commit))
		if rep.Run != nil {
			line += fmt.Sprintf("  run #%d", rep.Run.ID)
		}
		fmt.Println(line)
	}

	return nil
}

func abbreviated(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}
