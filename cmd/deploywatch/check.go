package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ericfisherdev/deploywatch/internal/config"
	"github.com/ericfisherdev/deploywatch/internal/domain/model"
	"github.com/ericfisherdev/deploywatch/internal/report"
)

var (
	checkRepo     string
	checkCommit   string
	checkPR       int
	checkLookback time.Duration
	checkTimeout  time.Duration
	checkDBPath   string
	checkJSON     bool
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Query deployment status for a commit or pull request",
	Long: `Check whether a commit (or the merge commit of a pull request) was deployed,
based on the most recent matching workflow run within the lookback window.

When both --commit and --pr are given they must name the same commit.`,
	Example: `  deploywatch check --repo acme/webapp --commit be0f1ce
  deploywatch check --repo acme/webapp --pr 12 --json`,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().StringVarP(&checkRepo, "repo", "r", "", "Repository in owner/name format (required)")
	checkCmd.Flags().StringVarP(&checkCommit, "commit", "c", "", "Target commit SHA (full or >= 7 characters)")
	checkCmd.Flags().IntVarP(&checkPR, "pr", "p", 0, "Target pull request number")
	checkCmd.Flags().DurationVar(&checkLookback, "lookback", 0, "How far back to search the run history (default from env, 24h)")
	checkCmd.Flags().DurationVar(&checkTimeout, "timeout", 0, "Deadline for each provider call (default from env, 30s)")
	checkCmd.Flags().StringVar(&checkDBPath, "db", "", "Verdict history database path (default from env; \"none\" disables)")
	checkCmd.Flags().BoolVar(&checkJSON, "json", false, "Emit the machine-readable report instead of text")
	_ = checkCmd.MarkFlagRequired("repo")
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfigWithFlags(cmd)
	if err != nil {
		return err
	}

	target := model.Target{
		Repo:      checkRepo,
		CommitSHA: checkCommit,
		PRNumber:  checkPR,
	}
	if err := target.Validate(); err != nil {
		return err
	}

	svc, _, cleanup, err := buildService(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	verdict, checkErr := svc.Check(ctx, target)

	var rep report.Report
	if checkErr != nil {
		rep = report.BuildError(target, checkErr)
	} else {
		rep = report.Build(verdict)
	}

	if err := printReport(rep, checkJSON); err != nil {
		return err
	}

	exitCode = rep.ExitCode()
	return nil
}

// loadConfigWithFlags loads the environment config and applies any flag
// overrides the user set explicitly.
func loadConfigWithFlags(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("lookback") {
		cfg.Lookback = checkLookback
	}
	if cmd.Flags().Changed("timeout") {
		cfg.Timeout = checkTimeout
	}
	if cmd.Flags().Changed("db") {
		cfg.DBPath = checkDBPath
	}
	if cfg.DBPath == "none" {
		cfg.DBPath = ""
	}

	return cfg, nil
}

// printReport writes the report to stdout as text or indented JSON.
func printReport(rep report.Report, asJSON bool) error {
	if !asJSON {
		fmt.Print(rep.Text())
		return nil
	}

	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
