package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container
)

var version = "dev" // Will be set during build

// exitCode carries the verdict exit code contract (deployed=0, failed=1,
// pending=2, not_found=3, unknown/error=4) out of the subcommand Run funcs.
var exitCode int

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "deploywatch",
	Short: "Deployment status queries against CI run history",
	Long: `Deploywatch answers "did my app deploy after a given merge?" by fetching a
CI provider's workflow run history and reconciling it against a target commit
or pull request.

The exit code carries the verdict: 0 deployed, 1 failed, 2 pending,
3 not found, 4 could not determine.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	os.Exit(exitCode)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}
