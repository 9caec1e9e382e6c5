package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	envFile string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "digest",
	Short: "DART 공시 일일 심층 리포트",
	Long: `DART Digest CLI

DART 당일 공시를 수집해 중요도를 채점하고,
상위 1~2건을 골라 심층 리포트를 작성한 뒤 Slack 으로 전송합니다.

Usage:
  go run ./cmd/digest [command]

Examples:
  go run ./cmd/digest run
  go run ./cmd/digest run --date 20250110 --dry-run --print-article
  go run ./cmd/digest scheduler
  go run ./cmd/digest api
  go run ./cmd/digest companies update
  go run ./cmd/digest report show 2025-01-10`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "env file loaded before .env")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (LOG_LEVEL=debug)")
}
