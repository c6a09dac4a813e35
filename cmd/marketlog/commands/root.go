package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	env     string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "marketlog",
	Short: "market-log - 日本株マーケットダッシュボード",
	Long: `market-log Unified CLI

J-Quants API v2 を使った日本株ダッシュボードのバックエンド。
個別銘柄の株価・財務・投資部門別フローと、市場全体の騰落サマリーを提供。

Usage:
  go run ./cmd/marketlog [command]

Examples:
  go run ./cmd/marketlog api
  go run ./cmd/marketlog stock quote 8058
  go run ./cmd/marketlog market breadth`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&env, "env", "development", "environment (development|staging|production)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
