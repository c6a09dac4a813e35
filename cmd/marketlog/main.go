package main

import (
	"os"

	"github.com/takumi-oka/market-log/cmd/marketlog/commands"
)

// main is the entry point for the market-log CLI
// ⭐ 統合CLIの入口: go run ./cmd/marketlog [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
