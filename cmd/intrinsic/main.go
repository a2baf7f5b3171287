package main

import (
	"os"

	"github.com/wonny/intrinsic/cmd/intrinsic/commands"
)

// main is the entry point for the Intrinsic CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/intrinsic [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
