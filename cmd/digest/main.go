package main

import (
	"fmt"
	"os"

	"github.com/wonny/dart-digest/cmd/digest/commands"
)

// main is the entry point for the digest CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/digest [command]
func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "[error] %v\n", err)
		os.Exit(1)
	}
}
