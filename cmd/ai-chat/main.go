// Package main provides the entry point for the ai-chat CLI.
package main

import (
	"os"

	"github.com/ololopopova/ai-chat/cmd/ai-chat/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
