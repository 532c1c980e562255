package main

import (
	"os"

	"github.com/lucasmv/backtestsim/cmd/orchestrator/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
