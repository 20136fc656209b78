package main

import (
	"os"

	"report_analysis/cmd/analyze/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
