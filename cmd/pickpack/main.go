// Package main is the entry point for pickpack.
package main

import (
	"errors"
	"os"

	"github.com/fatih/color"

	"github.com/billie-coop/pickpack/cmd/pickpack/commands"
)

func main() {
	if err := commands.NewCommand().Execute(); err != nil {
		// The batch summary already explains failed jobs.
		if !errors.Is(err, commands.ErrJobsFailed) {
			color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
