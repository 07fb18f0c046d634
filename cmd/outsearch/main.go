// Package main is the entry point for the outsearch CLI.
package main

import (
	"os"

	"github.com/aidanlsb/outsearch/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
