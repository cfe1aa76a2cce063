// Package main provides the CLI for the schemadbg core schema debugger.
package main

import (
	"os"

	"github.com/leapstack-labs/schemadbg/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
