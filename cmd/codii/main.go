// Package main provides the entry point for the codii CLI.
package main

import (
	"os"

	"github.com/oOSomnus/codii/cmd/codii/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
