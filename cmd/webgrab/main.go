// Package main is the entry point for the webgrab CLI.
package main

import (
	"os"

	"github.com/webgrab/webgrab/cmd/webgrab/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
