// Package main is the entry point for the transcast-worker application.
package main

import (
	"os"

	"github.com/transcast-io/transcast/cmd/transcast-worker/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
