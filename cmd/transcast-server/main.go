// Package main is the entry point for the transcast-server application.
package main

import (
	"os"

	"github.com/transcast-io/transcast/cmd/transcast-server/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
