// Package main is the entry point for the ingestq server.
package main

import (
	"fmt"
	"os"

	"ingestq.io/ingestq/cmd/server/cmd"
)

func main() {
	if err := cmd.RootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}
