// Copyright (c) 2026 Seatmaster Team
// Seatmaster - restaurant table reservation tool
// This source code is licensed under the MIT license found in the LICENSE file.

// Command-line entrypoint for Seatmaster.
//
// Usage:
//
//	go run . [flags]
//	./seatmaster [flags]
//
// This launches the Seatmaster CLI. See --help for options.
package main

import (
	"fmt"
	"os"

	"github.com/toeirei/seatmaster/buildvars"
	"github.com/toeirei/seatmaster/internal/logging"
	"github.com/toeirei/seatmaster/ui/cli"
)

// main is the entrypoint for the Seatmaster CLI.
func main() {
	if os.Getenv("SEATMASTER_SHOW_VERSION") == "1" {
		fmt.Fprintf(os.Stderr, "Seatmaster version: %s\n", buildvars.VersionOrDefault("dev"))
	}

	if err := cli.Execute(); err != nil {
		logging.Errorf("Seatmaster CLI error: %v", err)
		os.Exit(1)
	}
}
