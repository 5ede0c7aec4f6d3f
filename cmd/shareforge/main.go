// Copyright 2026 The Shareforge Authors
// SPDX-License-Identifier: Apache-2.0

// Command shareforge compiles declarative configuration fragments
// into the operating artifacts of the Samba daemon suite: the
// smb.conf-style configuration document and the service unit
// definitions. It never touches the live system — writing the
// document and registering units is the embedding system's job.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/prabhat-suresh/shareforge/cmd/shareforge/cli"
	"github.com/prabhat-suresh/shareforge/lib/version"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	// Handle --version before dispatch.
	for _, argument := range args {
		if argument == "--version" {
			fmt.Printf("shareforge %s\n", version.Info())
			return 0
		}
	}

	root := &cli.Command{
		Name:    "shareforge",
		Summary: "compile declarative fragments into file-sharing service artifacts",
		Description: "shareforge merges predicate-gated configuration fragments into one\n" +
			"resolved configuration, validates it, and emits the generated\n" +
			"configuration document plus dependency-ordered service unit\n" +
			"definitions for the nmbd, winbindd, and smbd daemons.",
		Subcommands: []*cli.Command{
			buildCommand(),
			checkCommand(),
			schemaCommand(),
			versionCommand(),
		},
	}

	if err := root.Execute(args); err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode()
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:    "version",
		Summary: "print detailed version information",
		Run: func([]string) error {
			fmt.Println(version.Full())
			return nil
		},
	}
}

// newLogger builds the diagnostic logger. Verbose enables debug
// records (option migrations, scalar overrides).
func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
