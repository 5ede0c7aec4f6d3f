// Copyright 2026 The Shareforge Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/prabhat-suresh/shareforge/cmd/shareforge/cli"
	"github.com/prabhat-suresh/shareforge/lib/compile"
)

func checkCommand() *cli.Command {
	var fragmentsDir string
	var flagValues []string
	var verbose bool

	return &cli.Command{
		Name:    "check",
		Summary: "compile fragments and report every failure",
		Description: "Run the full compilation and report all failures — every removed\n" +
			"option, type conflict, and assertion message — without producing\n" +
			"artifacts. Exits 1 when the configuration does not compile.",
		Usage: "shareforge check --fragments <dir> [--flag name[=bool]]...",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("check", pflag.ContinueOnError)
			fs.StringVar(&fragmentsDir, "fragments", "", "directory of fragment files (required)")
			fs.StringArrayVar(&flagValues, "flag", nil, "feature flag, as name or name=false (repeatable)")
			fs.BoolVarP(&verbose, "verbose", "v", false, "log migration and override diagnostics")
			return fs
		},
		Run: func([]string) error {
			result, err := compileFragments(fragmentsDir, flagValues, verbose)
			if err != nil {
				var compileErr *compile.Error
				if errors.As(err, &compileErr) {
					for _, failure := range compileErr.Failures {
						fmt.Fprintf(os.Stderr, "%s: %s\n", failure.Kind, failure.Message)
					}
					return &cli.ExitError{Code: 1}
				}
				return err
			}

			fmt.Printf("ok: %d unit(s), document %d bytes, trigger %s\n",
				len(result.Units), len(result.DocumentText), result.Trigger)
			return nil
		},
	}
}
