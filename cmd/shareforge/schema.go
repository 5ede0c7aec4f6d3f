// Copyright 2026 The Shareforge Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/prabhat-suresh/shareforge/cmd/shareforge/cli"
	"github.com/prabhat-suresh/shareforge/lib/samba"
)

func schemaCommand() *cli.Command {
	return &cli.Command{
		Name:    "schema",
		Summary: "list every recognized option and the migration table",
		Description: "Print the option schema: each option's path, type, default, and\n" +
			"description, followed by the renamed and removed legacy paths.",
		Run: func([]string) error {
			schema := samba.Schema()

			tw := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
			fmt.Fprintln(tw, "OPTION\tTYPE\tDEFAULT\tDESCRIPTION")
			for _, opt := range schema.Options() {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
					opt.Path, opt.Type, opt.Default.GoString(), opt.Description)
			}
			tw.Flush()

			renames := schema.Renames()
			removals := schema.Removals()
			if len(renames)+len(removals) == 0 {
				return nil
			}

			fmt.Println("\nMigrations:")
			for _, rename := range renames {
				fmt.Printf("  %s -> %s (renamed)\n", rename.From, rename.To)
			}
			for _, removal := range removals {
				fmt.Printf("  %s (removed: %s)\n", removal.Path, removal.Message)
			}
			return nil
		},
	}
}
