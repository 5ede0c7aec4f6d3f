// Copyright 2026 The Shareforge Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"

	"github.com/prabhat-suresh/shareforge/cmd/shareforge/cli"
	"github.com/prabhat-suresh/shareforge/lib/compile"
	"github.com/prabhat-suresh/shareforge/lib/fragment"
	"github.com/prabhat-suresh/shareforge/lib/samba"
	"github.com/prabhat-suresh/shareforge/lib/unit"
)

// buildOutput is the JSON shape handed to the collaborator that
// applies artifacts to the system.
type buildOutput struct {
	Document     string        `json:"document"`
	ConfigDigest string        `json:"configDigest"`
	Units        []unit.Unit   `json:"units"`
	Renames      []renameNote  `json:"renames,omitempty"`
	Overrides    []overrideRec `json:"overrides,omitempty"`
}

type renameNote struct {
	Fragment string `json:"fragment"`
	From     string `json:"from"`
	To       string `json:"to"`
}

type overrideRec struct {
	Option           string `json:"option"`
	PreviousFragment string `json:"previousFragment"`
	Fragment         string `json:"fragment"`
}

func buildCommand() *cli.Command {
	var fragmentsDir string
	var flagValues []string
	var output string
	var outDir string
	var verbose bool

	return &cli.Command{
		Name:    "build",
		Summary: "compile fragments and print the artifacts",
		Description: "Load every fragment file in the fragments directory (sorted file\n" +
			"name order is declaration order), compile, and print the artifacts.",
		Usage: "shareforge build --fragments <dir> [--flag name[=bool]]... [--output json|document|units]",
		Examples: []cli.Example{
			{
				Description: "Compile a fragment directory with the service enabled",
				Command:     "shareforge build --fragments /etc/shareforge/conf.d --flag serverEnabled",
			},
			{
				Description: "Print only the generated configuration document",
				Command:     "shareforge build --fragments ./conf.d --output document",
			},
		},
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("build", pflag.ContinueOnError)
			fs.StringVar(&fragmentsDir, "fragments", "", "directory of fragment files (required)")
			fs.StringArrayVar(&flagValues, "flag", nil, "feature flag, as name or name=false (repeatable)")
			fs.StringVar(&output, "output", "json", "output form: json, document, or units")
			fs.StringVar(&outDir, "out-dir", "", "write the document and unit files into this directory instead of stdout")
			fs.BoolVarP(&verbose, "verbose", "v", false, "log migration and override diagnostics")
			return fs
		},
		Run: func([]string) error {
			result, err := compileFragments(fragmentsDir, flagValues, verbose)
			if err != nil {
				return err
			}

			if outDir != "" {
				return writeArtifacts(outDir, result)
			}

			switch output {
			case "document":
				fmt.Print(result.DocumentText)
				return nil
			case "units":
				return printJSON(result.Units)
			case "json":
				out := buildOutput{
					Document:     result.DocumentText,
					ConfigDigest: result.ConfigDigest.String(),
					Units:        result.Units,
				}
				for _, r := range result.Renames {
					out.Renames = append(out.Renames, renameNote{
						Fragment: r.Fragment,
						From:     r.From.String(),
						To:       r.To.String(),
					})
				}
				for _, o := range result.Overrides {
					out.Overrides = append(out.Overrides, overrideRec{
						Option:           o.Path.String(),
						PreviousFragment: o.PreviousFragment,
						Fragment:         o.Fragment,
					})
				}
				return printJSON(out)
			}
			return fmt.Errorf("unknown output form %q (want json, document, or units)", output)
		},
	}
}

// compileFragments is the shared load-and-compile path for build and
// check.
func compileFragments(dir string, flagValues []string, verbose bool) (*compile.Result, error) {
	if dir == "" {
		return nil, fmt.Errorf("--fragments is required")
	}

	fragments, err := fragment.LoadDir(dir)
	if err != nil {
		return nil, err
	}

	flags, err := parseFlags(flagValues)
	if err != nil {
		return nil, err
	}

	compiler := samba.NewCompiler(compile.WithLogger(newLogger(verbose)))
	return compiler.Compile(fragments, flags)
}

// parseFlags converts --flag arguments into the compilation's
// feature flags. A bare name sets the flag; name=true/false sets it
// explicitly.
func parseFlags(values []string) (compile.Flags, error) {
	flags := make(compile.Flags, len(values))
	for _, value := range values {
		name, text, found := strings.Cut(value, "=")
		if name == "" {
			return nil, fmt.Errorf("invalid --flag %q", value)
		}
		if !found {
			flags[name] = true
			continue
		}
		switch text {
		case "true":
			flags[name] = true
		case "false":
			flags[name] = false
		default:
			return nil, fmt.Errorf("invalid --flag %q (value must be true or false)", value)
		}
	}
	return flags, nil
}

// writeArtifacts lays the compiled artifacts out on disk: the
// document as smb.conf and one <name>.unit.json per enabled role.
func writeArtifacts(dir string, result *compile.Result) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, "smb.conf"), []byte(result.DocumentText), 0o644); err != nil {
		return err
	}
	for _, u := range result.Units {
		data, err := json.MarshalIndent(u, "", "  ")
		if err != nil {
			return err
		}
		name := u.Name + ".unit.json"
		if err := os.WriteFile(filepath.Join(dir, name), append(data, '\n'), 0o644); err != nil {
			return err
		}
	}
	return nil
}

func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
