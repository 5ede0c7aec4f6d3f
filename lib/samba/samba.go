// Copyright 2026 The Shareforge Authors
// SPDX-License-Identifier: Apache-2.0

// Package samba is the product profile: the option schema, migration
// table, cross-field assertions, and synthesis plan for the Samba
// daemon suite. The three roles are nmbd (NetBIOS name resolution),
// winbindd (directory/identity bridging), and smbd (the file server
// itself). smbd is ordered after both siblings; winbindd after nmbd.
//
// The profile is declarative data over the generic machinery in
// lib/option, lib/compile, and lib/synth; it contains no logic of
// its own beyond the assertion checks.
package samba

import (
	"fmt"
	"path"

	"github.com/prabhat-suresh/shareforge/lib/compile"
	"github.com/prabhat-suresh/shareforge/lib/confval"
	"github.com/prabhat-suresh/shareforge/lib/option"
	"github.com/prabhat-suresh/shareforge/lib/synth"
	"github.com/prabhat-suresh/shareforge/lib/unit"
)

func mustPath(dotted string) option.Path {
	p, err := option.ParsePath(dotted)
	if err != nil {
		panic(err)
	}
	return p
}

// Schema declares every recognized option of the suite. Called once
// at startup; the result is shared by all compilations.
func Schema() *option.Schema {
	options := []option.Option{
		{
			Path:        mustPath("enable"),
			Type:        option.TypeBool,
			Default:     confval.Bool(false),
			Description: "Whether to run the file sharing service at all. Gates every role.",
		},
		{
			Path:        mustPath("binDir"),
			Type:        option.TypeString,
			Default:     confval.String("/usr/sbin"),
			Description: "Directory containing the daemon binaries.",
		},
		{
			Path:        mustPath("configPath"),
			Type:        option.TypeString,
			Default:     confval.String("/etc/samba/smb.conf"),
			Description: "Where the generated configuration document is written; daemons are pointed at it.",
		},
		{
			Path:        mustPath("pidDir"),
			Type:        option.TypeString,
			Default:     confval.String("/run/samba"),
			Description: "Runtime directory daemons write their PID files into.",
		},
		{
			Path:        mustPath("settings"),
			Type:        option.TypeAttrs,
			Default:     confval.Map(nil),
			Description: "The configuration document content: section name to key/value settings. The global section holds server-wide settings; every other section defines a share.",
		},
		{
			Path:        mustPath("nmbd.enable"),
			Type:        option.TypeBool,
			Default:     confval.Bool(true),
			Description: "Whether to run nmbd, the NetBIOS name server.",
		},
		{
			Path:        mustPath("nmbd.extraArgs"),
			Type:        option.TypeStringList,
			Default:     confval.Strings(),
			Description: "Additional arguments passed to nmbd, after the base invocation.",
		},
		{
			Path:        mustPath("smbd.enable"),
			Type:        option.TypeBool,
			Default:     confval.Bool(true),
			Description: "Whether to run smbd, the file server.",
		},
		{
			Path:        mustPath("smbd.extraArgs"),
			Type:        option.TypeStringList,
			Default:     confval.Strings(),
			Description: "Additional arguments passed to smbd, after the base invocation.",
		},
		{
			Path:        mustPath("winbindd.enable"),
			Type:        option.TypeBool,
			Default:     confval.Bool(true),
			Description: "Whether to run winbindd, the directory/identity bridge.",
		},
		{
			Path:        mustPath("winbindd.extraArgs"),
			Type:        option.TypeStringList,
			Default:     confval.Strings(),
			Description: "Additional arguments passed to winbindd, after the base invocation.",
		},
	}

	renames := []option.Rename{
		{From: mustPath("enableNmbd"), To: mustPath("nmbd.enable")},
		{From: mustPath("enableWinbindd"), To: mustPath("winbindd.enable")},
	}

	removals := []option.Removal{
		{
			Path:    mustPath("extraConfig"),
			Message: "free-form config text is no longer merged; set structured keys under the settings option instead",
		},
		{
			Path:    mustPath("syncPasswordsByPam"),
			Message: "PAM password synchronization was removed upstream and has no replacement",
		},
	}

	return option.MustNew(options, renames, removals)
}

// Assertions are the cross-field checks gating synthesis.
func Assertions() []compile.Assertion {
	return []compile.Assertion{
		{
			Name: "nmbd-netbios",
			Check: func(r *compile.Resolved) []string {
				if !r.Bool("nmbd.enable") {
					return nil
				}
				v, ok := r.Attr("settings", "global", "disable netbios")
				if !ok {
					return nil
				}
				disabled, _ := v.AsBool()
				if text, ok := v.AsString(); ok && text == "yes" {
					disabled = true
				}
				if disabled {
					return []string{"nmbd.enable is set, but settings.global.\"disable netbios\" turns NetBIOS off; disable one of the two"}
				}
				return nil
			},
		},
		{
			Name: "winbindd-realm",
			Check: func(r *compile.Resolved) []string {
				if !r.Bool("winbindd.enable") {
					return nil
				}
				security, ok := r.Attr("settings", "global", "security")
				if !ok {
					return nil
				}
				mode, _ := security.AsString()
				if mode != "ads" {
					return nil
				}
				if _, ok := r.Attr("settings", "global", "realm"); !ok {
					return []string{"security = ads requires settings.global.realm when winbindd is enabled"}
				}
				return nil
			},
		},
		{
			Name: "share-paths",
			Check: func(r *compile.Resolved) []string {
				settings, ok := r.Value(mustPath("settings"))
				if !ok {
					return nil
				}
				var failures []string
				for _, section := range settings.SortedKeys() {
					if section == "global" {
						continue
					}
					share, _ := settings.Get(section)
					sharePath, ok := share.Get("path")
					if !ok {
						failures = append(failures, fmt.Sprintf("share %q does not set a path", section))
						continue
					}
					text, isString := sharePath.AsString()
					if !isString || !path.IsAbs(text) {
						failures = append(failures, fmt.Sprintf("share %q path must be an absolute path string", section))
					}
				}
				return failures
			},
		},
	}
}

// Plan fixes the three roles and their partial order.
func Plan() synth.Plan {
	return synth.Plan{
		EnablePath:     mustPath("enable"),
		BinDirPath:     mustPath("binDir"),
		ConfigPathPath: mustPath("configPath"),
		PIDDirPath:     mustPath("pidDir"),
		SettingsPath:   mustPath("settings"),
		Roles: []synth.Role{
			{
				Name:          "nmbd",
				Daemon:        "nmbd",
				Description:   "NetBIOS name server",
				EnablePath:    mustPath("nmbd.enable"),
				ExtraArgsPath: mustPath("nmbd.extraArgs"),
			},
			{
				Name:          "winbindd",
				Daemon:        "winbindd",
				Description:   "Directory and identity bridging daemon",
				EnablePath:    mustPath("winbindd.enable"),
				ExtraArgsPath: mustPath("winbindd.extraArgs"),
				Needs:         []string{"nmbd"},
			},
			{
				Name:          "smbd",
				Daemon:        "smbd",
				Description:   "File sharing server",
				EnablePath:    mustPath("smbd.enable"),
				ExtraArgsPath: mustPath("smbd.extraArgs"),
				Needs:         []string{"nmbd", "winbindd"},
				Limits:        unit.Limits{OpenFilesMax: 16384},
			},
		},
	}
}

// NewCompiler wires the profile into a ready compiler. Extra options
// (a logger, additional assertions) are applied after the profile's
// own assertions.
func NewCompiler(opts ...compile.CompilerOption) *compile.Compiler {
	all := append([]compile.CompilerOption{compile.WithAssertions(Assertions()...)}, opts...)
	return compile.New(Schema(), Plan(), all...)
}
