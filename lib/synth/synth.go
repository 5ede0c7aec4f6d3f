// Copyright 2026 The Shareforge Authors
// SPDX-License-Identifier: Apache-2.0

// Package synth lowers a validated, resolved configuration into the
// two operating artifacts: the rendered configuration document and
// the dependency-ordered set of service unit definitions. Both
// lowering steps are pure functions of the resolved tree — no I/O,
// no clock, no randomness — so identical input always produces
// byte-identical artifacts.
package synth

import (
	"fmt"
	"path"

	"github.com/prabhat-suresh/shareforge/lib/confval"
	"github.com/prabhat-suresh/shareforge/lib/fingerprint"
	"github.com/prabhat-suresh/shareforge/lib/inifile"
	"github.com/prabhat-suresh/shareforge/lib/option"
	"github.com/prabhat-suresh/shareforge/lib/unit"
)

// networkTarget is the network-availability unit every role is
// ordered after.
const networkTarget = "network.target"

// enableTarget is the target that pulls enabled roles in at boot.
const enableTarget = "multi-user.target"

// Config is the read view of a resolved configuration tree. The
// compiler's resolved result implements it; every declared option is
// present (defaults are filled during the merge), so a missing path
// here indicates a plan/schema mismatch and synthesis fails.
type Config interface {
	// Value returns the resolved value at path.
	Value(path option.Path) (confval.Value, bool)
}

// Role declares one daemon the synthesizer can emit a unit for.
type Role struct {
	// Name is the emitted unit name.
	Name string

	// Daemon is the binary name under the configured binary
	// directory.
	Daemon string

	// Description becomes the unit description.
	Description string

	// EnablePath is the boolean option gating this role. The role is
	// emitted only when it resolves true AND the plan's overall
	// enable option resolves true.
	EnablePath option.Path

	// ExtraArgsPath is the string-list option of operator-supplied
	// arguments appended to the base invocation.
	ExtraArgsPath option.Path

	// Needs names earlier roles this one is ordered after when they
	// are enabled. A disabled needed role is simply absent from the
	// dependency list — never a dangling reference. Because Needs
	// may only name roles declared earlier in the plan, the
	// dependency relation is a fixed partial order and cycles are
	// impossible by construction.
	Needs []string

	// Limits are the role's resource limit properties.
	Limits unit.Limits
}

// Plan fixes the option paths and roles a synthesis run uses. Plans
// are immutable values built once alongside the schema.
type Plan struct {
	// EnablePath is the overall service enable option.
	EnablePath option.Path

	// BinDirPath is the string option holding the daemon binary
	// directory.
	BinDirPath option.Path

	// ConfigPathPath is the string option holding the path the
	// external collaborator writes the document to; the daemons are
	// pointed at it via --configfile.
	ConfigPathPath option.Path

	// PIDDirPath is the string option holding the runtime directory
	// daemons write PID files into.
	PIDDirPath option.Path

	// SettingsPath is the attrs option holding the settings subtree
	// the document is generated from.
	SettingsPath option.Path

	// Roles are the daemon roles, in emission order. Needs may only
	// reference earlier entries.
	Roles []Role
}

// Validate checks the plan's internal consistency: all paths set,
// unique role names, Needs referencing only earlier roles, and
// parseable resource limits.
func (p Plan) Validate() error {
	for name, pth := range map[string]option.Path{
		"enable":     p.EnablePath,
		"binDir":     p.BinDirPath,
		"configPath": p.ConfigPathPath,
		"pidDir":     p.PIDDirPath,
		"settings":   p.SettingsPath,
	} {
		if len(pth) == 0 {
			return fmt.Errorf("plan: %s path not set", name)
		}
	}

	seen := make(map[string]bool, len(p.Roles))
	for _, role := range p.Roles {
		if role.Name == "" || role.Daemon == "" {
			return fmt.Errorf("plan: role with empty name or daemon")
		}
		if seen[role.Name] {
			return fmt.Errorf("plan: role %s declared twice", role.Name)
		}
		for _, need := range role.Needs {
			if !seen[need] {
				return fmt.Errorf("plan: role %s needs %s, which is not declared earlier", role.Name, need)
			}
		}
		if err := role.Limits.Validate(); err != nil {
			return fmt.Errorf("plan: role %s: %w", role.Name, err)
		}
		seen[role.Name] = true
	}
	return nil
}

// Result holds the synthesized artifacts.
type Result struct {
	// Document is the structured configuration document.
	Document inifile.Document

	// DocumentText is the rendered document, byte-for-byte
	// reproducible for identical input.
	DocumentText string

	// Trigger is the document fingerprint carried by every emitted
	// unit as its restart trigger.
	Trigger fingerprint.Digest

	// Units are the enabled roles' unit definitions, in plan order.
	// Disabled roles are omitted entirely.
	Units []unit.Unit
}

// Synthesize lowers config into artifacts according to the plan.
func (p Plan) Synthesize(config Config) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	settings, err := p.attrs(config, p.SettingsPath)
	if err != nil {
		return nil, err
	}
	document, err := inifile.FromValue(settings)
	if err != nil {
		return nil, err
	}
	text := document.Render()
	trigger := fingerprint.Document(text)

	overallEnabled, err := p.boolAt(config, p.EnablePath)
	if err != nil {
		return nil, err
	}
	binDir, err := p.stringAt(config, p.BinDirPath)
	if err != nil {
		return nil, err
	}
	configPath, err := p.stringAt(config, p.ConfigPathPath)
	if err != nil {
		return nil, err
	}
	pidDir, err := p.stringAt(config, p.PIDDirPath)
	if err != nil {
		return nil, err
	}

	enabled := make(map[string]bool, len(p.Roles))
	units := make([]unit.Unit, 0, len(p.Roles))
	for _, role := range p.Roles {
		roleEnabled, err := p.boolAt(config, role.EnablePath)
		if err != nil {
			return nil, err
		}
		enabled[role.Name] = roleEnabled && overallEnabled
		if !enabled[role.Name] {
			continue
		}

		extraArgs, err := p.stringsAt(config, role.ExtraArgsPath)
		if err != nil {
			return nil, err
		}

		after := []string{networkTarget}
		var wants []string
		for _, need := range role.Needs {
			if enabled[need] {
				after = append(after, need)
				wants = append(wants, need)
			}
		}

		args := []string{"--foreground", "--no-process-group", "--configfile=" + configPath}
		args = append(args, extraArgs...)

		units = append(units, unit.Unit{
			Name:           role.Name,
			Description:    role.Description,
			After:          after,
			Wants:          wants,
			WantedBy:       enableTarget,
			ExecPath:       path.Join(binDir, role.Daemon),
			ExecArgs:       args,
			RestartTrigger: trigger.String(),
			Resources:      role.Limits,
			PIDFile:        path.Join(pidDir, role.Daemon+".pid"),
		})
	}

	return &Result{
		Document:     document,
		DocumentText: text,
		Trigger:      trigger,
		Units:        units,
	}, nil
}

func (p Plan) attrs(config Config, pth option.Path) (confval.Value, error) {
	v, ok := config.Value(pth)
	if !ok {
		return confval.Value{}, fmt.Errorf("synthesize: option %s not resolved", pth)
	}
	if v.Kind() != confval.KindMap {
		return confval.Value{}, fmt.Errorf("synthesize: option %s resolved to %s, want map", pth, v.Kind())
	}
	return v, nil
}

func (p Plan) boolAt(config Config, pth option.Path) (bool, error) {
	v, ok := config.Value(pth)
	if !ok {
		return false, fmt.Errorf("synthesize: option %s not resolved", pth)
	}
	b, ok := v.AsBool()
	if !ok {
		return false, fmt.Errorf("synthesize: option %s resolved to %s, want bool", pth, v.Kind())
	}
	return b, nil
}

func (p Plan) stringAt(config Config, pth option.Path) (string, error) {
	v, ok := config.Value(pth)
	if !ok {
		return "", fmt.Errorf("synthesize: option %s not resolved", pth)
	}
	s, ok := v.AsString()
	if !ok {
		return "", fmt.Errorf("synthesize: option %s resolved to %s, want string", pth, v.Kind())
	}
	return s, nil
}

func (p Plan) stringsAt(config Config, pth option.Path) ([]string, error) {
	v, ok := config.Value(pth)
	if !ok {
		return nil, fmt.Errorf("synthesize: option %s not resolved", pth)
	}
	elems, err := v.StringElems()
	if err != nil {
		return nil, fmt.Errorf("synthesize: option %s: %w", pth, err)
	}
	return elems, nil
}
