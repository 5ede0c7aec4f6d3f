// Copyright 2026 The Shareforge Authors
// SPDX-License-Identifier: Apache-2.0

// Package unit models the service unit definitions the synthesizer
// emits: name, dependency ordering, exec specification, resource
// limits, and the restart trigger that couples the unit to the
// generated configuration document. Units are plain values —
// regenerated wholesale on every compilation, never mutated — and
// are handed to an external collaborator that registers them with
// the init system.
package unit

import (
	"fmt"
	"strconv"
	"strings"
)

// Unit describes one managed service.
type Unit struct {
	// Name is the unit name, without an extension (e.g. "smbd").
	Name string `json:"name"`

	// Description is the human-readable unit description.
	Description string `json:"description"`

	// After lists units that must be ordered before this one,
	// including the network-availability target and any enabled
	// sibling roles this one depends on. Never contains the name of
	// a unit that is not being emitted.
	After []string `json:"after"`

	// Wants lists units to pull in when this one starts. Mirrors
	// After for sibling roles.
	Wants []string `json:"wants,omitempty"`

	// WantedBy is the target that enables the unit at boot.
	WantedBy string `json:"wantedBy"`

	// ExecPath is the absolute daemon binary path.
	ExecPath string `json:"execPath"`

	// ExecArgs are the daemon arguments in invocation order: the
	// fixed base invocation followed by operator-supplied extras.
	ExecArgs []string `json:"execArgs"`

	// RestartTrigger is the hex fingerprint of the generated
	// configuration document. A changed document changes the trigger
	// of every emitted unit, forcing a coordinated restart.
	RestartTrigger string `json:"restartTrigger"`

	// Resources are the unit's resource limit properties.
	Resources Limits `json:"resources"`

	// PIDFile is where the daemon writes its PID.
	PIDFile string `json:"pidFilePath,omitempty"`
}

// Command returns the full invocation (ExecPath followed by
// ExecArgs) as a single slice.
func (u Unit) Command() []string {
	command := make([]string, 0, len(u.ExecArgs)+1)
	command = append(command, u.ExecPath)
	return append(command, u.ExecArgs...)
}

// Limits defines resource limit properties applied to a unit.
type Limits struct {
	// TasksMax caps the number of tasks (threads). Zero means no
	// limit.
	TasksMax int `json:"tasksMax,omitempty"`

	// MemoryMax caps memory usage, in init-system syntax ("2G",
	// "512M", "infinity"). Empty means no limit.
	MemoryMax string `json:"memoryMax,omitempty"`

	// CPUQuota caps CPU usage as a percentage ("200%"). Empty means
	// no limit.
	CPUQuota string `json:"cpuQuota,omitempty"`

	// OpenFilesMax caps open file descriptors. Zero means the
	// system default. File-serving daemons typically raise this.
	OpenFilesMax int `json:"openFilesMax,omitempty"`
}

// HasLimits reports whether any limit is configured.
func (l Limits) HasLimits() bool {
	return l.TasksMax > 0 || l.MemoryMax != "" || l.CPUQuota != "" || l.OpenFilesMax > 0
}

// Properties renders the configured limits as init-system property
// assignments, in a fixed order.
func (l Limits) Properties() []string {
	var props []string
	if l.TasksMax > 0 {
		props = append(props, fmt.Sprintf("TasksMax=%d", l.TasksMax))
	}
	if l.MemoryMax != "" {
		props = append(props, fmt.Sprintf("MemoryMax=%s", l.MemoryMax))
	}
	if l.CPUQuota != "" {
		props = append(props, fmt.Sprintf("CPUQuota=%s", l.CPUQuota))
	}
	if l.OpenFilesMax > 0 {
		props = append(props, fmt.Sprintf("LimitNOFILE=%d", l.OpenFilesMax))
	}
	return props
}

// Validate checks that the limit strings parse.
func (l Limits) Validate() error {
	if _, err := ParseMemoryLimit(l.MemoryMax); err != nil {
		return err
	}
	if _, err := ParseCPUQuota(l.CPUQuota); err != nil {
		return err
	}
	return nil
}

// memoryUnits maps a limit suffix to its byte multiplier.
var memoryUnits = map[byte]uint64{
	'K': 1024,
	'M': 1024 * 1024,
	'G': 1024 * 1024 * 1024,
	'T': 1024 * 1024 * 1024 * 1024,
}

// ParseMemoryLimit parses a memory limit string (e.g. "2G", "512M").
// Returns the value in bytes, or 0 for unlimited/empty/"infinity".
// Negative values are rejected.
func ParseMemoryLimit(s string) (uint64, error) {
	if s == "" {
		return 0, nil
	}

	s = strings.TrimSpace(s)
	if s == "infinity" {
		return 0, nil
	}

	var multiplier uint64 = 1
	numStr := s
	if len(s) > 0 {
		if m, ok := memoryUnits[s[len(s)-1]]; ok {
			multiplier = m
			numStr = s[:len(s)-1]
		}
	}

	value, err := strconv.ParseUint(numStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid memory limit %q: %w", s, err)
	}
	return value * multiplier, nil
}

// ParseCPUQuota parses a CPU quota string (e.g. "200%", "100%").
// Returns the percentage as an integer, or 0 for unlimited/empty.
// Negative values are rejected.
func ParseCPUQuota(s string) (int, error) {
	if s == "" {
		return 0, nil
	}

	s = strings.TrimSpace(s)
	if s == "infinity" {
		return 0, nil
	}

	s = strings.TrimSuffix(s, "%")

	value, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid CPU quota %q: %w", s, err)
	}
	if value < 0 {
		return 0, fmt.Errorf("invalid CPU quota %q: must not be negative", s)
	}
	return value, nil
}
