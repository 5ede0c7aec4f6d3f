// Copyright 2026 The Shareforge Authors
// SPDX-License-Identifier: Apache-2.0

// Package fragment defines the unit of configuration authoring: a
// predicate-gated partial tree of option assignments. Independent
// sources each contribute fragments; the compiler folds them into one
// resolved configuration using per-type combination rules.
//
// Fragments can be constructed programmatically or loaded from YAML
// and JSONC files (see loader.go). Declaration order is significant:
// it is the tie-break for scalar overrides and the concatenation
// order for list options.
package fragment

import (
	"github.com/prabhat-suresh/shareforge/lib/confval"
	"github.com/prabhat-suresh/shareforge/lib/option"
)

// Assignment binds one option path to a contributed value. Paths may
// be legacy (renamed) forms; the compiler normalizes them before the
// merge.
type Assignment struct {
	Path  option.Path
	Value confval.Value
}

// Fragment is a predicate plus a partial configuration tree. A
// fragment whose predicate evaluates false contributes nothing at
// all: its assignments are neither type-checked nor merged.
type Fragment struct {
	// Name identifies the fragment in diagnostics (for loaded
	// fragments, the file name).
	Name string

	// When gates the fragment. A nil predicate means always true.
	When Predicate

	// Set holds the assignments in authored order.
	Set []Assignment
}

// Applies evaluates the fragment's predicate. A nil predicate applies
// unconditionally.
func (f Fragment) Applies(env Env) bool {
	if f.When == nil {
		return true
	}
	return f.When(env)
}

// Assign is a convenience for building fragments in code: it parses
// the dotted path and appends the assignment, panicking on a
// malformed path (a literal in the caller).
func (f Fragment) Assign(dotted string, value confval.Value) Fragment {
	path, err := option.ParsePath(dotted)
	if err != nil {
		panic(err)
	}
	f.Set = append(f.Set, Assignment{Path: path, Value: value})
	return f
}
