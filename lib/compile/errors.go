// Copyright 2026 The Shareforge Authors
// SPDX-License-Identifier: Apache-2.0

package compile

import (
	"fmt"
	"strings"
)

// FailureKind classifies a compilation failure.
type FailureKind string

const (
	// FailureRemovedOption: a fragment referenced an option retired
	// from the schema. The message is the schema author's
	// explanation.
	FailureRemovedOption FailureKind = "removed-option"

	// FailureUnknownOption: a true-predicate fragment assigned a
	// path no option declares.
	FailureUnknownOption FailureKind = "unknown-option"

	// FailureTypeConflict: an assigned value's shape disagrees with
	// the option's declared type, or a deep merge hit a map/non-map
	// collision.
	FailureTypeConflict FailureKind = "type-conflict"

	// FailureAssertion: a cross-field assertion over the resolved
	// configuration failed.
	FailureAssertion FailureKind = "assertion"
)

// Failure is one (kind, message) pair of the failure surface.
type Failure struct {
	Kind    FailureKind `json:"kind"`
	Message string      `json:"message"`
}

// Error is the terminal failure of a compilation pass. It carries
// every failure detected in the stage that aborted the pass — all
// removed options, all type conflicts, or all assertion messages —
// never just the first, so one pass surfaces everything the operator
// must fix. No partial artifacts accompany an Error.
type Error struct {
	Failures []Failure
}

func (e *Error) Error() string {
	if len(e.Failures) == 1 {
		f := e.Failures[0]
		return fmt.Sprintf("compilation failed: %s: %s", f.Kind, f.Message)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "compilation failed with %d errors:", len(e.Failures))
	for _, f := range e.Failures {
		fmt.Fprintf(&sb, "\n  %s: %s", f.Kind, f.Message)
	}
	return sb.String()
}

// HasKind reports whether any failure has the given kind.
func (e *Error) HasKind(kind FailureKind) bool {
	for _, f := range e.Failures {
		if f.Kind == kind {
			return true
		}
	}
	return false
}
