// Copyright 2026 The Shareforge Authors
// SPDX-License-Identifier: Apache-2.0

// Package compile implements the compilation pipeline that turns an
// ordered list of configuration fragments into operating artifacts:
//
//	Normalize → Merge → Assert → Synthesize
//
// The pipeline is strict: each stage runs only if the previous one
// succeeded, a failing stage reports every failure it found, and no
// partial artifacts are ever produced. Compilation is a pure
// transformation with no I/O and no state shared between passes
// beyond the immutable schema, so concurrent compilations with
// different inputs need no locking.
package compile

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/prabhat-suresh/shareforge/lib/confval"
	"github.com/prabhat-suresh/shareforge/lib/fingerprint"
	"github.com/prabhat-suresh/shareforge/lib/fragment"
	"github.com/prabhat-suresh/shareforge/lib/inifile"
	"github.com/prabhat-suresh/shareforge/lib/option"
	"github.com/prabhat-suresh/shareforge/lib/synth"
	"github.com/prabhat-suresh/shareforge/lib/unit"
)

// Flags are the external feature flags predicates may observe.
// Absent flags read as false.
type Flags map[string]bool

// Override records a scalar option silently overridden by a later
// fragment. Last-wins is the intended layering model (a
// site-specific fragment overriding a baseline), but each override
// is recorded so the embedding system can surface it if it wants to.
type Override struct {
	// Path is the overridden option.
	Path option.Path
	// PreviousFragment contributed the value that was replaced.
	PreviousFragment string
	// Fragment contributed the winning value.
	Fragment string
}

// Result is a successful compilation: the resolved configuration and
// both artifacts, plus the diagnostics gathered along the way.
type Result struct {
	// Config is the resolved configuration tree.
	Config *Resolved

	// Document is the generated configuration document.
	Document inifile.Document

	// DocumentText is its rendered form; identical input compiles
	// to byte-identical text.
	DocumentText string

	// Units are the enabled service unit definitions in role order.
	Units []unit.Unit

	// Trigger is the document fingerprint every unit carries as its
	// restart trigger.
	Trigger fingerprint.Digest

	// ConfigDigest fingerprints the whole resolved tree.
	ConfigDigest fingerprint.Digest

	// Renames lists legacy option paths that were migrated.
	Renames []option.RenameNote

	// Overrides lists scalar options assigned by more than one
	// applicable fragment.
	Overrides []Override
}

// Compiler runs compilation passes against one immutable schema,
// assertion set, and synthesis plan. A Compiler is safe for
// concurrent use.
type Compiler struct {
	schema     *option.Schema
	plan       synth.Plan
	assertions []Assertion
	logger     *slog.Logger
}

// CompilerOption configures a Compiler.
type CompilerOption func(*Compiler)

// WithAssertions registers cross-field assertions, evaluated in
// registration order.
func WithAssertions(assertions ...Assertion) CompilerOption {
	return func(c *Compiler) {
		c.assertions = append(c.assertions, assertions...)
	}
}

// WithLogger sets the diagnostic logger. Diagnostics (renames,
// overrides) never affect compilation output.
func WithLogger(logger *slog.Logger) CompilerOption {
	return func(c *Compiler) {
		c.logger = logger
	}
}

// New builds a Compiler. The plan must be valid for the schema; an
// invalid plan surfaces as an error from Compile.
func New(schema *option.Schema, plan synth.Plan, opts ...CompilerOption) *Compiler {
	c := &Compiler{
		schema: schema,
		plan:   plan,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile runs one pass over the fragments. On failure it returns a
// *Error carrying every (kind, message) failure from the aborting
// stage; the *Result is nil in that case — never partially filled.
func (c *Compiler) Compile(fragments []fragment.Fragment, flags Flags) (*Result, error) {
	// Stage 1: migrate every path of every fragment, predicate
	// regardless — removed options must fail the pass even if the
	// fragment that names them would not have applied.
	normalized, renames, failures := c.normalize(fragments)
	if len(failures) > 0 {
		return nil, &Error{Failures: failures}
	}

	// Stage 2: fold fragments into the resolved tree.
	resolved, overrides, failures := c.merge(normalized, flags)
	if len(failures) > 0 {
		return nil, &Error{Failures: failures}
	}

	// Stage 3: cross-field assertions, all collected.
	if failures := evaluateAssertions(c.assertions, resolved); len(failures) > 0 {
		return nil, &Error{Failures: failures}
	}

	// Stage 4: lower into artifacts. A settings tree that merged
	// cleanly can still be unrepresentable in the document format
	// (maps nested below section level); that is operator input and
	// joins the failure list. Anything else from synthesis is a
	// plan/schema wiring bug and surfaces as a plain error.
	artifacts, err := c.plan.Synthesize(resolved)
	if err != nil {
		var shapeErr *inifile.ShapeError
		if errors.As(err, &shapeErr) {
			return nil, &Error{Failures: []Failure{{
				Kind:    FailureTypeConflict,
				Message: fmt.Sprintf("settings: %v", shapeErr),
			}}}
		}
		return nil, fmt.Errorf("synthesis: %w", err)
	}

	configDigest, err := fingerprint.Tree(resolved.Tree())
	if err != nil {
		return nil, fmt.Errorf("fingerprinting resolved tree: %w", err)
	}

	return &Result{
		Config:       resolved,
		Document:     artifacts.Document,
		DocumentText: artifacts.DocumentText,
		Units:        artifacts.Units,
		Trigger:      artifacts.Trigger,
		ConfigDigest: configDigest,
		Renames:      renames,
		Overrides:    overrides,
	}, nil
}

// normalize rewrites legacy paths across all fragments and collects
// every removed-option failure. Migration runs exactly once per path
// per pass; Schema.Normalize is idempotent so re-normalizing an
// already-canonical path would be a no-op anyway.
func (c *Compiler) normalize(fragments []fragment.Fragment) ([]fragment.Fragment, []option.RenameNote, []Failure) {
	var renames []option.RenameNote
	var failures []Failure

	normalized := make([]fragment.Fragment, len(fragments))
	for i, frag := range fragments {
		out := frag
		out.Set = make([]fragment.Assignment, len(frag.Set))
		for j, assignment := range frag.Set {
			canonical, note, err := c.schema.Normalize(assignment.Path)
			if err != nil {
				failures = append(failures, Failure{
					Kind:    FailureRemovedOption,
					Message: fmt.Sprintf("fragment %s: %v", frag.Name, err),
				})
				continue
			}
			if note != nil {
				note.Fragment = frag.Name
				renames = append(renames, *note)
				c.logger.Debug("migrated renamed option",
					"fragment", frag.Name, "from", note.From.String(), "to", note.To.String())
			}
			out.Set[j] = fragment.Assignment{Path: canonical, Value: assignment.Value}
		}
		normalized[i] = out
	}
	return normalized, renames, failures
}

// merge folds the fragments in declaration order. Each fragment's
// predicate observes the external flags plus the values resolved
// from earlier fragments (later fragments have not contributed yet).
// A false predicate skips the fragment entirely — its assignments
// are not even type-checked.
func (c *Compiler) merge(fragments []fragment.Fragment, flags Flags) (*Resolved, []Override, []Failure) {
	resolved := newResolved(c.schema)
	var overrides []Override
	var failures []Failure

	// Which fragment last assigned each scalar path. Defaults do not
	// count as assignments, so overriding a default is not an
	// override diagnostic.
	lastAssigned := make(map[string]string)

	env := fragment.NewEnv(flags, resolved.Value)
	for _, frag := range fragments {
		if !frag.Applies(env) {
			continue
		}

		for _, assignment := range frag.Set {
			opt, known := c.schema.Lookup(assignment.Path)
			if !known {
				failures = append(failures, Failure{
					Kind:    FailureUnknownOption,
					Message: fmt.Sprintf("fragment %s: unknown option %s", frag.Name, assignment.Path),
				})
				continue
			}
			if err := option.CheckShape(opt.Type, assignment.Value); err != nil {
				failures = append(failures, Failure{
					Kind:    FailureTypeConflict,
					Message: fmt.Sprintf("fragment %s: option %s: %v", frag.Name, assignment.Path, err),
				})
				continue
			}

			key := assignment.Path.String()
			current, _ := resolved.Value(assignment.Path)

			switch opt.Type {
			case option.TypeBool, option.TypeString:
				if previous, assigned := lastAssigned[key]; assigned {
					overrides = append(overrides, Override{
						Path:             assignment.Path,
						PreviousFragment: previous,
						Fragment:         frag.Name,
					})
					c.logger.Debug("scalar option overridden",
						"option", key, "previous", previous, "fragment", frag.Name)
				}
				resolved.set(assignment.Path, assignment.Value)
				lastAssigned[key] = frag.Name

			case option.TypeStringList:
				combined, err := confval.AppendLists(current, assignment.Value)
				if err != nil {
					// CheckShape guarantees both sides are lists.
					panic("compile: list concatenation failed: " + err.Error())
				}
				resolved.set(assignment.Path, combined)

			case option.TypeAttrs:
				merged, err := confval.MergeMaps(current, assignment.Value)
				if err != nil {
					failures = append(failures, Failure{
						Kind:    FailureTypeConflict,
						Message: fmt.Sprintf("fragment %s: option %s: %v", frag.Name, assignment.Path, err),
					})
					continue
				}
				resolved.set(assignment.Path, merged)
			}
		}
	}
	return resolved, overrides, failures
}
