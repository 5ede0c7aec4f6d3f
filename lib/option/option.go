// Copyright 2026 The Shareforge Authors
// SPDX-License-Identifier: Apache-2.0

// Package option declares the schema of recognized configuration
// options: for every option its path, declared type, default value,
// and migration status (live, renamed, or removed with an explanatory
// message).
//
// A Schema is built once at process start from a literal option table
// and is immutable afterward. Construction fails fast on conflicting
// declarations, so a schema that exists is internally consistent.
// Compilations share the schema freely; nothing registers options at
// runtime.
package option

import (
	"fmt"
	"sort"
	"strings"

	"github.com/prabhat-suresh/shareforge/lib/confval"
)

// Path is the ordered segment sequence naming an option, for example
// {"nmbd", "enable"}. The dotted text form is used in fragment files
// and error messages.
type Path []string

// ParsePath splits a dotted path into segments. Empty segments are
// not valid.
func ParsePath(dotted string) (Path, error) {
	if dotted == "" {
		return nil, fmt.Errorf("empty option path")
	}
	segments := strings.Split(dotted, ".")
	for _, s := range segments {
		if s == "" {
			return nil, fmt.Errorf("option path %q has an empty segment", dotted)
		}
	}
	return Path(segments), nil
}

// String returns the dotted form.
func (p Path) String() string { return strings.Join(p, ".") }

// Equal reports whether two paths have identical segments.
func (p Path) Equal(other Path) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// Type is an option's declared value type. It selects the combination
// rule the merge engine applies when several fragments assign to the
// same path.
type Type int

const (
	// TypeBool is a boolean scalar; later fragments override earlier.
	TypeBool Type = iota + 1
	// TypeString is a string scalar; later fragments override earlier.
	TypeString
	// TypeStringList is an ordered list of strings; fragment
	// contributions concatenate in declaration order.
	TypeStringList
	// TypeAttrs is a free-form nested map; fragment contributions
	// deep-merge, right-biased per key.
	TypeAttrs
)

// String returns the type name used in error messages.
func (t Type) String() string {
	switch t {
	case TypeBool:
		return "bool"
	case TypeString:
		return "string"
	case TypeStringList:
		return "list of strings"
	case TypeAttrs:
		return "attribute set"
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// Option declares one configuration key. Options are immutable once
// the schema holding them is built.
type Option struct {
	// Path names the option.
	Path Path
	// Type selects the merge combination rule and the accepted value
	// shape.
	Type Type
	// Default is the value used when no fragment assigns the option.
	// It must conform to Type.
	Default confval.Value
	// Description is operator-facing documentation.
	Description string
}

// Rename redirects a legacy path to its current declaration.
type Rename struct {
	// From is the legacy path as authored in old fragments.
	From Path
	// To is the live option path that replaces it.
	To Path
}

// Removal rejects a retired path with an explanation authored by the
// schema maintainer.
type Removal struct {
	// Path is the retired option path.
	Path Path
	// Message tells the operator what to do instead. It is surfaced
	// verbatim in the compilation failure.
	Message string
}

// ConflictError reports an inconsistency detected while building a
// schema: duplicate declarations, a rename pointing at an undeclared
// option, or a legacy path colliding with a live one. It is only ever
// produced at schema construction, never during a compilation.
type ConflictError struct {
	Detail string
}

func (e *ConflictError) Error() string {
	return "schema conflict: " + e.Detail
}

// RemovedError reports that a compilation referenced a removed
// option. Message is the schema author's explanation.
type RemovedError struct {
	Path    Path
	Message string
}

func (e *RemovedError) Error() string {
	return fmt.Sprintf("option %s has been removed: %s", e.Path, e.Message)
}

// Schema is the read-only option table shared by all compilations.
type Schema struct {
	options map[string]Option
	renamed map[string]Path
	removed map[string]string
}

// New builds a schema from option, rename, and removal declarations.
// It fails with a *ConflictError when:
//   - two options declare the same path (even with identical types),
//   - an option default does not conform to its declared type,
//   - a rename source or removal path collides with a live option,
//   - a rename target is not a declared option, or
//   - the same legacy path is both renamed and removed.
func New(options []Option, renames []Rename, removals []Removal) (*Schema, error) {
	s := &Schema{
		options: make(map[string]Option, len(options)),
		renamed: make(map[string]Path, len(renames)),
		removed: make(map[string]string, len(removals)),
	}

	for _, opt := range options {
		key := opt.Path.String()
		if len(opt.Path) == 0 {
			return nil, &ConflictError{Detail: "option with empty path"}
		}
		if _, dup := s.options[key]; dup {
			return nil, &ConflictError{Detail: fmt.Sprintf("option %s declared twice", key)}
		}
		if err := CheckShape(opt.Type, opt.Default); err != nil {
			return nil, &ConflictError{Detail: fmt.Sprintf("option %s default: %v", key, err)}
		}
		s.options[key] = opt
	}

	for _, r := range renames {
		from := r.From.String()
		if _, live := s.options[from]; live {
			return nil, &ConflictError{Detail: fmt.Sprintf("rename source %s is a live option", from)}
		}
		if _, dup := s.renamed[from]; dup {
			return nil, &ConflictError{Detail: fmt.Sprintf("path %s renamed twice", from)}
		}
		if _, ok := s.options[r.To.String()]; !ok {
			return nil, &ConflictError{Detail: fmt.Sprintf("rename %s points at undeclared option %s", from, r.To)}
		}
		s.renamed[from] = r.To
	}

	for _, r := range removals {
		key := r.Path.String()
		if _, live := s.options[key]; live {
			return nil, &ConflictError{Detail: fmt.Sprintf("removed path %s is a live option", key)}
		}
		if _, ren := s.renamed[key]; ren {
			return nil, &ConflictError{Detail: fmt.Sprintf("path %s is both renamed and removed", key)}
		}
		if _, dup := s.removed[key]; dup {
			return nil, &ConflictError{Detail: fmt.Sprintf("path %s removed twice", key)}
		}
		s.removed[key] = r.Message
	}

	return s, nil
}

// MustNew is New for literal schemas wired at program start, where a
// conflict is a programming error.
func MustNew(options []Option, renames []Rename, removals []Removal) *Schema {
	s, err := New(options, renames, removals)
	if err != nil {
		panic(err)
	}
	return s
}

// Lookup returns the option declared at path.
func (s *Schema) Lookup(path Path) (Option, bool) {
	opt, ok := s.options[path.String()]
	return opt, ok
}

// Options returns all declared options sorted by path. The slice is
// freshly allocated on each call.
func (s *Schema) Options() []Option {
	out := make([]Option, 0, len(s.options))
	for _, opt := range s.options {
		out = append(out, opt)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Path.String() < out[j].Path.String()
	})
	return out
}

// Renames returns the migration table's renames sorted by source
// path. Used to document the schema.
func (s *Schema) Renames() []Rename {
	out := make([]Rename, 0, len(s.renamed))
	for from, to := range s.renamed {
		fromPath, _ := ParsePath(from)
		out = append(out, Rename{From: fromPath, To: to})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].From.String() < out[j].From.String()
	})
	return out
}

// Removals returns the migration table's removals sorted by path.
func (s *Schema) Removals() []Removal {
	out := make([]Removal, 0, len(s.removed))
	for key, message := range s.removed {
		path, _ := ParsePath(key)
		out = append(out, Removal{Path: path, Message: message})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Path.String() < out[j].Path.String()
	})
	return out
}

// CheckShape verifies that value conforms to the declared type: a
// bool for TypeBool, a string for TypeString, a list whose elements
// are all strings for TypeStringList, and a map for TypeAttrs.
func CheckShape(t Type, value confval.Value) error {
	switch t {
	case TypeBool:
		if value.Kind() != confval.KindBool {
			return fmt.Errorf("expected bool, got %s", value.Kind())
		}
	case TypeString:
		if value.Kind() != confval.KindString {
			return fmt.Errorf("expected string, got %s", value.Kind())
		}
	case TypeStringList:
		if _, err := value.StringElems(); err != nil {
			return fmt.Errorf("expected list of strings: %w", err)
		}
	case TypeAttrs:
		if value.Kind() != confval.KindMap {
			return fmt.Errorf("expected attribute set, got %s", value.Kind())
		}
	default:
		return fmt.Errorf("unknown option type %s", t)
	}
	return nil
}
