// Copyright 2026 The Shareforge Authors
// SPDX-License-Identifier: Apache-2.0

package compile

import (
	"github.com/prabhat-suresh/shareforge/lib/confval"
	"github.com/prabhat-suresh/shareforge/lib/option"
)

// Resolved is the configuration tree after all applicable fragments
// have been merged. Every declared option is present — the merge
// seeds the tree with schema defaults before folding fragments — and
// every value conforms to its option's declared type. Resolved
// values are read-only; assertions and the synthesizer consume them,
// nothing mutates them.
type Resolved struct {
	schema *option.Schema
	values map[string]confval.Value
}

func newResolved(schema *option.Schema) *Resolved {
	r := &Resolved{
		schema: schema,
		values: make(map[string]confval.Value),
	}
	for _, opt := range schema.Options() {
		r.values[opt.Path.String()] = opt.Default
	}
	return r
}

// Value returns the resolved value at path. It also satisfies the
// synthesizer's config view.
func (r *Resolved) Value(path option.Path) (confval.Value, bool) {
	v, ok := r.values[path.String()]
	return v, ok
}

// Bool returns the bool at the dotted path, or false when the path
// is absent or not a bool. Convenience for assertions.
func (r *Resolved) Bool(dotted string) bool {
	v, ok := r.values[dotted]
	if !ok {
		return false
	}
	b, _ := v.AsBool()
	return b
}

// String returns the string at the dotted path, or "" when absent or
// not a string.
func (r *Resolved) String(dotted string) string {
	v, ok := r.values[dotted]
	if !ok {
		return ""
	}
	s, _ := v.AsString()
	return s
}

// Attr descends into the map option at the dotted path by the given
// keys. The second result is false when any step is absent or not a
// map.
func (r *Resolved) Attr(dotted string, keys ...string) (confval.Value, bool) {
	v, ok := r.values[dotted]
	if !ok {
		return confval.Value{}, false
	}
	for _, key := range keys {
		v, ok = v.Get(key)
		if !ok {
			return confval.Value{}, false
		}
	}
	return v, true
}

// Tree returns the whole resolved configuration as a single map
// value keyed by dotted option path. Used for the configuration
// digest reported alongside the artifacts.
func (r *Resolved) Tree() confval.Value {
	return confval.Map(r.values)
}

func (r *Resolved) set(path option.Path, v confval.Value) {
	r.values[path.String()] = v
}
