// Copyright 2026 The Shareforge Authors
// SPDX-License-Identifier: Apache-2.0

package fragment

import (
	"github.com/prabhat-suresh/shareforge/lib/confval"
	"github.com/prabhat-suresh/shareforge/lib/option"
)

// Env is what a predicate may observe: the external feature flags
// passed into the compilation, and a read-only view of the values
// resolved from fragments earlier in declaration order. Predicates
// must be pure functions of this environment — the merge evaluates
// each one exactly once and assumes no side effects.
type Env struct {
	flags  map[string]bool
	lookup func(option.Path) (confval.Value, bool)
}

// NewEnv builds a predicate environment. lookup may be nil when no
// resolved values are available yet.
func NewEnv(flags map[string]bool, lookup func(option.Path) (confval.Value, bool)) Env {
	return Env{flags: flags, lookup: lookup}
}

// Flag reports whether the named external feature flag is set. Unset
// flags are false.
func (e Env) Flag(name string) bool {
	return e.flags[name]
}

// Resolved returns the value currently resolved at path, considering
// only fragments earlier in declaration order.
func (e Env) Resolved(path option.Path) (confval.Value, bool) {
	if e.lookup == nil {
		return confval.Value{}, false
	}
	return e.lookup(path)
}

// Predicate gates a fragment. It must be pure given the environment.
type Predicate func(Env) bool

// Always applies unconditionally.
func Always() Predicate {
	return func(Env) bool { return true }
}

// Flag applies when the named external feature flag is set.
func Flag(name string) Predicate {
	return func(env Env) bool { return env.Flag(name) }
}

// Not inverts a predicate.
func Not(p Predicate) Predicate {
	return func(env Env) bool { return !p(env) }
}

// All applies when every given predicate applies. With no arguments
// it is Always.
func All(ps ...Predicate) Predicate {
	return func(env Env) bool {
		for _, p := range ps {
			if !p(env) {
				return false
			}
		}
		return true
	}
}

// Any applies when at least one given predicate applies.
func Any(ps ...Predicate) Predicate {
	return func(env Env) bool {
		for _, p := range ps {
			if p(env) {
				return true
			}
		}
		return false
	}
}

// BoolValue applies when the option at the dotted path has resolved
// to true in an earlier fragment. Absent or non-bool values are
// false.
func BoolValue(dotted string) Predicate {
	path, err := option.ParsePath(dotted)
	if err != nil {
		panic(err)
	}
	return func(env Env) bool {
		v, ok := env.Resolved(path)
		if !ok {
			return false
		}
		b, ok := v.AsBool()
		return ok && b
	}
}
