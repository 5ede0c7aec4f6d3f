// Copyright 2026 The Shareforge Authors
// SPDX-License-Identifier: Apache-2.0

package fragment

import (
	"testing"

	"github.com/prabhat-suresh/shareforge/lib/confval"
	"github.com/prabhat-suresh/shareforge/lib/option"
)

func TestPredicateCombinators(t *testing.T) {
	env := NewEnv(map[string]bool{"a": true, "b": false}, nil)

	tests := []struct {
		name string
		p    Predicate
		want bool
	}{
		{"always", Always(), true},
		{"set flag", Flag("a"), true},
		{"unset flag", Flag("b"), false},
		{"absent flag", Flag("missing"), false},
		{"not", Not(Flag("b")), true},
		{"all true", All(Flag("a"), Not(Flag("b"))), true},
		{"all with false", All(Flag("a"), Flag("b")), false},
		{"all empty", All(), true},
		{"any true", Any(Flag("b"), Flag("a")), true},
		{"any all false", Any(Flag("b"), Flag("missing")), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.p(env); got != tt.want {
				t.Errorf("predicate = %t, want %t", got, tt.want)
			}
		})
	}
}

func TestBoolValue_ReadsResolvedValues(t *testing.T) {
	resolved := map[string]confval.Value{
		"enable":      confval.Bool(true),
		"nmbd.enable": confval.Bool(false),
		"binDir":      confval.String("/usr/sbin"),
	}
	env := NewEnv(nil, func(p option.Path) (confval.Value, bool) {
		v, ok := resolved[p.String()]
		return v, ok
	})

	if !BoolValue("enable")(env) {
		t.Error("BoolValue(enable) = false, want true")
	}
	if BoolValue("nmbd.enable")(env) {
		t.Error("BoolValue(nmbd.enable) = true, want false")
	}
	if BoolValue("binDir")(env) {
		t.Error("BoolValue on a string option = true, want false")
	}
	if BoolValue("missing")(env) {
		t.Error("BoolValue on an absent path = true, want false")
	}
}

func TestFragment_Applies(t *testing.T) {
	env := NewEnv(map[string]bool{"on": true}, nil)

	if !(Fragment{Name: "unconditional"}).Applies(env) {
		t.Error("nil predicate should always apply")
	}
	if !(Fragment{When: Flag("on")}).Applies(env) {
		t.Error("true predicate should apply")
	}
	if (Fragment{When: Not(Flag("on"))}).Applies(env) {
		t.Error("false predicate should not apply")
	}
}

func TestFragment_Assign(t *testing.T) {
	frag := Fragment{Name: "test"}.
		Assign("nmbd.enable", confval.Bool(true)).
		Assign("settings", confval.Map(nil))

	if len(frag.Set) != 2 {
		t.Fatalf("len(Set) = %d, want 2", len(frag.Set))
	}
	if frag.Set[0].Path.String() != "nmbd.enable" {
		t.Errorf("first assignment = %s", frag.Set[0].Path)
	}
	if frag.Set[1].Path.String() != "settings" {
		t.Errorf("second assignment = %s", frag.Set[1].Path)
	}
}
