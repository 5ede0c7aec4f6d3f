// Copyright 2026 The Shareforge Authors
// SPDX-License-Identifier: Apache-2.0

// Package confval provides the tagged value type that configuration
// trees are built from. A Value is exactly one of: string, bool,
// integer, list of values, or map of string to value. Every routine
// that consumes values switches exhaustively on the kind, so adding
// a kind is a compile-visible change rather than a runtime surprise.
//
// Values are immutable by convention: constructors copy their inputs,
// and merge operations return fresh trees. The zero Value has
// KindInvalid and is returned alongside errors.
package confval

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Kind identifies which variant a Value holds.
type Kind int

const (
	// KindInvalid is the zero Kind; only the zero Value has it.
	KindInvalid Kind = iota
	// KindString holds a free-form string.
	KindString
	// KindBool holds a boolean.
	KindBool
	// KindInt holds a signed 64-bit integer.
	KindInt
	// KindList holds an ordered sequence of values.
	KindList
	// KindMap holds string-keyed values with no inherent order.
	KindMap
)

// String returns the kind name used in error messages.
func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Value is a tagged configuration value. Use the constructors; the
// zero Value is invalid and only appears alongside errors.
type Value struct {
	kind Kind
	str  string
	b    bool
	i    int64
	list []Value
	m    map[string]Value
}

// String constructs a string value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Bool constructs a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Int constructs an integer value.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// List constructs a list value from the given elements. The slice is
// copied.
func List(elems ...Value) Value {
	list := make([]Value, len(elems))
	copy(list, elems)
	return Value{kind: KindList, list: list}
}

// Strings constructs a list value whose elements are all strings.
func Strings(elems ...string) Value {
	list := make([]Value, len(elems))
	for i, s := range elems {
		list[i] = String(s)
	}
	return Value{kind: KindList, list: list}
}

// Map constructs a map value. The map is copied; nil is treated as
// empty.
func Map(entries map[string]Value) Value {
	m := make(map[string]Value, len(entries))
	for k, v := range entries {
		m[k] = v
	}
	return Value{kind: KindMap, m: m}
}

// Kind reports which variant v holds.
func (v Value) Kind() Kind { return v.kind }

// IsValid reports whether v holds any variant at all.
func (v Value) IsValid() bool { return v.kind != KindInvalid }

// AsString returns the string payload. The second result is false
// when v is not a string.
func (v Value) AsString() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.str, true
}

// AsBool returns the boolean payload. The second result is false when
// v is not a bool.
func (v Value) AsBool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

// AsInt returns the integer payload. The second result is false when
// v is not an int.
func (v Value) AsInt() (int64, bool) {
	if v.kind != KindInt {
		return 0, false
	}
	return v.i, true
}

// Elems returns the list elements. The second result is false when v
// is not a list. The returned slice must not be modified.
func (v Value) Elems() ([]Value, bool) {
	if v.kind != KindList {
		return nil, false
	}
	return v.list, true
}

// StringElems returns the list elements as strings. It fails when v
// is not a list or any element is not a string.
func (v Value) StringElems() ([]string, error) {
	elems, ok := v.Elems()
	if !ok {
		return nil, fmt.Errorf("value is %s, not list", v.kind)
	}
	out := make([]string, len(elems))
	for i, e := range elems {
		s, ok := e.AsString()
		if !ok {
			return nil, fmt.Errorf("list element %d is %s, not string", i, e.Kind())
		}
		out[i] = s
	}
	return out, nil
}

// Get returns the map entry for key. The second result is false when
// v is not a map or the key is absent.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindMap {
		return Value{}, false
	}
	entry, ok := v.m[key]
	return entry, ok
}

// Len returns the number of list elements or map entries, and zero
// for scalars.
func (v Value) Len() int {
	switch v.kind {
	case KindList:
		return len(v.list)
	case KindMap:
		return len(v.m)
	}
	return 0
}

// SortedKeys returns the map keys in lexicographic order, or nil when
// v is not a map. Every traversal of a map value goes through this so
// that output ordering is deterministic.
func (v Value) SortedKeys() []string {
	if v.kind != KindMap {
		return nil
	}
	keys := make([]string, 0, len(v.m))
	for k := range v.m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Equal reports deep structural equality.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindInvalid:
		return true
	case KindString:
		return a.str == b.str
	case KindBool:
		return a.b == b.b
	case KindInt:
		return a.i == b.i
	case KindList:
		if len(a.list) != len(b.list) {
			return false
		}
		for i := range a.list {
			if !Equal(a.list[i], b.list[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(a.m) != len(b.m) {
			return false
		}
		for k, av := range a.m {
			bv, ok := b.m[k]
			if !ok || !Equal(av, bv) {
				return false
			}
		}
		return true
	}
	return false
}

// Interface converts v to plain Go data (string, bool, int64,
// []any, map[string]any). This is the bridge to encoders that accept
// any-typed input, such as the deterministic CBOR encoder used for
// fingerprinting.
func (v Value) Interface() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindList:
		out := make([]any, len(v.list))
		for i, e := range v.list {
			out[i] = e.Interface()
		}
		return out
	case KindMap:
		out := make(map[string]any, len(v.m))
		for k, e := range v.m {
			out[k] = e.Interface()
		}
		return out
	}
	return nil
}

// FromAny converts decoder output (the any-typed trees produced by
// yaml.v3 and encoding/json) into a Value. Supported inputs are
// strings, bools, integers, float64 values that are exact integers
// (encoding/json decodes all numbers as float64), []any, and
// string-keyed maps. Anything else is an error naming the offending
// Go type.
func FromAny(raw any) (Value, error) {
	switch x := raw.(type) {
	case string:
		return String(x), nil
	case bool:
		return Bool(x), nil
	case int:
		return Int(int64(x)), nil
	case int64:
		return Int(x), nil
	case float64:
		i := int64(x)
		if float64(i) != x {
			return Value{}, fmt.Errorf("unsupported non-integer number %v", x)
		}
		return Int(i), nil
	case []any:
		list := make([]Value, len(x))
		for i, e := range x {
			v, err := FromAny(e)
			if err != nil {
				return Value{}, fmt.Errorf("element %d: %w", i, err)
			}
			list[i] = v
		}
		return Value{kind: KindList, list: list}, nil
	case map[string]any:
		m := make(map[string]Value, len(x))
		for k, e := range x {
			v, err := FromAny(e)
			if err != nil {
				return Value{}, fmt.Errorf("key %q: %w", k, err)
			}
			m[k] = v
		}
		return Value{kind: KindMap, m: m}, nil
	case nil:
		return Value{}, fmt.Errorf("unsupported null value")
	}
	return Value{}, fmt.Errorf("unsupported value type %T", raw)
}

// Render returns the scalar's text form: strings verbatim, bools as
// "yes"/"no" (the convention of the generated config format), ints in
// decimal. Lists and maps are not scalars and return an error.
func (v Value) Render() (string, error) {
	switch v.kind {
	case KindString:
		return v.str, nil
	case KindBool:
		if v.b {
			return "yes", nil
		}
		return "no", nil
	case KindInt:
		return strconv.FormatInt(v.i, 10), nil
	}
	return "", fmt.Errorf("cannot render %s as a scalar", v.kind)
}

// GoString returns a compact debug representation. Map keys are
// emitted in sorted order so the output is stable.
func (v Value) GoString() string {
	var sb strings.Builder
	v.debug(&sb)
	return sb.String()
}

func (v Value) debug(sb *strings.Builder) {
	switch v.kind {
	case KindInvalid:
		sb.WriteString("<invalid>")
	case KindString:
		fmt.Fprintf(sb, "%q", v.str)
	case KindBool:
		fmt.Fprintf(sb, "%t", v.b)
	case KindInt:
		fmt.Fprintf(sb, "%d", v.i)
	case KindList:
		sb.WriteByte('[')
		for i, e := range v.list {
			if i > 0 {
				sb.WriteString(", ")
			}
			e.debug(sb)
		}
		sb.WriteByte(']')
	case KindMap:
		sb.WriteByte('{')
		for i, k := range v.SortedKeys() {
			if i > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(sb, "%s: ", k)
			e, _ := v.Get(k)
			e.debug(sb)
		}
		sb.WriteByte('}')
	}
}
