// Copyright 2026 The Shareforge Authors
// SPDX-License-Identifier: Apache-2.0

package confval

import (
	"fmt"
	"strings"
)

// TypeConflictError reports an attempt to merge a map with a non-map
// at some depth of a deep merge. KeyPath is the sequence of map keys
// from the merge root to the conflicting entry.
type TypeConflictError struct {
	// KeyPath locates the conflicting entry, outermost key first.
	KeyPath []string
	// Base and Overlay are the kinds that collided.
	Base    Kind
	Overlay Kind
}

func (e *TypeConflictError) Error() string {
	where := strings.Join(e.KeyPath, ".")
	if where == "" {
		where = "(root)"
	}
	return fmt.Sprintf("cannot merge %s onto %s at %s", e.Overlay, e.Base, where)
}

// MergeMaps deep-merges overlay onto base and returns the combined
// map. Both arguments must be map values. The merge is right-biased
// per key: where both sides hold a map the merge recurses, where both
// hold non-maps the overlay entry wins, and keys present on only one
// side are preserved. A map on one side and a non-map on the other is
// a *TypeConflictError regardless of direction — silently replacing
// a subtree with a scalar (or the reverse) would hide an authoring
// mistake.
//
// Neither input is modified; shared subtrees may be aliased in the
// result, which is safe because values are never mutated.
func MergeMaps(base, overlay Value) (Value, error) {
	if base.kind != KindMap {
		return Value{}, &TypeConflictError{Base: base.kind, Overlay: overlay.kind}
	}
	if overlay.kind != KindMap {
		return Value{}, &TypeConflictError{Base: base.kind, Overlay: overlay.kind}
	}
	return mergeMaps(base, overlay, nil)
}

func mergeMaps(base, overlay Value, keyPath []string) (Value, error) {
	merged := make(map[string]Value, len(base.m)+len(overlay.m))
	for k, v := range base.m {
		merged[k] = v
	}
	for k, ov := range overlay.m {
		bv, present := merged[k]
		if !present {
			merged[k] = ov
			continue
		}
		entryPath := append(keyPath, k)
		switch {
		case bv.kind == KindMap && ov.kind == KindMap:
			sub, err := mergeMaps(bv, ov, entryPath)
			if err != nil {
				return Value{}, err
			}
			merged[k] = sub
		case bv.kind == KindMap || ov.kind == KindMap:
			return Value{}, &TypeConflictError{
				KeyPath: append([]string(nil), entryPath...),
				Base:    bv.kind,
				Overlay: ov.kind,
			}
		default:
			merged[k] = ov
		}
	}
	return Value{kind: KindMap, m: merged}, nil
}

// AppendLists returns the concatenation of two list values in
// argument order. Both arguments must be lists.
func AppendLists(a, b Value) (Value, error) {
	if a.kind != KindList || b.kind != KindList {
		return Value{}, fmt.Errorf("cannot concatenate %s and %s", a.kind, b.kind)
	}
	list := make([]Value, 0, len(a.list)+len(b.list))
	list = append(list, a.list...)
	list = append(list, b.list...)
	return Value{kind: KindList, list: list}, nil
}
