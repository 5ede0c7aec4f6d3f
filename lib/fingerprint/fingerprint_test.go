// Copyright 2026 The Shareforge Authors
// SPDX-License-Identifier: Apache-2.0

package fingerprint

import (
	"testing"

	"github.com/prabhat-suresh/shareforge/lib/confval"
)

func TestDocument_Deterministic(t *testing.T) {
	text := "[global]\n  workgroup = WORKGROUP\n"
	if Document(text) != Document(text) {
		t.Error("identical text produced different digests")
	}
}

func TestDocument_SensitiveToContent(t *testing.T) {
	a := Document("[global]\n  workgroup = WORKGROUP\n")
	b := Document("[global]\n  workgroup = OFFICE\n")
	if a == b {
		t.Error("different documents produced the same digest")
	}
}

func TestTree_IndependentOfMapConstruction(t *testing.T) {
	// Two trees with the same logical content built in different
	// insertion orders must encode and hash identically.
	first := confval.Map(map[string]confval.Value{
		"alpha": confval.Int(1),
		"beta":  confval.Strings("x", "y"),
		"gamma": confval.Map(map[string]confval.Value{"inner": confval.Bool(true)}),
	})
	second := confval.Map(map[string]confval.Value{
		"gamma": confval.Map(map[string]confval.Value{"inner": confval.Bool(true)}),
		"beta":  confval.Strings("x", "y"),
		"alpha": confval.Int(1),
	})

	digestA, err := Tree(first)
	if err != nil {
		t.Fatalf("Tree error: %v", err)
	}
	digestB, err := Tree(second)
	if err != nil {
		t.Fatalf("Tree error: %v", err)
	}
	if digestA != digestB {
		t.Error("logically identical trees produced different digests")
	}
}

func TestTree_SensitiveToValues(t *testing.T) {
	a, err := Tree(confval.Map(map[string]confval.Value{"k": confval.Int(1)}))
	if err != nil {
		t.Fatalf("Tree error: %v", err)
	}
	b, err := Tree(confval.Map(map[string]confval.Value{"k": confval.Int(2)}))
	if err != nil {
		t.Fatalf("Tree error: %v", err)
	}
	if a == b {
		t.Error("different trees produced the same digest")
	}
}

func TestDomainSeparation(t *testing.T) {
	// The same bytes hashed in the document and tree domains must
	// not collide.
	text := "payload"
	docDigest := Document(text)
	treeDigest, err := Tree(confval.String(text))
	if err != nil {
		t.Fatalf("Tree error: %v", err)
	}
	if docDigest == treeDigest {
		t.Error("document and tree domains produced the same digest for related input")
	}
}

func TestDigest_String(t *testing.T) {
	digest := Document("x")
	s := digest.String()
	if len(s) != 64 {
		t.Errorf("hex digest length = %d, want 64", len(s))
	}
	for _, r := range s {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			t.Errorf("digest contains non-hex rune %q", r)
		}
	}
}
