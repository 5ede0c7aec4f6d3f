// Copyright 2026 The Shareforge Authors
// SPDX-License-Identifier: Apache-2.0

package inifile

import (
	"errors"
	"strings"
	"testing"

	"github.com/prabhat-suresh/shareforge/lib/confval"
)

func sampleSettings() confval.Value {
	return confval.Map(map[string]confval.Value{
		"global": confval.Map(map[string]confval.Value{
			"workgroup":     confval.String("WORKGROUP"),
			"server string": confval.String("shareforge"),
			"guest ok":      confval.Bool(false),
			"max log size":  confval.Int(1024),
			"interfaces":    confval.Strings("lo", "eth0"),
		}),
		"media": confval.Map(map[string]confval.Value{
			"path":      confval.String("/srv/media"),
			"read only": confval.Bool(true),
		}),
		"archive": confval.Map(map[string]confval.Value{
			"path": confval.String("/srv/archive"),
		}),
	})
}

func TestFromValue_GlobalFirstThenSorted(t *testing.T) {
	doc, err := FromValue(sampleSettings())
	if err != nil {
		t.Fatalf("FromValue error: %v", err)
	}

	var names []string
	for _, section := range doc.Sections {
		names = append(names, section.Name)
	}
	want := []string{"global", "archive", "media"}
	if len(names) != len(want) {
		t.Fatalf("sections = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("section %d = %s, want %s", i, names[i], want[i])
		}
	}
}

func TestFromValue_RendersScalarsAndLists(t *testing.T) {
	doc, err := FromValue(sampleSettings())
	if err != nil {
		t.Fatalf("FromValue error: %v", err)
	}

	global := doc.Sections[0]
	values := make(map[string]string, len(global.Settings))
	for _, setting := range global.Settings {
		values[setting.Key] = setting.Value
	}

	if values["guest ok"] != "no" {
		t.Errorf("guest ok = %q, want no", values["guest ok"])
	}
	if values["max log size"] != "1024" {
		t.Errorf("max log size = %q, want 1024", values["max log size"])
	}
	if values["interfaces"] != "lo eth0" {
		t.Errorf("interfaces = %q, want space-joined", values["interfaces"])
	}
}

func TestFromValue_Rejects(t *testing.T) {
	if _, err := FromValue(confval.String("not a map")); err == nil {
		t.Error("non-map settings accepted")
	}

	scalarSection := confval.Map(map[string]confval.Value{"global": confval.String("x")})
	_, err := FromValue(scalarSection)
	var shapeErr *ShapeError
	if !errors.As(err, &shapeErr) {
		t.Fatalf("scalar section error = %T (%v), want *ShapeError", err, err)
	}
	if shapeErr.Section != "global" || shapeErr.Key != "" {
		t.Errorf("ShapeError = %+v, want section global with no key", shapeErr)
	}

	nested := confval.Map(map[string]confval.Value{
		"global": confval.Map(map[string]confval.Value{
			"deep": confval.Map(map[string]confval.Value{"k": confval.String("v")}),
		}),
	})
	_, err = FromValue(nested)
	if !errors.As(err, &shapeErr) {
		t.Fatalf("nested map error = %T (%v), want *ShapeError", err, err)
	}
	if shapeErr.Section != "global" || shapeErr.Key != "deep" {
		t.Errorf("ShapeError = %+v, want section global, key deep", shapeErr)
	}
}

func TestRender_Deterministic(t *testing.T) {
	first, err := FromValue(sampleSettings())
	if err != nil {
		t.Fatalf("FromValue error: %v", err)
	}
	second, err := FromValue(sampleSettings())
	if err != nil {
		t.Fatalf("FromValue error: %v", err)
	}

	if first.Render() != second.Render() {
		t.Error("identical input rendered differently")
	}
}

func TestRender_Shape(t *testing.T) {
	doc, err := FromValue(confval.Map(map[string]confval.Value{
		"global": confval.Map(map[string]confval.Value{
			"workgroup": confval.String("WORKGROUP"),
		}),
		"media": confval.Map(map[string]confval.Value{
			"path": confval.String("/srv/media"),
		}),
	}))
	if err != nil {
		t.Fatalf("FromValue error: %v", err)
	}

	want := "[global]\n" +
		"  workgroup = WORKGROUP\n" +
		"\n" +
		"[media]\n" +
		"  path = /srv/media\n"
	if got := doc.Render(); got != want {
		t.Errorf("Render() = %q, want %q", got, want)
	}
	if !strings.HasSuffix(doc.Render(), "\n") {
		t.Error("document must end with a newline")
	}
}

func TestRender_EmptyDocument(t *testing.T) {
	doc, err := FromValue(confval.Map(nil))
	if err != nil {
		t.Fatalf("FromValue error: %v", err)
	}
	if got := doc.Render(); got != "" {
		t.Errorf("empty settings rendered %q, want empty", got)
	}
}
