// Copyright 2026 The Shareforge Authors
// SPDX-License-Identifier: Apache-2.0

// Package inifile renders the generated configuration document: an
// INI-style file of named sections containing key/value settings, the
// format the target daemons read. Rendering is deterministic — the
// same input tree always produces the same bytes — because the
// restart-trigger fingerprint is computed over the rendered text.
package inifile

import (
	"fmt"
	"strings"

	"github.com/prabhat-suresh/shareforge/lib/confval"
)

// Setting is one key/value line.
type Setting struct {
	Key   string
	Value string
}

// Section is a named group of settings.
type Section struct {
	Name     string
	Settings []Setting
}

// Document is an ordered list of sections. Order is fixed at
// construction (FromValue puts "global" first) and preserved by
// Render.
type Document struct {
	Sections []Section
}

// globalSection is the section the daemons read server-wide settings
// from; it always renders first so the document reads the way
// operators expect.
const globalSection = "global"

// ShapeError reports settings content that merged cleanly but cannot
// be represented in the document format: a non-map where a section is
// expected, or a value nested below the two levels the format has.
// It comes from operator-authored fragments, so callers surface it as
// an input error rather than an internal one.
type ShapeError struct {
	// Section is the offending section name.
	Section string
	// Key is the offending key within the section, when the problem
	// is below section level.
	Key string
	// Detail describes the shape violation.
	Detail string
}

func (e *ShapeError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("section %q, key %q: %s", e.Section, e.Key, e.Detail)
	}
	return fmt.Sprintf("section %q: %s", e.Section, e.Detail)
}

// FromValue lowers the settings subtree of a resolved configuration
// into a Document. The input must be a map of section name → map of
// key → scalar-or-list:
//
//   - scalars render via their text form (bools as yes/no)
//   - a list of scalars renders space-joined, the multi-value
//     convention of the target format
//   - a nested map below section level is an error; the format has
//     exactly two levels
//
// Section order is "global" first, then the remaining sections
// lexicographically; keys within a section are lexicographic.
func FromValue(settings confval.Value) (Document, error) {
	if settings.Kind() != confval.KindMap {
		return Document{}, fmt.Errorf("settings must be a map of sections, got %s", settings.Kind())
	}

	names := settings.SortedKeys()
	ordered := make([]string, 0, len(names))
	if _, ok := settings.Get(globalSection); ok {
		ordered = append(ordered, globalSection)
	}
	for _, name := range names {
		if name != globalSection {
			ordered = append(ordered, name)
		}
	}

	doc := Document{Sections: make([]Section, 0, len(ordered))}
	for _, name := range ordered {
		sectionValue, _ := settings.Get(name)
		section, err := buildSection(name, sectionValue)
		if err != nil {
			return Document{}, err
		}
		doc.Sections = append(doc.Sections, section)
	}
	return doc, nil
}

func buildSection(name string, value confval.Value) (Section, error) {
	if value.Kind() != confval.KindMap {
		return Section{}, &ShapeError{
			Section: name,
			Detail:  fmt.Sprintf("must be a map of settings, got %s", value.Kind()),
		}
	}

	section := Section{Name: name, Settings: make([]Setting, 0, value.Len())}
	for _, key := range value.SortedKeys() {
		entry, _ := value.Get(key)
		text, err := renderValue(entry)
		if err != nil {
			return Section{}, &ShapeError{Section: name, Key: key, Detail: err.Error()}
		}
		section.Settings = append(section.Settings, Setting{Key: key, Value: text})
	}
	return section, nil
}

func renderValue(v confval.Value) (string, error) {
	switch v.Kind() {
	case confval.KindString, confval.KindBool, confval.KindInt:
		return v.Render()
	case confval.KindList:
		elems, _ := v.Elems()
		parts := make([]string, len(elems))
		for i, e := range elems {
			text, err := e.Render()
			if err != nil {
				return "", fmt.Errorf("list element %d: %w", i, err)
			}
			parts[i] = text
		}
		return strings.Join(parts, " "), nil
	case confval.KindMap:
		return "", fmt.Errorf("nested maps are not representable (sections are one level deep)")
	}
	return "", fmt.Errorf("cannot render %s", v.Kind())
}

// Render serializes the document. Output shape:
//
//	[global]
//	  server string = shareforge
//
//	[media]
//	  path = /srv/media
//
// A trailing newline terminates the document; sections are separated
// by one blank line.
func (d Document) Render() string {
	var sb strings.Builder
	for i, section := range d.Sections {
		if i > 0 {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "[%s]\n", section.Name)
		for _, setting := range section.Settings {
			fmt.Fprintf(&sb, "  %s = %s\n", setting.Key, setting.Value)
		}
	}
	return sb.String()
}
