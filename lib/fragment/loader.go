// Copyright 2026 The Shareforge Authors
// SPDX-License-Identifier: Apache-2.0

package fragment

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/prabhat-suresh/shareforge/lib/confval"
	"github.com/prabhat-suresh/shareforge/lib/option"
)

// fileFragment is the on-disk shape shared by the YAML and JSONC
// loaders:
//
//	name: workgroup-defaults        # optional, defaults to file name
//	when:                           # optional, defaults to always
//	  flags: [serverEnabled]
//	  notFlags: [minimal]
//	set:
//	  nmbd.enable: true
//	  settings:
//	    global:
//	      workgroup: WORKGROUP
//
// Keys of "set" are dotted option paths. Because both formats decode
// mappings without order, assignments are sorted by path — a single
// file cannot rely on intra-file ordering, only on file ordering.
type fileFragment struct {
	Name string         `yaml:"name" json:"name"`
	When *fileWhen      `yaml:"when" json:"when"`
	Set  map[string]any `yaml:"set" json:"set"`
}

// fileWhen is the declarative predicate form available to files: a
// conjunction of required and forbidden feature flags. Richer
// predicates (resolved-value conditions, disjunctions) are available
// to programmatic fragment sources only.
type fileWhen struct {
	Flags    []string `yaml:"flags" json:"flags"`
	NotFlags []string `yaml:"notFlags" json:"notFlags"`
}

func (w *fileWhen) predicate() Predicate {
	if w == nil {
		return nil
	}
	var ps []Predicate
	for _, name := range w.Flags {
		ps = append(ps, Flag(name))
	}
	for _, name := range w.NotFlags {
		ps = append(ps, Not(Flag(name)))
	}
	if len(ps) == 0 {
		return nil
	}
	return All(ps...)
}

// ParseYAML parses a YAML fragment file. name is used for diagnostics
// and as the fragment name when the file does not set one.
func ParseYAML(name string, data []byte) (Fragment, error) {
	var file fileFragment
	if err := yaml.Unmarshal(data, &file); err != nil {
		return Fragment{}, fmt.Errorf("parsing fragment %s: %w", name, err)
	}
	return file.fragment(name)
}

// ParseJSONC parses a JSONC fragment file (JSON extended with
// comments and trailing commas).
func ParseJSONC(name string, data []byte) (Fragment, error) {
	var file fileFragment
	if err := json.Unmarshal(jsonc.ToJSON(data), &file); err != nil {
		return Fragment{}, fmt.Errorf("parsing fragment %s: %w", name, err)
	}
	return file.fragment(name)
}

func (f *fileFragment) fragment(fallbackName string) (Fragment, error) {
	name := f.Name
	if name == "" {
		name = fallbackName
	}

	out := Fragment{Name: name, When: f.When.predicate()}

	// Sorted path order keeps loaded fragments deterministic even
	// though the decoded map has none.
	paths := make([]string, 0, len(f.Set))
	for dotted := range f.Set {
		paths = append(paths, dotted)
	}
	sort.Strings(paths)

	for _, dotted := range paths {
		path, err := option.ParsePath(dotted)
		if err != nil {
			return Fragment{}, fmt.Errorf("fragment %s: %w", name, err)
		}
		value, err := confval.FromAny(f.Set[dotted])
		if err != nil {
			return Fragment{}, fmt.Errorf("fragment %s: option %s: %w", name, dotted, err)
		}
		out.Set = append(out.Set, Assignment{Path: path, Value: value})
	}
	return out, nil
}

// LoadFile loads one fragment file, selecting the parser by
// extension: .yaml/.yml → YAML, .json/.jsonc → JSONC.
func LoadFile(path string) (Fragment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Fragment{}, fmt.Errorf("reading fragment: %w", err)
	}

	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	switch strings.ToLower(filepath.Ext(base)) {
	case ".yaml", ".yml":
		return ParseYAML(name, data)
	case ".json", ".jsonc":
		return ParseJSONC(name, data)
	}
	return Fragment{}, fmt.Errorf("fragment %s: unsupported extension (want .yaml, .yml, .json, or .jsonc)", base)
}

// LoadDir loads every fragment file in dir, in sorted file-name
// order. File-name order IS declaration order for the merge, so
// sources conventionally prefix files with a number ("10-base.yaml",
// "50-site.yaml") the way drop-in directories do. Files with other
// extensions are ignored.
func LoadDir(dir string) ([]Fragment, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading fragment directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".yaml", ".yml", ".json", ".jsonc":
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	fragments := make([]Fragment, 0, len(names))
	for _, name := range names {
		frag, err := LoadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		fragments = append(fragments, frag)
	}
	return fragments, nil
}
