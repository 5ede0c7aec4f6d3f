// Copyright 2026 The Shareforge Authors
// SPDX-License-Identifier: Apache-2.0

package compile

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/prabhat-suresh/shareforge/lib/confval"
	"github.com/prabhat-suresh/shareforge/lib/fragment"
	"github.com/prabhat-suresh/shareforge/lib/option"
	"github.com/prabhat-suresh/shareforge/lib/synth"
)

func mustPath(t *testing.T, dotted string) option.Path {
	t.Helper()
	p, err := option.ParsePath(dotted)
	if err != nil {
		t.Fatalf("ParsePath(%q): %v", dotted, err)
	}
	return p
}

// testSchema declares a minimal single-daemon service with one legacy
// rename and one removal.
func testSchema(t *testing.T) *option.Schema {
	t.Helper()
	schema, err := option.New(
		[]option.Option{
			{Path: option.Path{"enable"}, Type: option.TypeBool, Default: confval.Bool(true)},
			{Path: option.Path{"binDir"}, Type: option.TypeString, Default: confval.String("/usr/sbin")},
			{Path: option.Path{"configPath"}, Type: option.TypeString, Default: confval.String("/etc/svc/svc.conf")},
			{Path: option.Path{"pidDir"}, Type: option.TypeString, Default: confval.String("/run/svc")},
			{Path: option.Path{"settings"}, Type: option.TypeAttrs, Default: confval.Map(nil)},
			{Path: option.Path{"svc", "enable"}, Type: option.TypeBool, Default: confval.Bool(true)},
			{Path: option.Path{"svc", "extraArgs"}, Type: option.TypeStringList, Default: confval.Strings()},
		},
		[]option.Rename{
			{From: option.Path{"enableSvc"}, To: option.Path{"svc", "enable"}},
		},
		[]option.Removal{
			{Path: option.Path{"legacyAuth"}, Message: "use settings.global.\"security\" instead"},
		},
	)
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	return schema
}

func testPlan(t *testing.T) synth.Plan {
	t.Helper()
	return synth.Plan{
		EnablePath:     mustPath(t, "enable"),
		BinDirPath:     mustPath(t, "binDir"),
		ConfigPathPath: mustPath(t, "configPath"),
		PIDDirPath:     mustPath(t, "pidDir"),
		SettingsPath:   mustPath(t, "settings"),
		Roles: []synth.Role{
			{
				Name:          "svcd",
				Daemon:        "svcd",
				Description:   "test daemon",
				EnablePath:    mustPath(t, "svc.enable"),
				ExtraArgsPath: mustPath(t, "svc.extraArgs"),
			},
		},
	}
}

func newTestCompiler(t *testing.T, opts ...CompilerOption) *Compiler {
	t.Helper()
	return New(testSchema(t), testPlan(t), opts...)
}

func settingsFragment(name string, attrs map[string]confval.Value) fragment.Fragment {
	return fragment.Fragment{Name: name}.
		Assign("settings", confval.Map(attrs))
}

func compileError(t *testing.T, err error) *Error {
	t.Helper()
	if err == nil {
		t.Fatal("compile succeeded, want failure")
	}
	var cerr *Error
	if !errors.As(err, &cerr) {
		t.Fatalf("error %T is not a compilation failure: %v", err, err)
	}
	return cerr
}

func TestCompile_Deterministic(t *testing.T) {
	fragments := []fragment.Fragment{
		settingsFragment("base", map[string]confval.Value{
			"global": confval.Map(map[string]confval.Value{
				"workgroup":      confval.String("WORKGROUP"),
				"server string":  confval.String("test server"),
				"max log size":   confval.Int(1000),
				"load printers":  confval.Bool(false),
			}),
		}),
		fragment.Fragment{Name: "args"}.
			Assign("svc.extraArgs", confval.Strings("--debuglevel=1")),
	}

	first, err := newTestCompiler(t).Compile(fragments, nil)
	if err != nil {
		t.Fatalf("first compile: %v", err)
	}
	second, err := newTestCompiler(t).Compile(fragments, nil)
	if err != nil {
		t.Fatalf("second compile: %v", err)
	}

	if first.DocumentText != second.DocumentText {
		t.Errorf("documents differ:\n%s\nvs\n%s", first.DocumentText, second.DocumentText)
	}
	if first.Trigger != second.Trigger {
		t.Error("triggers differ across identical compiles")
	}
	if first.ConfigDigest != second.ConfigDigest {
		t.Error("config digests differ across identical compiles")
	}
	if !reflect.DeepEqual(first.Units, second.Units) {
		t.Error("unit graphs differ across identical compiles")
	}
}

func TestCompile_FalsePredicateLeavesNoTrace(t *testing.T) {
	fragments := []fragment.Fragment{
		settingsFragment("base", map[string]confval.Value{
			"global": confval.Map(map[string]confval.Value{
				"workgroup": confval.String("WORKGROUP"),
			}),
		}),
		fragment.Fragment{Name: "gated", When: fragment.Flag("printing")}.
			Assign("settings", confval.Map(map[string]confval.Value{
				"printers": confval.Map(map[string]confval.Value{
					"path": confval.String("/var/spool/samba"),
				}),
			})).
			Assign("svc.extraArgs", confval.Strings("--printing")),
	}

	result, err := newTestCompiler(t).Compile(fragments, nil)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	if strings.Contains(result.DocumentText, "printers") {
		t.Errorf("gated fragment leaked into the document:\n%s", result.DocumentText)
	}
	args, err := mustResolve(t, result, "svc.extraArgs").StringElems()
	if err != nil {
		t.Fatal(err)
	}
	if len(args) != 0 {
		t.Errorf("gated fragment leaked into extraArgs: %v", args)
	}

	// With the flag raised the same fragment applies.
	withFlag, err := newTestCompiler(t).Compile(fragments, Flags{"printing": true})
	if err != nil {
		t.Fatalf("compile with flag: %v", err)
	}
	if !strings.Contains(withFlag.DocumentText, "printers") {
		t.Errorf("flagged fragment missing from the document:\n%s", withFlag.DocumentText)
	}
}

func mustResolve(t *testing.T, result *Result, dotted string) confval.Value {
	t.Helper()
	p, err := option.ParsePath(dotted)
	if err != nil {
		t.Fatal(err)
	}
	v, ok := result.Config.Value(p)
	if !ok {
		t.Fatalf("option %s not resolved", dotted)
	}
	return v
}

func TestCompile_ListContributionsConcatenateInOrder(t *testing.T) {
	fragments := []fragment.Fragment{
		fragment.Fragment{Name: "10-first"}.
			Assign("svc.extraArgs", confval.Strings("--a", "--b")),
		fragment.Fragment{Name: "20-second"}.
			Assign("svc.extraArgs", confval.Strings("--c")),
		fragment.Fragment{Name: "30-third"}.
			Assign("svc.extraArgs", confval.Strings("--b")),
	}

	result, err := newTestCompiler(t).Compile(fragments, nil)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	args, err := mustResolve(t, result, "svc.extraArgs").StringElems()
	if err != nil {
		t.Fatal(err)
	}
	// Order preserved, duplicates kept.
	want := []string{"--a", "--b", "--c", "--b"}
	if !reflect.DeepEqual(args, want) {
		t.Errorf("extraArgs = %v, want %v", args, want)
	}
}

func TestCompile_ScalarLastWinsWithOverrideNote(t *testing.T) {
	fragments := []fragment.Fragment{
		fragment.Fragment{Name: "10-base"}.
			Assign("binDir", confval.String("/usr/sbin")),
		fragment.Fragment{Name: "50-site"}.
			Assign("binDir", confval.String("/opt/samba/sbin")),
	}

	result, err := newTestCompiler(t).Compile(fragments, nil)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	got, _ := mustResolve(t, result, "binDir").AsString()
	if got != "/opt/samba/sbin" {
		t.Errorf("binDir = %s, want the later fragment's value", got)
	}
	if len(result.Overrides) != 1 {
		t.Fatalf("recorded %d overrides, want 1", len(result.Overrides))
	}
	o := result.Overrides[0]
	if o.Path.String() != "binDir" || o.PreviousFragment != "10-base" || o.Fragment != "50-site" {
		t.Errorf("override = %+v", o)
	}
}

func TestCompile_OverridingDefaultIsNotAnOverride(t *testing.T) {
	fragments := []fragment.Fragment{
		fragment.Fragment{Name: "site"}.
			Assign("binDir", confval.String("/opt/samba/sbin")),
	}
	result, err := newTestCompiler(t).Compile(fragments, nil)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if len(result.Overrides) != 0 {
		t.Errorf("replacing a schema default recorded as override: %+v", result.Overrides)
	}
}

func TestCompile_AttrsMergeRightBiased(t *testing.T) {
	fragments := []fragment.Fragment{
		settingsFragment("10-base", map[string]confval.Value{
			"global": confval.Map(map[string]confval.Value{
				"workgroup": confval.String("WORKGROUP"),
				"security":  confval.String("user"),
			}),
		}),
		settingsFragment("50-site", map[string]confval.Value{
			"global": confval.Map(map[string]confval.Value{
				"workgroup": confval.String("OFFICE"),
			}),
			"public": confval.Map(map[string]confval.Value{
				"path": confval.String("/srv/public"),
			}),
		}),
	}

	result, err := newTestCompiler(t).Compile(fragments, nil)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	workgroup, ok := result.Config.Attr("settings", "global", "workgroup")
	if !ok {
		t.Fatal("settings.global.workgroup not resolved")
	}
	if s, _ := workgroup.AsString(); s != "OFFICE" {
		t.Errorf("workgroup = %s, want the later fragment's value", s)
	}

	// Keys the overlay does not touch survive from the base.
	security, ok := result.Config.Attr("settings", "global", "security")
	if !ok || mustString(t, security) != "user" {
		t.Error("untouched base key lost in the merge")
	}
	if _, ok := result.Config.Attr("settings", "public", "path"); !ok {
		t.Error("overlay-only section lost in the merge")
	}
}

func mustString(t *testing.T, v confval.Value) string {
	t.Helper()
	s, ok := v.AsString()
	if !ok {
		t.Fatalf("value %v is not a string", v)
	}
	return s
}

func TestCompile_AttrsTypeConflict(t *testing.T) {
	fragments := []fragment.Fragment{
		settingsFragment("base", map[string]confval.Value{
			"global": confval.Map(map[string]confval.Value{
				"security": confval.String("user"),
			}),
		}),
		settingsFragment("bad", map[string]confval.Value{
			"global": confval.Map(map[string]confval.Value{
				"security": confval.Map(map[string]confval.Value{
					"mode": confval.String("ads"),
				}),
			}),
		}),
	}

	_, err := newTestCompiler(t).Compile(fragments, nil)
	cerr := compileError(t, err)
	if !cerr.HasKind(FailureTypeConflict) {
		t.Errorf("failures = %+v, want a type conflict", cerr.Failures)
	}
	if !strings.Contains(cerr.Error(), "global.security") {
		t.Errorf("conflict does not name the key path: %v", cerr)
	}
}

func TestCompile_ShapeMismatch(t *testing.T) {
	fragments := []fragment.Fragment{
		fragment.Fragment{Name: "bad"}.
			Assign("svc.enable", confval.String("yes")),
	}
	_, err := newTestCompiler(t).Compile(fragments, nil)
	cerr := compileError(t, err)
	if !cerr.HasKind(FailureTypeConflict) {
		t.Errorf("failures = %+v, want a type conflict", cerr.Failures)
	}
}

func TestCompile_UnknownOption(t *testing.T) {
	fragments := []fragment.Fragment{
		fragment.Fragment{Name: "typo"}.
			Assign("svc.enabel", confval.Bool(true)),
	}
	_, err := newTestCompiler(t).Compile(fragments, nil)
	cerr := compileError(t, err)
	if !cerr.HasKind(FailureUnknownOption) {
		t.Errorf("failures = %+v, want unknown option", cerr.Failures)
	}
	if !strings.Contains(cerr.Error(), "svc.enabel") {
		t.Errorf("failure does not name the path: %v", cerr)
	}
}

func TestCompile_RemovedOptionFailsEvenBehindFalsePredicate(t *testing.T) {
	fragments := []fragment.Fragment{
		fragment.Fragment{Name: "stale", When: fragment.Flag("never-set")}.
			Assign("legacyAuth", confval.Bool(true)),
	}

	_, err := newTestCompiler(t).Compile(fragments, nil)
	cerr := compileError(t, err)
	if !cerr.HasKind(FailureRemovedOption) {
		t.Fatalf("failures = %+v, want removed option", cerr.Failures)
	}
	// The schema author's message reaches the operator verbatim.
	if !strings.Contains(cerr.Error(), "use settings.global") {
		t.Errorf("removal message lost: %v", cerr)
	}
	if !strings.Contains(cerr.Error(), "stale") {
		t.Errorf("failure does not name the fragment: %v", cerr)
	}
}

func TestCompile_RenameMigration(t *testing.T) {
	fragments := []fragment.Fragment{
		fragment.Fragment{Name: "old-style"}.
			Assign("enableSvc", confval.Bool(false)),
	}

	result, err := newTestCompiler(t).Compile(fragments, nil)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	// The assignment landed at the canonical path.
	enabled, _ := mustResolve(t, result, "svc.enable").AsBool()
	if enabled {
		t.Error("renamed assignment did not reach svc.enable")
	}
	if len(result.Units) != 0 {
		t.Errorf("disabled role still emitted %d units", len(result.Units))
	}

	if len(result.Renames) != 1 {
		t.Fatalf("recorded %d renames, want 1", len(result.Renames))
	}
	note := result.Renames[0]
	if note.From.String() != "enableSvc" || note.To.String() != "svc.enable" || note.Fragment != "old-style" {
		t.Errorf("rename note = %+v", note)
	}
}

func TestCompile_AssertionsCollectAllFailures(t *testing.T) {
	compiler := newTestCompiler(t,
		WithAssertions(
			Require("first", "first always fails", func(*Resolved) bool { return false }),
			Assertion{
				Name: "second",
				Check: func(*Resolved) []string {
					return []string{"also fails"}
				},
			},
			Require("third", "unreported", func(*Resolved) bool { return true }),
		),
	)

	_, err := compiler.Compile(nil, nil)
	cerr := compileError(t, err)
	if len(cerr.Failures) != 2 {
		t.Fatalf("reported %d failures, want both failing assertions", len(cerr.Failures))
	}
	for _, f := range cerr.Failures {
		if f.Kind != FailureAssertion {
			t.Errorf("failure kind = %s", f.Kind)
		}
	}
	if !strings.Contains(cerr.Error(), "first:") || !strings.Contains(cerr.Error(), "second:") {
		t.Errorf("failure messages not prefixed with assertion names: %v", cerr)
	}
}

func TestCompile_UnrepresentableSettingsAreTypeConflicts(t *testing.T) {
	// Valid fragments can merge into a settings tree the document
	// format cannot express. That is operator input, so it must come
	// back through the failure list, not as a bare synthesis error.
	for _, tc := range []struct {
		name     string
		settings map[string]confval.Value
		mention  string
	}{
		{
			name: "map below section level",
			settings: map[string]confval.Value{
				"global": confval.Map(map[string]confval.Value{
					"vfs": confval.Map(map[string]confval.Value{
						"objects": confval.String("fruit"),
					}),
				}),
			},
			mention: `"vfs"`,
		},
		{
			name: "scalar where a section belongs",
			settings: map[string]confval.Value{
				"broken": confval.String("not a section"),
			},
			mention: `"broken"`,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			fragments := []fragment.Fragment{settingsFragment("bad", tc.settings)}
			result, err := newTestCompiler(t).Compile(fragments, nil)
			cerr := compileError(t, err)
			if !cerr.HasKind(FailureTypeConflict) {
				t.Errorf("failures = %+v, want a type conflict", cerr.Failures)
			}
			if !strings.Contains(cerr.Error(), tc.mention) {
				t.Errorf("failure does not name %s: %v", tc.mention, cerr)
			}
			if result != nil {
				t.Error("failed compile returned a partial result")
			}
		})
	}
}

func TestCompile_FailureProducesNoArtifacts(t *testing.T) {
	fragments := []fragment.Fragment{
		fragment.Fragment{Name: "typo"}.
			Assign("svc.enabel", confval.Bool(true)),
	}
	result, err := newTestCompiler(t).Compile(fragments, nil)
	if err == nil {
		t.Fatal("compile succeeded")
	}
	if result != nil {
		t.Error("failed compile returned a partial result")
	}
}

func TestCompile_PredicateSeesEarlierResolvedValues(t *testing.T) {
	fragments := []fragment.Fragment{
		fragment.Fragment{Name: "10-disable"}.
			Assign("svc.enable", confval.Bool(false)),
		// Applies only while the role is still enabled, which the
		// earlier fragment has already negated.
		fragment.Fragment{Name: "20-args", When: fragment.BoolValue("svc.enable")}.
			Assign("svc.extraArgs", confval.Strings("--unused")),
	}

	result, err := newTestCompiler(t).Compile(fragments, nil)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	args, err := mustResolve(t, result, "svc.extraArgs").StringElems()
	if err != nil {
		t.Fatal(err)
	}
	if len(args) != 0 {
		t.Errorf("fragment gated on a negated value still applied: %v", args)
	}
}

func TestCompile_NoFragmentsYieldsDefaults(t *testing.T) {
	result, err := newTestCompiler(t).Compile(nil, nil)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if len(result.Units) != 1 {
		t.Fatalf("emitted %d units, want the default-enabled role", len(result.Units))
	}
	if got, _ := mustResolve(t, result, "binDir").AsString(); got != "/usr/sbin" {
		t.Errorf("binDir default = %s", got)
	}
}
