// Copyright 2026 The Shareforge Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for shareforge
// packages. All helpers call t.Fatalf on failure rather than
// returning errors, since test setup failures are not recoverable.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteFile writes a file under dir, creating parent directories as
// needed, and returns its path. Used by loader tests to lay out
// fragment directories.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("creating directory for %s: %v", name, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

// FragmentDir creates a temporary directory populated with the given
// name→content files, for tests that load whole fragment
// directories. The directory is removed when the test completes.
func FragmentDir(t *testing.T, files map[string]string) string {
	t.Helper()

	dir := t.TempDir()
	for name, content := range files {
		WriteFile(t, dir, name, content)
	}
	return dir
}
