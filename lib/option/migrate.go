// Copyright 2026 The Shareforge Authors
// SPDX-License-Identifier: Apache-2.0

package option

// RenameNote records that a legacy path was rewritten during
// normalization. Notes are surfaced to the operator as diagnostics;
// they never fail a compilation.
type RenameNote struct {
	// From is the path as authored.
	From Path
	// To is the canonical path that replaced it.
	To Path
	// Fragment is the name of the fragment that used the legacy
	// path. Filled in by the compiler, not by Normalize.
	Fragment string
}

// Normalize rewrites path to its canonical form. A renamed path
// yields the current path plus a note; a removed path yields a
// *RemovedError carrying the schema author's message; any other path
// is returned unchanged with a nil note.
//
// Normalize is idempotent: canonical paths (including rename targets)
// pass through untouched, so applying it twice is the same as
// applying it once.
func (s *Schema) Normalize(path Path) (Path, *RenameNote, error) {
	key := path.String()
	if message, gone := s.removed[key]; gone {
		return nil, nil, &RemovedError{Path: path, Message: message}
	}
	if to, ok := s.renamed[key]; ok {
		return to, &RenameNote{From: path, To: to}, nil
	}
	return path, nil, nil
}
