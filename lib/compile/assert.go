// Copyright 2026 The Shareforge Authors
// SPDX-License-Identifier: Apache-2.0

package compile

// Assertion is a named cross-field validity check over the resolved
// configuration. Assertions run only after migration and merge,
// never against raw fragments, and they gate synthesis: any failing
// assertion aborts the pass before artifacts exist.
type Assertion struct {
	// Name identifies the assertion in failure messages.
	Name string

	// Check returns the failure messages, or nil when the
	// configuration satisfies the assertion. Returning messages
	// rather than a bare bool lets a check name the offending value
	// (e.g. which share is missing a path).
	Check func(*Resolved) []string
}

// Require builds the common fixed-message assertion: ok must hold or
// message is reported.
func Require(name, message string, ok func(*Resolved) bool) Assertion {
	return Assertion{
		Name: name,
		Check: func(r *Resolved) []string {
			if ok(r) {
				return nil
			}
			return []string{message}
		},
	}
}

// evaluateAssertions runs every assertion in registration order and
// collects ALL failures. Surfacing the complete list in one pass
// spares the operator a fix-one, recompile, discover-the-next loop.
func evaluateAssertions(assertions []Assertion, resolved *Resolved) []Failure {
	var failures []Failure
	for _, assertion := range assertions {
		for _, message := range assertion.Check(resolved) {
			failures = append(failures, Failure{
				Kind:    FailureAssertion,
				Message: assertion.Name + ": " + message,
			})
		}
	}
	return failures
}
