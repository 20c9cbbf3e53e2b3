package service

import (
	"fmt"
	"strings"
)

// ValidationError reports the per-field problems that make a row unusable.
// It is recorded against the row, not raised out of the batch.
type ValidationError struct {
	Line   int
	Errors []error
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("line %d: %s", e.Line, strings.Join(msgs, "; "))
}

// UnrecoverableContactError means a contact creation succeeded server-side
// but the new record could not be found by re-downloading and re-matching.
// That is a data-consistency dead end: the record exists upstream under a
// shape we cannot match, so silently skipping would hide a divergence.
type UnrecoverableContactError struct {
	DedupKey string
}

func (e *UnrecoverableContactError) Error() string {
	return "contact created but unrecoverable by re-match: " + e.DedupKey
}
