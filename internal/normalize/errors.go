package normalize

import (
	"fmt"

	"scorebook/pipeline/internal/models"
)

// UnresolvedTeamError rejects a record whose team label has no canonical
// mapping. The record is dropped and the batch continues; the label is
// never passed through as-is.
type UnresolvedTeamError struct {
	Label  string
	Source models.Source
}

func (e *UnresolvedTeamError) Error() string {
	return fmt.Sprintf("unresolved team label %q from source %s", e.Label, e.Source)
}

// MalformedRecordError rejects a record with missing required fields or
// an internally inconsistent status/points combination.
type MalformedRecordError struct {
	Source models.Source
	Reason string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed record from source %s: %s", e.Source, e.Reason)
}

func malformed(source models.Source, format string, args ...interface{}) error {
	return &MalformedRecordError{Source: source, Reason: fmt.Sprintf(format, args...)}
}
