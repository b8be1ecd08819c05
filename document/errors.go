package document

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidChangeLog is returned when a change log does not fit the
	// document it is applied to. It is not retryable.
	ErrInvalidChangeLog = errors.New("invalid change log")
	ErrIndexOutOfRange  = errors.New("subdocument index out of range")
	ErrReplayMismatch   = errors.New("replayed document differs")
)

// UnexpectedSubdocumentReferenceError is returned when a change addresses a
// subdocument which is not where the change says it is.
type UnexpectedSubdocumentReferenceError struct {
	// Index is the index hint of the change, or -1 if it had none.
	Index    int
	Expected string
	// Actual is the reference found at Index, if there was a subdocument
	// there.
	Actual string
	Found  bool
}

func (e *UnexpectedSubdocumentReferenceError) Error() string {
	switch {
	case e.Index < 0:
		return fmt.Sprintf("no subdocument with reference %q", e.Expected)
	case !e.Found:
		return fmt.Sprintf("no subdocument at index %d (expected reference %q)", e.Index, e.Expected)
	}
	return fmt.Sprintf("subdocument at index %d has reference %q, expected %q", e.Index, e.Actual, e.Expected)
}

func (e *UnexpectedSubdocumentReferenceError) Is(target error) bool {
	return target == ErrInvalidChangeLog
}
