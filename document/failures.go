package document

import (
	"fmt"
	"slices"

	"github.com/pkg/errors"
	"github.com/signadot/docworker/wire"
)

type Failure = wire.Failure

const (
	// GeneralFailureID identifies failures raised for unexpected worker
	// errors.
	GeneralFailureID = "DW-GENERAL_FAILURE"
	// ProcessingFailedID identifies failures raised for messages which
	// exhausted their delivery attempts.
	ProcessingFailedID = "DW-PROCESSING_FAILED"
)

func (d *Document) Failures() []Failure {
	return slices.Clone(d.failures)
}

func (d *Document) HasFailures() bool {
	return len(d.failures) != 0
}

func (d *Document) AddFailure(f Failure) {
	d.failures = append(d.failures, f)
	d.record(&entry{kind: opAddFailure, failure: f})
}

// SetFailures replaces all failures with fs.
func (d *Document) SetFailures(fs []Failure) {
	fs = slices.Clone(fs)
	d.failures = fs
	d.record(&entry{kind: opSetFailures, failures: fs})
}

func (d *Document) ClearFailures() {
	d.SetFailures(nil)
}

// Fail adds a failure with the given id and message, stamped with the
// document's worker name.
func (d *Document) Fail(failureID, message string) {
	d.AddFailure(Failure{
		WorkerName:     d.WorkerName(),
		FailureID:      failureID,
		FailureMessage: message,
	})
}

// FailWithError adds a failure describing err, including a stack trace.
func (d *Document) FailWithError(failureID string, err error) {
	d.AddFailure(NewFailure(d.WorkerName(), failureID, err))
}

// NewFailure returns a failure describing err. If err does not carry a stack
// trace, the caller's is used.
func NewFailure(workerName, failureID string, err error) Failure {
	type stackTracer interface {
		StackTrace() errors.StackTrace
	}
	var st stackTracer
	if !errors.As(err, &st) {
		err = errors.WithStack(err)
	}
	return Failure{
		WorkerName:     workerName,
		FailureID:      failureID,
		FailureMessage: err.Error(),
		FailureStack:   fmt.Sprintf("%+v", err),
	}
}

// FailuresChanged reports whether failures were added or replaced since the
// last Baseline.
func (d *Document) FailuresChanged() bool {
	for _, e := range d.journal {
		if e.isFailureEntry() {
			return true
		}
	}
	return false
}

// ResetFailures discards the failure changes made since the last Baseline.
func (d *Document) ResetFailures() {
	d.journal = slices.DeleteFunc(d.journal, (*entry).isFailureEntry)
	d.failures = slices.Clone(d.baseFailures)
}
