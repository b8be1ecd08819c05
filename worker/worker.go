// Package worker defines what a document worker is and how one is
// constructed.
//
// A worker is either a DocumentWorker, which is handed one document at a
// time, or a BulkWorker, which is handed a whole batch. KindOf tells them
// apart. Workers are built by a Factory given the Application they run in;
// there is no discovery at run time.
package worker

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/signadot/docworker/config"
	"github.com/signadot/docworker/document"
	"github.com/signadot/docworker/field"
	"github.com/signadot/docworker/store"
	"go.uber.org/zap"
)

// ErrTransient marks errors after which a document should be retried.
var ErrTransient = errors.New("transient failure")

var ErrUnknownKind = errors.New("worker is neither a document worker nor a bulk worker")

type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }
func (e *transientError) Is(target error) bool {
	return target == ErrTransient
}

// Transient marks err as transient.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

// IsTransient reports whether err is worth retrying: it was marked with
// Transient or comes from the store.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient) ||
		errors.Is(err, store.ErrUnavailable) ||
		errors.Is(err, store.ErrNotFound)
}

// HealthMonitor receives health problems found by a worker.
type HealthMonitor interface {
	ReportUnhealthy(message string)
}

type Worker interface {
	// CheckHealth reports problems to m. It runs independently of document
	// processing.
	CheckHealth(ctx context.Context, m HealthMonitor)
	io.Closer
}

type DocumentWorker interface {
	Worker
	ProcessDocument(ctx context.Context, d *document.Document) error
}

type BulkWorker interface {
	Worker
	// ProcessBatch processes all documents of b. Failures of individual
	// documents are reported with Batch.Fail; an error returned applies to
	// every document not already failed.
	ProcessBatch(ctx context.Context, b *Batch) error
}

type Kind int

const (
	KindSingle Kind = iota
	KindBulk
)

func (k Kind) String() string {
	switch k {
	case KindSingle:
		return "single"
	case KindBulk:
		return "bulk"
	}
	return fmt.Sprintf("<unknown worker kind %d>", int(k))
}

// KindOf returns how w processes documents. A worker implementing both
// interfaces is treated as a bulk worker.
func KindOf(w Worker) (Kind, error) {
	if _, ok := w.(BulkWorker); ok {
		return KindBulk, nil
	}
	if _, ok := w.(DocumentWorker); ok {
		return KindSingle, nil
	}
	return 0, fmt.Errorf("%w: %T", ErrUnknownKind, w)
}

// Application is what a worker is given to run in.
type Application struct {
	Logger *zap.Logger
	Codec  *field.Codec
	Config *config.Config
}

// Factory constructs a worker.
type Factory func(app *Application) (Worker, error)

// Func adapts a function to a DocumentWorker which is always healthy.
type Func func(ctx context.Context, d *document.Document) error

func (f Func) ProcessDocument(ctx context.Context, d *document.Document) error {
	return f(ctx, d)
}

func (Func) CheckHealth(context.Context, HealthMonitor) {}

func (Func) Close() error { return nil }
