package worker

import (
	"context"
	"fmt"

	"github.com/signadot/docworker/document"
	"go.uber.org/multierr"
)

// Compound runs document workers one after the other on each document.
type Compound struct {
	workers []DocumentWorker
}

func NewCompound(ws ...DocumentWorker) *Compound {
	return &Compound{workers: ws}
}

func (c *Compound) Workers() []DocumentWorker {
	return c.workers
}

// ProcessDocument stops at the first worker returning an error.
func (c *Compound) ProcessDocument(ctx context.Context, d *document.Document) error {
	for _, w := range c.workers {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.ProcessDocument(ctx, d); err != nil {
			return err
		}
	}
	return nil
}

func (c *Compound) CheckHealth(ctx context.Context, m HealthMonitor) {
	for _, w := range c.workers {
		w.CheckHealth(ctx, m)
	}
}

// Close closes the workers in reverse order, returning all errors.
func (c *Compound) Close() error {
	return closeAll(c.workers)
}

func closeAll(ws []DocumentWorker) error {
	var err error
	for i := len(ws) - 1; i >= 0; i-- {
		err = multierr.Append(err, ws[i].Close())
	}
	return err
}

// CompoundFactory returns a factory building each of fs in order and
// composing the results. Every factory must build a DocumentWorker. If one
// fails, the workers already built are closed.
func CompoundFactory(fs ...Factory) Factory {
	return func(app *Application) (Worker, error) {
		ws := make([]DocumentWorker, 0, len(fs))
		for i, f := range fs {
			w, err := f(app)
			if err != nil {
				return nil, multierr.Append(fmt.Errorf("compound worker %d: %w", i, err), closeAll(ws))
			}
			dw, ok := w.(DocumentWorker)
			if !ok {
				err = fmt.Errorf("compound worker %d: %T is not a document worker", i, w)
				return nil, multierr.Combine(err, w.Close(), closeAll(ws))
			}
			ws = append(ws, dw)
		}
		return NewCompound(ws...), nil
	}
}
