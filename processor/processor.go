// Package processor runs a worker over batches of incoming tasks: it decodes
// and validates each message, builds its document, runs the worker, derives
// the change log and routes the result.
package processor

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/signadot/docworker/config"
	"github.com/signadot/docworker/field"
	"github.com/signadot/docworker/logging"
	"github.com/signadot/docworker/wire"
	"github.com/signadot/docworker/worker"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

var ErrClosed = errors.New("processor closed")

type Options struct {
	Config    *config.Config
	Logger    *zap.Logger
	Codec     *field.Codec
	Validator wire.Validator
	// Registerer receives the processor's metrics. It may be nil.
	Registerer prometheus.Registerer
	// Resources are closed by Close after the worker, last one first.
	Resources []io.Closer
}

type Processor struct {
	cfg       *config.Config
	log       *zap.Logger
	codec     *field.Codec
	validator wire.Validator
	metrics   *metrics

	worker worker.Worker
	kind   worker.Kind

	mu        sync.Mutex
	closed    bool
	resources []io.Closer
}

// New builds the worker with factory and returns a processor running it.
func New(factory worker.Factory, opts Options) (*Processor, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	p := &Processor{
		cfg:       cfg,
		log:       logging.OrNop(opts.Logger),
		codec:     opts.Codec,
		validator: opts.Validator,
		metrics:   newMetrics(opts.Registerer),
		resources: append([]io.Closer(nil), opts.Resources...),
	}
	if p.codec == nil {
		p.codec = field.NewCodec(nil)
	}
	if p.validator == nil {
		p.validator = wire.NewStructValidator()
	}
	w, err := factory(&worker.Application{
		Logger: p.log.Named("worker"),
		Codec:  p.codec,
		Config: cfg,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create worker: %w", err)
	}
	kind, err := worker.KindOf(w)
	if err != nil {
		return nil, multierr.Append(err, w.Close())
	}
	p.worker = w
	p.kind = kind
	p.resources = append(p.resources, w)
	p.log.Info("worker ready",
		zap.String("worker", cfg.EntryName()),
		zap.Stringer("kind", kind),
		zap.Int("concurrency", cfg.Processing.Concurrency))
	return p, nil
}

func (p *Processor) Config() *config.Config {
	return p.cfg
}

func (p *Processor) Kind() worker.Kind {
	return p.kind
}

// Close closes the worker and then the resources given in Options, in
// reverse order. All are closed even if some fail.
func (p *Processor) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	p.closed = true
	var err error
	for i := len(p.resources) - 1; i >= 0; i-- {
		if cerr := p.resources[i].Close(); cerr != nil {
			p.log.Warn("close failed", zap.Int("resource", i), zap.Error(cerr))
			err = multierr.Append(err, cerr)
		}
	}
	return err
}

func (p *Processor) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}
