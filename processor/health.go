package processor

import (
	"context"
	"time"

	"github.com/heptiolabs/healthcheck"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/signadot/docworker/worker"
	"go.uber.org/zap"
)

// CheckHealth asks the worker for health problems. It does not touch any
// document.
func (p *Processor) CheckHealth(ctx context.Context) error {
	r := &worker.HealthReport{}
	p.worker.CheckHealth(ctx, r)
	err := r.Err()
	if err != nil {
		p.metrics.healthy.Set(0)
		return err
	}
	p.metrics.healthy.Set(1)
	return nil
}

func (p *Processor) healthTimeout() time.Duration {
	if iv := p.cfg.Health.Interval; iv > 0 {
		return iv
	}
	return 30 * time.Second
}

// HealthHandler returns an http handler serving /live, which runs the
// worker's health check, and /ready, which runs the liveness checks too and
// also fails once the processor is closed. Check results are exported to reg
// when it is not nil.
func (p *Processor) HealthHandler(reg prometheus.Registerer) healthcheck.Handler {
	var h healthcheck.Handler
	if reg != nil {
		h = healthcheck.NewMetricsHandler(reg, metricsNamespace)
	} else {
		h = healthcheck.NewHandler()
	}
	h.AddLivenessCheck("worker", func() error {
		ctx, cancel := context.WithTimeout(context.Background(), p.healthTimeout())
		defer cancel()
		return p.CheckHealth(ctx)
	})
	h.AddReadinessCheck("open", func() error {
		if p.isClosed() {
			return ErrClosed
		}
		return nil
	})
	return h
}

// WatchHealth runs CheckHealth every configured interval until ctx is done,
// logging changes of state.
func (p *Processor) WatchHealth(ctx context.Context) {
	t := time.NewTicker(p.healthTimeout())
	defer t.Stop()
	var last error
	first := true
	for {
		cctx, cancel := context.WithTimeout(ctx, p.healthTimeout())
		err := p.CheckHealth(cctx)
		cancel()
		switch {
		case err != nil && (first || last == nil):
			p.log.Warn("worker unhealthy", zap.Error(err))
		case err == nil && last != nil:
			p.log.Info("worker healthy again")
		}
		first = false
		last = err
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}
