package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/gops/agent"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/scott-cotton/cli"
	"go.uber.org/zap"
)

func serve(cfg *ServeConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Serve.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) > 1 {
		return fmt.Errorf("%w: serve takes at most one input file", cli.ErrUsage)
	}
	c, err := cfg.load()
	if err != nil {
		return err
	}
	if cfg.Addr != "" {
		c.Health.Addr = cfg.Addr
	}

	if cfg.Gops {
		if err := agent.Listen(agent.Options{}); err != nil {
			fmt.Fprintf(cc.Out, "gops agent failed: %v\n", err)
		} else {
			defer agent.Close()
		}
	}

	a, err := newApp(c)
	if err != nil {
		return err
	}
	defer a.Close()

	var in io.Reader = cc.In
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("could not open %q: %w", args[0], err)
		}
		defer f.Close()
		in = f
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go a.proc.WatchHealth(ctx)

	if addr := c.Health.Addr; addr != "" {
		srv := &http.Server{Addr: addr, Handler: a.handler()}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.log.Error("health server failed", zap.String("addr", addr), zap.Error(err))
			}
		}()
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(sctx)
		}()
		a.log.Info("serving health checks", zap.String("addr", addr))
	}

	a.log.Info("worker started",
		zap.String("worker", c.EntryName()),
		zap.Stringer("kind", a.proc.Kind()))
	err = pump(ctx, a.proc, in, cc.Out, cfg.FlushEvery, nil)
	a.log.Info("worker stopped")
	return err
}

// handler serves /live and /ready health checks and /metrics.
func (a *app) handler() http.Handler {
	h := a.proc.HealthHandler(a.reg)
	mux := http.NewServeMux()
	mux.Handle("/live", h)
	mux.Handle("/ready", h)
	mux.Handle("/metrics", promhttp.HandlerFor(a.reg, promhttp.HandlerOpts{}))
	return mux
}
