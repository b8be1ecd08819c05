package main

import (
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/signadot/docworker/config"
	"github.com/signadot/docworker/field"
	"github.com/signadot/docworker/logging"
	"github.com/signadot/docworker/processor"
	"github.com/signadot/docworker/store"
	"github.com/signadot/docworker/store/redisstore"
	"github.com/signadot/docworker/worker/exprworker"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// app is a processor running the rule worker, with the store and logger
// described by a configuration.
type app struct {
	cfg  *config.Config
	log  *zap.Logger
	reg  *prometheus.Registry
	proc *processor.Processor
}

func newApp(cfg *config.Config) (*app, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	log, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}
	s, closers, err := openStore(&cfg.Store)
	if err != nil {
		return nil, err
	}
	reg := prometheus.NewRegistry()
	proc, err := processor.New(exprworker.Factory, processor.Options{
		Config:     cfg,
		Logger:     log,
		Codec:      field.NewCodec(s),
		Registerer: reg,
		Resources:  closers,
	})
	if err != nil {
		return nil, multierr.Append(err, closeAll(closers))
	}
	return &app{cfg: cfg, log: log, reg: reg, proc: proc}, nil
}

func (a *app) Close() error {
	err := a.proc.Close()
	_ = a.log.Sync()
	return err
}

// openStore returns the store described by cfg, or nil for kind none, along
// with what must be closed after use.
func openStore(cfg *config.StoreConfig) (store.Store, []io.Closer, error) {
	var (
		s       store.Store
		closers []io.Closer
	)
	switch cfg.Kind {
	case config.StoreNone, "":
		return nil, nil, nil
	case config.StoreMemory:
		s = store.NewMemory()
	case config.StoreDir:
		s = store.NewDir(cfg.Dir)
	case config.StoreRedis:
		rs := redisstore.New(&redisstore.Options{
			Addr:      cfg.Redis.Addr,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			KeyPrefix: cfg.Redis.KeyPrefix,
			TTL:       cfg.Redis.TTL,
		})
		s = rs
		closers = append(closers, rs)
	default:
		return nil, nil, fmt.Errorf("unknown store kind %q", cfg.Kind)
	}
	if cfg.CacheSize <= 0 {
		return s, closers, nil
	}
	c, err := store.NewCached(s, cfg.CacheSize, cfg.MaxCachedObject)
	if err != nil {
		return nil, nil, multierr.Append(err, closeAll(closers))
	}
	// the cache closes the redis store itself
	return c, []io.Closer{c}, nil
}

func closeAll(cs []io.Closer) error {
	var err error
	for i := len(cs) - 1; i >= 0; i-- {
		err = multierr.Append(err, cs[i].Close())
	}
	return err
}
