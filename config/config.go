// Package config holds the worker process configuration file.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/signadot/docworker/changelog"
	"go.uber.org/multierr"
)

// Config is the top level configuration file structure.
type Config struct {
	Worker     WorkerConfig     `yaml:"worker"`
	Queues     QueueConfig      `yaml:"queues"`
	Processing ProcessingConfig `yaml:"processing"`
	Store      StoreConfig      `yaml:"store"`
	Log        LogConfig        `yaml:"log"`
	Health     HealthConfig     `yaml:"health"`
	// Rules configure the expression worker.
	Rules []Rule `yaml:"rules,omitempty"`
}

type WorkerConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

// QueueConfig names where results are routed.
type QueueConfig struct {
	Success string `yaml:"success"`
	Failure string `yaml:"failure"`
}

type ProcessingConfig struct {
	BatchSize   int `yaml:"batchSize"`
	Concurrency int `yaml:"concurrency"`
	// ProcessSubdocumentsSeparately hands every node of a document tree to
	// the worker as a document of its own.
	ProcessSubdocumentsSeparately bool `yaml:"processSubdocumentsSeparately"`
	// DocumentTimeout bounds the processing of one document. Zero means no
	// bound.
	DocumentTimeout time.Duration `yaml:"documentTimeout"`
	// ExceptionOnFailure answers a task whose processing added failures
	// with an exception listing them instead of a result.
	ExceptionOnFailure bool `yaml:"exceptionOnFailure"`
}

type StoreKind string

const (
	StoreNone   StoreKind = "none"
	StoreMemory StoreKind = "memory"
	StoreDir    StoreKind = "dir"
	StoreRedis  StoreKind = "redis"
)

type StoreConfig struct {
	Kind  StoreKind   `yaml:"kind"`
	Dir   string      `yaml:"dir,omitempty"`
	Redis RedisConfig `yaml:"redis,omitempty"`
	// CacheSize is the number of objects kept in memory. Zero disables
	// caching.
	CacheSize       int `yaml:"cacheSize"`
	MaxCachedObject int `yaml:"maxCachedObject,omitempty"`
}

type RedisConfig struct {
	Addr      string        `yaml:"addr"`
	Password  string        `yaml:"password,omitempty"`
	DB        int           `yaml:"db,omitempty"`
	KeyPrefix string        `yaml:"keyPrefix,omitempty"`
	TTL       time.Duration `yaml:"ttl,omitempty"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type HealthConfig struct {
	Addr     string        `yaml:"addr,omitempty"`
	Interval time.Duration `yaml:"interval"`
}

// Rule is one expression worker rule. When is a boolean expression; if it
// holds, Value is evaluated and written to Field according to Action. A rule
// with Action "fail" adds a failure with FailureID and the evaluated Message
// instead.
type Rule struct {
	Name      string `yaml:"name"`
	When      string `yaml:"when,omitempty"`
	Field     string `yaml:"field,omitempty"`
	Action    string `yaml:"action"`
	Value     string `yaml:"value,omitempty"`
	FailureID string `yaml:"failureId,omitempty"`
	Message   string `yaml:"message,omitempty"`
}

const (
	ActionSet  = "set"
	ActionAdd  = "add"
	ActionFail = "fail"
)

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Worker: WorkerConfig{
			Name:    "docworker",
			Version: "1",
		},
		Queues: QueueConfig{
			Success: "document-output",
			Failure: "document-failure",
		},
		Processing: ProcessingConfig{
			BatchSize:   50,
			Concurrency: 8,
		},
		Store: StoreConfig{
			Kind:      StoreNone,
			CacheSize: 128,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Health: HealthConfig{
			Interval: 30 * time.Second,
		},
	}
}

// Load reads a YAML configuration file on top of the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes data on top of the defaults. Unknown keys are an error.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.UnmarshalWithOptions(data, cfg, yaml.DisallowUnknownField()); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// Marshal encodes c as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// Validate checks the configuration, reporting every problem found.
func (c *Config) Validate() error {
	var err error
	if c.Worker.Name == "" {
		err = multierr.Append(err, fmt.Errorf("worker.name is required"))
	}
	if c.Queues.Success == "" || c.Queues.Failure == "" {
		err = multierr.Append(err, fmt.Errorf("queues.success and queues.failure are required"))
	}
	if c.Processing.BatchSize <= 0 {
		err = multierr.Append(err, fmt.Errorf("processing.batchSize must be positive, got %d", c.Processing.BatchSize))
	}
	if c.Processing.Concurrency <= 0 {
		err = multierr.Append(err, fmt.Errorf("processing.concurrency must be positive, got %d", c.Processing.Concurrency))
	}
	if c.Processing.DocumentTimeout < 0 {
		err = multierr.Append(err, fmt.Errorf("processing.documentTimeout must not be negative"))
	}
	switch c.Store.Kind {
	case StoreNone, StoreMemory, "":
	case StoreDir:
		if c.Store.Dir == "" {
			err = multierr.Append(err, fmt.Errorf("store.dir is required for a dir store"))
		}
	case StoreRedis:
		if c.Store.Redis.Addr == "" {
			err = multierr.Append(err, fmt.Errorf("store.redis.addr is required for a redis store"))
		}
	default:
		err = multierr.Append(err, fmt.Errorf("unknown store kind %q", c.Store.Kind))
	}
	if c.Store.CacheSize < 0 {
		err = multierr.Append(err, fmt.Errorf("store.cacheSize must not be negative"))
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		err = multierr.Append(err, fmt.Errorf("unknown log format %q", c.Log.Format))
	}
	names := map[string]bool{}
	for i := range c.Rules {
		r := &c.Rules[i]
		if names[r.Name] {
			err = multierr.Append(err, fmt.Errorf("rules[%d]: duplicate name %q", i, r.Name))
		}
		names[r.Name] = true
		switch r.Action {
		case ActionSet, ActionAdd:
			if r.Field == "" || r.Value == "" {
				err = multierr.Append(err, fmt.Errorf("rules[%d]: %s needs field and value", i, r.Action))
			}
		case ActionFail:
			if r.FailureID == "" {
				err = multierr.Append(err, fmt.Errorf("rules[%d]: fail needs failureId", i))
			}
		default:
			err = multierr.Append(err, fmt.Errorf("rules[%d]: unknown action %q", i, r.Action))
		}
	}
	return err
}

// EntryName is the change log entry name for this worker.
func (c *Config) EntryName() string {
	return changelog.EntryName(c.Worker.Name, c.Worker.Version)
}
