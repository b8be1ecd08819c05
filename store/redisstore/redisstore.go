// Package redisstore resolves storage references against a redis server.
package redisstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/signadot/docworker/store"
)

type Options struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
	// TTL applies to objects written with Put. Zero means no expiry.
	TTL time.Duration
	// MaxRetries is passed to the client; -1 disables retries.
	MaxRetries int
}

type Store struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

func New(opts *Options) *Store {
	c := redis.NewClient(&redis.Options{
		Addr:       opts.Addr,
		Password:   opts.Password,
		DB:         opts.DB,
		MaxRetries: opts.MaxRetries,
	})
	return NewFromClient(c, opts.KeyPrefix, opts.TTL)
}

func NewFromClient(c redis.UniversalClient, prefix string, ttl time.Duration) *Store {
	return &Store{client: c, prefix: prefix, ttl: ttl}
}

func (s *Store) key(ref string) string {
	return s.prefix + ref
}

func (s *Store) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d, err := s.client.Get(ctx, s.key(ref)).Bytes()
	if err != nil {
		return nil, s.wrap(ctx, ref, err)
	}
	return io.NopCloser(bytes.NewReader(d)), nil
}

func (s *Store) Put(ctx context.Context, ref string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key(ref), data, s.ttl).Err(); err != nil {
		return s.wrap(ctx, ref, err)
	}
	return nil
}

// Ping reports whether the server answers.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return s.wrap(ctx, "", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) wrap(ctx context.Context, ref string, err error) error {
	if errors.Is(err, redis.Nil) {
		return fmt.Errorf("%w: %q", store.ErrNotFound, ref)
	}
	if cerr := ctx.Err(); cerr != nil {
		return cerr
	}
	return fmt.Errorf("%w: redis: %w", store.ErrUnavailable, err)
}
