// Package store provides the remote object stores that storage_ref field
// values are resolved against.
package store

import (
	"context"
	"errors"
	"fmt"
	"io"
)

var (
	// ErrUnavailable is returned when the store could not be reached or
	// failed while reading. It is transient.
	ErrUnavailable = errors.New("store unavailable")
	// ErrNotFound is returned when a reference names no object. The
	// object may not have been written yet, so it is treated as transient.
	ErrNotFound = errors.New("object not found")
)

// Store opens objects by reference. Implementations are safe for concurrent
// use.
type Store interface {
	Open(ctx context.Context, ref string) (io.ReadCloser, error)
}

// Writer is implemented by stores which accept new objects.
type Writer interface {
	Put(ctx context.Context, ref string, data []byte) error
}

// ReadAll opens ref in s and reads it fully. Read failures are reported as
// ErrUnavailable; a done context is reported as the context error.
func ReadAll(ctx context.Context, s Store, ref string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rc, err := s.Open(ctx, ref)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	d, err := io.ReadAll(rc)
	if err != nil {
		if cerr := ctx.Err(); cerr != nil {
			return nil, cerr
		}
		return nil, fmt.Errorf("%w: reading %q: %w", ErrUnavailable, ref, err)
	}
	return d, nil
}
