package store

import (
	"bytes"
	"context"
	"fmt"
	"io"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultMaxCachedObject is the largest object Cached keeps in memory unless
// configured otherwise.
const DefaultMaxCachedObject = 1 << 20

// Cached is a read-through LRU cache in front of another store.
type Cached struct {
	inner   Store
	cache   *lru.Cache[string, []byte]
	maxSize int
}

// NewCached caches up to size objects of at most maxObject bytes each. A
// maxObject of zero means DefaultMaxCachedObject.
func NewCached(inner Store, size, maxObject int) (*Cached, error) {
	c, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, fmt.Errorf("could not create cache: %w", err)
	}
	if maxObject <= 0 {
		maxObject = DefaultMaxCachedObject
	}
	return &Cached{inner: inner, cache: c, maxSize: maxObject}, nil
}

func (c *Cached) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	if d, ok := c.cache.Get(ref); ok {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return io.NopCloser(bytes.NewReader(d)), nil
	}
	d, err := ReadAll(ctx, c.inner, ref)
	if err != nil {
		return nil, err
	}
	if len(d) <= c.maxSize {
		c.cache.Add(ref, d)
	}
	return io.NopCloser(bytes.NewReader(d)), nil
}

// Put writes through to the inner store when it is a Writer.
func (c *Cached) Put(ctx context.Context, ref string, data []byte) error {
	w, ok := c.inner.(Writer)
	if !ok {
		return fmt.Errorf("%T does not accept writes", c.inner)
	}
	if err := w.Put(ctx, ref, data); err != nil {
		return err
	}
	c.cache.Remove(ref)
	return nil
}

// Inner returns the wrapped store.
func (c *Cached) Inner() Store {
	return c.inner
}

func (c *Cached) Len() int {
	return c.cache.Len()
}

// Close closes the inner store if it is an io.Closer.
func (c *Cached) Close() error {
	c.cache.Purge()
	if cl, ok := c.inner.(io.Closer); ok {
		return cl.Close()
	}
	return nil
}
