package store

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func mustPut(t *testing.T, s Writer, ref string, data []byte) {
	t.Helper()
	if err := s.Put(context.Background(), ref, data); err != nil {
		t.Fatal(err)
	}
}

func mustRead(t *testing.T, s Store, ref string) []byte {
	t.Helper()
	d, err := ReadAll(context.Background(), s, ref)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestMemory(t *testing.T) {
	m := NewMemory()
	mustPut(t, m, "a", []byte("hello"))
	if got := string(mustRead(t, m, "a")); got != "hello" {
		t.Errorf("got %q", got)
	}
	if _, err := ReadAll(context.Background(), m, "b"); !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v", err)
	}
}

func TestReadAllCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m := NewMemory()
	mustPut(t, m, "a", []byte("x"))
	_, err := ReadAll(ctx, m, "a")
	if !errors.Is(err, context.Canceled) || errors.Is(err, ErrUnavailable) {
		t.Errorf("got %v", err)
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }
func (failingReader) Close() error             { return nil }

type failingStore struct{}

func (failingStore) Open(context.Context, string) (io.ReadCloser, error) {
	return failingReader{}, nil
}

func TestReadAllReadFailure(t *testing.T) {
	if _, err := ReadAll(context.Background(), failingStore{}, "x"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("got %v", err)
	}
}

func TestDir(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	d := NewDir(root)
	want := []byte{0, 1, 2}
	mustPut(t, d, "x/y.bin", want)

	got, err := os.ReadFile(filepath.Join(root, "x", "y.bin"))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("on disk (-want +got)\n%s", diff)
	}
	if diff := cmp.Diff(want, mustRead(t, d, "x/y.bin")); diff != "" {
		t.Errorf("read (-want +got)\n%s", diff)
	}
	for _, ref := range []string{"x/missing", "../escape"} {
		if _, err := d.Open(ctx, ref); !errors.Is(err, ErrNotFound) {
			t.Errorf("%s: got %v", ref, err)
		}
	}
}

type countingStore struct {
	Store
	opens int
}

func (c *countingStore) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	c.opens++
	return c.Store.Open(ctx, ref)
}

func TestCached(t *testing.T) {
	m := NewMemory()
	mustPut(t, m, "small", []byte("abc"))
	mustPut(t, m, "big", []byte("0123456789"))
	inner := &countingStore{Store: m}

	c, err := NewCached(inner, 4, 5)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if got := string(mustRead(t, c, "small")); got != "abc" {
			t.Errorf("got %q", got)
		}
	}
	if inner.opens != 1 {
		t.Errorf("got %d opens", inner.opens)
	}

	// objects above the size limit are not cached
	for i := 0; i < 2; i++ {
		mustRead(t, c, "big")
	}
	if inner.opens != 3 {
		t.Errorf("got %d opens", inner.opens)
	}
	if c.Len() != 1 {
		t.Errorf("got %d cached", c.Len())
	}
	if _, err := ReadAll(context.Background(), c, "none"); !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v", err)
	}
}

func TestCachedPutInvalidates(t *testing.T) {
	m := NewMemory()
	mustPut(t, m, "k", []byte("v1"))
	c, err := NewCached(m, 4, 0)
	if err != nil {
		t.Fatal(err)
	}
	mustRead(t, c, "k")
	mustPut(t, c, "k", []byte("v2"))
	if got := string(mustRead(t, c, "k")); got != "v2" {
		t.Errorf("got %q", got)
	}
}
