package redisstore

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/signadot/docworker/store"
)

func newTestStore(t *testing.T) (*miniredis.Miniredis, *Store) {
	t.Helper()
	srv := miniredis.RunT(t)
	s := New(&Options{Addr: srv.Addr(), KeyPrefix: "dw:", MaxRetries: -1})
	t.Cleanup(func() { s.Close() })
	return srv, s
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	srv, s := newTestStore(t)
	if err := srv.Set("dw:obj", "payload"); err != nil {
		t.Fatal(err)
	}
	d, err := store.ReadAll(ctx, s, "obj")
	if err != nil {
		t.Fatal(err)
	}
	if string(d) != "payload" {
		t.Errorf("got %q", d)
	}
	if _, err := s.Open(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("got %v", err)
	}
}

func TestPut(t *testing.T) {
	ctx := context.Background()
	srv, s := newTestStore(t)
	if err := s.Put(ctx, "k", []byte{0xff, 0x00}); err != nil {
		t.Fatal(err)
	}
	got, err := srv.Get("dw:k")
	if err != nil {
		t.Fatal(err)
	}
	if got != string([]byte{0xff, 0x00}) {
		t.Errorf("got %q", got)
	}
	if err := s.Ping(ctx); err != nil {
		t.Error(err)
	}
}

func TestUnavailable(t *testing.T) {
	srv, s := newTestStore(t)
	srv.SetError("ERR injected failure")
	if _, err := s.Open(context.Background(), "obj"); !errors.Is(err, store.ErrUnavailable) {
		t.Errorf("got %v", err)
	}
}

func TestCanceled(t *testing.T) {
	_, s := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Open(ctx, "obj"); !errors.Is(err, context.Canceled) {
		t.Errorf("got %v", err)
	}
}
