package worker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/signadot/docworker/document"
	"github.com/signadot/docworker/store"
	"go.uber.org/multierr"
)

type recorder struct {
	name     string
	log      *[]string
	closeErr error
	procErr  error
}

func (r *recorder) ProcessDocument(_ context.Context, d *document.Document) error {
	*r.log = append(*r.log, "process "+r.name)
	d.Field("seen").AddText(r.name)
	return r.procErr
}

func (r *recorder) CheckHealth(_ context.Context, m HealthMonitor) {
	m.ReportUnhealthy(r.name)
}

func (r *recorder) Close() error {
	*r.log = append(*r.log, "close "+r.name)
	return r.closeErr
}

type bulk struct{ recorder }

func (b *bulk) ProcessBatch(context.Context, *Batch) error { return nil }

type bulkOnly struct{}

func (bulkOnly) ProcessBatch(context.Context, *Batch) error { return nil }
func (bulkOnly) CheckHealth(context.Context, HealthMonitor) {}
func (bulkOnly) Close() error                               { return nil }

func TestKindOf(t *testing.T) {
	var log []string
	tests := []struct {
		w    Worker
		want Kind
	}{
		{&recorder{log: &log}, KindSingle},
		{&bulk{recorder{log: &log}}, KindBulk},
		{bulkOnly{}, KindBulk},
	}
	for i, tc := range tests {
		k, err := KindOf(tc.w)
		if err != nil {
			t.Fatalf("%d: %v", i, err)
		}
		if k != tc.want {
			t.Errorf("%d: got %v want %v", i, k, tc.want)
		}
	}
	if _, err := KindOf(struct{ Worker }{}); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("got %v", err)
	}
}

func TestTransient(t *testing.T) {
	if Transient(nil) != nil {
		t.Error("Transient(nil) is not nil")
	}
	err := fmt.Errorf("wrapped: %w", Transient(errors.New("timeout")))
	if err.Error() != "wrapped: timeout" {
		t.Errorf("got %q", err.Error())
	}
	tests := []struct {
		err  error
		want bool
	}{
		{err, true},
		{fmt.Errorf("x: %w", store.ErrUnavailable), true},
		{store.ErrNotFound, true},
		{errors.New("other"), false},
	}
	for _, tc := range tests {
		if got := IsTransient(tc.err); got != tc.want {
			t.Errorf("IsTransient(%v): got %t", tc.err, got)
		}
	}
}

func errorStrings(err error) []string {
	var res []string
	for _, e := range multierr.Errors(err) {
		res = append(res, e.Error())
	}
	return res
}

func TestCompound(t *testing.T) {
	var log []string
	a := &recorder{name: "a", log: &log}
	b := &recorder{name: "b", log: &log, procErr: errors.New("b failed"), closeErr: errors.New("b close")}
	c := &recorder{name: "c", log: &log, closeErr: errors.New("c close")}
	comp := NewCompound(a, b, c)

	d := document.New(nil, "r")
	if err := comp.ProcessDocument(context.Background(), d); err == nil || err.Error() != "b failed" {
		t.Errorf("got %v", err)
	}

	report := &HealthReport{}
	comp.CheckHealth(context.Background(), report)
	if diff := cmp.Diff([]string{"a", "b", "c"}, report.Messages()); diff != "" {
		t.Errorf("(-want +got)\n%s", diff)
	}
	if !errors.Is(report.Err(), ErrUnhealthy) {
		t.Errorf("got %v", report.Err())
	}

	err := comp.Close()
	if diff := cmp.Diff([]string{"c close", "b close"}, errorStrings(err)); diff != "" {
		t.Errorf("close errors (-want +got)\n%s", diff)
	}
	want := []string{"process a", "process b", "close c", "close b", "close a"}
	if diff := cmp.Diff(want, log); diff != "" {
		t.Errorf("(-want +got)\n%s", diff)
	}
}

func TestCompoundFactoryClosesOnFailure(t *testing.T) {
	var log []string
	ok := func(name string) Factory {
		return func(*Application) (Worker, error) {
			return &recorder{name: name, log: &log}, nil
		}
	}
	failing := func(*Application) (Worker, error) {
		return nil, errors.New("no config")
	}
	_, err := CompoundFactory(ok("a"), ok("b"), failing)(&Application{})
	if err == nil || !strings.Contains(err.Error(), "compound worker 2: no config") {
		t.Errorf("got %v", err)
	}
	if diff := cmp.Diff([]string{"close b", "close a"}, log); diff != "" {
		t.Errorf("(-want +got)\n%s", diff)
	}

	log = nil
	w, err := CompoundFactory(ok("a"), ok("b"))(&Application{})
	if err != nil {
		t.Fatal(err)
	}
	k, err := KindOf(w)
	if err != nil {
		t.Fatal(err)
	}
	if k != KindSingle {
		t.Errorf("got kind %v", k)
	}
	if err := w.(DocumentWorker).ProcessDocument(context.Background(), document.New(nil, "")); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"process a", "process b"}, log); diff != "" {
		t.Errorf("(-want +got)\n%s", diff)
	}

	log = nil
	notSingle := func(*Application) (Worker, error) {
		return bulkOnly{}, nil
	}
	if _, err := CompoundFactory(ok("a"), Factory(notSingle))(&Application{}); err == nil {
		t.Error("expected an error for a bulk member")
	}
	if diff := cmp.Diff([]string{"close a"}, log); diff != "" {
		t.Errorf("(-want +got)\n%s", diff)
	}
}

func TestBatch(t *testing.T) {
	b := NewBatch([]*document.Document{document.New(nil, "a"), document.New(nil, "b")})
	if b.Len() != 2 {
		t.Fatalf("got len %d", b.Len())
	}
	first := errors.New("first")
	b.Fail(1, first)
	b.Fail(1, errors.New("second"))
	if err := b.Err(0); err != nil {
		t.Errorf("got %v", err)
	}
	if err := b.Err(1); err != first {
		t.Errorf("got %v", err)
	}
	if ref := b.Document(1).Reference(); ref != "b" {
		t.Errorf("got %q", ref)
	}
}
