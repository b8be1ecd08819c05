package exprworker

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/signadot/docworker/config"
	"github.com/signadot/docworker/document"
	"github.com/signadot/docworker/field"
	"github.com/signadot/docworker/store"
	"github.com/signadot/docworker/wire"
	"github.com/signadot/docworker/worker"
)

func newDoc(t *testing.T, s store.Store, fields wire.Fields, custom map[string]string) *document.Document {
	t.Helper()
	d, err := document.FromTask(field.NewCodec(s), &wire.Task{Fields: fields, CustomData: custom})
	if err != nil {
		t.Fatal(err)
	}
	d.Baseline()
	d.SetWorkerName("rules")
	return d
}

func newWorker(t *testing.T, rules ...config.Rule) *Worker {
	t.Helper()
	w, err := New(rules, nil)
	if err != nil {
		t.Fatal(err)
	}
	return w
}

func texts(t *testing.T, d *document.Document, name string) []string {
	t.Helper()
	f, ok := d.Lookup(name)
	if !ok {
		return nil
	}
	res, err := f.Texts(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	return res
}

func TestRules(t *testing.T) {
	w := newWorker(t,
		config.Rule{Name: "upper", When: `has("title")`, Field: "title_upper", Action: config.ActionSet, Value: `upper(field("title"))`},
		config.Rule{Name: "tags", Field: "tags", Action: config.ActionAdd, Value: `["a", custom("tenant")]`},
		config.Rule{Name: "count", Field: "n", Action: config.ActionSet, Value: `len(values("tags"))`},
		config.Rule{Name: "skip", When: `has("missing")`, Field: "never", Action: config.ActionSet, Value: `"x"`},
	)
	d := newDoc(t, nil, wire.Fields{"title": {{Data: "hello"}}}, map[string]string{"tenant": "acme"})
	if err := w.ProcessDocument(context.Background(), d); err != nil {
		t.Fatal(err)
	}
	want := map[string][]string{
		"title_upper": {"HELLO"},
		"tags":        {"a", "acme"},
		"n":           {"2"},
	}
	for name, vs := range want {
		if diff := cmp.Diff(vs, texts(t, d, name)); diff != "" {
			t.Errorf("%s (-want +got)\n%s", name, diff)
		}
	}
	if _, ok := d.Lookup("never"); ok {
		t.Error("rule with a false condition ran")
	}
	if d.HasFailures() {
		t.Errorf("got failures %v", d.Failures())
	}
}

func TestFailRule(t *testing.T) {
	w := newWorker(t,
		config.Rule{Name: "require-title", When: `!has("title")`, Action: config.ActionFail, FailureID: "E-TITLE", Message: `"no title on " + reference`},
		config.Rule{Name: "plain", When: `isRoot && !hasFailures`, Action: config.ActionFail, FailureID: "E-OTHER"},
	)
	tests := []struct {
		fields wire.Fields
		want   []wire.Failure
	}{
		{
			fields: wire.Fields{"body": {{Data: "x"}}},
			want:   []wire.Failure{{WorkerName: "rules", FailureID: "E-TITLE", FailureMessage: "no title on "}},
		},
		{
			fields: wire.Fields{"title": {{Data: "x"}}},
			want:   []wire.Failure{{WorkerName: "rules", FailureID: "E-OTHER", FailureMessage: "plain"}},
		},
	}
	for i, tc := range tests {
		d := newDoc(t, nil, tc.fields, nil)
		if err := w.ProcessDocument(context.Background(), d); err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(tc.want, d.Failures()); diff != "" {
			t.Errorf("%d: (-want +got)\n%s", i, diff)
		}
	}
}

func TestReferencesResolvedOnDemand(t *testing.T) {
	mem := store.NewMemory()
	if err := mem.Put(context.Background(), "blob/1", []byte("stored text")); err != nil {
		t.Fatal(err)
	}
	fields := wire.Fields{"body": {{Data: "blob/1", Encoding: wire.EncodingStorageRef}}}
	w := newWorker(t, config.Rule{Name: "copy", Field: "copy", Action: config.ActionSet, Value: `field("body")`})

	d := newDoc(t, mem, fields, nil)
	if err := w.ProcessDocument(context.Background(), d); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"stored text"}, texts(t, d, "copy")); diff != "" {
		t.Errorf("(-want +got)\n%s", diff)
	}

	// a missing blob is transient
	d = newDoc(t, store.NewMemory(), fields, nil)
	if err := w.ProcessDocument(context.Background(), d); !worker.IsTransient(err) {
		t.Errorf("got %v", err)
	}
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name string
		rule config.Rule
	}{
		{"when not bool", config.Rule{Name: "r", When: `"yes"`, Field: "f", Action: config.ActionSet, Value: `"x"`}},
		{"bad syntax", config.Rule{Name: "r", Field: "f", Action: config.ActionSet, Value: `field(`}},
		{"unknown function", config.Rule{Name: "r", Field: "f", Action: config.ActionAdd, Value: `nope("a")`}},
		{"message not string", config.Rule{Name: "r", Action: config.ActionFail, FailureID: "E", Message: `1 + 2`}},
		{"unknown action", config.Rule{Name: "r", Action: "drop"}},
	}
	for i := range tests {
		tc := &tests[i]
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New([]config.Rule{tc.rule}, nil); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestFactory(t *testing.T) {
	cfg := config.Default()
	cfg.Rules = []config.Rule{{Name: "r", Field: "f", Action: config.ActionSet, Value: `"v"`}}
	w, err := Factory(&worker.Application{Config: cfg})
	if err != nil {
		t.Fatal(err)
	}
	kind, err := worker.KindOf(w)
	if err != nil {
		t.Fatal(err)
	}
	if kind != worker.KindSingle {
		t.Errorf("got kind %v", kind)
	}
	if err := w.Close(); err != nil {
		t.Error(err)
	}

	_, err = Factory(&worker.Application{Config: &config.Config{Rules: []config.Rule{{Name: "bad", Action: "x"}}}})
	if err == nil || errors.Is(err, worker.ErrTransient) {
		t.Errorf("got %v", err)
	}
}
