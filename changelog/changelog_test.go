package changelog_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/signadot/docworker/changelog"
	"github.com/signadot/docworker/document"
	"github.com/signadot/docworker/wire"
)

func baseline(t *testing.T, w *wire.Document) *document.Document {
	t.Helper()
	d, err := document.FromWire(nil, w)
	if err != nil {
		t.Fatal(err)
	}
	d.Baseline()
	return d
}

type failureTest struct {
	name string
	run  func(d *document.Document)
	want bool
}

func TestHasFailures(t *testing.T) {
	base := &wire.Document{
		Failures: []wire.Failure{{FailureID: "OLD"}},
		Subdocuments: []*wire.Document{
			{Reference: "a", Subdocuments: []*wire.Document{{Reference: "aa"}}},
		},
	}
	tests := []failureTest{
		{
			name: "no changes",
			run:  func(*document.Document) {},
		},
		{
			name: "field changes only",
			run: func(d *document.Document) {
				d.Field("x").AddText("1")
			},
		},
		{
			name: "root failure",
			run: func(d *document.Document) {
				d.Fail("E", "m")
			},
			want: true,
		},
		{
			name: "deep failure",
			run: func(d *document.Document) {
				d.Subdocument(0).Subdocument(0).Fail("E", "m")
			},
			want: true,
		},
		{
			name: "added subdocument with failure",
			run: func(d *document.Document) {
				d.Subdocument(0).AddSubdocument("n").AddSubdocument("nn").Fail("E", "m")
			},
			want: true,
		},
		{
			name: "inserted subdocument with failure",
			run: func(d *document.Document) {
				n, _ := d.InsertSubdocument(0, "n")
				n.Fail("E", "m")
			},
			want: true,
		},
		{
			name: "clearing existing failures",
			run: func(d *document.Document) {
				d.ClearFailures()
			},
		},
		{
			name: "set then cleared",
			run: func(d *document.Document) {
				d.SetFailures([]wire.Failure{{FailureID: "E"}})
				d.ClearFailures()
			},
			want: true,
		},
		{
			name: "added then removed subdocument",
			run: func(d *document.Document) {
				d.AddSubdocument("n").Fail("E", "m")
				_, _ = d.RemoveSubdocument(1)
			},
			want: true,
		},
	}
	for i := range tests {
		tc := &tests[i]
		d := baseline(t, base)
		tc.run(d)
		if got := changelog.HasFailures(d.Changes()); got != tc.want {
			t.Errorf("%s: got %t want %t", tc.name, got, tc.want)
		}
	}
}

func TestFailureMessages(t *testing.T) {
	d := baseline(t, &wire.Document{Subdocuments: []*wire.Document{{Reference: "a"}}})
	d.Fail("E1", "first")
	d.Subdocument(0).Fail("E2", "second")
	n := d.AddSubdocument("n")
	n.Fail("E3", "third")
	n.AddSubdocument("nn").Fail("E4", "fourth")
	got := changelog.FailureMessages(d.Changes())
	want := []string{"E1: first", "E3: third", "E4: fourth", "E2: second"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("(-want +got)\n%s", diff)
	}
}

func TestFieldChanges(t *testing.T) {
	d := baseline(t, &wire.Document{Fields: wire.Fields{"keep": {{Data: "k"}}, "drop": {{Data: "d"}}}})
	d.Field("a").AddText("1")
	d.Field("a").AddText("2")
	d.Field("b").AddText("0")
	d.Field("b").SetText("x")
	d.Field("b").AddText("y")
	d.Field("drop").Clear()
	d.Fail("E", "m")

	got, err := changelog.FieldChanges(d.Changes())
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]wire.FieldChanges{
		"a":    {Action: wire.ActionAdd, Values: []wire.FieldValue{{Data: "1"}, {Data: "2"}}},
		"b":    {Action: wire.ActionReplace, Values: []wire.FieldValue{{Data: "x"}, {Data: "y"}}},
		"drop": {Action: wire.ActionReplace, Values: []wire.FieldValue{}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("(-want +got)\n%s", diff)
	}
}

func TestFieldChangesRemoveThenAdd(t *testing.T) {
	changes := []wire.Change{
		{RemoveFields: []string{"f"}},
		{AddFields: wire.Fields{"f": {{Data: "z"}}}},
	}
	got, err := changelog.FieldChanges(changes)
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]wire.FieldChanges{
		"f": {Action: wire.ActionReplace, Values: []wire.FieldValue{{Data: "z"}}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("(-want +got)\n%s", diff)
	}
}

func TestFieldChangesRejectsSubdocuments(t *testing.T) {
	d := baseline(t, &wire.Document{})
	d.AddSubdocument("s")
	_, err := changelog.FieldChanges(d.Changes())
	if !errors.Is(err, changelog.ErrUnsupportedChange) {
		t.Errorf("got %v", err)
	}
	got, err := changelog.FieldChanges(nil)
	if err != nil || got != nil {
		t.Errorf("got %v %v", got, err)
	}
}

func TestAppend(t *testing.T) {
	log := []wire.ChangeLogEntry{{Name: "a:1"}}
	res := changelog.Append(log, changelog.EntryName("b", "2"), []wire.Change{{RemoveFields: []string{"x"}}})
	if len(log) != 1 {
		t.Error("input modified")
	}
	if len(res) != 2 || res[1].Name != "b:2" {
		t.Errorf("got %+v", res)
	}
	if n := len(changelog.Flatten(res)); n != 1 {
		t.Errorf("got %d flattened changes", n)
	}
	if got := changelog.EntryName("b", ""); got != "b" {
		t.Errorf("got %q", got)
	}
}
