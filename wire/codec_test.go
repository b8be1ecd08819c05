package wire

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type decodeTaskTest struct {
	in   string
	want *Task
	err  error
}

func TestDecodeTask(t *testing.T) {
	tests := []decodeTaskTest{
		{
			in: `{"fields": {"title": [{"data": "x"}]}}`,
			want: &Task{
				Fields: Fields{"title": {{Data: "x"}}},
			},
		},
		{
			in: `{"fields": {"blob": [{"data": "AAE=", "encoding": "base64"}]}, "customData": {"k": "v"}}`,
			want: &Task{
				Fields:     Fields{"blob": {{Data: "AAE=", Encoding: EncodingBase64}}},
				CustomData: map[string]string{"k": "v"},
			},
		},
		{
			in:  `{"fields": [}`,
			err: ErrDecode,
		},
	}
	for i := range tests {
		tc := &tests[i]
		got, err := DecodeTask([]byte(tc.in))
		if tc.err != nil {
			if !errors.Is(err, tc.err) {
				t.Errorf("%q: got err %v want %v", tc.in, err, tc.err)
			}
			continue
		}
		if err != nil {
			t.Errorf("%q: %v", tc.in, err)
			continue
		}
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Errorf("%q: (-want +got)\n%s", tc.in, diff)
		}
	}
}

func TestMarshalOmitsDefaults(t *testing.T) {
	doc := &Document{
		Reference: "r",
		Fields:    Fields{"a": {{Data: "x"}}},
	}
	d, err := Marshal(doc)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"reference":"r","fields":{"a":[{"data":"x"}]}}`
	if !EqualJSON(d, []byte(want)) {
		t.Errorf("got %s want %s", d, want)
	}
}

func TestMarshalEmptySetFailures(t *testing.T) {
	empty := []Failure{}
	c := Change{SetFailures: &empty}
	d, err := Marshal(c)
	if err != nil {
		t.Fatal(err)
	}
	if !EqualJSON(d, []byte(`{"setFailures":[]}`)) {
		t.Errorf("got %s", d)
	}
	var back Change
	if err := decode(d, &back); err != nil {
		t.Fatal(err)
	}
	if back.Kind() != ChangeSetFailures {
		t.Errorf("got kind %s", back.Kind())
	}
	if back.SetFailures == nil || len(*back.SetFailures) != 0 {
		t.Errorf("got %v", back.SetFailures)
	}
}

func TestDecodeDocumentTask(t *testing.T) {
	in := `{
  "document": {"reference": "root", "subdocuments": [{"reference": "a"}]},
  "changeLog": [
    {"name": "w:1", "changes": [
      {"addFields": {"f": [{"data": "v"}]}},
      {"updateSubdocument": {"index": 0, "reference": "a", "changes": [{"removeFields": ["g"]}]}}
    ]}
  ]
}`
	got, err := DecodeDocumentTask([]byte(in))
	if err != nil {
		t.Fatal(err)
	}
	want := &DocumentTask{
		Document: &Document{
			Reference:    "root",
			Subdocuments: []*Document{{Reference: "a"}},
		},
		ChangeLog: []ChangeLogEntry{
			{
				Name: "w:1",
				Changes: []Change{
					{AddFields: Fields{"f": {{Data: "v"}}}},
					{UpdateSubdocument: &UpdateSubdocumentParams{
						Index:     IntPtr(0),
						Reference: "a",
						Changes:   []Change{{RemoveFields: []string{"g"}}},
					}},
				},
			},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("(-want +got)\n%s", diff)
	}
}

func TestDecodeChanges(t *testing.T) {
	bare := `[{"addFailure": {"failureId": "X"}}]`
	log, err := DecodeChanges([]byte(bare))
	if err != nil {
		t.Fatal(err)
	}
	if len(log) != 1 || len(log[0].Changes) != 1 || log[0].Changes[0].Kind() != ChangeAddFailure {
		t.Errorf("bare: got %+v", log)
	}
	named := `[{"name": "a:1", "changes": [{"removeFields": ["x"]}]}, {"name": "b:1"}]`
	log, err = DecodeChanges([]byte(named))
	if err != nil {
		t.Fatal(err)
	}
	if len(log) != 2 || log[0].Name != "a:1" || log[1].Name != "b:1" {
		t.Errorf("named: got %+v", log)
	}
	log, err = DecodeChanges([]byte(`[]`))
	if err != nil || log != nil {
		t.Errorf("empty: got %v %v", log, err)
	}
}

func TestChangeKindString(t *testing.T) {
	if got := ChangeInsertSubdocument.String(); got != "insertSubdocument" {
		t.Errorf("got %q", got)
	}
	if got := ChangeKind(99).String(); got != "<unknown change kind 99>" {
		t.Errorf("got %q", got)
	}
}
