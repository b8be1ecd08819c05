package wire

import "testing"

func TestEqualJSON(t *testing.T) {
	if !EqualJSON([]byte(`{"a":1,"b":[1,2]}`), []byte(`{ "b": [1, 2], "a": 1 }`)) {
		t.Error("expected equal")
	}
	if EqualJSON([]byte(`{"b":[1,2]}`), []byte(`{"b":[2,1]}`)) {
		t.Error("expected array order to matter")
	}
}

func TestMergePatchRoundTrip(t *testing.T) {
	from := &Document{
		Reference: "r",
		Fields:    Fields{"a": {{Data: "1"}}, "b": {{Data: "2"}}},
	}
	to := &Document{
		Reference: "r",
		Fields:    Fields{"a": {{Data: "1"}}, "c": {{Data: "3"}}},
		Failures:  []Failure{{FailureID: "X"}},
	}
	patch, err := MergePatch(from, to)
	if err != nil {
		t.Fatal(err)
	}
	got, err := ApplyMergePatch(from, patch)
	if err != nil {
		t.Fatal(err)
	}
	eq, err := EqualDocuments(to, got)
	if err != nil {
		t.Fatal(err)
	}
	if !eq {
		t.Errorf("patch %s did not reproduce target", patch)
	}
}
