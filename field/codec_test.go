package field

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/signadot/docworker/store"
	"github.com/signadot/docworker/wire"
)

type createTest struct {
	in   wire.FieldValue
	kind Kind
	out  wire.FieldValue
	err  error
}

func TestCreate(t *testing.T) {
	tests := []createTest{
		{
			in:   wire.FieldValue{Data: "hello"},
			kind: KindText,
			out:  wire.FieldValue{Data: "hello"},
		},
		{
			in:   wire.FieldValue{Data: "hello", Encoding: wire.EncodingUTF8},
			kind: KindText,
			out:  wire.FieldValue{Data: "hello"},
		},
		{
			in:   wire.FieldValue{},
			kind: KindText,
			out:  wire.FieldValue{},
		},
		{
			// "hi" in base64 is textual so it goes out as text.
			in:   wire.FieldValue{Data: "aGk=", Encoding: wire.EncodingBase64},
			kind: KindBinary,
			out:  wire.FieldValue{Data: "hi"},
		},
		{
			in:   wire.FieldValue{Data: "/wA=", Encoding: wire.EncodingBase64},
			kind: KindBinary,
			out:  wire.FieldValue{Data: "/wA=", Encoding: wire.EncodingBase64},
		},
		{
			in:   wire.FieldValue{Data: "bucket/key", Encoding: wire.EncodingStorageRef},
			kind: KindReference,
			out:  wire.FieldValue{Data: "bucket/key", Encoding: wire.EncodingStorageRef},
		},
		{
			in:  wire.FieldValue{Data: "x", Encoding: "rot13"},
			err: ErrUnrecognizedEncoding,
		},
		{
			in:  wire.FieldValue{Data: "not base64!", Encoding: wire.EncodingBase64},
			err: ErrMalformedData,
		},
	}
	c := NewCodec(nil)
	for i := range tests {
		tc := &tests[i]
		v, err := c.FromWire(tc.in)
		if tc.err != nil {
			if !errors.Is(err, tc.err) {
				t.Errorf("%v: got err %v want %v", tc.in, err, tc.err)
			}
			continue
		}
		if err != nil {
			t.Errorf("%v: %v", tc.in, err)
			continue
		}
		if v.Kind() != tc.kind {
			t.Errorf("%v: got kind %s want %s", tc.in, v.Kind(), tc.kind)
		}
		if diff := cmp.Diff(tc.out, ToWire(v)); diff != "" {
			t.Errorf("%v: (-want +got)\n%s", tc.in, diff)
		}
	}
}

func TestUnrecognizedEncodingError(t *testing.T) {
	_, err := NewCodec(nil).Create("gzip", "")
	var uerr *UnrecognizedEncodingError
	if !errors.As(err, &uerr) {
		t.Fatalf("got %v", err)
	}
	if uerr.Encoding != "gzip" {
		t.Errorf("got %q", uerr.Encoding)
	}
}

type textTest struct {
	in      []byte
	text    string
	textual bool
}

func TestTextual(t *testing.T) {
	tests := []textTest{
		{in: []byte("plain"), text: "plain", textual: true},
		{in: []byte("hé"), text: "hé", textual: true},
		{in: []byte{'a', 0xff, 'b'}, text: "a�b", textual: false},
		{in: []byte{0xc3}, text: "�", textual: false},
		{in: []byte{0xed, 0xa0, 0x80}, text: "���", textual: false},
		{in: []byte{}, text: "", textual: true},
	}
	ctx := context.Background()
	c := NewCodec(nil)
	for i := range tests {
		tc := &tests[i]
		v := c.Binary(tc.in)
		got, err := Text(ctx, v)
		if err != nil {
			t.Fatal(err)
		}
		if got != tc.text {
			t.Errorf("% x: got text %q want %q", tc.in, got, tc.text)
		}
		textual, err := IsTextual(ctx, v)
		if err != nil {
			t.Fatal(err)
		}
		if textual != tc.textual {
			t.Errorf("% x: got textual %t want %t", tc.in, textual, tc.textual)
		}
	}
}

type openCounter struct {
	store.Store
	n int
}

func (o *openCounter) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	o.n++
	return o.Store.Open(ctx, ref)
}

func TestReference(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	if err := m.Put(ctx, "ref", []byte{0xff, 0xfe}); err != nil {
		t.Fatal(err)
	}
	counter := &openCounter{Store: m}
	c := NewCodec(counter)
	v := c.Reference("ref")
	_ = ToWire(v)
	_ = v.String()
	if counter.n != 0 {
		t.Fatalf("reference resolved during conversion")
	}
	textual, err := IsTextual(ctx, v)
	if err != nil {
		t.Fatal(err)
	}
	if textual {
		t.Error("expected binary content")
	}
	if counter.n != 1 {
		t.Errorf("got %d opens", counter.n)
	}

	_, err = c.Reference("nope").Bytes(ctx)
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("got %v", err)
	}

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	_, err = Text(cctx, v)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("got %v", err)
	}

	_, err = NewCodec(nil).Reference("x").Bytes(ctx)
	if !errors.Is(err, store.ErrUnavailable) {
		t.Errorf("got %v", err)
	}
}
