// Package field implements field values: inline text, inline binary data and
// references into a remote store, along with their wire encoding.
package field

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/signadot/docworker/store"
	"github.com/signadot/docworker/wire"
)

type Kind int

const (
	KindText Kind = iota
	KindBinary
	KindReference
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindBinary:
		return "binary"
	case KindReference:
		return "reference"
	default:
		return fmt.Sprintf("<unknown kind %d>", int(k))
	}
}

// Value is a field value. The set of implementations is closed: *TextValue,
// *BinaryValue and *ReferenceValue.
type Value interface {
	Kind() Kind
	// Bytes returns the value's content. For references this reads from the
	// store.
	Bytes(ctx context.Context) ([]byte, error)
	String() string
	value()
}

type TextValue struct {
	s string
}

func (v *TextValue) Kind() Kind { return KindText }

func (v *TextValue) Bytes(context.Context) ([]byte, error) {
	return []byte(v.s), nil
}

func (v *TextValue) Text() string { return v.s }

func (v *TextValue) String() string {
	return fmt.Sprintf("text(%q)", v.s)
}

func (*TextValue) value() {}

type BinaryValue struct {
	b []byte
}

func (v *BinaryValue) Kind() Kind { return KindBinary }

func (v *BinaryValue) Bytes(context.Context) ([]byte, error) {
	return v.b, nil
}

func (v *BinaryValue) String() string {
	return fmt.Sprintf("binary(%d bytes)", len(v.b))
}

func (*BinaryValue) value() {}

// ReferenceValue names an object in a store. It is resolved only by Bytes.
type ReferenceValue struct {
	ref   string
	store store.Store
}

func (v *ReferenceValue) Kind() Kind { return KindReference }

func (v *ReferenceValue) Ref() string { return v.ref }

func (v *ReferenceValue) Bytes(ctx context.Context) ([]byte, error) {
	if v.store == nil {
		return nil, fmt.Errorf("%w: no store to resolve %q", store.ErrUnavailable, v.ref)
	}
	return store.ReadAll(ctx, v.store, v.ref)
}

func (v *ReferenceValue) String() string {
	return fmt.Sprintf("ref(%q)", v.ref)
}

func (*ReferenceValue) value() {}

// Text returns v decoded as UTF-8, with each invalid byte replaced by
// U+FFFD. Only store errors are returned.
func Text(ctx context.Context, v Value) (string, error) {
	if tv, ok := v.(*TextValue); ok {
		return tv.s, nil
	}
	b, err := v.Bytes(ctx)
	if err != nil {
		return "", err
	}
	return lossyUTF8(b), nil
}

func lossyUTF8(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	var sb strings.Builder
	sb.Grow(len(b))
	for len(b) > 0 {
		r, n := utf8.DecodeRune(b)
		sb.WriteRune(r)
		b = b[n:]
	}
	return sb.String()
}

// IsTextual reports whether v decodes as strict UTF-8. References are
// resolved to answer.
func IsTextual(ctx context.Context, v Value) (bool, error) {
	switch x := v.(type) {
	case *TextValue:
		return true, nil
	case *BinaryValue:
		return utf8.Valid(x.b), nil
	}
	b, err := v.Bytes(ctx)
	if err != nil {
		return false, err
	}
	return utf8.Valid(b), nil
}

// ToWire returns the wire form of v. Binary data which is valid UTF-8 is sent
// as text. References are not resolved.
func ToWire(v Value) wire.FieldValue {
	switch x := v.(type) {
	case *TextValue:
		return wire.FieldValue{Data: x.s}
	case *BinaryValue:
		if utf8.Valid(x.b) {
			return wire.FieldValue{Data: string(x.b)}
		}
		return wire.FieldValue{Data: base64.StdEncoding.EncodeToString(x.b), Encoding: wire.EncodingBase64}
	case *ReferenceValue:
		return wire.FieldValue{Data: x.ref, Encoding: wire.EncodingStorageRef}
	}
	panic(fmt.Sprintf("unknown field value type %T", v))
}

// ToWireList applies ToWire to each of vs. The result is never nil.
func ToWireList(vs []Value) []wire.FieldValue {
	res := make([]wire.FieldValue, len(vs))
	for i, v := range vs {
		res[i] = ToWire(v)
	}
	return res
}
