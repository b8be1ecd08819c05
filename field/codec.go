package field

import (
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/signadot/docworker/store"
	"github.com/signadot/docworker/wire"
)

var (
	ErrUnrecognizedEncoding = errors.New("unrecognized encoding")
	ErrMalformedData        = errors.New("malformed field data")
)

type UnrecognizedEncodingError struct {
	Encoding wire.Encoding
}

func (e *UnrecognizedEncodingError) Error() string {
	return fmt.Sprintf("unrecognized encoding %q", string(e.Encoding))
}

func (e *UnrecognizedEncodingError) Is(target error) bool {
	return target == ErrUnrecognizedEncoding
}

// Codec creates field values. References it creates resolve against its
// store.
type Codec struct {
	store store.Store
}

// NewCodec returns a codec whose references resolve against s, which may be
// nil if no references are expected.
func NewCodec(s store.Store) *Codec {
	return &Codec{store: s}
}

func (c *Codec) Store() store.Store {
	return c.store
}

// Create decodes data according to enc. The empty encoding means utf8.
func (c *Codec) Create(enc wire.Encoding, data string) (Value, error) {
	switch enc.OrDefault() {
	case wire.EncodingUTF8:
		return c.Text(data), nil
	case wire.EncodingBase64:
		b, err := base64.StdEncoding.DecodeString(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedData, err)
		}
		return c.Binary(b), nil
	case wire.EncodingStorageRef:
		return c.Reference(data), nil
	}
	return nil, &UnrecognizedEncodingError{Encoding: enc}
}

func (c *Codec) FromWire(v wire.FieldValue) (Value, error) {
	return c.Create(v.Encoding, v.Data)
}

// FromWireList decodes vs, stopping at the first error.
func (c *Codec) FromWireList(vs []wire.FieldValue) ([]Value, error) {
	res := make([]Value, 0, len(vs))
	for i := range vs {
		v, err := c.FromWire(vs[i])
		if err != nil {
			return nil, err
		}
		res = append(res, v)
	}
	return res, nil
}

func (c *Codec) Text(s string) Value {
	return &TextValue{s: s}
}

func (c *Codec) Binary(b []byte) Value {
	return &BinaryValue{b: b}
}

func (c *Codec) Reference(ref string) Value {
	return &ReferenceValue{ref: ref, store: c.store}
}
