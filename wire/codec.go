package wire

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
)

var ErrDecode = errors.New("decode error")

// Marshal encodes v as compact JSON.
func Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

// MarshalIndent encodes v as indented JSON.
func MarshalIndent(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}

func decode(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return nil
}

func DecodeTask(data []byte) (*Task, error) {
	t := &Task{}
	if err := decode(data, t); err != nil {
		return nil, err
	}
	return t, nil
}

func DecodeDocumentTask(data []byte) (*DocumentTask, error) {
	t := &DocumentTask{}
	if err := decode(data, t); err != nil {
		return nil, err
	}
	return t, nil
}

func DecodeResult(data []byte) (*Result, error) {
	r := &Result{}
	if err := decode(data, r); err != nil {
		return nil, err
	}
	return r, nil
}

func DecodeDocument(data []byte) (*Document, error) {
	d := &Document{}
	if err := decode(data, d); err != nil {
		return nil, err
	}
	return d, nil
}

// DecodeChanges decodes either a bare list of changes or a change log (a list
// of named entries), returning the entries in both cases.
func DecodeChanges(data []byte) ([]ChangeLogEntry, error) {
	var raw []json.RawMessage
	if err := decode(data, &raw); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw[0], &probe); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	_, hasName := probe["name"]
	_, hasChanges := probe["changes"]
	if hasName || hasChanges {
		var log []ChangeLogEntry
		if err := decode(data, &log); err != nil {
			return nil, err
		}
		return log, nil
	}
	var changes []Change
	if err := decode(data, &changes); err != nil {
		return nil, err
	}
	return []ChangeLogEntry{{Changes: changes}}, nil
}
