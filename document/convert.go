package document

import (
	"fmt"
	"maps"
	"slices"

	"github.com/signadot/docworker/field"
	"github.com/signadot/docworker/wire"
)

// ToWire returns the wire form of d. Fields without values are left out and
// references are not resolved.
func (d *Document) ToWire() *wire.Document {
	w := &wire.Document{Reference: d.reference}
	for _, f := range d.Fields() {
		if w.Fields == nil {
			w.Fields = wire.Fields{}
		}
		w.Fields[f.name] = field.ToWireList(f.values)
	}
	if len(d.failures) != 0 {
		w.Failures = slices.Clone(d.failures)
	}
	if len(d.subdocs) != 0 {
		w.Subdocuments = make([]*wire.Document, len(d.subdocs))
		for i, sub := range d.subdocs {
			w.Subdocuments[i] = sub.ToWire()
		}
	}
	return w
}

// FromWire builds a document tree from w. Nothing is recorded.
func FromWire(codec *field.Codec, w *wire.Document) (*Document, error) {
	if codec == nil {
		codec = field.NewCodec(nil)
	}
	d := New(codec, "")
	if err := d.fill(w); err != nil {
		return nil, err
	}
	return d, nil
}

// FromTask builds a root document from a field enrichment task.
func FromTask(codec *field.Codec, t *wire.Task) (*Document, error) {
	d, err := FromWire(codec, &wire.Document{Fields: t.Fields})
	if err != nil {
		return nil, err
	}
	d.customData = maps.Clone(t.CustomData)
	return d, nil
}

// FromDocumentTask builds a document from t's base document and folds in
// t's change log. The result has been baselined.
func FromDocumentTask(codec *field.Codec, t *wire.DocumentTask) (*Document, error) {
	if t.Document == nil {
		return nil, fmt.Errorf("%w: document task has no document", ErrInvalidChangeLog)
	}
	d, err := FromWire(codec, t.Document)
	if err != nil {
		return nil, err
	}
	d.customData = maps.Clone(t.CustomData)
	if err := d.ApplyChangeLog(t.ChangeLog); err != nil {
		return nil, err
	}
	d.Baseline()
	return d, nil
}

func (d *Document) fill(w *wire.Document) error {
	if w == nil {
		return nil
	}
	d.reference = w.Reference
	for _, name := range slices.Sorted(maps.Keys(w.Fields)) {
		vs, err := d.codec.FromWireList(w.Fields[name])
		if err != nil {
			return fmt.Errorf("field %q: %w", name, err)
		}
		f := d.Field(name)
		f.values = vs
	}
	if len(w.Failures) != 0 {
		d.failures = slices.Clone(w.Failures)
	}
	for i, ws := range w.Subdocuments {
		sub := d.newChild("")
		if err := sub.fill(ws); err != nil {
			return fmt.Errorf("subdocument %d: %w", i, err)
		}
		d.subdocs = append(d.subdocs, sub)
	}
	return nil
}
