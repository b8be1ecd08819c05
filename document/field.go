package document

import (
	"context"
	"slices"

	"github.com/signadot/docworker/field"
)

// Field is a named, ordered list of values in a document.
type Field struct {
	doc    *Document
	name   string
	values []field.Value
	// cleared is the replace entry created by the first Clear since the
	// last Baseline.
	cleared *entry
	// base holds the values as of the last Baseline.
	base []field.Value
}

func (f *Field) Name() string {
	return f.name
}

func (f *Field) Document() *Document {
	return f.doc
}

// Values returns a copy of the field's values.
func (f *Field) Values() []field.Value {
	return slices.Clone(f.values)
}

func (f *Field) Len() int {
	return len(f.values)
}

func (f *Field) HasValues() bool {
	return len(f.values) != 0
}

// Texts returns each value decoded as text.
func (f *Field) Texts(ctx context.Context) ([]string, error) {
	res := make([]string, 0, len(f.values))
	for _, v := range f.values {
		s, err := field.Text(ctx, v)
		if err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	return res, nil
}

func (f *Field) Add(v field.Value) {
	f.values = append(f.values, v)
	if f.cleared != nil {
		f.cleared.values = append(f.cleared.values, v)
		f.doc.traceFold(f.cleared)
		return
	}
	f.doc.record(&entry{kind: opAddValue, field: f.name, values: []field.Value{v}})
}

func (f *Field) AddText(s string) {
	f.Add(f.doc.codec.Text(s))
}

func (f *Field) AddBytes(b []byte) {
	f.Add(f.doc.codec.Binary(b))
}

func (f *Field) AddReference(ref string) {
	f.Add(f.doc.codec.Reference(ref))
}

// Clear removes all values.
func (f *Field) Clear() {
	f.values = nil
	if f.cleared != nil {
		f.cleared.values = nil
		f.doc.traceFold(f.cleared)
		return
	}
	e := &entry{kind: opReplaceValues, field: f.name}
	f.cleared = e
	f.doc.record(e)
}

// Set replaces the field's values.
func (f *Field) Set(vs ...field.Value) {
	f.Clear()
	for _, v := range vs {
		f.Add(v)
	}
}

func (f *Field) SetText(ss ...string) {
	f.Clear()
	for _, s := range ss {
		f.AddText(s)
	}
}

func (f *Field) SetBytes(b []byte) {
	f.Set(f.doc.codec.Binary(b))
}

func (f *Field) SetReference(ref string) {
	f.Set(f.doc.codec.Reference(ref))
}

// HasChanges reports whether the field was changed since the last Baseline.
func (f *Field) HasChanges() bool {
	for _, e := range f.doc.journal {
		if e.isFieldEntry(f.name) {
			return true
		}
	}
	return false
}

// Reset discards the changes made to the field since the last Baseline.
func (f *Field) Reset() {
	f.doc.journal = slices.DeleteFunc(f.doc.journal, func(e *entry) bool {
		return e.isFieldEntry(f.name)
	})
	f.values = slices.Clone(f.base)
	f.cleared = nil
}
