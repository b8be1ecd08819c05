package document

import (
	"fmt"
	"maps"
	"slices"

	"github.com/signadot/docworker/debug"
	"github.com/signadot/docworker/wire"
)

// ApplyChangeLog applies each entry's changes in order.
func (d *Document) ApplyChangeLog(log []wire.ChangeLogEntry) error {
	for i := range log {
		if err := d.Apply(log[i].Changes); err != nil {
			return fmt.Errorf("change log entry %d (%s): %w", i, log[i].Name, err)
		}
	}
	return nil
}

// Apply replays changes onto d using the same operations a worker would
// call, so they are recorded in d's journal as well.
func (d *Document) Apply(changes []wire.Change) error {
	for i := range changes {
		if err := d.applyChange(&changes[i]); err != nil {
			return fmt.Errorf("change %d: %w", i, err)
		}
	}
	return nil
}

func (d *Document) applyChange(c *wire.Change) error {
	if debug.Apply() {
		debug.Logf("apply %q: %v\n", d.reference, c)
	}
	if c.SetReference != nil {
		return fmt.Errorf("%w: setReference is not supported", ErrInvalidChangeLog)
	}
	if c.AddFields != nil {
		for _, name := range slices.Sorted(maps.Keys(c.AddFields)) {
			vs, err := d.codec.FromWireList(c.AddFields[name])
			if err != nil {
				return fmt.Errorf("field %q: %w", name, err)
			}
			f := d.Field(name)
			for _, v := range vs {
				f.Add(v)
			}
		}
	}
	if c.SetFields != nil {
		for _, name := range slices.Sorted(maps.Keys(c.SetFields)) {
			vs, err := d.codec.FromWireList(c.SetFields[name])
			if err != nil {
				return fmt.Errorf("field %q: %w", name, err)
			}
			d.Field(name).Set(vs...)
		}
	}
	for _, name := range c.RemoveFields {
		d.Field(name).Clear()
	}
	if c.AddFailure != nil {
		d.AddFailure(*c.AddFailure)
	}
	if c.SetFailures != nil {
		d.SetFailures(*c.SetFailures)
	}
	if c.AddSubdocument != nil {
		sub, err := d.subdocFromWire(c.AddSubdocument)
		if err != nil {
			return err
		}
		d.subdocs = append(d.subdocs, sub)
		d.record(&entry{kind: opAddSubdocument, subdoc: sub})
	}
	if p := c.InsertSubdocument; p != nil {
		if p.Index < 0 || p.Index > len(d.subdocs) {
			return fmt.Errorf("%w: %w: insert at %d of %d", ErrInvalidChangeLog, ErrIndexOutOfRange, p.Index, len(d.subdocs))
		}
		sub, err := d.subdocFromWire(p.Subdocument)
		if err != nil {
			return err
		}
		d.subdocs = slices.Insert(d.subdocs, p.Index, sub)
		d.record(&entry{kind: opInsertSubdocument, index: p.Index, subdoc: sub})
	}
	if p := c.UpdateSubdocument; p != nil {
		i, err := d.locate(p.Index, p.Reference)
		if err != nil {
			return err
		}
		if err := d.subdocs[i].Apply(p.Changes); err != nil {
			return fmt.Errorf("subdocument %d (%q): %w", i, p.Reference, err)
		}
	}
	if p := c.RemoveSubdocument; p != nil {
		i, err := d.locate(p.Index, p.Reference)
		if err != nil {
			return err
		}
		if _, err := d.RemoveSubdocument(i); err != nil {
			return err
		}
	}
	return nil
}

func (d *Document) subdocFromWire(w *wire.Document) (*Document, error) {
	sub := d.newChild("")
	if err := sub.fill(w); err != nil {
		return nil, err
	}
	sub.isNew = true
	return sub, nil
}

// locate finds the subdocument a change addresses. With an index hint the
// subdocument there must have the given reference, otherwise the first
// subdocument with the reference is used.
func (d *Document) locate(index *int, reference string) (int, error) {
	if index == nil {
		for i, sub := range d.subdocs {
			if sub.reference == reference {
				return i, nil
			}
		}
		return -1, &UnexpectedSubdocumentReferenceError{Index: -1, Expected: reference}
	}
	i := *index
	if i < 0 || i >= len(d.subdocs) {
		return -1, &UnexpectedSubdocumentReferenceError{Index: i, Expected: reference}
	}
	if actual := d.subdocs[i].reference; actual != reference {
		return -1, &UnexpectedSubdocumentReferenceError{Index: i, Expected: reference, Actual: actual, Found: true}
	}
	return i, nil
}
