package document

import (
	"fmt"
	"slices"
)

// Subdocuments returns a copy of d's subdocument list.
func (d *Document) Subdocuments() []*Document {
	return slices.Clone(d.subdocs)
}

func (d *Document) NumSubdocuments() int {
	return len(d.subdocs)
}

// Subdocument returns the i'th subdocument, or nil if i is out of range.
func (d *Document) Subdocument(i int) *Document {
	if i < 0 || i >= len(d.subdocs) {
		return nil
	}
	return d.subdocs[i]
}

// IndexOf returns the position of sub among d's subdocuments, or -1.
func (d *Document) IndexOf(sub *Document) int {
	return slices.Index(d.subdocs, sub)
}

// AddSubdocument appends a new empty subdocument.
func (d *Document) AddSubdocument(reference string) *Document {
	sub := d.newChild(reference)
	sub.isNew = true
	d.subdocs = append(d.subdocs, sub)
	d.record(&entry{kind: opAddSubdocument, subdoc: sub})
	return sub
}

// InsertSubdocument inserts a new empty subdocument at index i, which may
// equal the number of subdocuments.
func (d *Document) InsertSubdocument(i int, reference string) (*Document, error) {
	if i < 0 || i > len(d.subdocs) {
		return nil, fmt.Errorf("%w: insert at %d of %d", ErrIndexOutOfRange, i, len(d.subdocs))
	}
	sub := d.newChild(reference)
	sub.isNew = true
	d.subdocs = slices.Insert(d.subdocs, i, sub)
	d.record(&entry{kind: opInsertSubdocument, index: i, subdoc: sub})
	return sub, nil
}

// RemoveSubdocument removes and returns the i'th subdocument.
func (d *Document) RemoveSubdocument(i int) (*Document, error) {
	if i < 0 || i >= len(d.subdocs) {
		return nil, fmt.Errorf("%w: remove at %d of %d", ErrIndexOutOfRange, i, len(d.subdocs))
	}
	sub := d.subdocs[i]
	d.subdocs = slices.Delete(d.subdocs, i, i+1)
	sub.parent = nil
	d.record(&entry{kind: opRemoveSubdocument, index: i, reference: sub.reference})
	return sub, nil
}

// Remove removes d from its parent.
func (d *Document) Remove() error {
	p := d.parent
	if p == nil {
		return fmt.Errorf("%w: document %q has no parent", ErrIndexOutOfRange, d.reference)
	}
	_, err := p.RemoveSubdocument(p.IndexOf(d))
	return err
}
