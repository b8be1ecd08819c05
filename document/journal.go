package document

import (
	"github.com/signadot/docworker/debug"
	"github.com/signadot/docworker/field"
	"github.com/signadot/docworker/wire"
)

type opKind int

const (
	opAddValue opKind = iota
	opReplaceValues
	opAddFailure
	opSetFailures
	opAddSubdocument
	opInsertSubdocument
	opRemoveSubdocument
)

// entry is a journal entry. Subdocuments added by an entry are held by
// pointer and converted when the changes are read, so they carry their final
// state.
type entry struct {
	kind      opKind
	field     string
	values    []field.Value
	failure   Failure
	failures  []Failure
	subdoc    *Document
	index     int
	reference string
}

func (e *entry) isFieldEntry(name string) bool {
	return (e.kind == opAddValue || e.kind == opReplaceValues) && e.field == name
}

func (e *entry) isFailureEntry() bool {
	return e.kind == opAddFailure || e.kind == opSetFailures
}

func (d *Document) record(e *entry) {
	d.journal = append(d.journal, e)
	if debug.Record() {
		debug.Logf("record %q: %v\n", d.reference, e.toWire())
	}
}

func (d *Document) traceFold(e *entry) {
	if debug.Record() {
		debug.Logf("record %q: fold into %v\n", d.reference, e.toWire())
	}
}

func (e *entry) toWire() wire.Change {
	switch e.kind {
	case opAddValue:
		return wire.Change{AddFields: wire.Fields{e.field: field.ToWireList(e.values)}}
	case opReplaceValues:
		return wire.Change{SetFields: wire.Fields{e.field: field.ToWireList(e.values)}}
	case opAddFailure:
		f := e.failure
		return wire.Change{AddFailure: &f}
	case opSetFailures:
		fs := make([]wire.Failure, len(e.failures))
		copy(fs, e.failures)
		return wire.Change{SetFailures: &fs}
	case opAddSubdocument:
		return wire.Change{AddSubdocument: e.subdoc.ToWire()}
	case opInsertSubdocument:
		return wire.Change{InsertSubdocument: &wire.InsertSubdocumentParams{
			Index:       e.index,
			Subdocument: e.subdoc.ToWire(),
		}}
	case opRemoveSubdocument:
		return wire.Change{RemoveSubdocument: &wire.RemoveSubdocumentParams{
			Index:     wire.IntPtr(e.index),
			Reference: e.reference,
		}}
	}
	panic("unknown journal entry")
}

// Changes returns the changes made to d since the last Baseline.
func (d *Document) Changes() []wire.Change {
	var res []wire.Change
	for _, e := range d.journal {
		res = append(res, e.toWire())
	}
	for i, sub := range d.subdocs {
		if sub.isNew {
			continue
		}
		nested := sub.Changes()
		if len(nested) == 0 {
			continue
		}
		res = append(res, wire.Change{UpdateSubdocument: &wire.UpdateSubdocumentParams{
			Index:     wire.IntPtr(i),
			Reference: sub.reference,
			Changes:   nested,
		}})
	}
	return res
}

// HasChanges reports whether Changes would return anything.
func (d *Document) HasChanges() bool {
	if len(d.journal) != 0 {
		return true
	}
	for _, sub := range d.subdocs {
		if !sub.isNew && sub.HasChanges() {
			return true
		}
	}
	return false
}
