// Package changelog inspects recorded changes without building a document:
// failure detection for routing, folding into the legacy field-change result
// and change log bookkeeping.
package changelog

import (
	"errors"
	"fmt"
	"slices"

	"github.com/signadot/docworker/wire"
)

var ErrUnsupportedChange = errors.New("change not supported by the legacy result format")

// EntryName names a change log entry after the worker which recorded it.
func EntryName(workerName, workerVersion string) string {
	if workerVersion == "" {
		return workerName
	}
	return workerName + ":" + workerVersion
}

// Append returns log with a new entry for changes. The input is not modified.
func Append(log []wire.ChangeLogEntry, name string, changes []wire.Change) []wire.ChangeLogEntry {
	res := make([]wire.ChangeLogEntry, len(log), len(log)+1)
	copy(res, log)
	return append(res, wire.ChangeLogEntry{Name: name, Changes: changes})
}

// Flatten concatenates the changes of every entry in log.
func Flatten(log []wire.ChangeLogEntry) []wire.Change {
	var res []wire.Change
	for i := range log {
		res = append(res, log[i].Changes...)
	}
	return res
}

// HasFailures reports whether changes introduce a failure anywhere in the
// tree: an added failure, a non-empty failure list set, an added subdocument
// carrying failures, or an updated subdocument whose changes have failures.
//
// A failure set and later cleared within changes still counts.
func HasFailures(changes []wire.Change) bool {
	for i := range changes {
		c := &changes[i]
		if c.AddFailure != nil {
			return true
		}
		if c.SetFailures != nil && len(*c.SetFailures) != 0 {
			return true
		}
		if c.AddSubdocument != nil && documentHasFailures(c.AddSubdocument) {
			return true
		}
		if p := c.InsertSubdocument; p != nil && documentHasFailures(p.Subdocument) {
			return true
		}
		if p := c.UpdateSubdocument; p != nil && HasFailures(p.Changes) {
			return true
		}
	}
	return false
}

func documentHasFailures(d *wire.Document) bool {
	if d == nil {
		return false
	}
	if len(d.Failures) != 0 {
		return true
	}
	return slices.ContainsFunc(d.Subdocuments, documentHasFailures)
}

// Failures returns every failure introduced by changes, depth first.
func Failures(changes []wire.Change) []wire.Failure {
	var res []wire.Failure
	for i := range changes {
		c := &changes[i]
		if c.AddFailure != nil {
			res = append(res, *c.AddFailure)
		}
		if c.SetFailures != nil {
			res = append(res, *c.SetFailures...)
		}
		if c.AddSubdocument != nil {
			res = documentFailures(res, c.AddSubdocument)
		}
		if p := c.InsertSubdocument; p != nil {
			res = documentFailures(res, p.Subdocument)
		}
		if p := c.UpdateSubdocument; p != nil {
			res = append(res, Failures(p.Changes)...)
		}
	}
	return res
}

func documentFailures(acc []wire.Failure, d *wire.Document) []wire.Failure {
	if d == nil {
		return acc
	}
	acc = append(acc, d.Failures...)
	for _, sub := range d.Subdocuments {
		acc = documentFailures(acc, sub)
	}
	return acc
}

// FailureMessages describes each failure introduced by changes as
// "<failure id>: <message>".
func FailureMessages(changes []wire.Change) []string {
	fs := Failures(changes)
	res := make([]string, 0, len(fs))
	for i := range fs {
		res = append(res, fs[i].FailureID+": "+fs[i].FailureMessage)
	}
	return res
}

// FieldChanges folds root level field changes into the legacy result form.
// A replace restarts a field's value list; later additions extend it.
// Failure changes are skipped. Subdocument changes cannot be expressed and
// yield ErrUnsupportedChange.
func FieldChanges(changes []wire.Change) (map[string]wire.FieldChanges, error) {
	res := map[string]wire.FieldChanges{}
	for i := range changes {
		c := &changes[i]
		if c.AddSubdocument != nil || c.InsertSubdocument != nil ||
			c.UpdateSubdocument != nil || c.RemoveSubdocument != nil {
			return nil, fmt.Errorf("%w: change %d is %s", ErrUnsupportedChange, i, c.Kind())
		}
		for name, vs := range c.SetFields {
			res[name] = wire.FieldChanges{
				Action: wire.ActionReplace,
				Values: append([]wire.FieldValue{}, vs...),
			}
		}
		for _, name := range c.RemoveFields {
			res[name] = wire.FieldChanges{Action: wire.ActionReplace, Values: []wire.FieldValue{}}
		}
		for name, vs := range c.AddFields {
			fc, ok := res[name]
			if !ok {
				fc = wire.FieldChanges{Action: wire.ActionAdd}
			}
			fc.Values = append(fc.Values, vs...)
			res[name] = fc
		}
	}
	if len(res) == 0 {
		return nil, nil
	}
	return res, nil
}
