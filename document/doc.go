// Package document implements the mutable document tree handed to workers,
// the journal recording each mutation, and the applier replaying recorded
// changes onto another copy of a document.
//
// # Lifecycle
//
// A Document is built from a wire payload with FromWire or FromTask. If the
// payload carries a change log from earlier hops it is folded in with
// ApplyChangeLog. Baseline then forgets everything recorded so far, so that
// Changes reports only what happens afterwards.
//
// # Recording
//
// Every mutating call records one journal entry, except that once a field is
// cleared, later additions to and clears of that field fold into the single
// replace entry created by the first clear.
//
// Changes emits a document's own entries first, subdocuments added during the
// pass being embedded with their final state, followed by one update entry per
// pre-existing subdocument which has changes of its own.
//
// # Concurrency
//
// Documents are not safe for concurrent use. A document tree is owned by one
// goroutine at a time.
package document
