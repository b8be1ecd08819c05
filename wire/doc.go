// Package wire defines the serializable payloads exchanged between pipeline
// hops: the field-enrichment task and its result, the document task with its
// accumulated change log, and the change entries themselves.
//
// # Payloads
//
// A Task carries a flat field map and custom data. Its Result reports per-field
// changes (add or replace) and any failures raised while processing.
//
// A DocumentTask carries a full Document tree plus the ChangeLog recorded by
// earlier hops. A receiver folds the change log onto the document to obtain the
// current state; after processing it appends one more ChangeLogEntry.
//
// # Field values
//
// A FieldValue is data plus an Encoding. The empty encoding means utf8 and is
// omitted when encoding. Binary data travels as base64; storage_ref values carry
// an opaque reference into a remote store.
//
// # Changes
//
// A Change has exactly one of its members set when produced by this module.
// Consumers tolerate several members and apply them in declaration order.
package wire
