package worker

import "github.com/signadot/docworker/document"

// Batch is the set of documents handed to a BulkWorker.
type Batch struct {
	docs []*document.Document
	errs []error
}

func NewBatch(docs []*document.Document) *Batch {
	return &Batch{docs: docs, errs: make([]error, len(docs))}
}

func (b *Batch) Len() int {
	return len(b.docs)
}

func (b *Batch) Document(i int) *document.Document {
	return b.docs[i]
}

func (b *Batch) Documents() []*document.Document {
	return b.docs
}

// Fail records err against the i'th document. The first error recorded
// wins.
func (b *Batch) Fail(i int, err error) {
	if b.errs[i] == nil {
		b.errs[i] = err
	}
}

// Err returns the error recorded against the i'th document.
func (b *Batch) Err(i int) error {
	return b.errs[i]
}
