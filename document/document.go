package document

import (
	"slices"

	"github.com/signadot/docworker/field"
)

type Document struct {
	reference  string
	parent     *Document
	codec      *field.Codec
	fields     map[string]*Field
	fieldOrder []string
	failures   []Failure
	subdocs    []*Document
	customData map[string]string
	workerName string
	response   *Response

	journal []*entry
	// isNew is set on subdocuments created since the last Baseline.
	isNew bool
	// baseFailures holds the failures as of the last Baseline.
	baseFailures []Failure
}

// New returns an empty root document whose values are created with codec.
func New(codec *field.Codec, reference string) *Document {
	if codec == nil {
		codec = field.NewCodec(nil)
	}
	return &Document{
		reference: reference,
		codec:     codec,
		fields:    map[string]*Field{},
	}
}

func (d *Document) newChild(reference string) *Document {
	return &Document{
		reference: reference,
		parent:    d,
		codec:     d.codec,
		fields:    map[string]*Field{},
	}
}

func (d *Document) Reference() string {
	return d.reference
}

// Parent returns the document d is a subdocument of, or nil for a root or a
// removed subdocument.
func (d *Document) Parent() *Document {
	return d.parent
}

func (d *Document) Root() *Document {
	r := d
	for r.parent != nil {
		r = r.parent
	}
	return r
}

func (d *Document) IsRoot() bool {
	return d.parent == nil
}

// Codec returns the codec used to create d's values.
func (d *Document) Codec() *field.Codec {
	return d.codec
}

// CustomData returns the custom data entry for key. Custom data belongs to the
// root document and is shared by its subdocuments.
func (d *Document) CustomData(key string) (string, bool) {
	v, ok := d.Root().customData[key]
	return v, ok
}

// CustomDataMap returns a copy of the custom data.
func (d *Document) CustomDataMap() map[string]string {
	cd := d.Root().customData
	if cd == nil {
		return nil
	}
	res := make(map[string]string, len(cd))
	for k, v := range cd {
		res[k] = v
	}
	return res
}

// SetWorkerName sets the worker name stamped on failures created with
// Fail. It applies to the whole tree.
func (d *Document) SetWorkerName(name string) {
	d.Root().workerName = name
}

func (d *Document) WorkerName() string {
	return d.Root().workerName
}

// Field returns the field named name, creating it if need be. Creating a
// field records nothing.
func (d *Document) Field(name string) *Field {
	if f, ok := d.fields[name]; ok {
		return f
	}
	f := &Field{doc: d, name: name}
	d.fields[name] = f
	d.fieldOrder = append(d.fieldOrder, name)
	return f
}

// Lookup returns the field named name if it exists.
func (d *Document) Lookup(name string) (*Field, bool) {
	f, ok := d.fields[name]
	return f, ok
}

// Fields returns the fields having at least one value, in creation order.
func (d *Document) Fields() []*Field {
	res := make([]*Field, 0, len(d.fieldOrder))
	for _, name := range d.fieldOrder {
		f := d.fields[name]
		if len(f.values) == 0 {
			continue
		}
		res = append(res, f)
	}
	return res
}

// Walk calls fn on d and then on each subdocument, depth first, stopping at
// the first error.
func (d *Document) Walk(fn func(*Document) error) error {
	if err := fn(d); err != nil {
		return err
	}
	for _, sub := range d.subdocs {
		if err := sub.Walk(fn); err != nil {
			return err
		}
	}
	return nil
}

// Baseline forgets all recorded changes in the tree and marks every
// subdocument as pre-existing.
func (d *Document) Baseline() {
	d.journal = nil
	d.isNew = false
	d.baseFailures = slices.Clone(d.failures)
	for _, f := range d.fields {
		f.cleared = nil
		f.base = slices.Clone(f.values)
	}
	for _, sub := range d.subdocs {
		sub.Baseline()
	}
}
