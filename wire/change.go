package wire

import "fmt"

// ChangeKind names the member of a Change which is set.
type ChangeKind int

const (
	ChangeNone ChangeKind = iota
	ChangeAddFields
	ChangeSetFields
	ChangeRemoveFields
	ChangeAddFailure
	ChangeSetFailures
	ChangeAddSubdocument
	ChangeInsertSubdocument
	ChangeUpdateSubdocument
	ChangeRemoveSubdocument
	ChangeSetReference
)

func (k ChangeKind) String() string {
	s, ok := map[ChangeKind]string{
		ChangeNone:              "none",
		ChangeAddFields:         "addFields",
		ChangeSetFields:         "setFields",
		ChangeRemoveFields:      "removeFields",
		ChangeAddFailure:        "addFailure",
		ChangeSetFailures:       "setFailures",
		ChangeAddSubdocument:    "addSubdocument",
		ChangeInsertSubdocument: "insertSubdocument",
		ChangeUpdateSubdocument: "updateSubdocument",
		ChangeRemoveSubdocument: "removeSubdocument",
		ChangeSetReference:      "setReference",
	}[k]
	if ok {
		return s
	}
	return fmt.Sprintf("<unknown change kind %d>", int(k))
}

// Change is one recorded mutation of a document.
type Change struct {
	AddFields    Fields   `json:"addFields,omitempty" validate:"omitempty,dive,keys,min=1,endkeys,dive"`
	SetFields    Fields   `json:"setFields,omitempty" validate:"omitempty,dive,keys,min=1,endkeys,dive"`
	RemoveFields []string `json:"removeFields,omitempty" validate:"dive,min=1"`

	AddFailure  *Failure   `json:"addFailure,omitempty"`
	SetFailures *[]Failure `json:"setFailures,omitempty"`

	AddSubdocument    *Document                `json:"addSubdocument,omitempty"`
	InsertSubdocument *InsertSubdocumentParams `json:"insertSubdocument,omitempty"`
	UpdateSubdocument *UpdateSubdocumentParams `json:"updateSubdocument,omitempty"`
	RemoveSubdocument *RemoveSubdocumentParams `json:"removeSubdocument,omitempty"`

	// SetReference is decoded so that it can be refused: references are
	// immutable.
	SetReference *string `json:"setReference,omitempty"`
}

type InsertSubdocumentParams struct {
	Index       int       `json:"index" validate:"min=0"`
	Subdocument *Document `json:"subdocument" validate:"required"`
}

// UpdateSubdocumentParams addresses a subdocument by reference. Index, when
// present, is where the subdocument is expected to be.
type UpdateSubdocumentParams struct {
	Index     *int     `json:"index,omitempty" validate:"omitempty,min=0"`
	Reference string   `json:"reference"`
	Changes   []Change `json:"changes,omitempty" validate:"dive"`
}

type RemoveSubdocumentParams struct {
	Index     *int   `json:"index,omitempty" validate:"omitempty,min=0"`
	Reference string `json:"reference"`
}

// Kind returns the first member of c which is set, in declaration order.
func (c *Change) Kind() ChangeKind {
	switch {
	case c.AddFields != nil:
		return ChangeAddFields
	case c.SetFields != nil:
		return ChangeSetFields
	case c.RemoveFields != nil:
		return ChangeRemoveFields
	case c.AddFailure != nil:
		return ChangeAddFailure
	case c.SetFailures != nil:
		return ChangeSetFailures
	case c.AddSubdocument != nil:
		return ChangeAddSubdocument
	case c.InsertSubdocument != nil:
		return ChangeInsertSubdocument
	case c.UpdateSubdocument != nil:
		return ChangeUpdateSubdocument
	case c.RemoveSubdocument != nil:
		return ChangeRemoveSubdocument
	case c.SetReference != nil:
		return ChangeSetReference
	}
	return ChangeNone
}

// ChangeLogEntry groups the changes made by one pipeline hop.
type ChangeLogEntry struct {
	Name    string   `json:"name,omitempty"`
	Changes []Change `json:"changes,omitempty" validate:"dive"`
}

// IntPtr is a convenience for the optional index members.
func IntPtr(i int) *int {
	return &i
}
