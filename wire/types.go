package wire

// Encoding tags how the Data of a FieldValue is to be interpreted.
type Encoding string

const (
	EncodingUTF8       Encoding = "utf8"
	EncodingBase64     Encoding = "base64"
	EncodingStorageRef Encoding = "storage_ref"
)

// OrDefault returns e, or EncodingUTF8 if e is empty.
func (e Encoding) OrDefault() Encoding {
	if e == "" {
		return EncodingUTF8
	}
	return e
}

// Action says whether FieldChanges extend or replace a field.
type Action string

const (
	ActionAdd     Action = "add"
	ActionReplace Action = "replace"
)

// OrDefault returns a, or ActionAdd if a is empty.
func (a Action) OrDefault() Action {
	if a == "" {
		return ActionAdd
	}
	return a
}

const (
	// TaskClassifier identifies messages carrying a Task.
	TaskClassifier = "DocumentWorker"
	// DocumentTaskClassifier identifies messages carrying a DocumentTask.
	DocumentTaskClassifier = "DocumentWorkerTask"
)

type FieldValue struct {
	Data     string   `json:"data"`
	Encoding Encoding `json:"encoding,omitempty" validate:"omitempty,oneof=utf8 base64 storage_ref"`
}

type Failure struct {
	WorkerName     string `json:"workerName,omitempty"`
	FailureID      string `json:"failureId,omitempty"`
	FailureMessage string `json:"failureMessage,omitempty"`
	FailureStack   string `json:"failureStack,omitempty"`
}

// Fields maps a field name to its ordered values.
type Fields map[string][]FieldValue

// Document is the wire form of a document tree.
type Document struct {
	Reference    string      `json:"reference,omitempty"`
	Fields       Fields      `json:"fields,omitempty" validate:"omitempty,dive,keys,min=1,endkeys,dive"`
	Failures     []Failure   `json:"failures,omitempty" validate:"dive"`
	Subdocuments []*Document `json:"subdocuments,omitempty" validate:"dive,required"`
}

// Task is the field-enrichment task payload.
type Task struct {
	Fields     Fields            `json:"fields" validate:"required,dive,keys,min=1,endkeys,dive"`
	CustomData map[string]string `json:"customData,omitempty"`
}

type FieldChanges struct {
	Action Action       `json:"action,omitempty" validate:"omitempty,oneof=add replace"`
	Values []FieldValue `json:"values,omitempty" validate:"dive"`
}

// Result is the payload produced for a Task.
type Result struct {
	FieldChanges map[string]FieldChanges `json:"fieldChanges,omitempty" validate:"omitempty,dive,keys,min=1,endkeys"`
	Failures     []Failure               `json:"failures,omitempty" validate:"dive"`
}

// DocumentTask carries a base document together with the change log recorded
// against it by earlier hops.
type DocumentTask struct {
	Document   *Document         `json:"document" validate:"required"`
	ChangeLog  []ChangeLogEntry  `json:"changeLog,omitempty" validate:"dive"`
	CustomData map[string]string `json:"customData,omitempty"`
}
