package fxcrm

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/sharecrm-io/fxcrm/internal/constants"
)

// Envelope is the uniform response wrapper returned by every Fxiaoke endpoint.
type Envelope struct {
	ErrorCode        int
	ErrorMessage     string
	ErrorDescription string
	TraceID          string
	// Body is the full decoded response.
	Body Object
}

// ParseEnvelope decodes a response body. A body that is not a JSON object or
// carries no integer errorCode is malformed.
func ParseEnvelope(data []byte) (*Envelope, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	var body Object

	err := decoder.Decode(&body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedEnvelope, err)
	}

	if body == nil {
		return nil, fmt.Errorf("%w: empty body", ErrMalformedEnvelope)
	}

	code, ok := body.Int(constants.FieldErrorCode)
	if !ok {
		return nil, fmt.Errorf("%w: missing %s", ErrMalformedEnvelope, constants.FieldErrorCode)
	}

	envelope := &Envelope{
		ErrorCode: code,
		Body:      body,
	}
	envelope.ErrorMessage, _ = body.String(constants.FieldErrorMessage)
	envelope.ErrorDescription, _ = body.String(constants.FieldErrorDescription)
	envelope.TraceID, _ = body.String(constants.FieldTraceID)

	return envelope, nil
}

// Success reports whether errorCode is zero.
func (e *Envelope) Success() bool {
	return e.ErrorCode == 0
}

// Message returns the most descriptive error text the envelope carries.
func (e *Envelope) Message() string {
	if e.ErrorMessage != "" {
		return e.ErrorMessage
	}

	return e.ErrorDescription
}

// DataObject returns the data member when it is a JSON object.
func (e *Envelope) DataObject() (Object, bool) {
	data, ok := e.Body[constants.FieldData]
	if !ok {
		return nil, false
	}

	switch typed := data.(type) {
	case Object:
		return typed, true
	case map[string]interface{}:
		return Object(typed), true
	default:
		return nil, false
	}
}

// ResultKind tags what a Result carries.
type ResultKind uint8

const (
	// ResultEnvelope means the whole envelope body is the result.
	ResultEnvelope ResultKind = iota
	// ResultData means the envelope's data object was unwrapped.
	ResultData
)

// String implements fmt.Stringer.
func (k ResultKind) String() string {
	if k == ResultData {
		return "data"
	}

	return "envelope"
}

// Result is the normalized outcome of a successful call.
type Result struct {
	kind     ResultKind
	envelope *Envelope
	data     Object
}

// NewResult unwraps the envelope's data member when it is an object and
// keeps the whole body otherwise.
func NewResult(envelope *Envelope) *Result {
	if data, ok := envelope.DataObject(); ok {
		return &Result{kind: ResultData, envelope: envelope, data: data}
	}

	return &Result{kind: ResultEnvelope, envelope: envelope, data: envelope.Body}
}

// Kind returns the result tag.
func (r *Result) Kind() ResultKind {
	return r.kind
}

// Envelope returns the envelope the result was built from.
func (r *Result) Envelope() *Envelope {
	return r.envelope
}

// Data returns the unwrapped data object, or the envelope body.
func (r *Result) Data() Object {
	return r.data
}

// Page is the pagination view of a result.
type Page struct {
	Items     []Object
	Offset    int
	Limit     int
	Total     int
	HasOffset bool
	HasLimit  bool
	HasTotal  bool
}

// Page extracts dataList, offset, limit and total from the result data.
// Every dataList element must be a JSON object; a scalar or nested list
// element makes the page malformed.
func (r *Result) Page() (*Page, error) {
	page := &Page{}
	page.Offset, page.HasOffset = r.data.Int(constants.FieldOffset)
	page.Limit, page.HasLimit = r.data.Int(constants.FieldLimit)
	page.Total, page.HasTotal = r.data.Int(constants.FieldTotal)

	raw, ok := r.data[constants.FieldDataList]
	if !ok || raw == nil {
		return page, nil
	}

	list, ok := raw.([]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: %s is not a list", ErrMalformedEnvelope, constants.FieldDataList)
	}

	page.Items = make([]Object, 0, len(list))

	for i, item := range list {
		object, ok := asMap(item)
		if !ok {
			return nil, fmt.Errorf("%w: %s[%d] is not an object", ErrMalformedEnvelope, constants.FieldDataList, i)
		}

		page.Items = append(page.Items, Object(object))
	}

	return page, nil
}
