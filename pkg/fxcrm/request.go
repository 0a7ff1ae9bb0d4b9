package fxcrm

import (
	"context"
	"fmt"
	"strings"

	"github.com/sharecrm-io/fxcrm/internal/constants"
)

// RequestBuilder accumulates the parameters of one logical operation against
// {nodeID}/{endpoint}. It can be executed once.
//
// Fields keep insertion order and duplicates: AddFields("name", "name")
// sends "fields": "name,name".
type RequestBuilder struct {
	caller     Caller
	nodeID     string
	endpoint   string
	method     string
	paged      bool
	offsetPath []string
	apiVersion string
	params     Params
	fields     []string
	files      []File
	executed   bool
}

// RequestOption configures a RequestBuilder.
type RequestOption func(*RequestBuilder)

// Paged marks the request as a search whose Execute returns a Cursor.
func Paged() RequestOption {
	return func(r *RequestBuilder) {
		r.paged = true
	}
}

// WithRequestOffsetPath sets where a paged request keeps its offset.
func WithRequestOffsetPath(keys ...string) RequestOption {
	return func(r *RequestBuilder) {
		r.offsetPath = append([]string(nil), keys...)
	}
}

// WithRequestAPIVersion overrides the client's API version for this request.
func WithRequestAPIVersion(version string) RequestOption {
	return func(r *RequestBuilder) {
		r.apiVersion = version
	}
}

// NewRequestBuilder creates a request builder. Slashes in endpoint are dropped.
func NewRequestBuilder(caller Caller, nodeID, method, endpoint string, opts ...RequestOption) *RequestBuilder {
	request := &RequestBuilder{
		caller:   caller,
		nodeID:   nodeID,
		endpoint: strings.ReplaceAll(endpoint, "/", ""),
		method:   method,
		params:   Params{},
	}

	for _, opt := range opts {
		opt(request)
	}

	return request
}

// AddParams merges params at the top level; existing keys are overwritten.
func (r *RequestBuilder) AddParams(params Params) *RequestBuilder {
	r.params.Merge(params)

	return r
}

// SetParam stores value at the nested key path.
func (r *RequestBuilder) SetParam(value interface{}, keys ...string) *RequestBuilder {
	r.params.SetPath(cloneValue(value), keys...)

	return r
}

// AddField appends one field name.
func (r *RequestBuilder) AddField(field string) *RequestBuilder {
	r.fields = append(r.fields, field)

	return r
}

// AddFields appends field names in order.
func (r *RequestBuilder) AddFields(fields ...string) *RequestBuilder {
	r.fields = append(r.fields, fields...)

	return r
}

// AddFile attaches a file read from path as multipart field.
func (r *RequestBuilder) AddFile(field, path string) *RequestBuilder {
	r.files = append(r.files, File{Field: field, Path: path})

	return r
}

// Params returns a copy of the accumulated parameters.
func (r *RequestBuilder) Params() Params {
	return r.params.Clone()
}

// Fields returns a copy of the accumulated fields.
func (r *RequestBuilder) Fields() []string {
	return append([]string(nil), r.fields...)
}

// Path returns the segment path of the request.
func (r *RequestBuilder) Path() Path {
	return Segments(r.nodeID, r.endpoint)
}

// Execution is the outcome of RequestBuilder.Execute: a Cursor for paged requests,
// a Result otherwise.
type Execution struct {
	cursor *Cursor
	result *Result
}

// Paged reports whether the execution carries a Cursor.
func (e *Execution) Paged() bool {
	return e.cursor != nil
}

// Cursor returns the cursor of a paged execution, its first page loaded.
func (e *Execution) Cursor() *Cursor {
	return e.cursor
}

// Result returns the result of a non-paged execution.
func (e *Execution) Result() *Result {
	return e.result
}

// Execute sends the request. A paged request returns a cursor whose first
// page is already loaded.
func (r *RequestBuilder) Execute(ctx context.Context) (*Execution, error) {
	if r.executed {
		return nil, ErrRequestAlreadyExecuted
	}

	r.executed = true

	if r.caller == nil {
		return nil, ErrCallerRequired
	}

	params := r.params.Clone()
	if len(r.fields) > 0 {
		params[constants.FieldFields] = strings.Join(r.fields, ",")
	}

	var callOpts []CallOption
	if r.apiVersion != "" {
		callOpts = append(callOpts, WithAPIVersion(r.apiVersion))
	}

	if len(r.files) > 0 {
		callOpts = append(callOpts, WithFiles(r.files...))
	}

	if r.paged {
		cursor := NewCursor(r.caller, r.Path(), params,
			WithCursorMethod(r.method),
			WithOffsetPath(r.offsetPath...),
			WithCursorCallOptions(callOpts...),
		)

		_, err := cursor.LoadNextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("loading first page of %s: %w", r.Path(), err)
		}

		return &Execution{cursor: cursor}, nil
	}

	result, err := r.caller.Call(ctx, r.method, r.Path(), params, callOpts...)
	if err != nil {
		return nil, fmt.Errorf("executing %s: %w", r.Path(), err)
	}

	return &Execution{result: result}, nil
}
