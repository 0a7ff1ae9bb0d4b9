package fxcrm

import (
	"context"
	"net/http"

	"github.com/sharecrm-io/fxcrm/internal/constants"
)

// Filter is one condition of a search query.
type Filter struct {
	FieldName   string        `json:"field_name"   yaml:"field_name"`
	FieldValues []interface{} `json:"field_values" yaml:"field_values"`
	Operator    string        `json:"operator"     yaml:"operator"`
}

// Order sorts a search query by one field.
type Order struct {
	FieldName string `json:"fieldName" yaml:"fieldName"`
	IsAsc     bool   `json:"isAsc"     yaml:"isAsc"`
}

// Common filter operators.
const (
	OperatorEQ   = "EQ"
	OperatorN    = "N"
	OperatorGT   = "GT"
	OperatorGTE  = "GTE"
	OperatorLT   = "LT"
	OperatorLTE  = "LTE"
	OperatorLike = "LIKE"
	OperatorIn   = "IN"
	OperatorNin  = "NIN"
	OperatorIs   = "IS"
)

// QueryOptions describes a data/query search.
type QueryOptions struct {
	// APIName is the object api name, e.g. "AccountObj".
	APIName         string
	Filters         []Filter
	Orders          []Order
	FieldProjection []string
	Offset          int
	// Limit defaults to 100.
	Limit int
}

// QueryParams builds the data/query parameter tree.
func QueryParams(opts QueryOptions) Params {
	limit := opts.Limit
	if limit <= 0 {
		limit = constants.DefaultQueryLimit
	}

	filters := make([]interface{}, 0, len(opts.Filters))
	for _, filter := range opts.Filters {
		filters = append(filters, map[string]interface{}{
			"field_name":   filter.FieldName,
			"field_values": append([]interface{}(nil), filter.FieldValues...),
			"operator":     filter.Operator,
		})
	}

	orders := make([]interface{}, 0, len(opts.Orders))
	for _, order := range opts.Orders {
		orders = append(orders, map[string]interface{}{
			"fieldName": order.FieldName,
			"isAsc":     order.IsAsc,
		})
	}

	projection := make([]interface{}, 0, len(opts.FieldProjection))
	for _, field := range opts.FieldProjection {
		projection = append(projection, field)
	}

	return Params{
		"data": map[string]interface{}{
			"dataObjectApiName": opts.APIName,
			"search_query_info": map[string]interface{}{
				"limit":           limit,
				"offset":          opts.Offset,
				"filters":         filters,
				"orders":          orders,
				"fieldProjection": projection,
			},
		},
	}
}

// Query runs a data/query search and returns a cursor with its first page loaded.
func Query(ctx context.Context, caller Caller, opts QueryOptions) (*Cursor, error) {
	if opts.APIName == "" {
		return nil, ErrObjectAPINameRequired
	}

	execution, err := NewRequestBuilder(caller, constants.NodeData, http.MethodPost, constants.EndpointQuery, Paged()).
		AddParams(QueryParams(opts)).
		Execute(ctx)
	if err != nil {
		return nil, err
	}

	return execution.Cursor(), nil
}

// Get fetches one object by id through data/get.
func Get(ctx context.Context, caller Caller, apiName, objectID string) (Object, error) {
	if apiName == "" {
		return nil, ErrObjectAPINameRequired
	}

	if objectID == "" {
		return nil, ErrObjectIDRequired
	}

	execution, err := NewRequestBuilder(caller, constants.NodeData, http.MethodPost, constants.EndpointGet).
		AddParams(Params{
			"data": map[string]interface{}{
				"dataObjectApiName": apiName,
				"objectDataId":      objectID,
			},
		}).
		Execute(ctx)
	if err != nil {
		return nil, err
	}

	return execution.Result().Data(), nil
}

// Create creates one object through data/create. objectData holds the field
// values; its dataObjectApiName is set from apiName.
func Create(ctx context.Context, caller Caller, apiName string, objectData Object) (Object, error) {
	if apiName == "" {
		return nil, ErrObjectAPINameRequired
	}

	record := make(map[string]interface{}, len(objectData)+1)
	for key, value := range objectData {
		record[key] = value
	}

	record["dataObjectApiName"] = apiName

	execution, err := NewRequestBuilder(caller, constants.NodeData, http.MethodPost, constants.EndpointCreate).
		AddParams(Params{
			"data": map[string]interface{}{
				"object_data": record,
			},
		}).
		Execute(ctx)
	if err != nil {
		return nil, err
	}

	return execution.Result().Data(), nil
}
