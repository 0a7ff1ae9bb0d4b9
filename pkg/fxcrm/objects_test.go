package fxcrm_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharecrm-io/fxcrm/pkg/fxcrm"
)

func TestQueryParams(t *testing.T) {
	t.Parallel()

	params := fxcrm.QueryParams(fxcrm.QueryOptions{
		APIName: "AccountObj",
		Filters: []fxcrm.Filter{
			{FieldName: "name", FieldValues: []interface{}{"Acme"}, Operator: fxcrm.OperatorLike},
		},
		Orders:          []fxcrm.Order{{FieldName: "create_time", IsAsc: false}},
		FieldProjection: []string{"_id", "name"},
		Offset:          20,
	})

	assert.Equal(t, fxcrm.Params{
		"data": map[string]interface{}{
			"dataObjectApiName": "AccountObj",
			"search_query_info": map[string]interface{}{
				"limit":  100,
				"offset": 20,
				"filters": []interface{}{
					map[string]interface{}{
						"field_name":   "name",
						"field_values": []interface{}{"Acme"},
						"operator":     "LIKE",
					},
				},
				"orders": []interface{}{
					map[string]interface{}{"fieldName": "create_time", "isAsc": false},
				},
				"fieldProjection": []interface{}{"_id", "name"},
			},
		},
	}, params)
}

func TestQuery(t *testing.T) {
	t.Parallel()

	caller := newScriptedCaller(t,
		`{"errorCode":0,"data":{"dataList":[{"id":"a"},{"id":"b"}],"offset":0,"limit":2,"total":3}}`,
		`{"errorCode":0,"data":{"dataList":[{"id":"c"}],"offset":2,"limit":2,"total":3}}`,
	)

	cursor, err := fxcrm.Query(context.Background(), caller, fxcrm.QueryOptions{APIName: "AccountObj", Limit: 2})
	require.NoError(t, err)
	assert.Len(t, caller.calls, 1)
	assert.Equal(t, "data/query", caller.calls[0].path.String())

	items, err := cursor.Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, ids(t, items))
	assert.EqualValues(t, 2, caller.offsetOf(t, 1))

	_, err = fxcrm.Query(context.Background(), caller, fxcrm.QueryOptions{})
	require.ErrorIs(t, err, fxcrm.ErrObjectAPINameRequired)
}

func TestGet(t *testing.T) {
	t.Parallel()

	caller := newScriptedCaller(t, `{"errorCode":0,"data":{"_id":"9","name":"Acme"}}`)

	object, err := fxcrm.Get(context.Background(), caller, "AccountObj", "9")
	require.NoError(t, err)
	assert.Equal(t, "Acme", object["name"])
	assert.Equal(t, "data/get", caller.calls[0].path.String())
	assert.Equal(t, fxcrm.Params{
		"data": map[string]interface{}{"dataObjectApiName": "AccountObj", "objectDataId": "9"},
	}, caller.calls[0].params)

	_, err = fxcrm.Get(context.Background(), caller, "", "9")
	require.ErrorIs(t, err, fxcrm.ErrObjectAPINameRequired)

	_, err = fxcrm.Get(context.Background(), caller, "AccountObj", "")
	require.ErrorIs(t, err, fxcrm.ErrObjectIDRequired)
}

func TestCreate(t *testing.T) {
	t.Parallel()

	caller := newScriptedCaller(t, `{"errorCode":0,"data":{"dataId":"new-1"}}`)
	record := fxcrm.Object{"name": "Acme", "dataObjectApiName": "Ignored"}

	created, err := fxcrm.Create(context.Background(), caller, "AccountObj", record)
	require.NoError(t, err)
	assert.Equal(t, "new-1", created["dataId"])
	assert.Equal(t, "data/create", caller.calls[0].path.String())
	assert.Equal(t, fxcrm.Params{
		"data": map[string]interface{}{
			"object_data": map[string]interface{}{"name": "Acme", "dataObjectApiName": "AccountObj"},
		},
	}, caller.calls[0].params)
	assert.Equal(t, "Ignored", record["dataObjectApiName"])

	_, err = fxcrm.Create(context.Background(), caller, "", record)
	require.ErrorIs(t, err, fxcrm.ErrObjectAPINameRequired)
}
