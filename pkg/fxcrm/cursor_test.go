package fxcrm_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharecrm-io/fxcrm/pkg/fxcrm"
)

var errGatewayDown = errors.New("gateway down")

const (
	pageAB = `{"errorCode":0,"dataList":[{"id":"a"},{"id":"b"}],"offset":0,"limit":2,"total":5}`
	pageCD = `{"errorCode":0,"dataList":[{"id":"c"},{"id":"d"}],"offset":2,"limit":2,"total":5}`
	pageE  = `{"errorCode":0,"dataList":[{"id":"e"}],"offset":4,"limit":2,"total":5}`
)

func searchParams() fxcrm.Params {
	return fxcrm.Params{
		"data": map[string]interface{}{
			"dataObjectApiName": "AccountObj",
			"search_query_info": map[string]interface{}{
				"limit":  2,
				"offset": 0,
			},
		},
	}
}

func newSearchCursor(caller fxcrm.Caller) *fxcrm.Cursor {
	return fxcrm.NewCursor(caller, fxcrm.Segments("data", "query"), searchParams())
}

func TestCursor_FirstPageAdvancesOffset(t *testing.T) {
	t.Parallel()

	caller := newScriptedCaller(t, pageAB)
	cursor := newSearchCursor(caller)

	ok, err := cursor.LoadNextPage(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, cursor.Exhausted())
	assert.Equal(t, 2, cursor.Offset())
	assert.Equal(t, 2, cursor.Buffered())

	total, hasTotal := cursor.Total()
	assert.True(t, hasTotal)
	assert.Equal(t, 5, total)

	assert.Equal(t, http.MethodPost, caller.calls[0].method)
	assert.Equal(t, "data/query", caller.calls[0].path.String())
}

func TestCursor_IteratesAllPagesInOrder(t *testing.T) {
	t.Parallel()

	caller := newScriptedCaller(t, pageAB, pageCD, pageE)
	cursor := newSearchCursor(caller)

	items, err := cursor.Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, ids(t, items))
	assert.True(t, cursor.Exhausted())
	require.Len(t, caller.calls, 3)

	assert.EqualValues(t, 0, caller.offsetOf(t, 0))
	assert.EqualValues(t, 2, caller.offsetOf(t, 1))
	assert.EqualValues(t, 4, caller.offsetOf(t, 2))

	_, err = cursor.Next(context.Background())
	require.ErrorIs(t, err, fxcrm.ErrNoMoreItems)
	assert.Len(t, caller.calls, 3)
}

func TestCursor_ErrorLeavesStateUnchanged(t *testing.T) {
	t.Parallel()

	caller := newScriptedCaller(t, pageAB, `{"errorCode":1,"errorMessage":"system busy"}`, pageCD)
	cursor := newSearchCursor(caller)

	_, err := cursor.LoadNextPage(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, cursor.Offset())

	ok, err := cursor.LoadNextPage(context.Background())
	require.Error(t, err)
	assert.False(t, ok)
	assert.True(t, fxcrm.IsAPIError(err))
	assert.Equal(t, 2, cursor.Offset())
	assert.Equal(t, 2, cursor.Buffered())
	assert.False(t, cursor.Exhausted())

	ok, err = cursor.LoadNextPage(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.EqualValues(t, 2, caller.offsetOf(t, 2))
	assert.Equal(t, 4, cursor.Offset())
}

func TestCursor_TransportErrorLeavesStateUnchanged(t *testing.T) {
	t.Parallel()

	caller := newScriptedCaller(t, pageAB, "")
	caller.failAt(1, errGatewayDown)
	cursor := newSearchCursor(caller)

	first, err := cursor.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a", first["id"])

	_, err = cursor.Next(context.Background())
	require.NoError(t, err)

	_, err = cursor.Next(context.Background())
	require.ErrorIs(t, err, errGatewayDown)
	assert.Equal(t, 2, cursor.Offset())
	assert.False(t, cursor.Exhausted())
}

func TestCursor_TotalPersistsAcrossPages(t *testing.T) {
	t.Parallel()

	caller := newScriptedCaller(t,
		pageAB,
		`{"errorCode":0,"dataList":[{"id":"c"}],"offset":2,"limit":2}`,
	)
	cursor := newSearchCursor(caller)

	items, err := cursor.Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, ids(t, items))

	total, ok := cursor.Total()
	assert.True(t, ok)
	assert.Equal(t, 5, total)
	assert.True(t, cursor.Exhausted())
}

func TestCursor_MissingPagingFieldsExhaust(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{"missing total", `{"errorCode":0,"dataList":[{"id":"a"}],"offset":0,"limit":1}`},
		{"missing offset", `{"errorCode":0,"dataList":[{"id":"a"}],"limit":1,"total":9}`},
		{"missing limit", `{"errorCode":0,"dataList":[{"id":"a"}],"offset":0,"total":9}`},
		{"total reached", `{"errorCode":0,"dataList":[{"id":"a"}],"offset":0,"limit":1,"total":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			caller := newScriptedCaller(t, tt.body)
			cursor := newSearchCursor(caller)

			ok, err := cursor.LoadNextPage(context.Background())
			require.NoError(t, err)
			assert.True(t, ok)
			assert.True(t, cursor.Exhausted())

			ok, err = cursor.LoadNextPage(context.Background())
			require.NoError(t, err)
			assert.False(t, ok)
			assert.Len(t, caller.calls, 1)
		})
	}
}

func TestCursor_NonPositiveLimitExhausts(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{"zero limit", `{"errorCode":0,"dataList":[{"id":"a"}],"offset":0,"limit":0,"total":5}`},
		{"negative limit", `{"errorCode":0,"dataList":[{"id":"a"}],"offset":2,"limit":-1,"total":5}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			caller := newScriptedCaller(t, tt.body)
			cursor := newSearchCursor(caller)

			items, err := cursor.Collect(context.Background())
			require.NoError(t, err)
			assert.Equal(t, []string{"a"}, ids(t, items))
			assert.True(t, cursor.Exhausted())
			assert.Len(t, caller.calls, 1)
		})
	}
}

func TestCursor_EmptyPageDoesNotExhaust(t *testing.T) {
	t.Parallel()

	caller := newScriptedCaller(t,
		`{"errorCode":0,"dataList":[],"offset":0,"limit":2,"total":5}`,
		pageCD,
	)
	cursor := newSearchCursor(caller)

	ok, err := cursor.HasNext(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, cursor.Exhausted())

	item, err := cursor.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "c", item["id"])
}

func TestCursor_DataEnvelope(t *testing.T) {
	t.Parallel()

	caller := newScriptedCaller(t,
		`{"errorCode":0,"data":{"dataList":[{"id":"a"}],"offset":0,"limit":1,"total":2}}`,
		`{"errorCode":0,"data":{"dataList":[{"id":"b"}],"offset":1,"limit":1,"total":2}}`,
	)
	cursor := newSearchCursor(caller)

	items, err := cursor.Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids(t, items))
}

func TestCursor_MalformedDataList(t *testing.T) {
	t.Parallel()

	caller := newScriptedCaller(t, `{"errorCode":0,"dataList":"oops","offset":0,"limit":1,"total":2}`)
	cursor := newSearchCursor(caller)

	_, err := cursor.LoadNextPage(context.Background())
	require.ErrorIs(t, err, fxcrm.ErrMalformedEnvelope)
	assert.Equal(t, 0, cursor.Offset())
	assert.False(t, cursor.Exhausted())
}

func TestCursor_NonObjectItemIsMalformed(t *testing.T) {
	t.Parallel()

	caller := newScriptedCaller(t, `{"errorCode":0,"dataList":[{"id":"a"},"b"],"offset":0,"limit":2,"total":4}`)
	cursor := newSearchCursor(caller)

	_, err := cursor.LoadNextPage(context.Background())
	require.ErrorIs(t, err, fxcrm.ErrMalformedEnvelope)
	assert.Contains(t, err.Error(), "dataList[1] is not an object")
	assert.Equal(t, 0, cursor.Buffered())
	assert.Equal(t, 0, cursor.Offset())
	assert.False(t, cursor.Exhausted())
}

func TestCursor_DoesNotShareParams(t *testing.T) {
	t.Parallel()

	params := searchParams()
	caller := newScriptedCaller(t, pageAB)
	cursor := fxcrm.NewCursor(caller, fxcrm.Segments("data", "query"), params)

	_, err := cursor.LoadNextPage(context.Background())
	require.NoError(t, err)

	offset, _ := params.GetPath(fxcrm.DefaultOffsetPath...)
	assert.Equal(t, 0, offset)

	caller.calls[0].params.SetPath(99, fxcrm.DefaultOffsetPath...)
	assert.Equal(t, 2, cursor.Offset())
}

func TestCursor_Options(t *testing.T) {
	t.Parallel()

	caller := newScriptedCaller(t,
		`{"errorCode":0,"dataList":[{"id":"a"}],"offset":0,"limit":1,"total":2}`,
		`{"errorCode":0,"dataList":[{"id":"b"}],"offset":1,"limit":1,"total":2}`,
	)
	cursor := fxcrm.NewCursor(caller, fxcrm.Segments("user", "list"), fxcrm.Params{},
		fxcrm.WithCursorMethod(http.MethodGet),
		fxcrm.WithOffsetPath("page", "offset"),
		fxcrm.WithCursorCallOptions(fxcrm.WithAPIVersion("v3")),
	)

	_, err := cursor.Collect(context.Background())
	require.NoError(t, err)

	require.Len(t, caller.calls, 2)
	assert.Equal(t, http.MethodGet, caller.calls[1].method)
	assert.Equal(t, "v3", caller.calls[1].opts.APIVersion)

	offset, ok := caller.calls[1].params.GetPath("page", "offset")
	require.True(t, ok)
	assert.Equal(t, 1, offset)
}

func TestCursor_IteratorHelpers(t *testing.T) {
	t.Parallel()

	t.Run("break stops fetching", func(t *testing.T) {
		t.Parallel()

		caller := newScriptedCaller(t, pageAB, pageCD, pageE)
		cursor := newSearchCursor(caller)

		var seen []string

		for item, err := range cursor.All(context.Background()) {
			require.NoError(t, err)

			seen = append(seen, item["id"].(string))
			if len(seen) == 3 {
				break
			}
		}

		assert.Equal(t, []string{"a", "b", "c"}, seen)
		assert.Len(t, caller.calls, 2)
		assert.Equal(t, 1, cursor.Buffered())
	})

	t.Run("error is yielded", func(t *testing.T) {
		t.Parallel()

		caller := newScriptedCaller(t, pageAB, "")
		caller.failAt(1, errGatewayDown)
		cursor := newSearchCursor(caller)

		items, err := cursor.Collect(context.Background())
		require.ErrorIs(t, err, errGatewayDown)
		assert.Equal(t, []string{"a", "b"}, ids(t, items))
	})

	t.Run("for each", func(t *testing.T) {
		t.Parallel()

		caller := newScriptedCaller(t, pageAB, pageCD, pageE)
		cursor := newSearchCursor(caller)
		count := 0

		err := cursor.ForEach(context.Background(), func(fxcrm.Object) error {
			count++

			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 5, count)
	})

	t.Run("for each stops on callback error", func(t *testing.T) {
		t.Parallel()

		caller := newScriptedCaller(t, pageAB, pageCD, pageE)
		cursor := newSearchCursor(caller)

		err := cursor.ForEach(context.Background(), func(fxcrm.Object) error {
			return errGatewayDown
		})
		require.ErrorIs(t, err, errGatewayDown)
		assert.Len(t, caller.calls, 1)
	})

	t.Run("first", func(t *testing.T) {
		t.Parallel()

		caller := newScriptedCaller(t, pageE)
		cursor := newSearchCursor(caller)

		item, ok, err := cursor.First(context.Background())
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "e", item["id"])

		_, ok, err = cursor.First(context.Background())
		require.NoError(t, err)
		assert.False(t, ok)
	})
}
