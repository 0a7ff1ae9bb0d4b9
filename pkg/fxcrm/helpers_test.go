package fxcrm_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sharecrm-io/fxcrm/pkg/fxcrm"
)

type recordedCall struct {
	method string
	path   fxcrm.Path
	params fxcrm.Params
	opts   *fxcrm.CallOptions
}

// scriptedCaller answers calls with queued envelopes or errors in order.
type scriptedCaller struct {
	t       *testing.T
	bodies  []string
	errs    []error
	calls   []recordedCall
	current int
}

func newScriptedCaller(t *testing.T, bodies ...string) *scriptedCaller {
	t.Helper()

	return &scriptedCaller{t: t, bodies: bodies, errs: make([]error, len(bodies))}
}

// failAt makes the i-th call fail with err instead of answering.
func (s *scriptedCaller) failAt(i int, err error) {
	s.errs[i] = err
}

func (s *scriptedCaller) Call(_ context.Context, method string, path fxcrm.Path, params fxcrm.Params, opts ...fxcrm.CallOption) (*fxcrm.Result, error) {
	s.t.Helper()

	s.calls = append(s.calls, recordedCall{
		method: method,
		path:   path,
		params: params,
		opts:   fxcrm.ApplyCallOptions(opts...),
	})

	require.Less(s.t, s.current, len(s.bodies), "unexpected call %d", s.current+1)

	index := s.current
	s.current++

	if s.errs[index] != nil {
		return nil, s.errs[index]
	}

	envelope, err := fxcrm.ParseEnvelope([]byte(s.bodies[index]))
	require.NoError(s.t, err)

	if !envelope.Success() {
		return nil, &fxcrm.APIError{Envelope: envelope}
	}

	return fxcrm.NewResult(envelope), nil
}

func (s *scriptedCaller) offsetOf(t *testing.T, call int) interface{} {
	t.Helper()
	require.Greater(t, len(s.calls), call)

	value, _ := s.calls[call].params.GetPath(fxcrm.DefaultOffsetPath...)

	return value
}

func ids(t *testing.T, items []fxcrm.Object) []string {
	t.Helper()

	result := make([]string, 0, len(items))

	for _, item := range items {
		id, ok := item.String("id")
		require.True(t, ok)

		result = append(result, id)
	}

	return result
}
