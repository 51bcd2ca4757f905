// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Opsdash Contributors

package errors_test

import (
	stderrors "errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	opserr "github.com/opsdash-dev/opsdash/pkg/errors"
)

func TestNew_CarriesCodeAndFields(t *testing.T) {
	err := opserr.New(opserr.CodeCollectorFetchFailure, "fetch failed",
		opserr.FieldCollector("gateway"),
		opserr.Field("attempt", 2),
	)

	require.Error(t, err)
	assert.Equal(t, opserr.CodeCollectorFetchFailure, opserr.CodeOf(err))
	assert.Contains(t, err.Error(), "fetch failed")

	fields := opserr.FieldsOf(err)
	assert.Equal(t, "gateway", fields["collector"])
	assert.Equal(t, 2, fields["attempt"])
}

func TestErrorf(t *testing.T) {
	err := opserr.Errorf(opserr.CodeRunnerCommandTimeout, "timed out after %s", "2s")

	assert.Equal(t, opserr.CodeRunnerCommandTimeout, opserr.CodeOf(err))
	assert.Contains(t, err.Error(), "timed out after 2s")
}

func TestWrap(t *testing.T) {
	inner := stderrors.New("connection refused")
	err := opserr.Wrap(inner, opserr.CodeCLIServerNotRunning, "server unreachable")

	require.Error(t, err)
	assert.Equal(t, opserr.CodeCLIServerNotRunning, opserr.CodeOf(err))
	assert.ErrorIs(t, err, inner)
}

func TestWrap_NilPassthrough(t *testing.T) {
	assert.NoError(t, opserr.Wrap(nil, opserr.CodeServerInternalFailure, "ignored"))
	assert.NoError(t, opserr.Wrapf(nil, opserr.CodeServerInternalFailure, "ignored %d", 1))
	assert.NoError(t, opserr.With(nil, opserr.Field("k", "v")))
}

func TestWith_PreservesCode(t *testing.T) {
	err := opserr.New(opserr.CodeCacheCircuitOpen, "open")
	err = opserr.With(err, opserr.FieldCollector("repos"))

	assert.Equal(t, opserr.CodeCacheCircuitOpen, opserr.CodeOf(err))
	assert.Equal(t, "repos", opserr.FieldsOf(err)["collector"])
}

func TestCodeOf_PlainError(t *testing.T) {
	assert.Empty(t, opserr.CodeOf(stderrors.New("plain")))
	assert.Empty(t, opserr.CodeOf(nil))
}

func TestHasCode(t *testing.T) {
	err := opserr.New(opserr.CodeRunnerCommandNotFound, "missing")

	assert.True(t, opserr.HasCode(err, opserr.CodeRunnerCommandNotFound))
	assert.False(t, opserr.HasCode(err, opserr.CodeRunnerCommandFailure))
	assert.False(t, opserr.HasCode(nil, opserr.CodeRunnerCommandNotFound))
}

func TestClassifiers(t *testing.T) {
	assert.True(t, opserr.IsNotFound(opserr.New(opserr.CodeCollectorNotFound, "x")))
	assert.True(t, opserr.IsNotFound(opserr.New(opserr.CodeServerEntityNotFound, "x")))

	assert.True(t, opserr.IsTimeout(opserr.New(opserr.CodeRunnerCommandTimeout, "x")))
	assert.True(t, opserr.IsTimeout(opserr.New(opserr.CodeCollectorFetchTimeout, "x")))
	assert.False(t, opserr.IsTimeout(opserr.New(opserr.CodeRunnerCommandFailure, "x")))

	assert.True(t, opserr.IsUnavailable(opserr.New(opserr.CodeRunnerCommandNotFound, "x")))
	assert.False(t, opserr.IsUnavailable(opserr.New(opserr.CodeCollectorNotFound, "x")))

	assert.True(t, opserr.IsInvalidInput(opserr.New(opserr.CodeRunnerInvalidInput, "x")))
	assert.True(t, opserr.IsInvalidInput(opserr.New(opserr.CodeCollectorParseInvalid, "x")))

	assert.True(t, opserr.IsCircuitOpen(opserr.New(opserr.CodeCacheCircuitOpen, "x")))
}

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{opserr.New(opserr.CodeServerEntityNotFound, "x"), http.StatusNotFound},
		{opserr.New(opserr.CodeRunnerInvalidInput, "x"), http.StatusBadRequest},
		{opserr.New(opserr.CodeCollectorFetchTimeout, "x"), http.StatusGatewayTimeout},
		{opserr.New(opserr.CodeCacheCircuitOpen, "x"), http.StatusServiceUnavailable},
		{opserr.New(opserr.CodeServerInternalFailure, "x"), http.StatusInternalServerError},
		{stderrors.New("plain"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, opserr.HTTPStatus(tc.err), "code %s", opserr.CodeOf(tc.err))
	}
}

func TestJoin(t *testing.T) {
	a := stderrors.New("first")
	b := stderrors.New("second")

	err := opserr.Join(a, b)
	require.Error(t, err)
	assert.ErrorIs(t, err, a)
	assert.ErrorIs(t, err, b)
}
