// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Opsdash Contributors

package collector_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsdash-dev/opsdash/internal/collector"
	"github.com/opsdash-dev/opsdash/internal/runner"
	opserr "github.com/opsdash-dev/opsdash/pkg/errors"
)

func TestCommandSource_RawOutput(t *testing.T) {
	src := collector.CommandSource{
		Name:   "uptime",
		Args:   []string{"sh", "-c", "echo 'up 3 days'"},
		Runner: runner.New(0),
	}

	data, err := src.Fetcher()()
	require.NoError(t, err)
	assert.Equal(t, "up 3 days", data["output"])
}

func TestCommandSource_JSONOutput(t *testing.T) {
	src := collector.CommandSource{
		Name:   "disk",
		Args:   []string{"sh", "-c", `echo '{"used_pct": 42}'`},
		JSON:   true,
		Runner: runner.New(0),
	}

	data, err := src.Fetcher()()
	require.NoError(t, err)
	assert.EqualValues(t, 42, data["used_pct"])
}

func TestCommandSource_FailurePropagates(t *testing.T) {
	src := collector.CommandSource{
		Name:   "broken",
		Args:   []string{"sh", "-c", "exit 1"},
		Runner: runner.New(0),
	}

	data, err := src.Fetcher()()
	require.Error(t, err)
	assert.Nil(t, data)
}

func TestHTTPSource_JSONObject(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"healthy": true, "sessions": 2}`))
	}))
	defer ts.Close()

	src := collector.HTTPSource{Name: "gateway", URL: ts.URL}
	data, err := src.Fetcher()()

	require.NoError(t, err)
	assert.Equal(t, true, data["healthy"])
	assert.EqualValues(t, 2, data["sessions"])
}

func TestHTTPSource_NonOKStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "try later", http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	src := collector.HTTPSource{Name: "gateway", URL: ts.URL}
	_, err := src.Fetcher()()

	require.Error(t, err)
	assert.True(t, opserr.HasCode(err, opserr.CodeCollectorFetchFailure))
	assert.Contains(t, err.Error(), "503")
}

func TestHTTPSource_Timeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(300 * time.Millisecond)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer ts.Close()

	src := collector.HTTPSource{Name: "slow", URL: ts.URL, Timeout: 50 * time.Millisecond}
	_, err := src.Fetcher()()

	require.Error(t, err)
	assert.True(t, opserr.IsTimeout(err))
}

func TestHTTPSource_InvalidJSON(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer ts.Close()

	src := collector.HTTPSource{Name: "gateway", URL: ts.URL}
	_, err := src.Fetcher()()

	require.Error(t, err)
	assert.True(t, opserr.HasCode(err, opserr.CodeCollectorParseInvalid))
}
