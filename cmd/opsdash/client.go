// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Opsdash Contributors

package main

import (
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	opserr "github.com/opsdash-dev/opsdash/pkg/errors"
)

// defaultHTTPClient is the package-level HTTP client used by commands that
// talk to a running server. Overridden in tests via httptest.
var defaultHTTPClient = &http.Client{
	Timeout: 5 * time.Second,
}

// dashClient provides HTTP access to a running opsdash server.
type dashClient struct {
	baseURL string
	http    *http.Client
}

// newDashClient creates a client targeting the given host:port address.
func newDashClient(addr string) *dashClient {
	return &dashClient{
		baseURL: "http://" + addr,
		http:    defaultHTTPClient,
	}
}

// getJSON performs a GET request and decodes the JSON response into dest.
// Returns a cli.server.not_running error on connection refused.
func (c *dashClient) getJSON(path string, dest any) error {
	resp, err := c.http.Get(c.baseURL + path)
	if err != nil {
		if isDialError(err) {
			return opserr.New(opserr.CodeCLIServerNotRunning, "server is not running (connection refused)")
		}
		return opserr.Wrap(err, opserr.CodeCLIRequestFailure, "request failed")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return opserr.Errorf(opserr.CodeCLIRequestFailure,
			"server returned status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return opserr.Wrap(err, opserr.CodeCLIResponseInvalid, "invalid response")
	}
	return nil
}

// isDialError returns true if err is a net dial error (connection refused, etc.).
func isDialError(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return opErr.Op == "dial"
	}
	return false
}
