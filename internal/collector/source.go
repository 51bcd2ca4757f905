// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Opsdash Contributors

package collector

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/opsdash-dev/opsdash/internal/runner"
	opserr "github.com/opsdash-dev/opsdash/pkg/errors"
)

// CommandSource fetches data by running an external command. With JSON set,
// stdout is parsed into the payload; otherwise the raw trimmed output is
// returned under an "output" key.
type CommandSource struct {
	Name    string
	Args    []string
	Dir     string
	JSON    bool
	Timeout time.Duration
	Runner  *runner.Runner
}

// Fetcher adapts the source to the Fetch contract.
func (s CommandSource) Fetcher() Fetch {
	return func() (map[string]any, error) {
		out, _, err := s.Runner.Run(context.Background(), runner.Spec{
			Args:    s.Args,
			Dir:     s.Dir,
			Timeout: s.Timeout,
		})
		if err != nil {
			return nil, err
		}
		if s.JSON {
			return ParseJSONOutput(out)
		}
		return map[string]any{"output": out}, nil
	}
}

// HTTPSource fetches data from a local HTTP endpoint returning a JSON object.
type HTTPSource struct {
	Name    string
	URL     string
	Timeout time.Duration
	Client  *http.Client
}

// Fetcher adapts the source to the Fetch contract.
func (s HTTPSource) Fetcher() Fetch {
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return func() (map[string]any, error) {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
		if err != nil {
			return nil, opserr.Wrapf(err, opserr.CodeCollectorFetchFailure, "building request for %s", s.URL)
		}

		resp, err := client.Do(req)
		if err != nil {
			if ctx.Err() == context.DeadlineExceeded {
				return nil, opserr.Errorf(opserr.CodeCollectorFetchTimeout,
					"request to %s timed out after %s", s.URL, timeout)
			}
			return nil, opserr.Wrapf(err, opserr.CodeCollectorFetchFailure, "requesting %s", s.URL)
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return nil, opserr.Errorf(opserr.CodeCollectorFetchFailure,
				"%s returned status %d: %s", s.URL, resp.StatusCode, string(body))
		}

		var data map[string]any
		if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
			return nil, opserr.Wrapf(err, opserr.CodeCollectorParseInvalid, "decoding response from %s", s.URL)
		}
		return data, nil
	}
}
