// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Opsdash Contributors

package collector

import "log/slog"

// FallbackChain tries a primary source, then a fallback, then a static
// default. The unifying contract across heterogeneous sources is "produce
// usable data or don't": a failure from a stage moves to the next one.
//
// By default an empty map also counts as a miss, matching sources that
// signal absence with an empty payload. Sources whose empty result is
// legitimate set AcceptEmpty to opt out of that guess.
type FallbackChain struct {
	Primary  Fetch
	Fallback Fetch
	Default  map[string]any

	// AcceptEmpty treats an empty non-nil map as a valid result instead of
	// triggering the fallback.
	AcceptEmpty bool
}

// Collect runs the chain and returns the first usable payload. It never
// returns an error; exhaustion yields Default (which may be nil).
func (c FallbackChain) Collect() map[string]any {
	if data, ok := c.try(c.Primary); ok {
		return data
	}
	if c.Fallback != nil {
		slog.Debug("primary source failed, trying fallback")
		if data, ok := c.try(c.Fallback); ok {
			return data
		}
	}
	return c.Default
}

func (c FallbackChain) try(fetch Fetch) (map[string]any, bool) {
	if fetch == nil {
		return nil, false
	}
	data, err := fetch()
	if err != nil || data == nil {
		return nil, false
	}
	if len(data) == 0 && !c.AcceptEmpty {
		return nil, false
	}
	return data, true
}
