// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Opsdash Contributors

// Package collector defines the contract between named data sources and the
// resilience layer: a zero-argument fetch producing a map payload or failing,
// plus the result model, state registry, retry and fallback helpers shared by
// every source.
package collector

import (
	"math"
	"time"

	"github.com/opsdash-dev/opsdash/pkg/types"
)

// Fetch is the sole interface a data source exposes to this layer: produce a
// map payload or fail. Payload semantics are never inspected here.
type Fetch func() (map[string]any, error)

// Reserved metadata keys merged into serialized payloads. Payload fields must
// not use the underscore prefix; a colliding key is overwritten.
const (
	KeyState       = "_collector_state"
	KeyCollectedAt = "_collected_at"
	KeyDurationMS  = "_duration_ms"
	KeyError       = "_error"
	KeyErrorType   = "_error_type"
	KeyRetryCount  = "_retry_count"
)

// Result is one fetch attempt's outcome with timing and error metadata.
type Result struct {
	Data        map[string]any
	State       types.State
	Err         string
	ErrType     string
	CollectedAt time.Time
	Duration    time.Duration
	Retries     int
}

// OK reports whether the attempt succeeded.
func (r Result) OK() bool {
	return r.State == types.StateOK
}

// Failed reports whether the attempt counts toward the source's error streak.
func (r Result) Failed() bool {
	return r.State.Failed()
}

// ToMap merges the payload with the reserved metadata keys for display.
func (r Result) ToMap() map[string]any {
	out := make(map[string]any, len(r.Data)+6)
	for k, v := range r.Data {
		out[k] = v
	}
	out[KeyState] = string(r.State)
	out[KeyCollectedAt] = r.CollectedAt.Format(time.RFC3339)
	out[KeyDurationMS] = DurationMS(r.Duration)
	if r.Err != "" {
		out[KeyError] = r.Err
		out[KeyErrorType] = r.ErrType
	}
	if r.Retries > 0 {
		out[KeyRetryCount] = r.Retries
	}
	return out
}

// DurationMS converts a duration to milliseconds rounded to two decimals,
// the unit every snapshot and annotation uses.
func DurationMS(d time.Duration) float64 {
	ms := float64(d) / float64(time.Millisecond)
	return math.Round(ms*100) / 100
}
