// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Opsdash Contributors

package types

// State classifies the outcome of a single collection attempt.
type State string

const (
	// StateOK means the source produced usable data.
	StateOK State = "ok"
	// StateError means the source ran but failed (non-zero exit, bad response).
	StateError State = "error"
	// StateTimeout means the source exceeded its deadline.
	StateTimeout State = "timeout"
	// StateUnavailable means the source cannot run at all (binary missing).
	// Unavailable sources are surfaced immediately and never retried.
	StateUnavailable State = "unavailable"
	// StateStale marks data served past its freshness window.
	StateStale State = "stale"
)

// Valid reports whether the state is a known outcome class.
func (s State) Valid() bool {
	switch s {
	case StateOK, StateError, StateTimeout, StateUnavailable, StateStale:
		return true
	default:
		return false
	}
}

// Failed reports whether the state counts toward a source's error streak.
// Unavailable is excluded: a missing binary is a deployment problem, not a
// failing source.
func (s State) Failed() bool {
	return s == StateError || s == StateTimeout
}
