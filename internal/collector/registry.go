// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Opsdash Contributors

package collector

import (
	"sync"
	"time"

	opserr "github.com/opsdash-dev/opsdash/pkg/errors"
	"github.com/opsdash-dev/opsdash/pkg/types"
)

// Registry tracks the most recent Result and the last success time per
// source. Errors never erase a prior success marker, so "how long has this
// been failing" and "when did it last work" stay independently answerable.
//
// A Registry is constructed explicitly and passed by reference; there is no
// package-level instance.
type Registry struct {
	mu      sync.Mutex
	last    map[string]Result
	success map[string]time.Time
	now     func() time.Time
}

// RegistryOption customizes a Registry.
type RegistryOption func(*Registry)

// WithClock overrides the registry's time source. Used by tests.
func WithClock(now func() time.Time) RegistryOption {
	return func(r *Registry) { r.now = now }
}

// NewRegistry creates an empty Registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		last:    make(map[string]Result),
		success: make(map[string]time.Time),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Update stores result as the latest for name. A successful result also
// stamps the current time as the source's last success.
func (r *Registry) Update(name string, result Result) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.last[name] = result
	if result.OK() {
		r.success[name] = r.now()
	}
}

// Last returns the most recent result recorded for name.
func (r *Registry) Last(name string) (Result, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	result, ok := r.last[name]
	return result, ok
}

// LastSuccess returns when name last produced a successful result.
func (r *Registry) LastSuccess(name string) (time.Time, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.success[name]
	return t, ok
}

// IsStale reports whether name has no success on record or its last success
// is older than maxAge. An unknown name is always stale.
func (r *Registry) IsStale(name string, maxAge time.Duration) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	last, ok := r.success[name]
	if !ok {
		return true
	}
	return r.now().Sub(last) > maxAge
}

// Reset drops all tracked state. Intended for test and operator isolation.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.last = make(map[string]Result)
	r.success = make(map[string]time.Time)
}

// Track wraps a fetch so every invocation records a Result for name before
// passing the outcome through unchanged.
func (r *Registry) Track(name string, fetch Fetch) Fetch {
	return func() (map[string]any, error) {
		start := r.now()
		data, err := fetch()
		elapsed := r.now().Sub(start)

		result := Result{
			Data:        data,
			State:       stateOf(err),
			CollectedAt: start,
			Duration:    elapsed,
		}
		if err != nil {
			result.Err = err.Error()
			result.ErrType = string(opserr.CodeOf(err))
		}
		r.Update(name, result)

		return data, err
	}
}

// Entry is a serializable view of one source's registry state.
type Entry struct {
	Name        string     `json:"name" yaml:"name"`
	State       string     `json:"state" yaml:"state"`
	Error       string     `json:"error,omitempty" yaml:"error,omitempty"`
	ErrorType   string     `json:"error_type,omitempty" yaml:"error_type,omitempty"`
	CollectedAt time.Time  `json:"collected_at" yaml:"collected_at"`
	DurationMS  float64    `json:"duration_ms" yaml:"duration_ms"`
	Retries     int        `json:"retry_count,omitempty" yaml:"retry_count,omitempty"`
	LastSuccess *time.Time `json:"last_success,omitempty" yaml:"last_success,omitempty"`
}

// Snapshot returns the registry state for every tracked source.
func (r *Registry) Snapshot() map[string]Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string]Entry, len(r.last))
	for name, result := range r.last {
		entry := Entry{
			Name:        name,
			State:       string(result.State),
			Error:       result.Err,
			ErrorType:   result.ErrType,
			CollectedAt: result.CollectedAt,
			DurationMS:  DurationMS(result.Duration),
			Retries:     result.Retries,
		}
		if t, ok := r.success[name]; ok {
			last := t
			entry.LastSuccess = &last
		}
		out[name] = entry
	}
	return out
}

// stateOf classifies a fetch error into the outcome taxonomy.
func stateOf(err error) types.State {
	switch {
	case err == nil:
		return types.StateOK
	case opserr.IsTimeout(err):
		return types.StateTimeout
	case opserr.IsUnavailable(err):
		return types.StateUnavailable
	default:
		return types.StateError
	}
}
