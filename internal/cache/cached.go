// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Opsdash Contributors

package cache

import (
	"log/slog"
	"time"

	"github.com/opsdash-dev/opsdash/internal/collector"
)

// Reserved annotation keys injected into payloads returned by a wrapped
// fetch. They must not collide with payload fields; the underscore prefix is
// reserved for this layer.
const (
	KeyFromCache   = "_from_cache"
	KeyStale       = "_stale"
	KeyCircuitOpen = "_circuit_open"
	KeyError       = "_error"
	KeyFetchTimeMS = "_fetch_time_ms"
	KeySlow        = "_slow"
)

// WrapOptions configures one wrapped fetch.
type WrapOptions struct {
	// TTL is the cache lifetime for successful results. Zero means
	// DefaultTTL; negative means always expired.
	TTL time.Duration
	// StaleWhileRevalidate returns the previous cached payload, annotated,
	// when a fresh fetch fails.
	StaleWhileRevalidate bool
	// DefaultOnError is returned when a fetch fails and no stale data is
	// available. Nil falls back to a minimal {"error": message} payload.
	DefaultOnError map[string]any
}

// Cached wraps a named fetch with caching, timing, error containment and the
// circuit breaker. The returned fetch never fails: every outcome is some
// payload, possibly annotated as degraded.
//
// Decision order per invocation: open circuit → stale or default; fresh
// cache hit; timed fetch with store-on-success, stale-while-revalidate or
// default on failure. Concurrent misses for the same name share one fetch.
func (c *Cache) Cached(name string, opts WrapOptions, fetch collector.Fetch) collector.Fetch {
	ttl := opts.TTL
	if ttl == 0 {
		ttl = DefaultTTL
	}

	return func() (map[string]any, error) {
		if c.IsCircuitOpen(name) {
			if stale := c.GetStale(name); stale != nil {
				return annotate(stale, map[string]any{KeyFromCache: true, KeyCircuitOpen: true}), nil
			}
			if opts.DefaultOnError != nil {
				return annotate(opts.DefaultOnError, map[string]any{KeyCircuitOpen: true}), nil
			}
			return map[string]any{
				"error":        "circuit open for " + name,
				KeyCircuitOpen: true,
			}, nil
		}

		if cached := c.Get(name); cached != nil {
			c.RecordCall(name, 0, true, "")
			return annotate(cached, map[string]any{KeyFromCache: true}), nil
		}

		result, _, _ := c.group.Do(name, func() (any, error) {
			return c.fetchMiss(name, ttl, opts, fetch), nil
		})
		return result.(map[string]any), nil
	}
}

// fetchMiss runs the underlying fetch on a cache miss and resolves the
// degraded paths. It always returns a payload.
func (c *Cache) fetchMiss(name string, ttl time.Duration, opts WrapOptions, fetch collector.Fetch) map[string]any {
	start := c.opts.Now()
	data, err := fetch()
	elapsed := c.opts.Now().Sub(start)

	if err == nil {
		result := annotate(data, map[string]any{KeyFetchTimeMS: collector.DurationMS(elapsed)})
		if elapsed > c.opts.SlowThreshold {
			result[KeySlow] = true
			slog.Warn("slow fetch", "collector", name, "elapsed", elapsed)
		}
		c.Set(name, result, ttl, elapsed)
		c.RecordCall(name, elapsed, false, "")
		// The caller gets its own copy; the stored map must not alias it.
		return annotate(result, nil)
	}

	msg := err.Error()
	c.RecordCall(name, elapsed, false, msg)

	if opts.StaleWhileRevalidate {
		if stale := c.GetStale(name); stale != nil {
			return annotate(stale, map[string]any{
				KeyFromCache: true,
				KeyStale:     true,
				KeyError:     msg,
			})
		}
	}

	if opts.DefaultOnError != nil {
		return annotate(opts.DefaultOnError, nil)
	}
	return map[string]any{
		"error":        msg,
		KeyFetchTimeMS: collector.DurationMS(elapsed),
	}
}

// annotate returns a copy of data with meta merged in. The cached value is
// never mutated by callers of the wrapped fetch.
func annotate(data, meta map[string]any) map[string]any {
	out := make(map[string]any, len(data)+len(meta))
	for k, v := range data {
		out[k] = v
	}
	for k, v := range meta {
		out[k] = v
	}
	return out
}
