// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Opsdash Contributors

// Package cache is the resilience core shielding dashboard panels from slow
// or failing data sources. It wraps named fetch operations with a TTL cache,
// a per-source circuit breaker, per-source call statistics and an aggregate
// health summary. Wrapped fetches never propagate failure: callers always
// receive some payload, possibly annotated as degraded via the reserved
// underscore keys.
package cache

import (
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Defaults, overridable per Cache via Options.
const (
	// DefaultTTL is the cache lifetime used when a wrap does not set one.
	DefaultTTL = 5 * time.Second
	// DefaultSlowThreshold marks fetches slower than this with _slow.
	DefaultSlowThreshold = 2 * time.Second
	// DefaultMaxErrors is the consecutive-error count that trips a breaker.
	DefaultMaxErrors = 3
	// DefaultCircuitReset is the window after which an open breaker
	// auto-resets.
	DefaultCircuitReset = 60 * time.Second
)

// Options configures a Cache.
type Options struct {
	// MaxErrors trips the breaker when a source's consecutive error count
	// reaches it. Non-positive means DefaultMaxErrors.
	MaxErrors int
	// CircuitReset is the auto-reset window for an open breaker.
	// Non-positive means DefaultCircuitReset.
	CircuitReset time.Duration
	// SlowThreshold flags fetch durations above it. Non-positive means
	// DefaultSlowThreshold.
	SlowThreshold time.Duration
	// Now overrides the time source. Nil means time.Now. Tests use this to
	// drive TTL expiry and breaker windows deterministically.
	Now func() time.Time
}

// record holds everything tracked for one source name. Each record owns its
// lock so sources never contend with each other; the check-circuit → fetch →
// store → record-stats sequence is not atomic across the whole cache, only
// consistent per name.
type record struct {
	mu    sync.Mutex
	entry *entry
	stats stats
}

// entry is one cached payload with its expiry clock.
type entry struct {
	value     map[string]any
	at        time.Time
	ttl       time.Duration
	fetchTime time.Duration
}

// expired reports whether the entry is past its TTL. A TTL ≤ 0 is always
// expired, never silently infinite.
func (e *entry) expired(now time.Time) bool {
	if e.ttl <= 0 {
		return true
	}
	return now.Sub(e.at) > e.ttl
}

// Cache is a TTL cache with a per-source circuit breaker. The zero value is
// not usable; construct with New. A Cache is constructed explicitly and
// passed by reference — there is no shared package-level instance.
type Cache struct {
	mu      sync.RWMutex
	records map[string]*record
	opts    Options
	group   singleflight.Group
}

// New creates a Cache, filling unset options with the defaults.
func New(opts Options) *Cache {
	if opts.MaxErrors <= 0 {
		opts.MaxErrors = DefaultMaxErrors
	}
	if opts.CircuitReset <= 0 {
		opts.CircuitReset = DefaultCircuitReset
	}
	if opts.SlowThreshold <= 0 {
		opts.SlowThreshold = DefaultSlowThreshold
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Cache{
		records: make(map[string]*record),
		opts:    opts,
	}
}

// rec returns the record for name, creating it lazily.
func (c *Cache) rec(name string) *record {
	c.mu.RLock()
	r, ok := c.records[name]
	c.mu.RUnlock()
	if ok {
		return r
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Double-check after acquiring the write lock.
	if r, ok = c.records[name]; ok {
		return r
	}
	r = &record{stats: stats{name: name}}
	c.records[name] = r
	return r
}

// Get returns the cached value for name if present and fresh, else nil.
func (c *Cache) Get(name string) map[string]any {
	r := c.rec(name)
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.entry == nil || r.entry.expired(c.opts.Now()) {
		return nil
	}
	return r.entry.value
}

// GetStale returns the cached value regardless of expiry, nil if never set.
func (c *Cache) GetStale(name string) map[string]any {
	r := c.rec(name)
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.entry == nil {
		return nil
	}
	return r.entry.value
}

// Set stores value for name, resetting the expiry clock.
func (c *Cache) Set(name string, value map[string]any, ttl, fetchTime time.Duration) {
	r := c.rec(name)
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entry = &entry{
		value:     value,
		at:        c.opts.Now(),
		ttl:       ttl,
		fetchTime: fetchTime,
	}
}

// Invalidate removes name's cache entry. Stats and breaker state are kept.
func (c *Cache) Invalidate(name string) {
	r := c.rec(name)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entry = nil
}

// Clear removes every cache entry. Stats and breaker state are kept.
func (c *Cache) Clear() {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, r := range c.records {
		r.mu.Lock()
		r.entry = nil
		r.mu.Unlock()
	}
}

// RecordCall records one call against name's statistics. An error message
// feeds the breaker: reaching MaxErrors while closed opens it. A success
// resets the error streak but never closes an already-open breaker — only
// the reset window or ResetCircuit does that.
func (c *Cache) RecordCall(name string, duration time.Duration, cacheHit bool, errMsg string) {
	r := c.rec(name)
	r.mu.Lock()
	defer r.mu.Unlock()

	s := &r.stats
	s.callCount++
	s.totalTime += duration
	s.lastCallTime = duration

	if cacheHit {
		s.cacheHits++
	} else {
		s.cacheMisses++
	}

	if errMsg != "" {
		s.errorCount++
		s.lastError = truncateError(errMsg)
		s.lastErrorTime = c.opts.Now()

		if s.errorCount >= c.opts.MaxErrors && !s.circuitOpen {
			s.circuitOpen = true
			s.circuitOpenedAt = c.opts.Now()
			slog.Warn("circuit opened",
				"collector", name,
				"error_count", s.errorCount,
				"last_error", s.lastError)
		}
		return
	}

	s.errorCount = 0
}

// IsCircuitOpen reports whether name's breaker is open. An open breaker
// whose reset window has elapsed auto-closes here, with the error streak
// zeroed, before reporting false.
func (c *Cache) IsCircuitOpen(name string) bool {
	r := c.rec(name)
	r.mu.Lock()
	defer r.mu.Unlock()

	s := &r.stats
	if !s.circuitOpen {
		return false
	}

	if !s.circuitOpenedAt.IsZero() {
		elapsed := c.opts.Now().Sub(s.circuitOpenedAt)
		if elapsed > c.opts.CircuitReset {
			s.circuitOpen = false
			s.circuitOpenedAt = time.Time{}
			s.errorCount = 0
			slog.Info("circuit closed after reset window", "collector", name, "elapsed", elapsed)
			return false
		}
	}

	return true
}

// ResetCircuit manually closes name's breaker and zeroes its error streak.
func (c *Cache) ResetCircuit(name string) {
	r := c.rec(name)
	r.mu.Lock()
	defer r.mu.Unlock()

	s := &r.stats
	if s.circuitOpen {
		slog.Info("circuit reset manually", "collector", name)
	}
	s.circuitOpen = false
	s.circuitOpenedAt = time.Time{}
	s.errorCount = 0
}

// StatsFor returns a snapshot of name's statistics, creating the record if
// it does not exist yet.
func (c *Cache) StatsFor(name string) StatsSnapshot {
	r := c.rec(name)
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats.snapshot()
}

// Tracked reports whether name has a stats record.
func (c *Cache) Tracked(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.records[name]
	return ok
}

// AllStats returns a snapshot of every tracked source's statistics.
func (c *Cache) AllStats() map[string]StatsSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]StatsSnapshot, len(c.records))
	for name, r := range c.records {
		r.mu.Lock()
		out[name] = r.stats.snapshot()
		r.mu.Unlock()
	}
	return out
}
