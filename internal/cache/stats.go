// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Opsdash Contributors

package cache

import (
	"math"
	"time"

	"github.com/opsdash-dev/opsdash/internal/collector"
)

// maxErrorLen bounds the stored last-error message.
const maxErrorLen = 200

// stats is the per-source call record. Created lazily on first call and
// mutated for the process lifetime; only ResetCircuit and tests touch the
// breaker fields from outside RecordCall.
type stats struct {
	name            string
	callCount       int
	cacheHits       int
	cacheMisses     int
	totalTime       time.Duration
	lastCallTime    time.Duration
	errorCount      int
	lastError       string
	lastErrorTime   time.Time
	circuitOpen     bool
	circuitOpenedAt time.Time
}

// hitRate is the cache hit percentage, 0 when nothing was looked up yet.
func (s *stats) hitRate() float64 {
	total := s.cacheHits + s.cacheMisses
	if total == 0 {
		return 0
	}
	return float64(s.cacheHits) / float64(total) * 100
}

// avgTime is the mean call duration, 0 when no calls were recorded.
func (s *stats) avgTime() time.Duration {
	if s.callCount == 0 {
		return 0
	}
	return s.totalTime / time.Duration(s.callCount)
}

// StatsSnapshot is a point-in-time view of one source's statistics, safe to
// serialize for the diagnostic API and export.
type StatsSnapshot struct {
	Name           string     `json:"name" yaml:"name"`
	CallCount      int        `json:"call_count" yaml:"call_count"`
	CacheHits      int        `json:"cache_hits" yaml:"cache_hits"`
	CacheMisses    int        `json:"cache_misses" yaml:"cache_misses"`
	HitRatePct     float64    `json:"hit_rate_pct" yaml:"hit_rate_pct"`
	AvgTimeMS      float64    `json:"avg_time_ms" yaml:"avg_time_ms"`
	LastCallTimeMS float64    `json:"last_call_time_ms" yaml:"last_call_time_ms"`
	ErrorCount     int        `json:"error_count" yaml:"error_count"`
	LastError      string     `json:"last_error,omitempty" yaml:"last_error,omitempty"`
	LastErrorTime  *time.Time `json:"last_error_time,omitempty" yaml:"last_error_time,omitempty"`
	CircuitOpen    bool       `json:"circuit_open" yaml:"circuit_open"`
}

func (s *stats) snapshot() StatsSnapshot {
	snap := StatsSnapshot{
		Name:           s.name,
		CallCount:      s.callCount,
		CacheHits:      s.cacheHits,
		CacheMisses:    s.cacheMisses,
		HitRatePct:     round1(s.hitRate()),
		AvgTimeMS:      collector.DurationMS(s.avgTime()),
		LastCallTimeMS: collector.DurationMS(s.lastCallTime),
		ErrorCount:     s.errorCount,
		LastError:      s.lastError,
		CircuitOpen:    s.circuitOpen,
	}
	if !s.lastErrorTime.IsZero() {
		t := s.lastErrorTime
		snap.LastErrorTime = &t
	}
	return snap
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func truncateError(msg string) string {
	runes := []rune(msg)
	if len(runes) <= maxErrorLen {
		return msg
	}
	return string(runes[:maxErrorLen])
}
