// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Opsdash Contributors

package cache

import (
	"time"

	"github.com/opsdash-dev/opsdash/internal/collector"
)

// Summary aggregates every tracked source into health buckets: healthy (no
// recent errors, breaker closed), degraded (errors but not tripped), failed
// (breaker open).
type Summary struct {
	TotalCollectors  int       `json:"total_collectors" yaml:"total_collectors"`
	HealthyCount     int       `json:"healthy_count" yaml:"healthy_count"`
	DegradedCount    int       `json:"degraded_count" yaml:"degraded_count"`
	FailedCount      int       `json:"failed_count" yaml:"failed_count"`
	AvgCacheHitRate  float64   `json:"avg_cache_hit_rate" yaml:"avg_cache_hit_rate"`
	SlowestCollector string    `json:"slowest_collector,omitempty" yaml:"slowest_collector,omitempty"`
	SlowestTimeMS    float64   `json:"slowest_time_ms" yaml:"slowest_time_ms"`
	GeneratedAt      time.Time `json:"generated_at" yaml:"generated_at"`
}

// HealthSummary computes the aggregate health view across all tracked
// sources: bucket counts, mean cache hit rate, and the slowest source by
// average call duration.
func (c *Cache) HealthSummary() Summary {
	c.mu.RLock()
	defer c.mu.RUnlock()

	summary := Summary{GeneratedAt: c.opts.Now()}
	if len(c.records) == 0 {
		return summary
	}

	var totalHitRate, slowestMS float64
	for name, r := range c.records {
		r.mu.Lock()
		s := &r.stats

		switch {
		case s.circuitOpen:
			summary.FailedCount++
		case s.errorCount > 0:
			summary.DegradedCount++
		default:
			summary.HealthyCount++
		}

		totalHitRate += s.hitRate()
		if avgMS := collector.DurationMS(s.avgTime()); avgMS > slowestMS {
			slowestMS = avgMS
			summary.SlowestCollector = name
		}
		r.mu.Unlock()
	}

	summary.TotalCollectors = len(c.records)
	summary.AvgCacheHitRate = round1(totalHitRate / float64(len(c.records)))
	summary.SlowestTimeMS = slowestMS
	return summary
}
