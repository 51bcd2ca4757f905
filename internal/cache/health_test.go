// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Opsdash Contributors

package cache_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthSummary_Empty(t *testing.T) {
	c := newTestCache(newFakeClock())

	summary := c.HealthSummary()
	assert.Zero(t, summary.TotalCollectors)
	assert.Zero(t, summary.HealthyCount)
	assert.Zero(t, summary.DegradedCount)
	assert.Zero(t, summary.FailedCount)
	assert.Zero(t, summary.AvgCacheHitRate)
	assert.Empty(t, summary.SlowestCollector)
}

func TestHealthSummary_Buckets(t *testing.T) {
	c := newTestCache(newFakeClock())

	// healthy: no errors, breaker closed
	c.RecordCall("gateway", 10*time.Millisecond, false, "")

	// degraded: errors but below the threshold
	c.RecordCall("sessions", 10*time.Millisecond, false, "err")
	c.RecordCall("sessions", 10*time.Millisecond, false, "err")

	// failed: breaker open
	for i := 0; i < 3; i++ {
		c.RecordCall("repos", 10*time.Millisecond, false, "err")
	}

	summary := c.HealthSummary()
	assert.Equal(t, 3, summary.TotalCollectors)
	assert.Equal(t, 1, summary.HealthyCount)
	assert.Equal(t, 1, summary.DegradedCount)
	assert.Equal(t, 1, summary.FailedCount)
}

func TestHealthSummary_SlowestCollector(t *testing.T) {
	c := newTestCache(newFakeClock())

	c.RecordCall("fast", 5*time.Millisecond, false, "")
	c.RecordCall("slow", 800*time.Millisecond, false, "")
	c.RecordCall("medium", 80*time.Millisecond, false, "")

	summary := c.HealthSummary()
	assert.Equal(t, "slow", summary.SlowestCollector)
	assert.InDelta(t, 800.0, summary.SlowestTimeMS, 0.01)
}

func TestHealthSummary_AvgHitRate(t *testing.T) {
	c := newTestCache(newFakeClock())

	// 100% hits
	c.RecordCall("a", 0, true, "")
	// 50% hits
	c.RecordCall("b", 0, true, "")
	c.RecordCall("b", time.Millisecond, false, "")
	// 0% hits
	c.RecordCall("c", time.Millisecond, false, "")

	summary := c.HealthSummary()
	require.Equal(t, 3, summary.TotalCollectors)
	assert.InDelta(t, 50.0, summary.AvgCacheHitRate, 0.1)
}
