// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Opsdash Contributors

package collector_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsdash-dev/opsdash/internal/collector"
	opserr "github.com/opsdash-dev/opsdash/pkg/errors"
)

func TestWithRetry_FirstAttemptSucceeds(t *testing.T) {
	data, retries, err := collector.WithRetry(context.Background(), func() (map[string]any, error) {
		return map[string]any{"v": 1}, nil
	}, 2, time.Millisecond)

	require.NoError(t, err)
	assert.Equal(t, 0, retries)
	assert.Equal(t, 1, data["v"])
}

func TestWithRetry_SucceedsAfterFailures(t *testing.T) {
	attempts := 0
	data, retries, err := collector.WithRetry(context.Background(), func() (map[string]any, error) {
		attempts++
		if attempts < 3 {
			return nil, errors.New("flaky")
		}
		return map[string]any{"v": attempts}, nil
	}, 3, time.Millisecond)

	require.NoError(t, err)
	assert.Equal(t, 2, retries)
	assert.Equal(t, 3, data["v"])
}

func TestWithRetry_Exhaustion(t *testing.T) {
	attempts := 0
	data, retries, err := collector.WithRetry(context.Background(), func() (map[string]any, error) {
		attempts++
		return nil, errors.New("always down")
	}, 2, time.Millisecond)

	require.Error(t, err)
	assert.Nil(t, data)
	assert.Equal(t, 2, retries)
	assert.Equal(t, 3, attempts, "one initial attempt plus two retries")
	assert.True(t, opserr.HasCode(err, opserr.CodeCollectorRetryExhausted))
	assert.Contains(t, err.Error(), "always down")
}

func TestWithRetry_ZeroRetries(t *testing.T) {
	attempts := 0
	_, retries, err := collector.WithRetry(context.Background(), func() (map[string]any, error) {
		attempts++
		return nil, errors.New("down")
	}, 0, time.Millisecond)

	require.Error(t, err)
	assert.Equal(t, 0, retries)
	assert.Equal(t, 1, attempts)
}

func TestWithRetry_ContextCancelCutsWaitShort(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	attempts := 0
	_, _, err := collector.WithRetry(ctx, func() (map[string]any, error) {
		attempts++
		return nil, errors.New("down")
	}, 5, time.Hour)

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
	assert.ErrorIs(t, err, context.Canceled)
}
