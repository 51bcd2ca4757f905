// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Opsdash Contributors

package runner_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsdash-dev/opsdash/internal/runner"
	opserr "github.com/opsdash-dev/opsdash/pkg/errors"
	"github.com/opsdash-dev/opsdash/pkg/types"
)

func TestRun_Success(t *testing.T) {
	r := runner.New(0)

	out, state, err := r.Run(context.Background(), runner.Spec{
		Args: []string{"sh", "-c", "echo '  hello  '"},
	})

	require.NoError(t, err)
	assert.Equal(t, types.StateOK, state)
	assert.Equal(t, "hello", out, "stdout is trimmed")
}

func TestRun_WorkingDir(t *testing.T) {
	dir := t.TempDir()
	r := runner.New(0)

	out, state, err := r.Run(context.Background(), runner.Spec{
		Args: []string{"pwd"},
		Dir:  dir,
	})

	require.NoError(t, err)
	assert.Equal(t, types.StateOK, state)
	assert.Contains(t, out, dir)
}

func TestRun_CommandNotFound(t *testing.T) {
	r := runner.New(0)

	_, state, err := r.Run(context.Background(), runner.Spec{
		Args: []string{"definitely-not-a-real-binary-xyz"},
	})

	require.Error(t, err)
	assert.Equal(t, types.StateUnavailable, state)
	assert.Contains(t, err.Error(), "not found")
	assert.True(t, opserr.IsUnavailable(err))
}

func TestRun_Timeout(t *testing.T) {
	r := runner.New(0)

	start := time.Now()
	_, state, err := r.Run(context.Background(), runner.Spec{
		Args:    []string{"sleep", "10"},
		Timeout: 100 * time.Millisecond,
	})
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.Equal(t, types.StateTimeout, state)
	assert.Contains(t, err.Error(), "timed out")
	assert.True(t, opserr.IsTimeout(err))
	assert.Less(t, elapsed, 5*time.Second, "child must be killed, not awaited")
}

func TestRun_NonZeroExitUsesStderr(t *testing.T) {
	r := runner.New(0)

	_, state, err := r.Run(context.Background(), runner.Spec{
		Args: []string{"sh", "-c", "echo oops >&2; exit 1"},
	})

	require.Error(t, err)
	assert.Equal(t, types.StateError, state)
	assert.Contains(t, err.Error(), "oops")
}

func TestRun_NonZeroExitFallsBackToStdout(t *testing.T) {
	r := runner.New(0)

	_, state, err := r.Run(context.Background(), runner.Spec{
		Args: []string{"sh", "-c", "echo visible; exit 2"},
	})

	require.Error(t, err)
	assert.Equal(t, types.StateError, state)
	assert.Contains(t, err.Error(), "visible")
}

func TestRun_NonZeroExitSilent(t *testing.T) {
	r := runner.New(0)

	_, state, err := r.Run(context.Background(), runner.Spec{
		Args: []string{"sh", "-c", "exit 3"},
	})

	require.Error(t, err)
	assert.Equal(t, types.StateError, state)
	assert.Contains(t, err.Error(), "exit code 3")
}

func TestRun_EmptyArgs(t *testing.T) {
	r := runner.New(0)

	_, state, err := r.Run(context.Background(), runner.Spec{})

	require.Error(t, err)
	assert.Equal(t, types.StateError, state)
}
