// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Opsdash Contributors

package types_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/opsdash-dev/opsdash/pkg/types"
)

func TestState_Valid(t *testing.T) {
	for _, s := range []types.State{
		types.StateOK, types.StateError, types.StateTimeout,
		types.StateUnavailable, types.StateStale,
	} {
		assert.True(t, s.Valid(), string(s))
	}

	assert.False(t, types.State("bogus").Valid())
	assert.False(t, types.State("").Valid())
}

func TestState_Failed(t *testing.T) {
	assert.True(t, types.StateError.Failed())
	assert.True(t, types.StateTimeout.Failed())

	assert.False(t, types.StateOK.Failed())
	assert.False(t, types.StateStale.Failed())
	assert.False(t, types.StateUnavailable.Failed())
}
