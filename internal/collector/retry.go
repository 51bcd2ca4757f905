// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Opsdash Contributors

package collector

import (
	"context"
	"time"

	opserr "github.com/opsdash-dev/opsdash/pkg/errors"
)

// WithRetry invokes op, retrying on failure up to maxRetries additional
// times with a fixed delay between attempts. The delay is deliberately not
// backed off: the operations this layer wraps are small, local and cheap.
//
// Returns the first successful payload with the number of retries consumed
// before it, or nil, maxRetries and the final failure when every attempt
// fails. Context cancellation cuts the wait short.
func WithRetry(ctx context.Context, op Fetch, maxRetries int, delay time.Duration) (map[string]any, int, error) {
	if maxRetries < 0 {
		maxRetries = 0
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		data, err := op()
		if err == nil {
			return data, attempt, nil
		}
		lastErr = err

		if attempt < maxRetries {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, attempt, opserr.Wrap(ctx.Err(), opserr.CodeCollectorRetryExhausted,
					"retry aborted")
			case <-timer.C:
			}
		}
	}

	return nil, maxRetries, opserr.Wrapf(lastErr, opserr.CodeCollectorRetryExhausted,
		"all %d attempts failed", maxRetries+1)
}
