// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Opsdash Contributors

package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	opserr "github.com/opsdash-dev/opsdash/pkg/errors"
	"github.com/opsdash-dev/opsdash/pkg/types"
)

// DefaultTimeout bounds commands whose spec does not set one.
const DefaultTimeout = 15 * time.Second

// Spec describes one external command invocation.
type Spec struct {
	// Args is the command and its arguments. Must not be empty.
	Args []string
	// Dir is the working directory. Empty means the process default.
	Dir string
	// Timeout overrides the runner's default deadline when positive.
	Timeout time.Duration
}

// Runner executes external commands with a deadline and classifies the
// outcome. It performs no retries; compose with collector.WithRetry.
type Runner struct {
	timeout time.Duration
}

// New creates a Runner with the given default timeout. Non-positive values
// fall back to DefaultTimeout.
func New(timeout time.Duration) *Runner {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Runner{timeout: timeout}
}

// Run executes the command and returns trimmed stdout on success.
//
// Outcomes:
//   - exit 0: trimmed stdout, StateOK, nil error
//   - executable missing: StateUnavailable, error mentions "not found"
//   - deadline exceeded: child killed, StateTimeout, error mentions "timed out"
//   - non-zero exit: StateError, error carries stderr (stdout if stderr empty)
func (r *Runner) Run(ctx context.Context, spec Spec) (string, types.State, error) {
	if len(spec.Args) == 0 {
		return "", types.StateError, opserr.New(opserr.CodeRunnerInvalidInput, "command args must not be empty")
	}

	timeout := spec.Timeout
	if timeout <= 0 {
		timeout = r.timeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, spec.Args[0], spec.Args[1:]...)
	cmd.Dir = spec.Dir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return strings.TrimSpace(stdout.String()), types.StateOK, nil
	}

	name := spec.Args[0]

	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		// CommandContext has already killed the child; nothing is leaked.
		slog.Warn("command timed out", "command", name, "timeout", timeout)
		return "", types.StateTimeout, opserr.Errorf(opserr.CodeRunnerCommandTimeout,
			"command %q timed out after %s", name, timeout)

	case errors.Is(err, exec.ErrNotFound):
		return "", types.StateUnavailable, opserr.Errorf(opserr.CodeRunnerCommandNotFound,
			"command not found: %s", name)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = strings.TrimSpace(stdout.String())
		}
		if msg == "" {
			msg = fmt.Sprintf("exit code %d", exitErr.ExitCode())
		}
		slog.Warn("command failed", "command", name, "exit_code", exitErr.ExitCode())
		return "", types.StateError, opserr.New(opserr.CodeRunnerCommandFailure, msg,
			opserr.FieldCommand(name))
	}

	return "", types.StateError, opserr.Wrapf(err, opserr.CodeRunnerCommandFailure,
		"running %q", name)
}
