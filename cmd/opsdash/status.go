// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Opsdash Contributors

package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/opsdash-dev/opsdash/internal/cache"
	opserr "github.com/opsdash-dev/opsdash/pkg/errors"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show collector health",
		Long:  "Query a running opsdash server's health summary and display it.",
		RunE:  runStatus,
	}

	cmd.Flags().String("address", "127.0.0.1:18990", "server address to check")

	return cmd
}

func runStatus(cmd *cobra.Command, _ []string) error {
	addr, _ := cmd.Flags().GetString("address")
	out := cmd.OutOrStdout()

	client := newDashClient(addr)
	var summary cache.Summary
	if err := client.getJSON("/api/v1/summary", &summary); err != nil {
		if opserr.HasCode(err, opserr.CodeCLIServerNotRunning) {
			_, _ = fmt.Fprintf(out, "Server at %s is not running (connection refused)\n", addr)
			return nil
		}
		_, _ = fmt.Fprintf(out, "Server at %s: %s\n", addr, err)
		return nil
	}

	_, _ = fmt.Fprintf(out, "Collectors: %d total — %d healthy, %d degraded, %d failed\n",
		summary.TotalCollectors, summary.HealthyCount, summary.DegradedCount, summary.FailedCount)
	_, _ = fmt.Fprintf(out, "Avg cache hit rate: %.1f%%\n", summary.AvgCacheHitRate)
	if summary.SlowestCollector != "" {
		_, _ = fmt.Fprintf(out, "Slowest: %s (%.2fms avg)\n", summary.SlowestCollector, summary.SlowestTimeMS)
	}
	if !summary.GeneratedAt.IsZero() {
		_, _ = fmt.Fprintf(out, "Generated: %s\n", humanize.Time(summary.GeneratedAt))
	}
	return nil
}
