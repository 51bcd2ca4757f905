// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Opsdash Contributors

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/opsdash-dev/opsdash/internal/cache"
	"github.com/opsdash-dev/opsdash/internal/collector"
	"github.com/opsdash-dev/opsdash/internal/config"
	"github.com/opsdash-dev/opsdash/internal/runner"
	"github.com/opsdash-dev/opsdash/internal/server"
	opserr "github.com/opsdash-dev/opsdash/pkg/errors"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the opsdash server",
		Long:  "Load configuration, wire the collector resilience layer, start refresh loops for every configured collector, and serve the diagnostic API.",
		RunE:  runServe,
	}

	cmd.Flags().String("listen", "", "override listen address (host:port)")
	_ = viper.BindPFlag("server.listen", cmd.Flags().Lookup("listen"))

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfgPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	// Apply any flag/env overrides that Viper resolved.
	if listen := viper.GetString("server.listen"); listen != "" {
		cfg.Server.Listen = listen
	}
	if viper.GetBool("verbose") {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := buildApp(cfg)
	if err != nil {
		return err
	}

	for name, refresh := range app.refreshers {
		go refreshLoop(ctx, name, refresh.interval, refresh.fetch)
	}

	slog.Info("opsdash serving", "listen", cfg.Server.Listen, "collectors", len(app.refreshers))
	return app.srv.Start(ctx)
}

// app bundles the wired subsystems behind serve.
type app struct {
	cache      *cache.Cache
	registry   *collector.Registry
	srv        *server.Server
	refreshers map[string]refresher
}

type refresher struct {
	interval time.Duration
	fetch    collector.Fetch
}

// buildApp wires registry, cache, runner and the configured collector
// sources into a ready-to-start server.
func buildApp(cfg *config.Config) (*app, error) {
	reg := collector.NewRegistry()
	c := cache.New(cache.Options{
		MaxErrors:     cfg.Cache.Circuit.MaxErrors,
		CircuitReset:  cfg.Cache.Circuit.Reset(),
		SlowThreshold: cfg.Cache.SlowThreshold(),
	})
	run := runner.New(cfg.Runner.Timeout())

	refreshers := make(map[string]refresher, len(cfg.Collectors))
	for name, col := range cfg.Collectors {
		if col.Disabled {
			slog.Debug("collector disabled", "collector", name)
			continue
		}

		fetch, err := sourceFetch(name, col, run)
		if err != nil {
			return nil, err
		}

		ttl := col.TTL(cfg.Cache.DefaultTTL())
		wrapped := c.Cached(name, cache.WrapOptions{
			TTL:                  ttl,
			StaleWhileRevalidate: !col.NoStaleFallback,
		}, reg.Track(name, fetch))

		refreshers[name] = refresher{
			interval: col.Interval(cfg.Cache.DefaultTTL()),
			fetch:    wrapped,
		}
	}

	srv, err := server.New(server.Config{
		ListenAddr:  cfg.Server.Listen,
		CORSOrigins: cfg.Server.CORSOrigins,
	}, c, reg)
	if err != nil {
		return nil, err
	}

	return &app{cache: c, registry: reg, srv: srv, refreshers: refreshers}, nil
}

// sourceFetch builds the raw fetch for one configured collector.
func sourceFetch(name string, col config.CollectorConfig, run *runner.Runner) (collector.Fetch, error) {
	switch {
	case len(col.Command) > 0:
		return collector.CommandSource{
			Name:   name,
			Args:   col.Command,
			Dir:    col.Dir,
			JSON:   col.JSON,
			Runner: run,
		}.Fetcher(), nil
	case col.URL != "":
		return collector.HTTPSource{
			Name:   name,
			URL:    col.URL,
			Client: defaultHTTPClient,
		}.Fetcher(), nil
	default:
		return nil, opserr.Errorf(opserr.CodeConfigValidateInvalidValue,
			"collector %q has no source", name)
	}
}

// refreshLoop refreshes one collector on its own timer, the way each
// dashboard panel triggers its own refresh. The wrapped fetch never fails;
// degraded outcomes are visible through the cache stats and registry.
func refreshLoop(ctx context.Context, name string, interval time.Duration, fetch collector.Fetch) {
	if interval <= 0 {
		interval = cache.DefaultTTL
	}

	// Prime immediately so the API has data before the first tick.
	_, _ = fetch()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Debug("refresh loop stopped", "collector", name)
			return
		case <-ticker.C:
			_, _ = fetch()
		}
	}
}
