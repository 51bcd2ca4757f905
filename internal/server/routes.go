// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Opsdash Contributors

package server

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/opsdash-dev/opsdash/internal/cache"
	"github.com/opsdash-dev/opsdash/internal/collector"
)

func (s *Server) registerRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "list-collectors",
		Method:      http.MethodGet,
		Path:        "/api/v1/collectors",
		Summary:     "Per-collector statistics",
		Tags:        []string{"collectors"},
	}, s.handleListCollectors)

	huma.Register(s.api, huma.Operation{
		OperationID: "get-collector",
		Method:      http.MethodGet,
		Path:        "/api/v1/collectors/{name}",
		Summary:     "One collector's statistics",
		Tags:        []string{"collectors"},
	}, s.handleGetCollector)

	huma.Register(s.api, huma.Operation{
		OperationID: "reset-circuit",
		Method:      http.MethodPost,
		Path:        "/api/v1/collectors/{name}/reset",
		Summary:     "Manually close a collector's circuit breaker",
		Tags:        []string{"collectors"},
	}, s.handleResetCircuit)

	huma.Register(s.api, huma.Operation{
		OperationID: "invalidate-cache",
		Method:      http.MethodPost,
		Path:        "/api/v1/collectors/{name}/invalidate",
		Summary:     "Drop a collector's cache entry",
		Tags:        []string{"collectors"},
	}, s.handleInvalidate)

	huma.Register(s.api, huma.Operation{
		OperationID: "health-summary",
		Method:      http.MethodGet,
		Path:        "/api/v1/summary",
		Summary:     "Aggregate collector health",
		Tags:        []string{"system"},
	}, s.handleSummary)

	huma.Register(s.api, huma.Operation{
		OperationID: "registry",
		Method:      http.MethodGet,
		Path:        "/api/v1/registry",
		Summary:     "Last known state per collector",
		Tags:        []string{"system"},
	}, s.handleRegistry)
}

// --- Request/Response types for huma ---

type listCollectorsOutput struct {
	Body struct {
		Collectors map[string]cache.StatsSnapshot `json:"collectors"`
	}
}

type collectorNameInput struct {
	Name string `path:"name"`
}

type getCollectorOutput struct {
	Body cache.StatsSnapshot
}

type actionOutput struct {
	Body struct {
		Status string `json:"status"`
	}
}

type summaryOutput struct {
	Body cache.Summary
}

type registryOutput struct {
	Body struct {
		Collectors map[string]collector.Entry `json:"collectors"`
	}
}

// --- Handlers ---

func (s *Server) handleListCollectors(_ context.Context, _ *struct{}) (*listCollectorsOutput, error) {
	out := &listCollectorsOutput{}
	out.Body.Collectors = s.cache.AllStats()
	return out, nil
}

func (s *Server) handleGetCollector(_ context.Context, input *collectorNameInput) (*getCollectorOutput, error) {
	if !s.cache.Tracked(input.Name) {
		return nil, huma.Error404NotFound("unknown collector: " + input.Name)
	}
	return &getCollectorOutput{Body: s.cache.StatsFor(input.Name)}, nil
}

func (s *Server) handleResetCircuit(_ context.Context, input *collectorNameInput) (*actionOutput, error) {
	if !s.cache.Tracked(input.Name) {
		return nil, huma.Error404NotFound("unknown collector: " + input.Name)
	}
	s.cache.ResetCircuit(input.Name)
	out := &actionOutput{}
	out.Body.Status = "reset"
	return out, nil
}

func (s *Server) handleInvalidate(_ context.Context, input *collectorNameInput) (*actionOutput, error) {
	if !s.cache.Tracked(input.Name) {
		return nil, huma.Error404NotFound("unknown collector: " + input.Name)
	}
	s.cache.Invalidate(input.Name)
	out := &actionOutput{}
	out.Body.Status = "invalidated"
	return out, nil
}

func (s *Server) handleSummary(_ context.Context, _ *struct{}) (*summaryOutput, error) {
	return &summaryOutput{Body: s.cache.HealthSummary()}, nil
}

func (s *Server) handleRegistry(_ context.Context, _ *struct{}) (*registryOutput, error) {
	out := &registryOutput{}
	out.Body.Collectors = s.registry.Snapshot()
	return out, nil
}
