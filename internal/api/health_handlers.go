package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/sync/errgroup"

	"github.com/arguspanoptes/argus-server/internal/adapter"
	"github.com/arguspanoptes/argus-server/internal/domain"
)

// probeConcurrency caps parallel live health checks so a probe request
// cannot flood 260 catalogs at once.
const probeConcurrency = 10

// probeTimeout bounds the whole live probe sweep.
const probeTimeout = 15 * time.Second

func (s *Server) registerHealthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "healthCheck",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Service health",
		Tags:        []string{"Health"},
	}, s.handleHealthCheck)

	huma.Register(s.api, huma.Operation{
		OperationID: "systemsHealth",
		Method:      http.MethodGet,
		Path:        "/health/systems",
		Summary:     "Per-system health",
		Description: "Rolling success statistics per library system. Pass probe=true to also run live health checks.",
		Tags:        []string{"Health"},
	}, s.handleSystemsHealth)
}

// === DTOs ===

// HealthOutput is the Huma output for the service health check.
type HealthOutput struct {
	Body struct {
		Status        string    `json:"status"`
		Timestamp     time.Time `json:"timestamp"`
		UptimeSeconds int64     `json:"uptimeSeconds"`
		Systems       int       `json:"systems"`
	}
}

// SystemsHealthInput is the Huma input for per-system health.
type SystemsHealthInput struct {
	Probe bool `query:"probe" doc:"Run a live health check against each system"`
}

// SystemHealthResponse is one system's health row.
type SystemHealthResponse struct {
	SystemID     domain.LibrarySystemId `json:"systemId"`
	Name         string                 `json:"name"`
	Enabled      bool                   `json:"enabled"`
	BreakerState string                 `json:"breakerState,omitempty"`
	SuccessCount int                    `json:"successCount"`
	FailureCount int                    `json:"failureCount"`
	SuccessRate  float64                `json:"successRate"`
	LastError    string                 `json:"lastError,omitempty"`
	Probe        *adapter.Health        `json:"probe,omitempty"`
}

// SystemsHealthOutput is the Huma output for per-system health.
type SystemsHealthOutput struct {
	Body struct {
		Systems []SystemHealthResponse `json:"systems"`
	}
}

// === Handlers ===

func (s *Server) handleHealthCheck(_ context.Context, _ *struct{}) (*HealthOutput, error) {
	out := &HealthOutput{}
	out.Body.Status = "healthy"
	out.Body.Timestamp = time.Now().UTC()
	out.Body.UptimeSeconds = int64(time.Since(s.startedAt).Seconds())
	out.Body.Systems = s.registry.Len()
	return out, nil
}

func (s *Server) handleSystemsHealth(ctx context.Context, input *SystemsHealthInput) (*SystemsHealthOutput, error) {
	systems := s.registry.All()
	adapters := s.coordinator.Adapters()

	rows := make([]SystemHealthResponse, len(systems))
	for i, system := range systems {
		row := SystemHealthResponse{
			SystemID: system.ID,
			Name:     system.Name,
			Enabled:  system.Enabled,
		}
		if snap, ok := s.tracker.Snapshot(system.ID); ok {
			row.SuccessCount = snap.SuccessCount
			row.FailureCount = snap.FailureCount
			row.SuccessRate = snap.SuccessRate()
			row.LastError = snap.LastError
		}
		if inst := adapters.Primary(system.ID); inst != nil {
			row.BreakerState = string(inst.Breaker.State())
		}
		rows[i] = row
	}

	if input.Probe {
		probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
		defer cancel()

		g, gctx := errgroup.WithContext(probeCtx)
		g.SetLimit(probeConcurrency)
		for i := range rows {
			if !systems[i].Enabled {
				continue
			}
			inst := adapters.Primary(systems[i].ID)
			if inst == nil {
				continue
			}
			system := systems[i]
			row := &rows[i]
			g.Go(func() error {
				h := inst.Adapter.HealthCheck(gctx, &system)
				row.Probe = &h
				return nil
			})
		}
		// Probes never return errors; Wait just joins the sweep.
		_ = g.Wait()
	}

	out := &SystemsHealthOutput{}
	out.Body.Systems = rows
	return out, nil
}
