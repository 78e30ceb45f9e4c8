package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerHealthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "healthCheck",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Description: "Reports whether the note store is reachable. Always answers 200; read the status field.",
		Tags:        []string{"Health"},
	}, s.handleHealthCheck)
}

// Health states, from best to worst.
const (
	healthHealthy   = "healthy"
	healthDegraded  = "degraded"
	healthUnhealthy = "unhealthy"
)

// databasePingTimeout bounds the store check so a wedged database cannot
// hang the probe.
const databasePingTimeout = 2 * time.Second

// ComponentHealth describes the health of a single component.
type ComponentHealth struct {
	Status  string `json:"status" enum:"healthy,degraded,unhealthy" doc:"Component status"`
	Latency string `json:"latency,omitempty" doc:"Response time for this component"`
	Message string `json:"message,omitempty" doc:"Additional status information"`
}

// HealthResponse contains health check data in API responses.
type HealthResponse struct {
	Status     string                     `json:"status" enum:"healthy,degraded,unhealthy" doc:"Worst status of any component"`
	Version    string                     `json:"version" doc:"Server version"`
	Components map[string]ComponentHealth `json:"components" doc:"Individual component statuses"`
}

// HealthOutput wraps the health response for Huma.
type HealthOutput struct {
	Body HealthResponse
}

func (s *Server) handleHealthCheck(ctx context.Context, _ *struct{}) (*HealthOutput, error) {
	components := map[string]ComponentHealth{
		"database": s.checkDatabase(ctx),
	}

	return &HealthOutput{
		Body: HealthResponse{
			Status:     worstStatus(components),
			Version:    Version,
			Components: components,
		},
	}, nil
}

func worstStatus(components map[string]ComponentHealth) string {
	rank := map[string]int{healthHealthy: 0, healthDegraded: 1, healthUnhealthy: 2}
	worst := healthHealthy
	for _, c := range components {
		if rank[c.Status] > rank[worst] {
			worst = c.Status
		}
	}
	return worst
}

// checkDatabase pings the note store.
func (s *Server) checkDatabase(ctx context.Context) ComponentHealth {
	if s.store == nil {
		return ComponentHealth{
			Status:  healthDegraded,
			Message: "database not configured",
		}
	}

	ctx, cancel := context.WithTimeout(ctx, databasePingTimeout)
	defer cancel()

	start := time.Now()
	err := s.store.Ping(ctx)
	latency := time.Since(start).Round(time.Microsecond)

	if err != nil {
		s.logger.Error("Database health check failed", "error", err)
		return ComponentHealth{
			Status:  healthUnhealthy,
			Latency: latency.String(),
			Message: "database ping failed",
		}
	}

	return ComponentHealth{
		Status:  healthHealthy,
		Latency: latency.String(),
	}
}
