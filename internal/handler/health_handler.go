package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/boddenberg/denuncias-bfa/internal/domain"
	"github.com/boddenberg/denuncias-bfa/internal/infra/observability"

	"go.uber.org/zap"
)

// HealthCheck probes one dependency.
type HealthCheck struct {
	Name string
	Ping func(ctx context.Context) error
}

const probeTimeout = 3 * time.Second

func runChecks(ctx context.Context, checks []HealthCheck) []domain.ServiceHealth {
	now := time.Now().Format(time.RFC3339)
	services := []domain.ServiceHealth{
		{Name: "bfa-api", Status: "healthy", LatencyMs: 0, LastChecked: now},
	}
	for _, c := range checks {
		pctx, cancel := context.WithTimeout(ctx, probeTimeout)
		start := time.Now()
		err := c.Ping(pctx)
		cancel()

		status := "healthy"
		if err != nil {
			status = "degraded"
		}
		services = append(services, domain.ServiceHealth{
			Name:        c.Name,
			Status:      status,
			LatencyMs:   time.Since(start).Milliseconds(),
			LastChecked: now,
		})
	}
	return services
}

func overall(services []domain.ServiceHealth) string {
	status := "healthy"
	for _, s := range services {
		if s.Status == "unhealthy" {
			return "unhealthy"
		}
		if s.Status == "degraded" {
			status = "degraded"
		}
	}
	return status
}

// healthzHandler always answers 200 and reports per-dependency status.
func healthzHandler(checks []HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		services := runChecks(r.Context(), checks)
		writeJSON(w, http.StatusOK, domain.HealthStatus{
			Status:   overall(services),
			Services: services,
		})
	}
}

// readyzHandler answers 503 while any dependency fails its probe.
func readyzHandler(checks []HealthCheck, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		services := runChecks(r.Context(), checks)
		status := overall(services)
		code := http.StatusOK
		if status != "healthy" {
			logger.Warn("not ready", zap.Any("services", services))
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, map[string]string{"status": status})
	}
}

func metricsSummaryHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.Summary())
	}
}
