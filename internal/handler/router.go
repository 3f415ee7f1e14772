package handler

import (
	"net/http"

	"github.com/boddenberg/denuncias-bfa/internal/infra/observability"
	"github.com/boddenberg/denuncias-bfa/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// Services groups the use cases the router exposes.
type Services struct {
	Complaints *service.ComplaintService
	Auth       *service.AuthService
	Filters    *service.FilterPreferences
}

// NewRouter creates the HTTP router with all routes and middleware.
// Routes follow the API contract consumed by the complaint dashboard SPA.
func NewRouter(svcs Services, checks []HealthCheck, metrics *observability.Metrics, allowedOrigins []string, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Content-Disposition", "X-Export-Id", "X-Export-Rows"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(checks))
	r.Get("/readyz", readyzHandler(checks, logger))
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {
		r.Get("/metrics/summary", metricsSummaryHandler(metrics))

		// =============================================
		// 1. Catálogos e cálculos sem sessão
		// =============================================
		r.Get("/options", optionsHandler())
		r.Post("/complaints/recompute", recomputeHandler(svcs.Complaints, logger))
		r.Get("/complaints/status", statusHandler(svcs.Complaints, logger))

		// =============================================
		// 2. Autenticação
		// =============================================
		r.Route("/auth", func(r chi.Router) {
			// Public routes
			r.Post("/sign-in", signInHandler(svcs.Auth, logger))
			r.Post("/sign-up", signUpHandler(svcs.Auth, logger))
			r.Post("/refresh", refreshHandler(svcs.Auth, logger))
			r.Post("/password/reset-request", passwordResetRequestHandler(svcs.Auth, logger))

			// Protected routes
			r.Group(func(r chi.Router) {
				r.Use(SessionMiddleware(svcs.Auth, logger))
				r.Get("/session", sessionHandler(svcs.Complaints, logger))
				r.Post("/sign-out", signOutHandler(svcs.Auth, logger))
				r.Put("/password", updatePasswordHandler(svcs.Auth, logger))
			})
		})

		// =============================================
		// 3. Denúncias (protected)
		// =============================================
		r.Group(func(r chi.Router) {
			r.Use(SessionMiddleware(svcs.Auth, logger))

			r.Get("/complaints", listComplaintsHandler(svcs.Complaints, logger))
			r.Post("/complaints", createComplaintHandler(svcs.Complaints, logger))
			r.Get("/complaints/stats", statsHandler(svcs.Complaints, logger))
			r.Post("/complaints/export", exportHandler(svcs.Complaints, logger))
			r.Get("/complaints/{id}", getComplaintHandler(svcs.Complaints, logger))
			r.Put("/complaints/{id}", updateComplaintHandler(svcs.Complaints, logger))
			r.Delete("/complaints/{id}", deleteComplaintHandler(svcs.Complaints, logger))

			// =============================================
			// 4. Filtros avançados salvos
			// =============================================
			r.Get("/filters", getFiltersHandler(svcs.Filters, logger))
			r.Put("/filters", saveFiltersHandler(svcs.Filters, logger))
			r.Delete("/filters", clearFiltersHandler(svcs.Filters, logger))
		})
	})

	return r
}
