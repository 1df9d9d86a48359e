// Package httptransport assembles the HTTP surface: shared middleware, auth
// groups and the per-context handlers.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"trustplane/internal/platform/metrics"
	"trustplane/pkg/platform/httputil"
	adminmw "trustplane/pkg/platform/middleware/admin"
	authmw "trustplane/pkg/platform/middleware/auth"
	"trustplane/pkg/platform/middleware/metadata"
	"trustplane/pkg/platform/middleware/request"
)

// Registrar is implemented by every context handler.
type Registrar interface {
	Register(r chi.Router)
}

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

// Config lists everything the router mounts.
type Config struct {
	Logger   *slog.Logger
	Gatherer prometheus.Gatherer
	HTTP     *metrics.HTTP

	AdminTokens *adminmw.TokenValidator
	APIKeys     authmw.APIKeyVerifier

	// Admin handlers sit behind the admin bearer token.
	Admin []Registrar
	// Clients handlers sit behind X-API-Key.
	Clients []Registrar

	Health map[string]HealthCheck
}

// NewRouter wires the public endpoints.
func NewRouter(cfg Config) http.Handler {
	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(request.Recover(cfg.Logger))
	r.Use(request.AccessLog(cfg.Logger))
	r.Use(metadata.ClientMetadata)
	if cfg.HTTP != nil {
		r.Use(cfg.HTTP.Instrument)
	}

	r.Get("/healthz", healthHandler(cfg.Health))
	if cfg.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Group(func(r chi.Router) {
		r.Use(adminmw.RequireAdmin(cfg.AdminTokens, cfg.Logger))
		for _, h := range cfg.Admin {
			h.Register(r)
		}
	})
	r.Group(func(r chi.Router) {
		r.Use(authmw.RequireAPIKey(cfg.APIKeys, cfg.Logger))
		for _, h := range cfg.Clients {
			h.Register(r)
		}
	})
	return r
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := healthResponse{Status: "ok", Checks: map[string]string{}}
		status := http.StatusOK
		for name, check := range checks {
			if err := check(ctx); err != nil {
				resp.Checks[name] = "unavailable"
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}
		httputil.WriteJSON(w, status, resp)
	}
}
