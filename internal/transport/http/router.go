// Package http assembles the service router: middleware chain, health and
// metrics endpoints, and the versioned API surface.
package http

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	checkhandler "vetgate/internal/check/handler"
	"vetgate/internal/platform/middleware"
	platformredis "vetgate/internal/platform/redis"
	"vetgate/internal/transport/http/shared"
)

// RouterDeps carries everything the router mounts. DB and Redis are optional;
// health reporting degrades to what is wired.
type RouterDeps struct {
	Logger        *slog.Logger
	JWTSigningKey string
	Checks        *checkhandler.Handler
	DB            *sql.DB
	Redis         *platformredis.Client
}

// NewRouter builds the full HTTP surface.
func NewRouter(deps RouterDeps) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", handleHealth(deps))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Workflow endpoints require an authenticated operator.
	r.Route("/v1", func(api chi.Router) {
		api.Use(middleware.ContentTypeJSON)
		api.Use(middleware.RequireOperator(deps.JWTSigningKey, deps.Logger))
		deps.Checks.Register(api)
	})

	return r
}

type healthStatus struct {
	Status string            `json:"status"`
	Deps   map[string]string `json:"dependencies,omitempty"`
}

func handleHealth(deps RouterDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := healthStatus{Status: "ok", Deps: map[string]string{}}
		healthy := true

		if deps.DB != nil {
			if err := deps.DB.PingContext(ctx); err != nil {
				status.Deps["postgres"] = err.Error()
				healthy = false
			} else {
				status.Deps["postgres"] = "ok"
			}
		}
		if deps.Redis != nil {
			if err := deps.Redis.Health(ctx); err != nil {
				status.Deps["redis"] = err.Error()
				healthy = false
			} else {
				status.Deps["redis"] = "ok"
			}
		}

		if !healthy {
			status.Status = "degraded"
			shared.WriteJSON(w, http.StatusServiceUnavailable, status)
			return
		}
		shared.WriteJSON(w, http.StatusOK, status)
	}
}
