package main

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"aieni/internal/admin"
	"aieni/internal/platform/health"
	reghandler "aieni/internal/registration/handler"
	subhandler "aieni/internal/submission/handler"
	"aieni/pkg/platform/middleware/metadata"
	request "aieni/pkg/platform/middleware/request"
)

type routes struct {
	submissions   *subhandler.Handler
	registrations *reghandler.Handler
	admin         *admin.Handler
	health        *health.Handler
	requireAdmin  func(http.Handler) http.Handler
	latency       *request.Metrics
	bodyLimit     int64
}

// NewRouter wires every endpoint with the shared middleware stack. Admin
// routes other than login sit behind bearer authentication.
func NewRouter(rt routes, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(request.Recovery(logger))
	r.Use(request.RequestID)
	r.Use(metadata.NewMiddleware(nil).Handler)
	r.Use(request.Logger(logger))
	r.Use(request.LatencyMiddleware(rt.latency, routePattern))

	rt.health.Register(r)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(request.BodyLimit(rt.bodyLimit))

		rt.submissions.RegisterPublic(r)
		rt.registrations.RegisterPublic(r)

		r.Route("/admin", func(r chi.Router) {
			rt.admin.RegisterPublic(r)
			r.Group(func(r chi.Router) {
				r.Use(rt.requireAdmin)
				rt.admin.RegisterAdmin(r)
				rt.submissions.RegisterAdmin(r)
				rt.registrations.RegisterAdmin(r)
			})
		})
	})

	return r
}

// routePattern labels latency by chi pattern so IDs do not explode the
// metric's cardinality. It runs after routing has completed.
func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}
