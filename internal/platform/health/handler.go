// Package health serves the probes an orchestrator polls: liveness, readiness
// over the configured dependencies (storage, redis, backend), and a status
// summary with the build version.
package health

import (
	"context"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"aieni/pkg/platform/httputil"
)

// Version is set at build time via ldflags.
var Version = "dev"

const checkTimeout = 2 * time.Second

const (
	stateUp       = "up"
	stateReady    = "ready"
	stateNotReady = "not_ready"
)

// CheckFunc returns nil when the dependency is reachable.
type CheckFunc func(ctx context.Context) error

type dependency struct {
	name  string
	check CheckFunc
}

type Handler struct {
	started     time.Time
	environment string
	now         func() time.Time

	mu   sync.RWMutex
	deps []dependency
}

func New(environment string) *Handler {
	return &Handler{started: time.Now(), environment: environment, now: time.Now}
}

// RegisterCheck adds a dependency to the readiness probe. Registering the
// same name again replaces the earlier check.
func (h *Handler) RegisterCheck(name string, check CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.deps = slices.DeleteFunc(h.deps, func(d dependency) bool { return d.name == name })
	h.deps = append(h.deps, dependency{name: name, check: check})
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/health", func(r chi.Router) {
		r.Get("/", h.HandleStatus)
		r.Get("/live", h.HandleLiveness)
		r.Get("/ready", h.HandleReadiness)
	})
}

type LivenessResponse struct {
	Status string `json:"status"`
}

func (h *Handler) HandleLiveness(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, LivenessResponse{Status: "alive"})
}

type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Ready runs every check concurrently under a shared deadline.
func (h *Handler) Ready(ctx context.Context) ReadinessResponse {
	h.mu.RLock()
	deps := slices.Clone(h.deps)
	h.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	results := make([]string, len(deps))
	var g errgroup.Group
	for i, d := range deps {
		g.Go(func() error {
			results[i] = stateUp
			if err := d.check(ctx); err != nil {
				results[i] = "down: " + err.Error()
			}
			return nil
		})
	}
	_ = g.Wait()

	resp := ReadinessResponse{Status: stateReady, Checks: make(map[string]string, len(deps))}
	for i, d := range deps {
		resp.Checks[d.name] = results[i]
		if results[i] != stateUp {
			resp.Status = stateNotReady
		}
	}
	return resp
}

// HandleReadiness answers 503 when any dependency is down.
func (h *Handler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	resp := h.Ready(r.Context())
	status := http.StatusOK
	if resp.Status != stateReady {
		status = http.StatusServiceUnavailable
	}
	httputil.WriteJSON(w, status, resp)
}

type StatusResponse struct {
	Status        string   `json:"status"`
	Version       string   `json:"version"`
	Environment   string   `json:"environment"`
	Dependencies  []string `json:"dependencies"`
	UptimeSeconds int64    `json:"uptime_seconds"`
	Timestamp     string   `json:"timestamp"`
}

func (h *Handler) HandleStatus(w http.ResponseWriter, _ *http.Request) {
	h.mu.RLock()
	names := make([]string, 0, len(h.deps))
	for _, d := range h.deps {
		names = append(names, d.name)
	}
	h.mu.RUnlock()
	slices.Sort(names)

	now := h.now()
	httputil.WriteJSON(w, http.StatusOK, StatusResponse{
		Status:        "healthy",
		Version:       Version,
		Environment:   h.environment,
		Dependencies:  names,
		UptimeSeconds: int64(now.Sub(h.started).Seconds()),
		Timestamp:     now.UTC().Format(time.RFC3339),
	})
}
