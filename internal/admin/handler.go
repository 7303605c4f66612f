package admin

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	adminauth "aieni/internal/admin/auth"
	"aieni/internal/notify"
	"aieni/internal/seeder"
	dErrors "aieni/pkg/domain-errors"
	"aieni/pkg/platform/httputil"
	"aieni/pkg/platform/middleware/auth"
	"aieni/pkg/requestcontext"
)

// StatsService serves the dashboard counters.
type StatsService interface {
	GetStats(ctx context.Context) (*Stats, error)
}

// AuthService logs the administrator in and out.
type AuthService interface {
	Login(ctx context.Context, req *adminauth.LoginRequest, userAgent string) (adminauth.LoginResult, error)
	Logout(ctx context.Context, token string) error
}

// DemoSeeder replaces both collections with sample data.
type DemoSeeder interface {
	SeedAll(ctx context.Context) (seeder.Result, error)
}

// NotificationFeed returns recent notifications, newest first.
type NotificationFeed interface {
	Recent(limit int) []notify.Notification
}

const defaultNotificationLimit = 20

// Handler handles admin login, stats and maintenance endpoints
type Handler struct {
	stats         StatsService
	auth          AuthService
	seeder        DemoSeeder
	notifications NotificationFeed
	logger        *slog.Logger
}

// New creates a new admin handler
func New(stats StatsService, authSvc AuthService, demo DemoSeeder, feed NotificationFeed, logger *slog.Logger) *Handler {
	return &Handler{
		stats:         stats,
		auth:          authSvc,
		seeder:        demo,
		notifications: feed,
		logger:        logger,
	}
}

// RegisterPublic registers the login endpoint on the admin router, outside
// any authentication group.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Post("/login", h.HandleLogin)
}

// RegisterAdmin registers the dashboard routes. r is expected to be behind
// admin authentication.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/logout", h.HandleLogout)
	r.Get("/stats", h.HandleGetStats)
	r.Post("/demo-data", h.HandleDemoData)
	r.Get("/notifications", h.HandleGetNotifications)
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[adminauth.LoginRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	res, err := h.auth.Login(ctx, req, r.UserAgent())
	if err != nil {
		h.logger.WarnContext(ctx, "admin login failed",
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "admin logged in",
		"request_id", requestID,
		"device", res.Device,
	)
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	token, ok := auth.BearerToken(r)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing bearer token"))
		return
	}
	if err := h.auth.Logout(ctx, token); err != nil {
		h.logger.ErrorContext(ctx, "failed to log out",
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "admin logged out",
		"request_id", requestID,
		"email", requestcontext.AdminEmail(ctx),
	)
	w.WriteHeader(http.StatusNoContent)
}

// HandleGetStats returns the dashboard counters
func (h *Handler) HandleGetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	stats, err := h.stats.GetStats(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to get stats",
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, stats)
}

func (h *Handler) HandleDemoData(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	res, err := h.seeder.SeedAll(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to seed demo data",
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "demo data created",
		"request_id", requestID,
		"abstracts", res.Abstracts,
		"registrations", res.Registrations,
	)
	httputil.WriteJSON(w, http.StatusCreated, res)
}

// HandleGetNotifications returns recent notifications
func (h *Handler) HandleGetNotifications(w http.ResponseWriter, r *http.Request) {
	limit := defaultNotificationLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsedLimit, err := strconv.Atoi(limitStr); err == nil && parsedLimit > 0 {
			limit = parsedLimit
		}
	}

	items := h.notifications.Recent(limit)
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"notifications": items,
		"total":         len(items),
	})
}
