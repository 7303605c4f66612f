package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"aieni/internal/export"
	"aieni/internal/listing"
	"aieni/internal/registration"
	"aieni/internal/registration/service"
	"aieni/pkg/platform/httputil"
	"aieni/pkg/requestcontext"
)

type Service interface {
	Register(ctx context.Context, req *registration.RegisterRequest) (registration.Registration, error)
	Get(ctx context.Context, id string) (registration.Registration, error)
	List(ctx context.Context, view listing.ViewState) (service.List, error)
	Remove(ctx context.Context, id string) error
	Export(ctx context.Context, d export.Downloader) (int, error)
}

type Handler struct {
	logger  *slog.Logger
	service Service
}

func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, service: svc}
}

func (h *Handler) RegisterPublic(r chi.Router) {
	r.Post("/register", h.HandleRegister)
}

// RegisterAdmin registers the registration list endpoints behind admin auth.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/registrations", h.HandleList)
	r.Get("/registrations/export", h.HandleExport)
	r.Get("/registrations/{id}", h.HandleGet)
	r.Delete("/registrations/{id}", h.HandleDelete)
}

type registerResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[registration.RegisterRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	rec, err := h.service.Register(ctx, req)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to register",
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, registerResponse{ID: rec.ID, Message: "Registration successful"})
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	list, err := h.service.List(ctx, listing.ParseQuery(r.URL.Query(), registration.Kind, "type"))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list registrations",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	rec, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, registration.RenderRow(rec))
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	if err := h.service.Remove(ctx, id); err != nil {
		h.logger.WarnContext(ctx, "failed to delete registration",
			"error", err,
			"registration_id", id,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleExport always exports the whole collection; list query parameters
// are ignored.
func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, err := h.service.Export(ctx, export.HTTPDownloader{W: w}); err != nil {
		h.logger.ErrorContext(ctx, "failed to export registrations",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		if w.Header().Get("Content-Disposition") == "" {
			httputil.WriteError(w, err)
		}
	}
}
