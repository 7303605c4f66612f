package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"aieni/internal/export"
	"aieni/internal/listing"
	"aieni/internal/records"
	"aieni/internal/submission"
	"aieni/internal/submission/service"
	dErrors "aieni/pkg/domain-errors"
	"aieni/pkg/platform/httputil"
	"aieni/pkg/requestcontext"
)

// Service defines the abstract operations the handler needs.
type Service interface {
	Submit(ctx context.Context, req *submission.SubmitRequest, upload *submission.Upload) (submission.Abstract, error)
	Get(ctx context.Context, id string) (submission.Abstract, error)
	List(ctx context.Context, view listing.ViewState) (service.List, error)
	UpdateStatus(ctx context.Context, id, status string) (records.Outcome, error)
	Remove(ctx context.Context, id string) error
	Export(ctx context.Context, d export.Downloader) (int, error)
	Document(ctx context.Context, id string) (service.Document, error)
}

const (
	formDataField = "data"
	formFileField = "word_file"

	// multipartMemory is how much of a multipart body is held in memory
	// before spilling to temporary files.
	multipartMemory = 8 << 20
)

type Handler struct {
	logger  *slog.Logger
	service Service
}

func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, service: svc}
}

// RegisterPublic registers the submission form endpoint.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Post("/submit-abstract", h.HandleSubmit)
}

// RegisterAdmin registers the review endpoints. r is expected to be behind
// admin authentication.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/submissions", h.HandleList)
	r.Get("/submissions/export", h.HandleExport)
	r.Get("/submissions/{id}", h.HandleGet)
	r.Patch("/submissions/{id}/status", h.HandleUpdateStatus)
	r.Delete("/submissions/{id}", h.HandleDelete)
	r.Get("/submissions/{id}/file", h.HandleFile)
}

type submitResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		h.logger.WarnContext(ctx, "failed to parse multipart form",
			"error", err,
			"request_id", requestID,
		)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "File size must be less than 5MB"))
			return
		}
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid multipart form"))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	req, ok := httputil.DecodeFieldAndPrepare[submission.SubmitRequest](w, r.FormValue(formDataField), h.logger, ctx, requestID)
	if !ok {
		return
	}

	upload, err := readUpload(r)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to read uploaded file",
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid file upload"))
		return
	}

	rec, err := h.service.Submit(ctx, req, upload)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to submit abstract",
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, submitResponse{
		ID:      rec.ID,
		Message: "Abstract submitted successfully",
	})
}

// readUpload returns nil when no file part was sent. At most one byte more
// than the limit is read so oversized files are still detected.
func readUpload(r *http.Request) (*submission.Upload, error) {
	f, hdr, err := r.FormFile(formFileField)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, submission.MaxFileBytes+1))
	if err != nil {
		return nil, err
	}
	return &submission.Upload{
		Name:        hdr.Filename,
		ContentType: hdr.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	view := listing.ParseQuery(r.URL.Query(), submission.Kind, "status")

	list, err := h.service.List(ctx, view)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list submissions",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	a, err := h.service.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, submission.RenderRow(a))
}

type statusResponse struct {
	ID      string          `json:"id"`
	Status  string          `json:"status"`
	Outcome records.Outcome `json:"outcome"`
}

func (h *Handler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	id := chi.URLParam(r, "id")

	req, ok := httputil.DecodeAndPrepare[submission.StatusRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	outcome, err := h.service.UpdateStatus(ctx, id, req.Status)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to update submission status",
			"error", err,
			"submission_id", id,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, statusResponse{ID: id, Status: req.Status, Outcome: outcome})
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	if err := h.service.Remove(ctx, id); err != nil {
		h.logger.WarnContext(ctx, "failed to delete submission",
			"error", err,
			"submission_id", id,
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
		h.logger.ErrorContext(ctx, "failed to export submissions",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		if w.Header().Get("Content-Disposition") == "" {
			httputil.WriteError(w, err)
		}
	}
}

func (h *Handler) HandleFile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	doc, err := h.service.Document(ctx, chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if doc.URL != "" {
		http.Redirect(w, r, doc.URL, http.StatusFound)
		return
	}
	defer doc.Object.Body.Close()

	w.Header().Set("Content-Type", doc.Object.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": doc.Name}))
	if doc.Object.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(doc.Object.Size, 10))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, doc.Object.Body); err != nil {
		h.logger.WarnContext(ctx, "failed to stream document",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
}
