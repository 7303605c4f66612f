package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	dErrors "aieni/pkg/domain-errors"
)

// DecodeJSON decodes a JSON request body into the target type.
// On failure it writes a 400 response and returns nil, false.
//
// Usage:
//
//	req, ok := httputil.DecodeJSON[models.StatusRequest](w, r, h.logger, ctx, requestID)
//	if !ok {
//	    return
//	}
func DecodeJSON[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger, ctx context.Context, requestID string) (*T, bool) {
	var req T
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "failed to decode request body",
			"error", err,
			"request_id", requestID,
		)
		WriteError(w, decodeError(err))
		return nil, false
	}
	return &req, true
}

func decodeError(err error) error {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.Is(err, io.EOF):
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	case errors.As(err, &tooLarge):
		return dErrors.New(dErrors.CodeBadRequest, "request body is too large")
	}
	return dErrors.New(dErrors.CodeBadRequest, "invalid request body")
}

// Validatable is implemented by request types that support validation.
type Validatable interface {
	Validate() error
}

// Normalizable is implemented by request types that support normalization.
type Normalizable interface {
	Normalize()
}

// Sanitizable is implemented by request types that support sanitization.
type Sanitizable interface {
	Sanitize()
}

// PrepareRequest sanitizes, normalizes, and validates a request, in that order.
func PrepareRequest(req any) error {
	if s, ok := req.(Sanitizable); ok {
		s.Sanitize()
	}
	if n, ok := req.(Normalizable); ok {
		n.Normalize()
	}
	if v, ok := req.(Validatable); ok {
		return v.Validate()
	}
	return nil
}

// DecodeAndPrepare combines JSON body decoding with PrepareRequest.
func DecodeAndPrepare[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger, ctx context.Context, requestID string) (*T, bool) {
	req, ok := DecodeJSON[T](w, r, logger, ctx, requestID)
	if !ok {
		return nil, false
	}
	if !prepare(w, req, logger, ctx, requestID) {
		return nil, false
	}
	return req, true
}

// DecodeFieldAndPrepare is DecodeAndPrepare for a JSON document carried in a
// form field, such as the "data" part of a multipart upload.
func DecodeFieldAndPrepare[T any](w http.ResponseWriter, raw string, logger *slog.Logger, ctx context.Context, requestID string) (*T, bool) {
	var req T
	if err := json.Unmarshal([]byte(raw), &req); err != nil {
		logger.WarnContext(ctx, "failed to decode form data",
			"error", err,
			"request_id", requestID,
		)
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid form data"))
		return nil, false
	}
	if !prepare(w, &req, logger, ctx, requestID) {
		return nil, false
	}
	return &req, true
}

func prepare(w http.ResponseWriter, req any, logger *slog.Logger, ctx context.Context, requestID string) bool {
	err := PrepareRequest(req)
	if err == nil {
		return true
	}
	logger.WarnContext(ctx, "invalid request",
		"error", err,
		"request_id", requestID,
	)
	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) {
		WriteError(w, err)
	} else {
		WriteError(w, dErrors.New(dErrors.CodeValidation, err.Error()))
	}
	return false
}
