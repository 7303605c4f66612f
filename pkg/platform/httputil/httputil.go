// Package httputil writes JSON responses and turns domain errors into the
// {"error","error_description"} body every endpoint shares.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "aieni/pkg/domain-errors"
)

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

type errorMapping struct {
	status int
	code   string
}

var errorMappings = map[dErrors.Code]errorMapping{
	dErrors.CodeNotFound:     {http.StatusNotFound, "not_found"},
	dErrors.CodeBadRequest:   {http.StatusBadRequest, "bad_request"},
	dErrors.CodeValidation:   {http.StatusBadRequest, "validation_error"},
	dErrors.CodeConflict:     {http.StatusConflict, "conflict"},
	dErrors.CodeUnauthorized: {http.StatusUnauthorized, "unauthorized"},
	dErrors.CodeTimeout:      {http.StatusGatewayTimeout, "timeout"},
	dErrors.CodeTransport:    {http.StatusBadGateway, "upstream_error"},
}

var internalMapping = errorMapping{http.StatusInternalServerError, "internal_error"}

func mappingFor(code dErrors.Code) errorMapping {
	if m, ok := errorMappings[code]; ok {
		return m
	}
	return internalMapping
}

func WriteJSON(w http.ResponseWriter, status int, response any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent; an encoding error cannot change the status.
	_ = json.NewEncoder(w).Encode(response)
}

// WriteError writes the domain error's status and code. Errors without a
// domain code become a bare 500 so internal messages never leak.
func WriteError(w http.ResponseWriter, err error) {
	var domainErr *dErrors.Error
	if !errors.As(err, &domainErr) {
		WriteJSON(w, internalMapping.status, ErrorResponse{Error: internalMapping.code})
		return
	}
	m := mappingFor(domainErr.Code)
	WriteJSON(w, m.status, ErrorResponse{Error: m.code, Description: domainErr.Message})
}

// DomainCodeToHTTPStatus translates domain error codes to HTTP status codes.
func DomainCodeToHTTPStatus(code dErrors.Code) int {
	return mappingFor(code).status
}

// DomainCodeToHTTPCode translates domain error codes to the JSON error string.
func DomainCodeToHTTPCode(code dErrors.Code) string {
	return mappingFor(code).code
}
