package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(h *Handler, path string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	h.Register(r)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestReadiness(t *testing.T) {
	t.Run("ready when all checks pass", func(t *testing.T) {
		h := New("test")
		h.RegisterCheck("storage", func(context.Context) error { return nil })

		w := serve(h, "/health/ready")

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("503 when a check fails", func(t *testing.T) {
		h := New("test")
		h.RegisterCheck("storage", func(context.Context) error { return nil })
		h.RegisterCheck("blob", func(context.Context) error { return errors.New("bucket missing") })

		w := serve(h, "/health/ready")

		require.Equal(t, http.StatusServiceUnavailable, w.Code)
		var body ReadinessResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "not_ready", body.Status)
		assert.Equal(t, "up", body.Checks["storage"])
		assert.Equal(t, "down: bucket missing", body.Checks["blob"])
	})
}

func TestLivenessAndStatus(t *testing.T) {
	h := New("staging")

	assert.Equal(t, http.StatusOK, serve(h, "/health/live").Code)

	w := serve(h, "/health")
	var body StatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "staging", body.Environment)
	assert.Equal(t, "healthy", body.Status)
}

func TestRegisterCheckReplacesByName(t *testing.T) {
	h := New("test")
	h.RegisterCheck("backend", func(context.Context) error { return errors.New("circuit open") })
	h.RegisterCheck("backend", func(context.Context) error { return nil })
	h.RegisterCheck("storage", func(context.Context) error { return nil })

	resp := h.Ready(context.Background())
	assert.Equal(t, "ready", resp.Status)
	assert.Len(t, resp.Checks, 2)

	var body StatusResponse
	require.NoError(t, json.Unmarshal(serve(h, "/health").Body.Bytes(), &body))
	assert.Equal(t, []string{"backend", "storage"}, body.Dependencies)
}
