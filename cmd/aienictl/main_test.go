package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aieni/internal/export"
	jwttoken "aieni/internal/jwt_token"
	"aieni/internal/platform/config"
	"aieni/internal/storage"
	"aieni/internal/storage/driver"
)

func openMemory(t *testing.T) *driver.Opened {
	t.Helper()
	o, err := driver.Open(context.Background(), config.StorageConfig{Driver: driver.Memory}, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return o
}

func TestExportKind(t *testing.T) {
	ctx := context.Background()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("registrations", func(t *testing.T) {
		o := openMemory(t)
		require.NoError(t, o.KV.Set(ctx, storage.KeyRegistrations, []byte(`[
			{"id":"REG-1","registrationType":"Speaker","fullName":"John Smith","email":"john.smith@email.com","country":"United States","organization":"Tech Innovations Inc","registeredAt":"2026-03-06T12:00:00Z"}
		]`)))
		d := &export.FileDownloader{Dir: t.TempDir()}

		rows, err := exportKind(ctx, o, kindRegistrations, d, log)

		require.NoError(t, err)
		assert.Equal(t, 1, rows)
		assert.Contains(t, d.Written, "AIENI_2026_Registrations_")
		data, err := os.ReadFile(d.Written)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"John Smith"`)
	})

	t.Run("empty submissions still write a header", func(t *testing.T) {
		d := &export.FileDownloader{Dir: t.TempDir()}

		rows, err := exportKind(ctx, openMemory(t), kindSubmissions, d, log)

		require.NoError(t, err)
		assert.Zero(t, rows)
		data, err := os.ReadFile(d.Written)
		require.NoError(t, err)
		assert.Equal(t, 1, strings.Count(strings.TrimSpace(string(data)), "\n")+1)
	})

	t.Run("unknown kind", func(t *testing.T) {
		_, err := exportKind(ctx, openMemory(t), "speakers", &export.FileDownloader{Dir: t.TempDir()}, log)
		assert.ErrorContains(t, err, `unknown kind "speakers"`)
	})
}

func TestRunToken(t *testing.T) {
	cfg := config.Server{
		Environment: "test",
		Admin: config.AdminConfig{
			Email:         "ops@eaic.ae",
			JWTSigningKey: "cli-key",
			TokenTTL:      time.Hour,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, runToken(cfg, []string{"-json", "-ttl", "30m"}, &buf))

	var out tokenOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, "admin_token", out.Type)
	assert.Equal(t, "30m0s", out.ExpiresIn)

	claims, err := jwttoken.NewJWTService("cli-key", jwttoken.DefaultIssuer, jwttoken.DefaultAudience, time.Hour).ValidateToken(out.Token)
	require.NoError(t, err)
	assert.Equal(t, "ops@eaic.ae", claims.Email)
	assert.Equal(t, out.JTI, claims.ID)
}
