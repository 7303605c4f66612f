package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("AIENI_ADDR", "")
	t.Setenv("AIENI_STORAGE_DRIVER", "")
	t.Setenv("AIENI_DEMO_MODE", "")

	cfg := FromEnv()

	assert.Equal(t, ":8080", cfg.Addr)
	assert.True(t, cfg.DemoMode)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, DefaultAdminEmail, cfg.Admin.Email)
	assert.Equal(t, int64(DefaultMaxUploadBytes), cfg.MaxUploadBytes)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("AIENI_DEMO_MODE", "false")
	t.Setenv("AIENI_STORAGE_DRIVER", "sqlite")
	t.Setenv("TOKEN_TTL", "30m")
	t.Setenv("AIENI_BACKEND_URL", "https://api.example.org/")
	t.Setenv("AIENI_S3_PATH_STYLE", "TRUE")
	t.Setenv("AIENI_MAX_UPLOAD_BYTES", "-3")

	cfg := FromEnv()

	assert.False(t, cfg.DemoMode)
	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.Equal(t, 30*time.Minute, cfg.Admin.TokenTTL)
	assert.Equal(t, "https://api.example.org", cfg.BackendURL)
	assert.True(t, cfg.Blob.PathStyle)
	assert.Equal(t, int64(DefaultMaxUploadBytes), cfg.MaxUploadBytes, "non-positive values fall back")
}
