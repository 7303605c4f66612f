package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures process-level configuration.
type Server struct {
	Addr           string
	Environment    string
	LogLevel       string
	DemoMode       bool
	MaxUploadBytes int64
	BackendURL     string

	Admin   AdminConfig
	Storage StorageConfig
	Blob    BlobConfig
	Redis   RedisConfig
}

// AdminConfig holds the single static credential pair and token settings.
type AdminConfig struct {
	Email         string
	Password      string
	JWTSigningKey string
	TokenTTL      time.Duration
}

// StorageConfig selects the key-value driver backing both record collections.
type StorageConfig struct {
	Driver      string // memory | sqlite | redis | postgres
	SQLitePath  string
	DatabaseURL string
}

// BlobConfig selects where uploaded abstract documents are kept.
type BlobConfig struct {
	Driver    string // memory | s3
	Bucket    string
	Region    string
	Endpoint  string
	PathStyle bool
}

type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

const (
	DefaultAdminEmail    = "admin@eaic.ae"
	DefaultAdminPassword = "admin123"
	DefaultSigningKey    = "dev-secret-key-change-in-production"

	// DefaultMaxUploadBytes leaves headroom above the 5MB document cap for the
	// multipart envelope and the JSON form fields.
	DefaultMaxUploadBytes = 6 << 20
)

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	return Server{
		Addr:           getenv("AIENI_ADDR", ":8080"),
		Environment:    getenv("AIENI_ENV", "development"),
		LogLevel:       getenv("AIENI_LOG_LEVEL", "info"),
		DemoMode:       getenv("AIENI_DEMO_MODE", "true") == "true",
		MaxUploadBytes: getInt64("AIENI_MAX_UPLOAD_BYTES", DefaultMaxUploadBytes),
		BackendURL:     strings.TrimRight(os.Getenv("AIENI_BACKEND_URL"), "/"),
		Admin: AdminConfig{
			Email:         getenv("AIENI_ADMIN_EMAIL", DefaultAdminEmail),
			Password:      getenv("AIENI_ADMIN_PASSWORD", DefaultAdminPassword),
			JWTSigningKey: getenv("JWT_SIGNING_KEY", DefaultSigningKey),
			TokenTTL:      getDuration("TOKEN_TTL", 8*time.Hour),
		},
		Storage: StorageConfig{
			Driver:      getenv("AIENI_STORAGE_DRIVER", "memory"),
			SQLitePath:  getenv("AIENI_SQLITE_PATH", "data/aieni.db"),
			DatabaseURL: os.Getenv("DATABASE_URL"),
		},
		Blob: BlobConfig{
			Driver:    getenv("AIENI_BLOB_DRIVER", "memory"),
			Bucket:    os.Getenv("AIENI_S3_BUCKET"),
			Region:    getenv("AIENI_S3_REGION", "us-east-1"),
			Endpoint:  os.Getenv("AIENI_S3_ENDPOINT"),
			PathStyle: strings.EqualFold(os.Getenv("AIENI_S3_PATH_STYLE"), "true"),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     int(getInt64("REDIS_POOL_SIZE", 10)),
			MinIdleConns: int(getInt64("REDIS_MIN_IDLE_CONNS", 2)),
			DialTimeout:  getDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func getInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
