package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"aieni/pkg/requestcontext"
)

// Logger writes notifications to slog and counts them by kind.
type Logger struct {
	logger *slog.Logger
	sent   *prometheus.CounterVec
}

func NewLogger(logger *slog.Logger, reg prometheus.Registerer) *Logger {
	return &Logger{
		logger: logger,
		sent: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "aieni_notifications_total",
			Help: "User-facing notifications emitted, labeled by kind",
		}, []string{"kind"}),
	}
}

func (l *Logger) Notify(ctx context.Context, n Notification) {
	n = stamp(n, time.Now())
	l.sent.WithLabelValues(string(n.Kind)).Inc()

	level := slog.LevelInfo
	switch n.Kind {
	case KindError:
		level = slog.LevelError
	case KindWarning:
		level = slog.LevelWarn
	}
	l.logger.Log(ctx, level, "notification",
		"kind", n.Kind,
		"title", n.Title,
		"message", n.Message,
		"request_id", requestcontext.RequestID(ctx),
	)
}
