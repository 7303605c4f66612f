// Package notify delivers short user-facing messages about the outcome of an
// operation. Delivery is fire-and-forget: Notify never fails the caller.
package notify

import (
	"context"
	"encoding/json"
	"time"
)

type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindWarning Kind = "warning"
	KindInfo    Kind = "info"
)

// DefaultDuration is how long a notification stays on screen when the
// sender does not say otherwise.
const DefaultDuration = 4000 * time.Millisecond

type Notification struct {
	Kind     Kind
	Title    string
	Message  string
	Duration time.Duration
	At       time.Time
}

func (n Notification) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind       Kind      `json:"kind"`
		Title      string    `json:"title"`
		Message    string    `json:"message"`
		DurationMS int64     `json:"duration_ms"`
		At         time.Time `json:"at"`
	}{n.Kind, n.Title, n.Message, n.Duration.Milliseconds(), n.At})
}

func newNotification(kind Kind, title, message string) Notification {
	return Notification{Kind: kind, Title: title, Message: message, Duration: DefaultDuration}
}

func Success(title, message string) Notification { return newNotification(KindSuccess, title, message) }
func Error(title, message string) Notification   { return newNotification(KindError, title, message) }
func Warning(title, message string) Notification { return newNotification(KindWarning, title, message) }
func Info(title, message string) Notification    { return newNotification(KindInfo, title, message) }

type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// Multi fans a notification out to every notifier in order.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, n Notification) {
	for _, nt := range m {
		nt.Notify(ctx, n)
	}
}

// Nop discards notifications.
type Nop struct{}

func (Nop) Notify(context.Context, Notification) {}

func stamp(n Notification, now time.Time) Notification {
	if n.Duration <= 0 {
		n.Duration = DefaultDuration
	}
	if n.At.IsZero() {
		n.At = now
	}
	return n
}
