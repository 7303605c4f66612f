// Package requestcontext carries per-request values (request ID, client
// metadata, admin identity) through context.Context.
package requestcontext

import "context"

type ctxKey int

const (
	keyRequestID ctxKey = iota
	keyClientIP
	keyUserAgent
	keyAdminEmail
)

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, keyRequestID, requestID)
}

// RequestID returns the request ID or "" when none was set.
func RequestID(ctx context.Context) string {
	v, _ := ctx.Value(keyRequestID).(string)
	return v
}

func WithClientMetadata(ctx context.Context, ip, userAgent string) context.Context {
	ctx = context.WithValue(ctx, keyClientIP, ip)
	return context.WithValue(ctx, keyUserAgent, userAgent)
}

func ClientIP(ctx context.Context) string {
	v, _ := ctx.Value(keyClientIP).(string)
	return v
}

func UserAgent(ctx context.Context) string {
	v, _ := ctx.Value(keyUserAgent).(string)
	return v
}

// WithAdminEmail records the authenticated administrator for audit logging.
func WithAdminEmail(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, keyAdminEmail, email)
}

func AdminEmail(ctx context.Context) string {
	v, _ := ctx.Value(keyAdminEmail).(string)
	return v
}
