// Package auth guards the admin API with bearer tokens.
package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	dErrors "aieni/pkg/domain-errors"
	"aieni/pkg/platform/httputil"
	"aieni/pkg/requestcontext"
)

// TokenValidator validates bearer tokens presented to the admin API.
type TokenValidator interface {
	ValidateToken(tokenString string) (*Claims, error)
}

// TokenRevocationChecker reports tokens invalidated by logout.
type TokenRevocationChecker interface {
	IsTokenRevoked(ctx context.Context, jti string) (bool, error)
}

// Claims is what the middleware needs from a validated token.
type Claims struct {
	Email string
	JTI   string // token ID for revocation tracking
}

var (
	errMissingToken = dErrors.New(dErrors.CodeUnauthorized, "Missing or invalid Authorization header")
	errInvalidToken = dErrors.New(dErrors.CodeUnauthorized, "Invalid or expired token")
	errRevoked      = dErrors.New(dErrors.CodeUnauthorized, "Token has been revoked")
	errRevocation   = dErrors.New(dErrors.CodeInternal, "Failed to validate token")
)

// BearerToken extracts the token from an Authorization header. The scheme
// is matched case-insensitively.
func BearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// RequireAuth returns middleware that admits requests carrying a valid,
// unrevoked bearer token and stores the administrator's email in the context.
// A nil checker skips the revocation lookup.
func RequireAuth(validator TokenValidator, checker TokenRevocationChecker, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			claims, err := authenticate(ctx, r, validator, checker)
			if err != nil {
				level := slog.LevelWarn
				if dErrors.HasCode(err, dErrors.CodeInternal) {
					level = slog.LevelError
				}
				logger.Log(ctx, level, "admin request rejected",
					"error", errors.Unwrap(err),
					"reason", err.Error(),
					"path", r.URL.Path,
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(requestcontext.WithAdminEmail(ctx, claims.Email)))
		})
	}
}

func authenticate(ctx context.Context, r *http.Request, validator TokenValidator, checker TokenRevocationChecker) (*Claims, error) {
	token, ok := BearerToken(r)
	if !ok {
		return nil, errMissingToken
	}
	claims, err := validator.ValidateToken(token)
	if err != nil {
		return nil, &dErrors.Error{Code: dErrors.CodeUnauthorized, Message: errInvalidToken.Error(), Err: err}
	}
	if checker == nil {
		return claims, nil
	}
	if claims.JTI == "" {
		return nil, errRevoked
	}
	revoked, err := checker.IsTokenRevoked(ctx, claims.JTI)
	switch {
	case err != nil:
		return nil, &dErrors.Error{Code: dErrors.CodeInternal, Message: errRevocation.Error(), Err: err}
	case revoked:
		return nil, errRevoked
	}
	return claims, nil
}
