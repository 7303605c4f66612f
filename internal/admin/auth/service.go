// Package auth verifies administrator credentials and issues the bearer
// tokens that guard the admin API.
package auth

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"strings"
	"time"

	"aieni/internal/admin/device"
	"aieni/internal/apiclient"
	jwttoken "aieni/internal/jwt_token"
	"aieni/internal/notify"
	dErrors "aieni/pkg/domain-errors"
	"aieni/pkg/secrets"
	"aieni/pkg/validation"
)

const msgInvalidCredentials = "Invalid email or password"

// Authenticator checks credentials against a remote backend.
type Authenticator interface {
	Login(ctx context.Context, endpoint string, creds apiclient.Credentials) (apiclient.LoginResult, error)
}

// LoginObserver counts login attempts.
type LoginObserver interface {
	IncAdminLogin(success bool)
}

// Revoker invalidates a token ID until ttl has passed.
type Revoker interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
}

type LoginRequest struct {
	Email    string `json:"email" validate:"notblank,max=254"`
	Password string `json:"password" validate:"notblank,max=72"`
}

func (r *LoginRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
}

func (r *LoginRequest) Validate() error {
	return validation.Validate(r)
}

type LoginResult struct {
	Token     string    `json:"token"`
	Email     string    `json:"email"`
	Device    string    `json:"device"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Config holds the single administrator credential pair.
type Config struct {
	Email    string
	Password string
	DemoMode bool
}

type Service struct {
	email        string
	passwordHash string
	demo         bool
	tokens       *jwttoken.JWTService
	remote       Authenticator
	revoker      Revoker
	observer     LoginObserver
	notifier     notify.Notifier
	logger       *slog.Logger
	now          func() time.Time
}

type Option func(*Service)

// WithRemote delegates the credential check to a remote backend.
func WithRemote(a Authenticator) Option {
	return func(s *Service) { s.remote = a }
}

func WithRevoker(r Revoker) Option {
	return func(s *Service) { s.revoker = r }
}

func WithObserver(o LoginObserver) Option {
	return func(s *Service) { s.observer = o }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New hashes the configured password once; only the hash is kept.
func New(cfg Config, tokens *jwttoken.JWTService, notifier notify.Notifier, opts ...Option) (*Service, error) {
	hash, err := secrets.Hash(cfg.Password, 0)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash admin password")
	}
	s := &Service{
		email:        strings.ToLower(strings.TrimSpace(cfg.Email)),
		passwordHash: hash,
		demo:         cfg.DemoMode,
		tokens:       tokens,
		notifier:     notifier,
		logger:       slog.Default(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Login checks the credentials and returns a bearer token. Demo mode hands
// out demo tokens; otherwise the token is a signed JWT.
func (s *Service) Login(ctx context.Context, req *LoginRequest, userAgent string) (LoginResult, error) {
	if err := s.verify(ctx, req); err != nil {
		s.observe(false)
		s.logger.WarnContext(ctx, "admin login rejected", "error", err)
		if dErrors.HasCode(err, dErrors.CodeUnauthorized) {
			s.notifier.Notify(ctx, notify.Error("Login Failed", msgInvalidCredentials+"."))
		} else {
			s.notifier.Notify(ctx, notify.Error("Login Failed", "Login is unavailable. Please try again."))
		}
		return LoginResult{}, err
	}

	label := device.ParseUserAgent(userAgent)
	now := s.now()
	res := LoginResult{Email: req.Email, Device: label, ExpiresAt: now.Add(s.tokens.TTL()).UTC()}
	if s.demo {
		res.Token = jwttoken.NewDemoToken(now)
	} else {
		token, _, err := s.tokens.GenerateAdminToken(req.Email, label)
		if err != nil {
			s.observe(false)
			return LoginResult{}, err
		}
		res.Token = token
	}

	s.observe(true)
	s.notifier.Notify(ctx, notify.Success("Login Successful", "Welcome back! Redirecting to the dashboard..."))
	return res, nil
}

func (s *Service) verify(ctx context.Context, req *LoginRequest) error {
	if s.remote != nil {
		// The backend's status is not inspected: any failed call is a failed login.
		_, err := s.remote.Login(ctx, apiclient.EndpointLogin, apiclient.Credentials{Email: req.Email, Password: req.Password})
		if err != nil {
			return &dErrors.Error{Code: dErrors.CodeUnauthorized, Message: msgInvalidCredentials, Err: err}
		}
		return nil
	}

	emailOK := subtle.ConstantTimeCompare([]byte(req.Email), []byte(s.email)) == 1
	if err := secrets.Verify(req.Password, s.passwordHash); err != nil || !emailOK {
		if err != nil && !dErrors.HasCode(err, dErrors.CodeUnauthorized) {
			return err
		}
		return dErrors.New(dErrors.CodeUnauthorized, msgInvalidCredentials)
	}
	return nil
}

// Logout revokes the presented token. Demo tokens are revoked by value.
func (s *Service) Logout(ctx context.Context, token string) error {
	if s.revoker == nil {
		return nil
	}
	jti := token
	if !jwttoken.IsDemoToken(token) {
		claims, err := s.tokens.ValidateToken(token)
		if err != nil {
			return err
		}
		jti = claims.ID
	}
	if err := s.revoker.Revoke(ctx, jti, s.tokens.TTL()); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke token")
	}
	s.notifier.Notify(ctx, notify.Info("Logged Out", "You have been signed out."))
	return nil
}

func (s *Service) observe(success bool) {
	if s.observer != nil {
		s.observer.IncAdminLogin(success)
	}
}
