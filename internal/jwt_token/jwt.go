package jwttoken

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	dErrors "aieni/pkg/domain-errors"
)

// Default issuer and audience of admin tokens.
const (
	DefaultIssuer   = "aieni"
	DefaultAudience = "aieni-admin"
)

// AdminClaims represents the JWT claims of an administrator session.
type AdminClaims struct {
	Email  string `json:"email"`
	Device string `json:"device,omitempty"`
	Env    string `json:"env,omitempty"`
	jwt.RegisteredClaims
}

// JWTService issues and validates admin tokens.
type JWTService struct {
	signingKey []byte
	issuer     string
	audience   string
	tokenTTL   time.Duration
	env        string
	now        func() time.Time
}

func NewJWTService(signingKey, issuer, audience string, tokenTTL time.Duration) *JWTService {
	return &JWTService{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		audience:   audience,
		tokenTTL:   tokenTTL,
		now:        time.Now,
	}
}

// SetEnv annotates issued tokens with an environment string (e.g. "demo").
func (s *JWTService) SetEnv(env string) {
	s.env = env
}

// SetClock replaces the time source used for issuing and validating.
func (s *JWTService) SetClock(now func() time.Time) {
	s.now = now
}

func (s *JWTService) TTL() time.Duration {
	return s.tokenTTL
}

// GenerateAdminToken returns a signed token and its JTI.
func (s *JWTService) GenerateAdminToken(email, device string) (string, string, error) {
	if email == "" {
		return "", "", dErrors.New(dErrors.CodeBadRequest, "email cannot be empty")
	}
	now := s.now()
	jti := uuid.NewString()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, AdminClaims{
		Email:  email,
		Device: device,
		Env:    s.env,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			Audience:  []string{s.audience},
			ID:        jti,
		},
	})

	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign token")
	}
	return signed, jti, nil
}

func (s *JWTService) ValidateToken(tokenString string) (*AdminClaims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &AdminClaims{}, func(token *jwt.Token) (any, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	},
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*AdminClaims)
	if !ok || !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	return claims, nil
}
