package jwttoken

import (
	"aieni/pkg/platform/middleware/auth"
)

func ToMiddlewareClaims(claims *AdminClaims) *auth.Claims {
	return &auth.Claims{
		Email: claims.Email,
		JTI:   claims.ID,
	}
}

// JWTServiceAdapter lets the bearer middleware validate admin tokens. In
// demo mode it also admits demo tokens, attributed to demoEmail.
type JWTServiceAdapter struct {
	service   *JWTService
	demoEmail string
}

func NewJWTServiceAdapter(service *JWTService) *JWTServiceAdapter {
	return &JWTServiceAdapter{service: service}
}

// AllowDemoTokens accepts demo tokens on behalf of email.
func (a *JWTServiceAdapter) AllowDemoTokens(email string) *JWTServiceAdapter {
	a.demoEmail = email
	return a
}

func (a *JWTServiceAdapter) ValidateToken(tokenString string) (*auth.Claims, error) {
	if a.demoEmail != "" && IsDemoToken(tokenString) {
		return &auth.Claims{Email: a.demoEmail, JTI: tokenString}, nil
	}
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return ToMiddlewareClaims(claims), nil
}
