// Package auth implements the stateless credential layer: a token service
// that signs and verifies self-contained bearer tokens, and a gate that
// turns inbound request credentials into an authorization decision.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// DefaultSubject is the single privileged identity. There is no user
	// directory; every valid token asserts this subject.
	DefaultSubject = "admin"

	// DefaultTTL is the fixed token lifetime.
	DefaultTTL = 24 * time.Hour
)

// ErrUnauthorized is the single error returned for every verification
// failure. Malformed, expired, and badly signed tokens are deliberately
// indistinguishable to callers so the credential format cannot be probed.
var ErrUnauthorized = errors.New("unauthorized")

// TokenService issues and verifies HMAC-SHA256 signed bearer tokens.
// Tokens are fully self-contained: no server-side session state exists,
// and validity is determined by signature and expiry alone. The signing
// secret is process-wide configuration with no rotation mechanism.
type TokenService struct {
	secret  []byte
	subject string
	ttl     time.Duration
	now     func() time.Time
}

// TokenOption configures a TokenService created with NewTokenService.
type TokenOption func(*TokenService)

// WithSubject overrides the subject asserted by issued tokens.
func WithSubject(subject string) TokenOption {
	return func(s *TokenService) {
		if subject != "" {
			s.subject = subject
		}
	}
}

// WithTTL overrides the token lifetime.
func WithTTL(ttl time.Duration) TokenOption {
	return func(s *TokenService) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithClock overrides the time source used for issuance and expiry checks.
func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewTokenService creates a token service signing with the given secret.
func NewTokenService(secret string, opts ...TokenOption) (*TokenService, error) {
	if secret == "" {
		return nil, errors.New("token secret is required")
	}

	s := &TokenService{
		secret:  []byte(secret),
		subject: DefaultSubject,
		ttl:     DefaultTTL,
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Issue creates a signed token for the configured subject. The result is a
// compact three-segment credential: base64url-encoded header and claims
// joined with the HMAC-SHA256 signature over both.
func (s *TokenService) Issue() (string, error) {
	now := s.now()

	claims := jwt.RegisteredClaims{
		Subject:   s.subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", err
	}

	return signed, nil
}

// Verify checks a token's signature and expiry and returns its claims.
// Every failure mode collapses to ErrUnauthorized.
func (s *TokenService) Verify(tokenString string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}

	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, ErrUnauthorized
	}

	return claims, nil
}
