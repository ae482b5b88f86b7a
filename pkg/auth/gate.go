package auth

import (
	"strings"

	"go.uber.org/zap"
)

// Credentials are the authentication-relevant parts of an inbound request,
// extracted by the transport layer.
type Credentials struct {
	// Bearer is the token from the Authorization header, minus the
	// "Bearer " scheme. Empty when no bearer credential was sent.
	Bearer string

	// TrustedAssertion reports whether the platform's trusted-identity
	// header was present. The value is opaque to this system; presence
	// alone is treated as proof on the assumption the perimeter already
	// validated it.
	TrustedAssertion bool

	// Origin is the declared request origin.
	Origin string
}

// GateConfig configures the authorization gate.
type GateConfig struct {
	// TrustLocalOrigins enables the local-development escape hatch:
	// requests carrying no credential at all are authorized when their
	// origin matches LocalOrigins. Must be disabled in any deployment
	// exposed beyond local use.
	TrustLocalOrigins bool

	// LocalOrigins are the substrings that mark an origin as local
	// development. Defaults to DefaultLocalOrigins when empty.
	LocalOrigins []string
}

// DefaultLocalOrigins are the origin markers treated as local development.
var DefaultLocalOrigins = []string{"localhost", "127.0.0.1"}

// Gate decides whether a request may perform protected operations. It is a
// pure predicate: no side effects, no per-request state.
type Gate struct {
	tokens            *TokenService
	trustLocalOrigins bool
	localOrigins      []string
	logger            *zap.Logger
}

// NewGate creates an authorization gate backed by the given token service.
func NewGate(tokens *TokenService, cfg GateConfig, logger *zap.Logger) *Gate {
	localOrigins := cfg.LocalOrigins
	if len(localOrigins) == 0 {
		localOrigins = DefaultLocalOrigins
	}

	return &Gate{
		tokens:            tokens,
		trustLocalOrigins: cfg.TrustLocalOrigins,
		localOrigins:      localOrigins,
		logger:            logger,
	}
}

// Authorized reports whether the given credentials may perform protected
// operations. Checks short-circuit in order: a valid bearer token, then
// the perimeter's trusted-identity assertion, then the local-development
// origin fallback. The fallback applies only when no credential of either
// kind was presented at all.
func (g *Gate) Authorized(creds Credentials) bool {
	if creds.Bearer != "" {
		if _, err := g.tokens.Verify(creds.Bearer); err == nil {
			return true
		}
	}

	if creds.TrustedAssertion {
		return true
	}

	if creds.Bearer == "" && g.trustLocalOrigins && g.isLocalOrigin(creds.Origin) {
		return true
	}

	return false
}

// Login bridges a perimeter-asserted identity into a token of our own.
// It issues a token when the trusted-identity assertion is present, or
// when the local-development condition holds; otherwise it returns
// ErrUnauthorized.
func (g *Gate) Login(creds Credentials) (string, error) {
	if !creds.TrustedAssertion && !(g.trustLocalOrigins && g.isLocalOrigin(creds.Origin)) {
		return "", ErrUnauthorized
	}

	token, err := g.tokens.Issue()
	if err != nil {
		return "", err
	}

	g.logger.Info("issued session token",
		zap.Bool("trusted_assertion", creds.TrustedAssertion),
		zap.String("origin", creds.Origin),
	)

	return token, nil
}

// isLocalOrigin reports whether the origin matches any configured
// local-development marker.
func (g *Gate) isLocalOrigin(origin string) bool {
	if origin == "" {
		return false
	}

	for _, marker := range g.localOrigins {
		if strings.Contains(origin, marker) {
			return true
		}
	}

	return false
}
