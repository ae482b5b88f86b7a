// Package api provides the HTTP API server for the inkwell blog platform.
package api

// DefaultTrustedHeader is the identity header set by the authenticating
// perimeter in front of the server.
const DefaultTrustedHeader = "Cf-Access-Jwt-Assertion"

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8080")
	ListenAddr string

	// TrustedHeader names the header whose presence is treated as a
	// perimeter-validated identity assertion. Defaults to
	// DefaultTrustedHeader when empty.
	TrustedHeader string
}
