package api

import (
	"github.com/gofiber/fiber/v2"
)

// AuthCheckResponse is the JSON body for GET /auth/me.
type AuthCheckResponse struct {
	Authorized bool `json:"authorized"`
}

// handleAuthCheck reports whether the request's credentials would pass the
// write gate. Always 200: the answer is the payload, not the status.
func (s *Server) handleAuthCheck(c *fiber.Ctx) error {
	return c.JSON(AuthCheckResponse{
		Authorized: s.gate.Authorized(s.credentialsFrom(c)),
	})
}

// handleLogin bridges a perimeter-asserted identity into a session token.
// The token travels back in the redirect fragment so it never reaches
// server logs on the receiving side.
func (s *Server) handleLogin(c *fiber.Ctx) error {
	redirect := c.Query("redirect")
	if redirect == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "redirect parameter is required"})
	}

	token, err := s.gate.Login(s.credentialsFrom(c))
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{Error: "unauthorized"})
	}

	return c.Redirect(redirect+"#access_token="+token, fiber.StatusFound)
}
