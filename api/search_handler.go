package api

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	apisearch "github.com/inkwellco/inkwell/api/search"
)

// handleSearch handles GET /search requests.
// Query parameters:
//   - q (required): the search query text
//   - top_k (optional, default 10): number of results to return
func (s *Server) handleSearch(c *fiber.Ctx) error {
	query := c.Query("q")
	if query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "q parameter is required",
		})
	}

	topK := apisearch.DefaultTopK
	if topKStr := c.Query("top_k"); topKStr != "" {
		parsed, err := strconv.Atoi(topKStr)
		if err != nil || parsed <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
				Error: "top_k must be a positive integer",
			})
		}
		topK = parsed
	}

	results, err := s.searcher.Search(c.Context(), query, topK)
	if err != nil {
		if errors.Is(err, apisearch.ErrEmptyQuery) {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
				Error: "q parameter is required",
			})
		}

		s.logger.Error("search failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: "search failed",
		})
	}

	return c.JSON(results)
}
