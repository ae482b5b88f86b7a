package api

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/inkwellco/inkwell/pkg/auth"
	"github.com/inkwellco/inkwell/pkg/blog"
	"github.com/inkwellco/inkwell/pkg/storage"
)

// ErrorResponse is the JSON body returned for failed requests.
type ErrorResponse struct {
	Error string `json:"error"`
}

// SuccessResponse is the JSON body returned for successful writes.
type SuccessResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id,omitempty"`
}

// CreatePostRequest is the JSON body for POST /posts. ID is optional; one is
// generated when omitted so the same endpoint serves create and update.
type CreatePostRequest struct {
	ID      string `json:"id,omitempty"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// credentialsFrom extracts the auth-relevant parts of the request. The
// Origin header is what browsers send; Host is the fallback for direct
// local clients like curl.
func (s *Server) credentialsFrom(c *fiber.Ctx) auth.Credentials {
	bearer := ""
	if header := c.Get(fiber.HeaderAuthorization); header != "" {
		bearer = strings.TrimPrefix(header, "Bearer ")
	}

	origin := c.Get(fiber.HeaderOrigin)
	if origin == "" {
		origin = c.Hostname()
	}

	return auth.Credentials{
		Bearer:           bearer,
		TrustedAssertion: c.Get(s.config.TrustedHeader) != "",
		Origin:           origin,
	}
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleListPosts returns summaries of all posts, newest first.
func (s *Server) handleListPosts(c *fiber.Ctx) error {
	summaries, err := s.storer.List(c.Context())
	if err != nil {
		s.logger.Error("failed to list posts", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to list posts"})
	}

	return c.JSON(summaries)
}

// handleGetPost returns a single post by id.
func (s *Server) handleGetPost(c *fiber.Ctx) error {
	id := c.Params("id")

	post, err := s.storer.Get(c.Context(), id)
	if err != nil {
		if storage.IsNotFound(err) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "post not found"})
		}

		s.logger.Error("failed to get post", zap.String("id", id), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to get post"})
	}

	return c.JSON(post)
}

// handleCreatePost creates or updates a post, then syncs the vector index.
// The index sync is best-effort: by the time it runs the post is committed,
// so its failure never turns into an error response.
func (s *Server) handleCreatePost(c *fiber.Ctx) error {
	if !s.gate.Authorized(s.credentialsFrom(c)) {
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{Error: "unauthorized"})
	}

	var req CreatePostRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}

	if req.Title == "" || req.Content == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "title and content are required"})
	}

	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}

	post := &blog.Post{
		ID:        id,
		Title:     req.Title,
		Content:   req.Content,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.storer.Upsert(c.Context(), post); err != nil {
		s.logger.Error("failed to save post", zap.String("id", id), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to save post"})
	}

	s.searcher.Sync(c.Context(), post)

	return c.JSON(SuccessResponse{Success: true, ID: id})
}

// handleDeletePost deletes a post and best-effort removes its index entry.
// Deleting an unknown id succeeds; the end state is the same.
func (s *Server) handleDeletePost(c *fiber.Ctx) error {
	if !s.gate.Authorized(s.credentialsFrom(c)) {
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{Error: "unauthorized"})
	}

	id := c.Params("id")

	if err := s.storer.Delete(c.Context(), id); err != nil {
		s.logger.Error("failed to delete post", zap.String("id", id), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to delete post"})
	}

	s.searcher.Remove(c.Context(), id)

	return c.JSON(SuccessResponse{Success: true})
}
