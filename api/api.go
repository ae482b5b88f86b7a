package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"go.uber.org/zap"

	"github.com/inkwellco/inkwell/api/search"
	"github.com/inkwellco/inkwell/pkg/auth"
	"github.com/inkwellco/inkwell/pkg/storage"
)

// Server is the HTTP API server for the inkwell blog platform.
type Server struct {
	config   Config
	storer   storage.Driver
	searcher *search.Searcher
	gate     *auth.Gate
	logger   *zap.Logger
	app      *fiber.App
}

// NewServer creates a new API server. The content store, searcher, and auth
// gate are injected so they can be shared with CLI commands and tests.
func NewServer(
	config Config,
	storer storage.Driver,
	searcher *search.Searcher,
	gate *auth.Gate,
	logger *zap.Logger,
) *Server {
	if config.TrustedHeader == "" {
		config.TrustedHeader = DefaultTrustedHeader
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	app.Use(cors.New(cors.Config{
		AllowHeaders: "Content-Type, Authorization, " + config.TrustedHeader,
	}))

	s := &Server{
		config:   config,
		storer:   storer,
		searcher: searcher,
		gate:     gate,
		logger:   logger,
		app:      app,
	}

	app.Get("/ping", s.handlePing)
	app.Get("/posts", s.handleListPosts)
	app.Get("/posts/:id", s.handleGetPost)
	app.Post("/posts", s.handleCreatePost)
	app.Delete("/posts/:id", s.handleDeletePost)
	app.Get("/search", s.handleSearch)
	app.Get("/auth/me", s.handleAuthCheck)
	app.Get("/login", s.handleLogin)

	return s
}

// App exposes the underlying fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		zap.String("listen", s.config.ListenAddr),
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
