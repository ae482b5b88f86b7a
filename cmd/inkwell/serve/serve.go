// Package servecmder provides the serve command for running the API server.
package servecmder

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/inkwellco/inkwell/api"
	"github.com/inkwellco/inkwell/api/search"
	"github.com/inkwellco/inkwell/pkg/auth"
	"github.com/inkwellco/inkwell/pkg/config"
	"github.com/inkwellco/inkwell/pkg/dotdir"
	embeddingutils "github.com/inkwellco/inkwell/pkg/embeddings/utils"
	"github.com/inkwellco/inkwell/pkg/eventstream"
	kafkaevents "github.com/inkwellco/inkwell/pkg/eventstream/kafka"
	"github.com/inkwellco/inkwell/pkg/eventstream/nop"
	"github.com/inkwellco/inkwell/pkg/logger"
	"github.com/inkwellco/inkwell/pkg/storage"
	"github.com/inkwellco/inkwell/pkg/storage/inmemory"
	"github.com/inkwellco/inkwell/pkg/storage/postgres"
	"github.com/inkwellco/inkwell/pkg/storage/sqlite"
	vectorutils "github.com/inkwellco/inkwell/pkg/vector/utils"
)

type serveCommander struct {
	listen string
	debug  bool

	storageProvider string
	sqlitePath      string
	postgresDSN     string

	vectorStoreProvider string
	vectorStoreTarget   string
	vectorSQLitePath    string

	embeddingProvider string
	embeddingTarget   string
	embeddingModel    string
	embeddingDims     uint

	authSecret    string
	authSubject   string
	trustedHeader string
	trustLocal    bool
	localOrigins  []string

	eventsProvider string
	eventsBrokers  []string
	eventsTopic    string

	configDir string
	logger    *zap.Logger
}

const serveLongDesc string = `Run the Inkwell API server.

Serves the blog post API, semantic search, and the session token login
bridge. Content is stored in SQLite, Postgres, or in-memory; the vector
index runs on sqlite-vec or Chroma; embeddings come from an Ollama server.

Flag values fall back to config.toml in the .inkwell/ directory, then to
built-in defaults. CLI flags always take precedence.`

const serveShortDesc string = "Run the Inkwell API server"

// serveFlags is the registry of flags bound to viper keys for this command.
var serveFlags = config.FlagSet{
	config.FlagListen:          {Name: "listen", Shorthand: "l", ViperKey: "api.listen", Description: "Address for API server to listen on"},
	config.FlagStorageProvider: {Name: "storage-provider", ViperKey: "storage.provider", Description: "Content store provider (sqlite, postgres, inmemory)"},
	config.FlagSQLite:          {Name: "sqlite", Shorthand: "s", ViperKey: "storage.sqlite_path", Description: "Path to the content SQLite database (default: .inkwell/inkwell.sqlite)"},
	config.FlagPostgresDSN:     {Name: "postgres-dsn", ViperKey: "storage.postgres_dsn", Description: "Postgres connection string"},
	config.FlagVectorStoreProv: {Name: "vector-store-provider", ViperKey: "vector_store.provider", Description: "Vector store provider (sqlite, chroma)"},
	config.FlagVectorStoreTgt:  {Name: "vector-store-target", ViperKey: "vector_store.target", Description: "Vector store URL (e.g., http://localhost:8000)"},
	config.FlagVectorSQLite:    {Name: "vector-sqlite", ViperKey: "vector_store.sqlite_path", Description: "Path to the vector SQLite database (default: .inkwell/vectors.sqlite)"},
	config.FlagEmbeddingProv:   {Name: "embedding-provider", ViperKey: "embedding.provider", Description: "Embedding provider type (e.g., ollama)"},
	config.FlagEmbeddingTgt:    {Name: "embedding-target", ViperKey: "embedding.target", Description: "Embedding provider URL"},
	config.FlagEmbeddingModel:  {Name: "embedding-model", ViperKey: "embedding.model", Description: "Embedding model name (e.g., nomic-embed-text)"},
	config.FlagEmbeddingDims:   {Name: "embedding-dimensions", ViperKey: "embedding.dimensions", Description: "Embedding dimensionality"},
	config.FlagAuthSecret:      {Name: "auth-secret", ViperKey: "auth.secret", Description: "HMAC signing secret for session tokens"},
	config.FlagAuthSubject:     {Name: "auth-subject", ViperKey: "auth.subject", Description: "Subject asserted by issued tokens"},
	config.FlagTrustedHeader:   {Name: "trusted-header", ViperKey: "auth.trusted_header", Description: "Header treated as a perimeter identity assertion"},
	config.FlagTrustLocal:      {Name: "trust-local-origins", ViperKey: "auth.trust_local_origins", Description: "Authorize credential-less writes from local origins"},
	config.FlagLocalOrigins:    {Name: "local-origins", ViperKey: "auth.local_origins", Description: "Comma-separated origin substrings treated as local"},
	config.FlagEventsProvider:  {Name: "events-provider", ViperKey: "events.provider", Description: "Event stream provider (nop, kafka)"},
	config.FlagEventsBrokers:   {Name: "events-brokers", ViperKey: "events.brokers", Description: "Comma-separated Kafka broker addresses"},
	config.FlagEventsTopic:     {Name: "events-topic", ViperKey: "events.topic", Description: "Kafka topic for post events"},
}

var serveFlagKeys = []string{
	config.FlagListen,
	config.FlagStorageProvider,
	config.FlagSQLite,
	config.FlagPostgresDSN,
	config.FlagVectorStoreProv,
	config.FlagVectorStoreTgt,
	config.FlagVectorSQLite,
	config.FlagEmbeddingProv,
	config.FlagEmbeddingTgt,
	config.FlagEmbeddingModel,
	config.FlagEmbeddingDims,
	config.FlagAuthSecret,
	config.FlagAuthSubject,
	config.FlagTrustedHeader,
	config.FlagTrustLocal,
	config.FlagLocalOrigins,
	config.FlagEventsProvider,
	config.FlagEventsBrokers,
	config.FlagEventsTopic,
}

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(cmder.configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			config.BindRegisteredFlags(v, cmd, serveFlags, serveFlagKeys)

			cmder.listen = v.GetString("api.listen")
			cmder.storageProvider = v.GetString("storage.provider")
			cmder.sqlitePath = v.GetString("storage.sqlite_path")
			cmder.postgresDSN = v.GetString("storage.postgres_dsn")
			cmder.vectorStoreProvider = v.GetString("vector_store.provider")
			cmder.vectorStoreTarget = v.GetString("vector_store.target")
			cmder.vectorSQLitePath = v.GetString("vector_store.sqlite_path")
			cmder.embeddingProvider = v.GetString("embedding.provider")
			cmder.embeddingTarget = v.GetString("embedding.target")
			cmder.embeddingModel = v.GetString("embedding.model")
			cmder.embeddingDims = v.GetUint("embedding.dimensions")
			cmder.authSecret = v.GetString("auth.secret")
			cmder.authSubject = v.GetString("auth.subject")
			cmder.trustedHeader = v.GetString("auth.trusted_header")
			cmder.trustLocal = v.GetBool("auth.trust_local_origins")
			cmder.localOrigins = config.AuthConfig{LocalOrigins: v.GetString("auth.local_origins")}.LocalOriginList()
			cmder.eventsProvider = v.GetString("events.provider")
			cmder.eventsBrokers = config.EventsConfig{Brokers: v.GetString("events.brokers")}.BrokerList()
			cmder.eventsTopic = v.GetString("events.topic")

			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			return cmder.run()
		},
	}

	config.AddStringFlag(cmd, serveFlags, config.FlagListen, &cmder.listen)
	config.AddStringFlag(cmd, serveFlags, config.FlagStorageProvider, &cmder.storageProvider)
	config.AddStringFlag(cmd, serveFlags, config.FlagSQLite, &cmder.sqlitePath)
	config.AddStringFlag(cmd, serveFlags, config.FlagPostgresDSN, &cmder.postgresDSN)
	config.AddStringFlag(cmd, serveFlags, config.FlagVectorStoreProv, &cmder.vectorStoreProvider)
	config.AddStringFlag(cmd, serveFlags, config.FlagVectorStoreTgt, &cmder.vectorStoreTarget)
	config.AddStringFlag(cmd, serveFlags, config.FlagVectorSQLite, &cmder.vectorSQLitePath)
	config.AddStringFlag(cmd, serveFlags, config.FlagEmbeddingProv, &cmder.embeddingProvider)
	config.AddStringFlag(cmd, serveFlags, config.FlagEmbeddingTgt, &cmder.embeddingTarget)
	config.AddStringFlag(cmd, serveFlags, config.FlagEmbeddingModel, &cmder.embeddingModel)
	config.AddUintFlag(cmd, serveFlags, config.FlagEmbeddingDims, &cmder.embeddingDims)
	config.AddStringFlag(cmd, serveFlags, config.FlagAuthSecret, &cmder.authSecret)
	config.AddStringFlag(cmd, serveFlags, config.FlagAuthSubject, &cmder.authSubject)
	config.AddStringFlag(cmd, serveFlags, config.FlagTrustedHeader, &cmder.trustedHeader)
	config.AddBoolFlag(cmd, serveFlags, config.FlagTrustLocal, &cmder.trustLocal)

	var localOriginsRaw, eventsBrokersRaw string
	config.AddStringFlag(cmd, serveFlags, config.FlagLocalOrigins, &localOriginsRaw)
	config.AddStringFlag(cmd, serveFlags, config.FlagEventsProvider, &cmder.eventsProvider)
	config.AddStringFlag(cmd, serveFlags, config.FlagEventsBrokers, &eventsBrokersRaw)
	config.AddStringFlag(cmd, serveFlags, config.FlagEventsTopic, &cmder.eventsTopic)

	return cmd
}

func (c *serveCommander) run() error {
	c.logger = logger.NewLogger(c.debug)
	defer func() { _ = c.logger.Sync() }()

	storer, err := c.newStorageDriver()
	if err != nil {
		return err
	}
	defer storer.Close()

	embedder, err := embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{
		ProviderType: c.embeddingProvider,
		TargetURL:    c.embeddingTarget,
		Model:        c.embeddingModel,
	})
	if err != nil {
		return fmt.Errorf("creating embedder: %w", err)
	}
	defer embedder.Close()

	vectorPath, err := c.resolveVectorPath()
	if err != nil {
		return err
	}

	index, err := vectorutils.NewVectorDriver(&vectorutils.NewVectorDriverOpts{
		ProviderType: c.vectorStoreProvider,
		TargetURL:    c.vectorStoreTarget,
		DBPath:       vectorPath,
		Dimensions:   c.embeddingDims,
		Logger:       c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating vector driver: %w", err)
	}
	defer index.Close()

	events, err := c.newPublisher()
	if err != nil {
		return err
	}
	defer events.Close()

	tokens, err := c.newTokenService()
	if err != nil {
		return err
	}

	gate := auth.NewGate(tokens, auth.GateConfig{
		TrustLocalOrigins: c.trustLocal,
		LocalOrigins:      c.localOrigins,
	}, c.logger)

	searcher := search.NewSearcher(embedder, index, storer, events, c.logger)

	server := api.NewServer(api.Config{
		ListenAddr:    c.listen,
		TrustedHeader: c.trustedHeader,
	}, storer, searcher, gate, c.logger)

	errChan := make(chan error, 1)
	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
		return server.Shutdown()
	}
}

func (c *serveCommander) newStorageDriver() (storage.Driver, error) {
	switch c.storageProvider {
	case "sqlite":
		path := c.sqlitePath
		if path == "" {
			dir, err := dotdir.NewManager().Target(c.configDir)
			if err != nil {
				return nil, fmt.Errorf("resolving database path: %w", err)
			}
			path = filepath.Join(dir, "inkwell.sqlite")
		}

		driver, err := sqlite.NewDriver(path)
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite store: %w", err)
		}
		c.logger.Info("using SQLite storage", zap.String("path", path))
		return driver, nil

	case "postgres":
		if c.postgresDSN == "" {
			return nil, fmt.Errorf("storage.postgres_dsn is required for the postgres provider")
		}

		driver, err := postgres.NewDriver(context.Background(), c.postgresDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to create Postgres store: %w", err)
		}
		c.logger.Info("using Postgres storage")
		return driver, nil

	case "inmemory":
		c.logger.Info("using in-memory storage")
		return inmemory.NewDriver(), nil

	default:
		return nil, fmt.Errorf("unsupported storage provider: %s", c.storageProvider)
	}
}

// resolveVectorPath picks the on-disk location for the sqlite-vec database.
// Chroma does not need one.
func (c *serveCommander) resolveVectorPath() (string, error) {
	if c.vectorStoreProvider != "sqlite" {
		return "", nil
	}

	if c.vectorSQLitePath != "" {
		return c.vectorSQLitePath, nil
	}

	dir, err := dotdir.NewManager().Target(c.configDir)
	if err != nil {
		return "", fmt.Errorf("resolving vector database path: %w", err)
	}

	return filepath.Join(dir, "vectors.sqlite"), nil
}

func (c *serveCommander) newPublisher() (eventstream.Publisher, error) {
	switch c.eventsProvider {
	case "", "nop":
		return nop.NewPublisher(), nil

	case "kafka":
		publisher, err := kafkaevents.NewPublisher(kafkaevents.Config{
			Brokers: c.eventsBrokers,
			Topic:   c.eventsTopic,
		})
		if err != nil {
			return nil, fmt.Errorf("creating kafka publisher: %w", err)
		}

		c.logger.Info("publishing post events to kafka",
			zap.Strings("brokers", c.eventsBrokers),
			zap.String("topic", c.eventsTopic),
		)
		return publisher, nil

	default:
		return nil, fmt.Errorf("unsupported events provider: %s", c.eventsProvider)
	}
}

// newTokenService builds the token service. When no secret is configured,
// an ephemeral one is generated: tokens then survive only until restart,
// which is fine for local development but gets a loud warning.
func (c *serveCommander) newTokenService() (*auth.TokenService, error) {
	secret := c.authSecret
	if secret == "" {
		raw := make([]byte, 32)
		if _, err := rand.Read(raw); err != nil {
			return nil, fmt.Errorf("generating ephemeral token secret: %w", err)
		}
		secret = hex.EncodeToString(raw)

		c.logger.Warn("auth.secret is not configured; using an ephemeral secret, issued tokens will not survive restarts")
	}

	return auth.NewTokenService(secret, auth.WithSubject(c.authSubject))
}
