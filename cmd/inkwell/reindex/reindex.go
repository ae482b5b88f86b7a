// Package reindexcmder provides the `inkwell reindex` CLI command.
package reindexcmder

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/inkwellco/inkwell/pkg/config"
	"github.com/inkwellco/inkwell/pkg/dotdir"
	embeddingutils "github.com/inkwellco/inkwell/pkg/embeddings/utils"
	"github.com/inkwellco/inkwell/pkg/logger"
	"github.com/inkwellco/inkwell/pkg/reindex"
	"github.com/inkwellco/inkwell/pkg/storage"
	"github.com/inkwellco/inkwell/pkg/storage/inmemory"
	"github.com/inkwellco/inkwell/pkg/storage/postgres"
	"github.com/inkwellco/inkwell/pkg/storage/sqlite"
	vectorutils "github.com/inkwellco/inkwell/pkg/vector/utils"
)

const reindexLongDesc string = `Rebuild the vector index from the content store.

Walks every post in the content store, re-embeds it, and upserts the result
into the vector index. Use this to repair index drift after an embedding
provider outage, or to populate a fresh index from existing posts.

Examples:
  inkwell reindex
  inkwell reindex --dry-run
  inkwell reindex --sqlite ./inkwell.sqlite --verbose`

const reindexShortDesc string = "Rebuild the vector index from the content store"

type reindexCommander struct {
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

	dryRun  bool
	verbose bool
	debug   bool

	configDir string
}

var reindexFlags = config.FlagSet{
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
}

var reindexFlagKeys = []string{
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
}

// NewReindexCmd creates the reindex cobra command.
func NewReindexCmd() *cobra.Command {
	cmder := &reindexCommander{}

	cmd := &cobra.Command{
		Use:   "reindex",
		Short: reindexShortDesc,
		Long:  reindexLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(cmder.configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			config.BindRegisteredFlags(v, cmd, reindexFlags, reindexFlagKeys)

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

			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmder.debug, _ = cmd.Flags().GetBool("debug")
			return cmder.run(cmd.Context(), cmd)
		},
	}

	config.AddStringFlag(cmd, reindexFlags, config.FlagStorageProvider, &cmder.storageProvider)
	config.AddStringFlag(cmd, reindexFlags, config.FlagSQLite, &cmder.sqlitePath)
	config.AddStringFlag(cmd, reindexFlags, config.FlagPostgresDSN, &cmder.postgresDSN)
	config.AddStringFlag(cmd, reindexFlags, config.FlagVectorStoreProv, &cmder.vectorStoreProvider)
	config.AddStringFlag(cmd, reindexFlags, config.FlagVectorStoreTgt, &cmder.vectorStoreTarget)
	config.AddStringFlag(cmd, reindexFlags, config.FlagVectorSQLite, &cmder.vectorSQLitePath)
	config.AddStringFlag(cmd, reindexFlags, config.FlagEmbeddingProv, &cmder.embeddingProvider)
	config.AddStringFlag(cmd, reindexFlags, config.FlagEmbeddingTgt, &cmder.embeddingTarget)
	config.AddStringFlag(cmd, reindexFlags, config.FlagEmbeddingModel, &cmder.embeddingModel)
	config.AddUintFlag(cmd, reindexFlags, config.FlagEmbeddingDims, &cmder.embeddingDims)
	cmd.Flags().BoolVar(&cmder.dryRun, "dry-run", false, "Preview the reindex without writing")
	cmd.Flags().BoolVarP(&cmder.verbose, "verbose", "v", false, "Show per-post details")

	return cmd
}

func (c *reindexCommander) run(ctx context.Context, cmd *cobra.Command) error {
	log := logger.NewLogger(c.debug)
	defer func() { _ = log.Sync() }()

	if c.dryRun {
		fmt.Fprintln(cmd.OutOrStdout(), "Dry run mode, no changes will be written")
	}

	storer, err := c.newStorageDriver(ctx)
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
		Logger:       log,
	})
	if err != nil {
		return fmt.Errorf("creating vector driver: %w", err)
	}
	defer index.Close()

	opts := reindex.Options{
		DryRun:  c.dryRun,
		Verbose: c.verbose,
	}

	result, err := reindex.NewReindexer(storer, embedder, index, opts, log).Run(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), result.Summary())
	return nil
}

func (c *reindexCommander) newStorageDriver(ctx context.Context) (storage.Driver, error) {
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
			return nil, fmt.Errorf("failed to open SQLite store: %w", err)
		}
		return driver, nil

	case "postgres":
		if c.postgresDSN == "" {
			return nil, fmt.Errorf("storage.postgres_dsn is required for the postgres provider")
		}
		return postgres.NewDriver(ctx, c.postgresDSN)

	case "inmemory":
		return inmemory.NewDriver(), nil

	default:
		return nil, fmt.Errorf("unsupported storage provider: %s", c.storageProvider)
	}
}

func (c *reindexCommander) resolveVectorPath() (string, error) {
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
