// Package reindex rebuilds the vector index from the content store.
//
// Index writes during normal operation are best-effort, so the index can
// drift behind the store: an embedding provider outage leaves posts findable
// by id but invisible to search. A reindex run walks every post in the store
// and re-embeds it, repairing any divergence.
package reindex

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/inkwellco/inkwell/pkg/embeddings"
	"github.com/inkwellco/inkwell/pkg/storage"
	"github.com/inkwellco/inkwell/pkg/utils"
	"github.com/inkwellco/inkwell/pkg/vector"
)

// Options configures reindex behavior.
type Options struct {
	DryRun  bool
	Verbose bool
}

// Reindexer re-embeds posts from the content store into the vector index.
type Reindexer struct {
	store    storage.Driver
	embedder embeddings.Embedder
	index    vector.Driver
	options  Options
	logger   *zap.Logger
}

// NewReindexer creates a Reindexer over the given store, embedder, and index.
func NewReindexer(
	store storage.Driver,
	embedder embeddings.Embedder,
	index vector.Driver,
	opts Options,
	logger *zap.Logger,
) *Reindexer {
	return &Reindexer{
		store:    store,
		embedder: embedder,
		index:    index,
		options:  opts,
		logger:   logger,
	}
}

// Run walks every post in the content store and upserts its embedding into
// the vector index. Individual post failures are counted, not fatal: a
// partial reindex still repairs the posts it reached.
func (r *Reindexer) Run(ctx context.Context) (*Result, error) {
	summaries, err := r.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}

	result := &Result{Posts: len(summaries)}

	for _, summary := range summaries {
		post, err := r.store.Get(ctx, summary.ID)
		if err != nil {
			// Deleted between List and Get.
			result.Skipped++
			continue
		}

		embedding, err := r.embedder.Embed(ctx, post.EmbeddingText())
		if err != nil {
			r.logger.Warn("failed to embed post",
				zap.String("id", post.ID),
				zap.Error(err),
			)
			result.Failed++
			continue
		}

		if r.options.Verbose {
			fmt.Printf("  indexed: %s (%s)\n", post.ID, utils.Truncate(post.Title, 60))
		}

		if r.options.DryRun {
			result.Indexed++
			continue
		}

		doc := vector.Document{
			ID:        post.ID,
			Embedding: embedding,
			Title:     post.Title,
		}

		if err := r.index.Upsert(ctx, []vector.Document{doc}); err != nil {
			r.logger.Warn("failed to upsert post into vector index",
				zap.String("id", post.ID),
				zap.Error(err),
			)
			result.Failed++
			continue
		}

		result.Indexed++
	}

	return result, nil
}
