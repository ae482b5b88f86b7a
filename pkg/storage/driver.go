// Package storage
package storage

import (
	"context"

	"github.com/inkwellco/inkwell/pkg/blog"
)

// Driver defines the interface for persisting and retrieving posts in a
// relational backend. The content store is the source of truth for the
// system: the vector index references posts by id but never owns them,
// and every read path joins back against this store.
type Driver interface {
	// Upsert inserts a post or replaces an existing one with the same id.
	// Replacing keeps the original CreatedAt; only title and content change.
	Upsert(ctx context.Context, post *blog.Post) error

	// Get retrieves a post by its id. Returns NotFoundError for unknown ids.
	Get(ctx context.Context, id string) (*blog.Post, error)

	// GetByIDs retrieves the posts whose ids appear in ids using a single
	// batched lookup. Ids with no matching post are skipped, not errors.
	GetByIDs(ctx context.Context, ids []string) ([]*blog.Post, error)

	// List returns summaries of all posts, newest first.
	List(ctx context.Context) ([]blog.PostSummary, error)

	// Delete removes a post by id. Deleting an unknown id is a no-op.
	Delete(ctx context.Context, id string) error

	// Close closes the store and releases any resources.
	Close() error
}
