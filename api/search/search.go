// Package search provides semantic search over blog posts and keeps the
// vector index synchronized with the content store. It is used by the REST
// API handlers for writes and for the search endpoint.
package search

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/inkwellco/inkwell/pkg/blog"
	"github.com/inkwellco/inkwell/pkg/embeddings"
	"github.com/inkwellco/inkwell/pkg/eventstream"
	"github.com/inkwellco/inkwell/pkg/storage"
	"github.com/inkwellco/inkwell/pkg/vector"
)

// DefaultTopK is the number of results returned when the caller does not
// specify a count.
const DefaultTopK = 10

// ErrEmptyQuery indicates a search was requested with an empty query string.
var ErrEmptyQuery = errors.New("search query must not be empty")

// Searcher embeds post content, maintains the vector index, and serves
// semantic search queries. The content store is authoritative: index writes
// are best-effort and their failures are logged and recorded as events
// rather than surfaced to callers.
type Searcher struct {
	embedder embeddings.Embedder
	index    vector.Driver
	store    storage.Driver
	events   eventstream.Publisher
	logger   *zap.Logger
}

// NewSearcher creates a Searcher over the given embedder, vector index,
// content store, and event publisher.
func NewSearcher(
	embedder embeddings.Embedder,
	index vector.Driver,
	store storage.Driver,
	events eventstream.Publisher,
	logger *zap.Logger,
) *Searcher {
	return &Searcher{
		embedder: embedder,
		index:    index,
		store:    store,
		events:   events,
		logger:   logger,
	}
}

// Sync brings the vector index entry for a post in line with the content
// store. It embeds the post's title and content and upserts the result.
// Failures never propagate: the post is already committed, so an embedding
// or index error leaves the post findable by id but not by search.
func (s *Searcher) Sync(ctx context.Context, post *blog.Post) {
	embedding, err := s.embedder.Embed(ctx, post.EmbeddingText())
	if err != nil {
		s.recordIndexFailure(ctx, post, err)
		return
	}

	doc := vector.Document{
		ID:        post.ID,
		Embedding: embedding,
		Title:     post.Title,
	}

	if err := s.index.Upsert(ctx, []vector.Document{doc}); err != nil {
		s.recordIndexFailure(ctx, post, err)
		return
	}

	s.publish(ctx, eventstream.NewPostEvent(eventstream.EventTypePostIndexed, post.ID, post.Title))
}

// Remove deletes a post's entry from the vector index. Like Sync, failures
// are logged and recorded but never propagated: a dangling index entry is
// filtered out at query time.
func (s *Searcher) Remove(ctx context.Context, id string) {
	if err := s.index.Delete(ctx, []string{id}); err != nil {
		s.logger.Warn("failed to remove post from vector index",
			zap.String("id", id),
			zap.Error(err),
		)
	}

	s.publish(ctx, eventstream.NewPostEvent(eventstream.EventTypePostRemoved, id, ""))
}

// Search embeds the query, finds the nearest posts in the vector index, and
// hydrates them from the content store. Index entries whose post no longer
// exists in the store are silently dropped. Results are ordered by
// descending score.
func (s *Searcher) Search(ctx context.Context, query string, topK int) ([]blog.SearchResult, error) {
	if query == "" {
		return nil, ErrEmptyQuery
	}

	if topK <= 0 {
		topK = DefaultTopK
	}

	s.logger.Debug("search request",
		zap.String("query", query),
		zap.Int("topK", topK),
	)

	queryEmbedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	matches, err := s.index.Query(ctx, queryEmbedding, topK)
	if err != nil {
		return nil, fmt.Errorf("failed to query vector index: %w", err)
	}

	if len(matches) == 0 {
		return []blog.SearchResult{}, nil
	}

	ids := make([]string, 0, len(matches))
	scores := make(map[string]float32, len(matches))
	for _, match := range matches {
		ids = append(ids, match.ID)
		scores[match.ID] = match.Score
	}

	posts, err := s.store.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load posts for search results: %w", err)
	}

	// Posts missing from the store are dangling index entries left behind
	// by a failed delete sync; GetByIDs already skipped them.
	results := make([]blog.SearchResult, 0, len(posts))
	for _, post := range posts {
		results = append(results, blog.SearchResult{
			PostSummary: post.Summary(),
			Score:       scores[post.ID],
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	return results, nil
}

// recordIndexFailure logs an index sync failure and emits an index_failed
// event so the divergence is observable.
func (s *Searcher) recordIndexFailure(ctx context.Context, post *blog.Post, cause error) {
	s.logger.Warn("failed to sync post to vector index",
		zap.String("id", post.ID),
		zap.Error(cause),
	)

	event := eventstream.NewPostEvent(eventstream.EventTypePostIndexFailed, post.ID, post.Title)
	event.Reason = cause.Error()
	s.publish(ctx, event)
}

func (s *Searcher) publish(ctx context.Context, event *eventstream.PostEvent) {
	if err := s.events.PublishPost(ctx, event); err != nil {
		s.logger.Warn("failed to publish post event",
			zap.String("event_type", event.EventType),
			zap.String("id", event.PostID),
			zap.Error(err),
		)
	}
}
