// Package inmemory provides a map-backed storage driver for tests and
// zero-config local development.
package inmemory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/inkwellco/inkwell/pkg/blog"
	"github.com/inkwellco/inkwell/pkg/storage"
)

// Driver implements storage.Driver using an in-memory map.
type Driver struct {
	// mu is a read write sync mutex for locking the mapping of posts
	mu sync.RWMutex

	// posts is the in memory map of posts keyed by post id
	posts map[string]*blog.Post
}

// NewDriver creates a new in-memory driver.
func NewDriver() *Driver {
	return &Driver{
		posts: make(map[string]*blog.Post),
	}
}

// Upsert inserts a post or replaces an existing one with the same id.
// Replacing keeps the original CreatedAt.
func (s *Driver) Upsert(_ context.Context, post *blog.Post) error {
	if post == nil {
		return errors.New("cannot store nil post")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *post
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}

	if existing, ok := s.posts[post.ID]; ok {
		stored.CreatedAt = existing.CreatedAt
	}

	s.posts[post.ID] = &stored
	return nil
}

// Get retrieves a post by its id.
func (s *Driver) Get(_ context.Context, id string) (*blog.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	post, ok := s.posts[id]
	if !ok {
		return nil, storage.NotFoundError{ID: id}
	}

	copied := *post
	return &copied, nil
}

// GetByIDs retrieves the posts whose ids appear in ids. Unknown ids are skipped.
func (s *Driver) GetByIDs(_ context.Context, ids []string) ([]*blog.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	posts := make([]*blog.Post, 0, len(ids))
	for _, id := range ids {
		if post, ok := s.posts[id]; ok {
			copied := *post
			posts = append(posts, &copied)
		}
	}

	return posts, nil
}

// List returns summaries of all posts, newest first.
func (s *Driver) List(_ context.Context) ([]blog.PostSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summaries := make([]blog.PostSummary, 0, len(s.posts))
	for _, post := range s.posts {
		summaries = append(summaries, post.Summary())
	}

	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].CreatedAt.Equal(summaries[j].CreatedAt) {
			return summaries[i].ID > summaries[j].ID
		}
		return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
	})

	return summaries, nil
}

// Delete removes a post by id. Deleting an unknown id is a no-op.
func (s *Driver) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.posts, id)
	return nil
}

// Count returns the number of posts in the in-memory store.
func (s *Driver) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.posts)
}

// Close is a no-op for the in-memory driver.
func (s *Driver) Close() error {
	return nil
}
