// Package blog defines the content types shared by the storage layer,
// the vector index, and the HTTP API.
package blog

import "time"

// Post is a single blog entry. The content store owns posts; the vector
// index only ever references them by ID.
type Post struct {
	// ID uniquely identifies the post. Callers may supply their own id
	// (typically a slug); the server generates one otherwise. Immutable
	// once created.
	ID string `json:"id"`

	// Title is the post title.
	Title string `json:"title"`

	// Content is the raw markdown source of the post body.
	Content string `json:"content"`

	// CreatedAt is set once when the post is first stored and preserved
	// across updates.
	CreatedAt time.Time `json:"created_at"`
}

// PostSummary is the listing row for a post: everything but the body.
type PostSummary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

// SearchResult pairs a post summary with its similarity score. Scores are
// opaque: higher means more similar, but no normalization is assumed.
type SearchResult struct {
	PostSummary
	Score float32 `json:"score"`
}

// Summary returns the listing view of the post.
func (p *Post) Summary() PostSummary {
	return PostSummary{
		ID:        p.ID,
		Title:     p.Title,
		CreatedAt: p.CreatedAt,
	}
}

// EmbeddingText returns the text fed to the embedder for this post.
func (p *Post) EmbeddingText() string {
	return p.Title + " " + p.Content
}
