// Package vector provides interfaces and implementations for vector storage.
package vector

import "context"

// Document represents an indexed post with its embedding and metadata.
type Document struct {
	// ID is the id of the post this document corresponds to. There is at
	// most one document per post id; upserting replaces.
	ID string

	// Embedding is the vector representation of the post content.
	Embedding []float32

	// Title is carried as metadata alongside the embedding.
	Title string
}

// QueryResult represents a search result with similarity score.
type QueryResult struct {
	Document

	// Score represents the similarity score (higher = more similar).
	// Scores are only meaningful for relative ordering.
	Score float32
}

// Driver handles storage and retrieval of vector embeddings. The index is
// eventually consistent with the content store: callers must tolerate ids
// returned here that no longer exist there.
type Driver interface {
	// Upsert stores documents with their embeddings, replacing any
	// existing document with the same ID.
	Upsert(ctx context.Context, docs []Document) error

	// Query finds the topK most similar documents to the given embedding.
	Query(ctx context.Context, embedding []float32, topK int) ([]QueryResult, error)

	// Delete removes documents by their IDs.
	Delete(ctx context.Context, ids []string) error

	// Close releases any resources held by the driver.
	Close() error
}
