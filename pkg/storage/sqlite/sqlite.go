// Package sqlite provides a SQLite-backed storage driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/inkwellco/inkwell/pkg/blog"
	"github.com/inkwellco/inkwell/pkg/storage"
)

// Driver implements storage.Driver using SQLite.
type Driver struct {
	db *sql.DB
}

// NewDriver creates a new SQLite-backed post store.
// The dbPath can be a file path or ":memory:" for an in-memory database.
func NewDriver(dbPath string) (*Driver, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("database path is required")
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite-specific pragmas
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS posts (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating posts table: %w", err)
	}

	return &Driver{db: db}, nil
}

// Upsert inserts a post or replaces an existing one with the same id.
// The ON CONFLICT clause leaves created_at untouched so updates keep the
// original creation time.
func (d *Driver) Upsert(ctx context.Context, post *blog.Post) error {
	if post == nil {
		return fmt.Errorf("cannot store nil post")
	}

	createdAt := post.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := d.db.ExecContext(ctx, `
		INSERT INTO posts (id, title, content, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			content = excluded.content
	`, post.ID, post.Title, post.Content, createdAt)
	if err != nil {
		return fmt.Errorf("upserting post %s: %w", post.ID, err)
	}

	return nil
}

// Get retrieves a post by its id.
func (d *Driver) Get(ctx context.Context, id string) (*blog.Post, error) {
	var post blog.Post
	err := d.db.QueryRowContext(ctx,
		`SELECT id, title, content, created_at FROM posts WHERE id = ?`, id,
	).Scan(&post.ID, &post.Title, &post.Content, &post.CreatedAt)

	switch err {
	case nil:
		return &post, nil
	case sql.ErrNoRows:
		return nil, storage.NotFoundError{ID: id}
	default:
		return nil, fmt.Errorf("getting post %s: %w", id, err)
	}
}

// GetByIDs retrieves the posts whose ids appear in ids using a single IN
// clause. Unknown ids are skipped.
func (d *Driver) GetByIDs(ctx context.Context, ids []string) ([]*blog.Post, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}

	query := fmt.Sprintf(`
		SELECT id, title, content, created_at
		FROM posts
		WHERE id IN (%s)
	`, strings.Join(placeholders, ","))

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying posts: %w", err)
	}
	defer rows.Close()

	var posts []*blog.Post
	for rows.Next() {
		var post blog.Post
		if err := rows.Scan(&post.ID, &post.Title, &post.Content, &post.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning post: %w", err)
		}
		posts = append(posts, &post)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating posts: %w", err)
	}

	return posts, nil
}

// List returns summaries of all posts, newest first.
func (d *Driver) List(ctx context.Context) ([]blog.PostSummary, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, title, created_at
		FROM posts
		ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("listing posts: %w", err)
	}
	defer rows.Close()

	summaries := make([]blog.PostSummary, 0)
	for rows.Next() {
		var s blog.PostSummary
		if err := rows.Scan(&s.ID, &s.Title, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning post summary: %w", err)
		}
		summaries = append(summaries, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating post summaries: %w", err)
	}

	return summaries, nil
}

// Delete removes a post by id. Deleting an unknown id is a no-op.
func (d *Driver) Delete(ctx context.Context, id string) error {
	if _, err := d.db.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting post %s: %w", id, err)
	}

	return nil
}

// Close closes the underlying database.
func (d *Driver) Close() error {
	return d.db.Close()
}

var _ storage.Driver = (*Driver)(nil)
