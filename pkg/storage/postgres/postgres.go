// Package postgres provides a PostgreSQL-backed storage driver.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register the pgx PostgreSQL driver as "pgx"

	"github.com/inkwellco/inkwell/pkg/blog"
	"github.com/inkwellco/inkwell/pkg/storage"
)

// Driver implements storage.Driver using PostgreSQL.
type Driver struct {
	db *sql.DB
}

// NewDriver creates a new PostgreSQL-backed post store.
// The connStr is a PostgreSQL connection string, e.g.
// "host=localhost port=5432 user=inkwell dbname=inkwell sslmode=disable"
// or a connection URI like "postgres://inkwell@localhost:5432/inkwell".
func NewDriver(ctx context.Context, connStr string) (*Driver, error) {
	db, err := sql.Open("pgx", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Verify the connection is reachable
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS posts (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating posts table: %w", err)
	}

	return &Driver{db: db}, nil
}

// Upsert inserts a post or replaces an existing one with the same id,
// keeping the original created_at on conflict.
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
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
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
		`SELECT id, title, content, created_at FROM posts WHERE id = $1`, id,
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
		placeholders[i] = fmt.Sprintf("$%d", i+1)
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
	if _, err := d.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id); err != nil {
		return fmt.Errorf("deleting post %s: %w", id, err)
	}

	return nil
}

// Close closes the underlying database.
func (d *Driver) Close() error {
	return d.db.Close()
}

var _ storage.Driver = (*Driver)(nil)
