package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ginaqueenval/alina-mvp/internal/core/domain"
	"github.com/ginaqueenval/alina-mvp/internal/core/ports"
)

type PostgresPostRepo struct {
	db *pgxpool.Pool
}

func NewPostgresPostRepo(db *pgxpool.Pool) ports.PostRepository {
	return &PostgresPostRepo{db: db}
}

func (r *PostgresPostRepo) Save(ctx context.Context, post *domain.Post) error {
	query := `
		INSERT INTO posts (id, author_id, caption, image_url, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.Exec(ctx, query,
		post.ID,
		post.AuthorID,
		nullIfEmpty(post.Caption),
		nullIfEmpty(post.ImageURL),
		post.CreatedAt,
	)
	return err
}

func (r *PostgresPostRepo) FindByID(ctx context.Context, postID string) (*domain.Post, error) {
	query := `SELECT id, author_id, caption, image_url, created_at FROM posts WHERE id = $1`

	row := r.db.QueryRow(ctx, query, postID)
	post, err := scanPost(row)
	if err == pgx.ErrNoRows {
		return nil, domain.ErrPostNotFound
	}
	return post, err
}

// ListRecent : le "select-ordered-by-recency" du store.
func (r *PostgresPostRepo) ListRecent(ctx context.Context, limit int) ([]*domain.Post, error) {
	query := `
		SELECT id, author_id, caption, image_url, created_at
		FROM posts
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPosts(rows)
}

// ListByAuthor : pagination keyset, pas d'OFFSET qui tue la DB.
func (r *PostgresPostRepo) ListByAuthor(ctx context.Context, authorID string, limit int, cursorTime time.Time) ([]*domain.Post, error) {
	// Première page : pas de curseur
	if cursorTime.IsZero() {
		query := `
			SELECT id, author_id, caption, image_url, created_at
			FROM posts
			WHERE author_id = $1
			ORDER BY created_at DESC
			LIMIT $2
		`
		rows, err := r.db.Query(ctx, query, authorID, limit)
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		return collectPosts(rows)
	}

	// Pages suivantes : tout ce qui est plus vieux que le curseur
	query := `
		SELECT id, author_id, caption, image_url, created_at
		FROM posts
		WHERE author_id = $1 AND created_at < $2
		ORDER BY created_at DESC
		LIMIT $3
	`
	rows, err := r.db.Query(ctx, query, authorID, cursorTime, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPosts(rows)
}

// --- Helpers ---

func scanPost(row pgx.Row) (*domain.Post, error) {
	var p domain.Post
	var caption, imageURL *string

	if err := row.Scan(&p.ID, &p.AuthorID, &caption, &imageURL, &p.CreatedAt); err != nil {
		return nil, err
	}
	if caption != nil {
		p.Caption = *caption
	}
	if imageURL != nil {
		p.ImageURL = *imageURL
	}
	return &p, nil
}

func collectPosts(rows pgx.Rows) ([]*domain.Post, error) {
	var posts []*domain.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return posts, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
