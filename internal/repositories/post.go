package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/songbook/internal/models"
	"github.com/desertthunder/songbook/internal/shared"
)

const postColumns = `id, sequence, title, slug, body, author, published, published_at, created_at, updated_at, deleted_at`

// PostRepository implements models.Repository[*models.Post] for the blog.
type PostRepository struct {
	db *sql.DB
}

// NewPostRepository creates a new PostRepository with the given database connection
func NewPostRepository(db *sql.DB) *PostRepository {
	return &PostRepository{db: db}
}

// Create inserts a new [models.Post]. A taken slug returns [shared.ErrConflict].
func (r *PostRepository) Create(post *models.Post) error {
	if err := post.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "posts")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	post.SetID(shared.GenerateID())
	post.SetSequence(sequence)

	_, err = r.db.Exec(`
		INSERT INTO posts (id, sequence, title, slug, body, author, published, published_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, post.ID(), sequence, post.Title, post.Slug, post.Body, post.Author, post.Published, nullTime(post.PublishedAt),
		post.CreatedAt(), post.UpdatedAt())
	if err != nil {
		return conflict(fmt.Errorf("failed to insert post: %w", err), "post "+post.Slug)
	}

	return nil
}

// Get retrieves a post by ID
func (r *PostRepository) Get(id string) (*models.Post, error) {
	post, err := r.scan(r.db.QueryRow(`SELECT `+postColumns+` FROM posts WHERE id = ? AND deleted_at IS NULL`, id))
	if err != nil {
		return nil, notFound(err, "post", id)
	}
	return post, nil
}

// GetBySlug retrieves a post by its URL slug
func (r *PostRepository) GetBySlug(slug string) (*models.Post, error) {
	post, err := r.scan(r.db.QueryRow(`SELECT `+postColumns+` FROM posts WHERE slug = ? AND deleted_at IS NULL`, slug))
	if err != nil {
		return nil, notFound(err, "post", slug)
	}
	return post, nil
}

// Update modifies an existing post, including its publish state
func (r *PostRepository) Update(post *models.Post) error {
	if err := post.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now().UTC()
	post.SetUpdatedAt(now)

	result, err := r.db.Exec(`
		UPDATE posts SET title = ?, slug = ?, body = ?, author = ?, published = ?, published_at = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`, post.Title, post.Slug, post.Body, post.Author, post.Published, nullTime(post.PublishedAt), now, post.ID())
	if err != nil {
		return conflict(fmt.Errorf("failed to update post: %w", err), "post "+post.Slug)
	}

	return expectOne(result, "post", post.ID())
}

// Delete soft-deletes a post by ID
func (r *PostRepository) Delete(id string) error {
	return softDelete(r.db, "posts", "post", id)
}

// List retrieves posts, newest first. Criteria "published" (bool) filters by publish state.
func (r *PostRepository) List(criteria map[string]any) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE deleted_at IS NULL`
	args := []any{}

	if published, ok := criteria["published"].(bool); ok {
		query += " AND published = ?"
		args = append(args, published)
	}

	query += " ORDER BY sequence DESC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query posts: %w", err)
	}
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		post, err := r.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, post)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return posts, nil
}

func (r *PostRepository) scan(row rowScanner) (*models.Post, error) {
	var (
		id, title, slug, body, author string
		sequence                      int
		published                     bool
		publishedAt                   sql.NullTime
		createdAt, updatedAt          time.Time
		deletedAt                     sql.NullTime
	)

	err := row.Scan(&id, &sequence, &title, &slug, &body, &author, &published, &publishedAt, &createdAt, &updatedAt, &deletedAt)
	if err != nil {
		return nil, err
	}

	post := &models.Post{Title: title, Slug: slug, Body: body, Author: author, Published: published}
	if publishedAt.Valid {
		post.PublishedAt = &publishedAt.Time
	}
	post.SetID(id)
	post.SetSequence(sequence)
	post.SetCreatedAt(createdAt)
	post.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		post.SetDeletedAt(&deletedAt.Time)
	}
	return post, nil
}
