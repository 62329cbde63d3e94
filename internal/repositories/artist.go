package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/songbook/internal/models"
	"github.com/desertthunder/songbook/internal/shared"
)

const artistColumns = `id, sequence, name, slug, bio, image_url, created_at, updated_at, deleted_at`

// ArtistRepository implements models.Repository[*models.Artist] for artist biographies.
type ArtistRepository struct {
	db *sql.DB
}

// NewArtistRepository creates a new ArtistRepository with the given database connection
func NewArtistRepository(db *sql.DB) *ArtistRepository {
	return &ArtistRepository{db: db}
}

// Create inserts a new [models.Artist]. A taken slug returns [shared.ErrConflict].
func (r *ArtistRepository) Create(artist *models.Artist) error {
	if err := artist.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "artists")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	artist.SetID(shared.GenerateID())
	artist.SetSequence(sequence)

	_, err = r.db.Exec(`
		INSERT INTO artists (id, sequence, name, slug, bio, image_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, artist.ID(), sequence, artist.Name, artist.Slug, artist.Bio, artist.ImageURL, artist.CreatedAt(), artist.UpdatedAt())
	if err != nil {
		return conflict(fmt.Errorf("failed to insert artist: %w", err), "artist "+artist.Slug)
	}

	return nil
}

// Get retrieves an artist by ID
func (r *ArtistRepository) Get(id string) (*models.Artist, error) {
	artist, err := r.scan(r.db.QueryRow(`SELECT `+artistColumns+` FROM artists WHERE id = ? AND deleted_at IS NULL`, id))
	if err != nil {
		return nil, notFound(err, "artist", id)
	}
	return artist, nil
}

// GetBySlug retrieves an artist by its URL slug
func (r *ArtistRepository) GetBySlug(slug string) (*models.Artist, error) {
	artist, err := r.scan(r.db.QueryRow(`SELECT `+artistColumns+` FROM artists WHERE slug = ? AND deleted_at IS NULL`, slug))
	if err != nil {
		return nil, notFound(err, "artist", slug)
	}
	return artist, nil
}

// Update modifies an existing artist
func (r *ArtistRepository) Update(artist *models.Artist) error {
	if err := artist.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now().UTC()
	artist.SetUpdatedAt(now)

	result, err := r.db.Exec(`
		UPDATE artists SET name = ?, slug = ?, bio = ?, image_url = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`, artist.Name, artist.Slug, artist.Bio, artist.ImageURL, now, artist.ID())
	if err != nil {
		return conflict(fmt.Errorf("failed to update artist: %w", err), "artist "+artist.Slug)
	}

	return expectOne(result, "artist", artist.ID())
}

// Delete soft-deletes an artist by ID
func (r *ArtistRepository) Delete(id string) error {
	return softDelete(r.db, "artists", "artist", id)
}

// List retrieves all artists ordered by sequence. Criteria "name" filters by prefix.
func (r *ArtistRepository) List(criteria map[string]any) ([]*models.Artist, error) {
	query := `SELECT ` + artistColumns + ` FROM artists WHERE deleted_at IS NULL`
	args := []any{}

	if name, ok := criteria["name"].(string); ok && name != "" {
		query += " AND name LIKE ? ESCAPE '\\'"
		args = append(args, escapeLike(name)+"%")
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query artists: %w", err)
	}
	defer rows.Close()

	var artists []*models.Artist
	for rows.Next() {
		artist, err := r.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan artist: %w", err)
		}
		artists = append(artists, artist)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return artists, nil
}

func (r *ArtistRepository) scan(row rowScanner) (*models.Artist, error) {
	var (
		id, name, slug, bio, imageURL string
		sequence                      int
		createdAt, updatedAt          time.Time
		deletedAt                     sql.NullTime
	)

	if err := row.Scan(&id, &sequence, &name, &slug, &bio, &imageURL, &createdAt, &updatedAt, &deletedAt); err != nil {
		return nil, err
	}

	artist := &models.Artist{Name: name, Slug: slug, Bio: bio, ImageURL: imageURL}
	artist.SetID(id)
	artist.SetSequence(sequence)
	artist.SetCreatedAt(createdAt)
	artist.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		artist.SetDeletedAt(&deletedAt.Time)
	}
	return artist, nil
}
