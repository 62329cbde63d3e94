package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/songbook/internal/models"
	"github.com/desertthunder/songbook/internal/shared"
)

const lyricsColumns = `id, sequence, title, artist, lyrics, status, youtube_url, submitted_by, created_at, updated_at, deleted_at`

// LyricsRepository implements models.Repository[*models.LyricsEntry] for lyrics submissions.
type LyricsRepository struct {
	db *sql.DB
}

// NewLyricsRepository creates a new LyricsRepository with the given database connection
func NewLyricsRepository(db *sql.DB) *LyricsRepository {
	return &LyricsRepository{db: db}
}

// Create inserts a new [models.LyricsEntry] with generated ID and sequence
func (r *LyricsRepository) Create(entry *models.LyricsEntry) error {
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "lyrics")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	entry.SetID(shared.GenerateID())
	entry.SetSequence(sequence)

	query := `
		INSERT INTO lyrics (id, sequence, title, artist, lyrics, status, youtube_url, submitted_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		entry.ID(),
		sequence,
		entry.Title,
		entry.Artist,
		entry.Lyrics,
		string(entry.Status),
		entry.YouTubeURL,
		entry.SubmittedBy,
		entry.CreatedAt(),
		entry.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert lyrics: %w", err)
	}

	return nil
}

// Get retrieves an entry by ID, excluding soft-deleted entries
func (r *LyricsRepository) Get(id string) (*models.LyricsEntry, error) {
	query := `SELECT ` + lyricsColumns + ` FROM lyrics WHERE id = ? AND deleted_at IS NULL`

	entry, err := r.scan(r.db.QueryRow(query, id))
	if err != nil {
		return nil, notFound(err, "lyrics", id)
	}
	return entry, nil
}

// Update writes the editable fields of an entry
func (r *LyricsRepository) Update(entry *models.LyricsEntry) error {
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now().UTC()
	entry.SetUpdatedAt(now)

	query := `
		UPDATE lyrics
		SET title = ?, artist = ?, lyrics = ?, status = ?, youtube_url = ?, submitted_by = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		entry.Title,
		entry.Artist,
		entry.Lyrics,
		string(entry.Status),
		entry.YouTubeURL,
		entry.SubmittedBy,
		now,
		entry.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update lyrics: %w", err)
	}

	return expectOne(result, "lyrics", entry.ID())
}

// SetStatus moves an entry to a new moderation status
func (r *LyricsRepository) SetStatus(id string, status models.Status) error {
	if _, err := models.ParseStatus(string(status)); err != nil {
		return err
	}

	result, err := r.db.Exec(
		`UPDATE lyrics SET status = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`,
		string(status), time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update lyrics status: %w", err)
	}

	return expectOne(result, "lyrics", id)
}

// Delete soft-deletes an entry by ID
func (r *LyricsRepository) Delete(id string) error {
	return softDelete(r.db, "lyrics", "lyrics", id)
}

// List retrieves entries matching the given criteria ("status", "artist"), excluding soft-deleted entries
func (r *LyricsRepository) List(criteria map[string]any) ([]*models.LyricsEntry, error) {
	query := `SELECT ` + lyricsColumns + ` FROM lyrics WHERE deleted_at IS NULL`
	args := []any{}

	switch status := criteria["status"].(type) {
	case models.Status:
		if status != "" {
			query += " AND status = ?"
			args = append(args, string(status))
		}
	case string:
		if status != "" {
			query += " AND status = ?"
			args = append(args, status)
		}
	}

	if artist, ok := criteria["artist"].(string); ok && artist != "" {
		query += " AND artist = ? COLLATE NOCASE"
		args = append(args, artist)
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query lyrics: %w", err)
	}
	defer rows.Close()

	var entries []*models.LyricsEntry
	for rows.Next() {
		entry, err := r.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lyrics: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return entries, nil
}

// All returns every live entry regardless of status, as values ready for a duplicate scan.
func (r *LyricsRepository) All() ([]models.LyricsEntry, error) {
	entries, err := r.List(map[string]any{})
	if err != nil {
		return nil, err
	}

	out := make([]models.LyricsEntry, len(entries))
	for i, e := range entries {
		out[i] = *e
	}
	return out, nil
}

// Count returns the number of live entries per status.
func (r *LyricsRepository) Count() (map[models.Status]int, error) {
	rows, err := r.db.Query(`SELECT status, COUNT(*) FROM lyrics WHERE deleted_at IS NULL GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count lyrics: %w", err)
	}
	defer rows.Close()

	counts := map[models.Status]int{}
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[models.Status(status)] = n
	}
	return counts, rows.Err()
}

// scan reads one row. A NULL lyrics body becomes the empty string.
func (r *LyricsRepository) scan(row rowScanner) (*models.LyricsEntry, error) {
	var (
		id          string
		sequence    int
		title       string
		artist      string
		lyrics      sql.NullString
		status      string
		youtubeURL  string
		submittedBy string
		createdAt   time.Time
		updatedAt   time.Time
		deletedAt   sql.NullTime
	)

	err := row.Scan(&id, &sequence, &title, &artist, &lyrics, &status, &youtubeURL, &submittedBy, &createdAt, &updatedAt, &deletedAt)
	if err != nil {
		return nil, err
	}

	entry := &models.LyricsEntry{
		Title:       title,
		Artist:      artist,
		Lyrics:      lyrics.String,
		Status:      models.Status(status),
		YouTubeURL:  youtubeURL,
		SubmittedBy: submittedBy,
	}
	entry.SetID(id)
	entry.SetSequence(sequence)
	entry.SetCreatedAt(createdAt)
	entry.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		entry.SetDeletedAt(&deletedAt.Time)
	}

	return entry, nil
}
