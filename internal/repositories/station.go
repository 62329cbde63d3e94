package repositories

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/songbook/internal/models"
	"github.com/desertthunder/songbook/internal/shared"
)

const stationColumns = `id, sequence, name, stream_url, genre, country, homepage, created_at, updated_at, deleted_at`

// StationRepository implements models.Repository[*models.Station] for the radio directory.
type StationRepository struct {
	db *sql.DB
}

// NewStationRepository creates a new StationRepository with the given database connection
func NewStationRepository(db *sql.DB) *StationRepository {
	return &StationRepository{db: db}
}

// Create inserts a new [models.Station]
func (r *StationRepository) Create(station *models.Station) error {
	if err := station.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "stations")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	station.SetID(shared.GenerateID())
	station.SetSequence(sequence)

	_, err = r.db.Exec(`
		INSERT INTO stations (id, sequence, name, stream_url, genre, country, homepage, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, station.ID(), sequence, station.Name, station.StreamURL, station.Genre, station.Country, station.Homepage,
		station.CreatedAt(), station.UpdatedAt())
	if err != nil {
		return fmt.Errorf("failed to insert station: %w", err)
	}

	return nil
}

// Get retrieves a station by ID
func (r *StationRepository) Get(id string) (*models.Station, error) {
	station, err := r.scan(r.db.QueryRow(`SELECT `+stationColumns+` FROM stations WHERE id = ? AND deleted_at IS NULL`, id))
	if err != nil {
		return nil, notFound(err, "station", id)
	}
	return station, nil
}

// Update modifies an existing station
func (r *StationRepository) Update(station *models.Station) error {
	if err := station.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now().UTC()
	station.SetUpdatedAt(now)

	result, err := r.db.Exec(`
		UPDATE stations SET name = ?, stream_url = ?, genre = ?, country = ?, homepage = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`, station.Name, station.StreamURL, station.Genre, station.Country, station.Homepage, now, station.ID())
	if err != nil {
		return fmt.Errorf("failed to update station: %w", err)
	}

	return expectOne(result, "station", station.ID())
}

// Delete soft-deletes a station by ID
func (r *StationRepository) Delete(id string) error {
	return softDelete(r.db, "stations", "station", id)
}

// List retrieves stations ordered by name. Criteria "genre" and "country" filter exactly.
func (r *StationRepository) List(criteria map[string]any) ([]*models.Station, error) {
	query := `SELECT ` + stationColumns + ` FROM stations WHERE deleted_at IS NULL`
	args := []any{}

	if genre, ok := criteria["genre"].(string); ok && genre != "" {
		query += " AND genre = ?"
		args = append(args, strings.ToLower(genre))
	}

	if country, ok := criteria["country"].(string); ok && country != "" {
		query += " AND country = ?"
		args = append(args, strings.ToUpper(country))
	}

	query += " ORDER BY name COLLATE NOCASE ASC, sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query stations: %w", err)
	}
	defer rows.Close()

	var stations []*models.Station
	for rows.Next() {
		station, err := r.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan station: %w", err)
		}
		stations = append(stations, station)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return stations, nil
}

func (r *StationRepository) scan(row rowScanner) (*models.Station, error) {
	var (
		id, name, streamURL, genre, country, homepage string
		sequence                                      int
		createdAt, updatedAt                          time.Time
		deletedAt                                     sql.NullTime
	)

	err := row.Scan(&id, &sequence, &name, &streamURL, &genre, &country, &homepage, &createdAt, &updatedAt, &deletedAt)
	if err != nil {
		return nil, err
	}

	station := &models.Station{Name: name, StreamURL: streamURL, Genre: genre, Country: country, Homepage: homepage}
	station.SetID(id)
	station.SetSequence(sequence)
	station.SetCreatedAt(createdAt)
	station.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		station.SetDeletedAt(&deletedAt.Time)
	}
	return station, nil
}
