// Package repositories implements SQLite persistence for all domain entities.
//
// Each repository handles CRUD operations with atomic sequence generation for human-readable ordering.
// All repositories support soft deletes via deleted_at timestamps and exclude deleted records from queries by default.
//
// Key Implementations:
//   - [LyricsRepository] : Lyrics submissions with status filtering and the full-table feed for duplicate scans
//   - [ArtistRepository] : Artist biographies with slug lookups
//   - [PostRepository] : Blog posts with slug lookups and publish filtering
//   - [StationRepository] : Internet radio directory with genre and country filters
//
// Missing rows are reported as [shared.ErrNotFound] and unique slug collisions as [shared.ErrConflict],
// both wrapped so callers can match them with [errors.Is].
package repositories
