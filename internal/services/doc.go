// Package services implements the music library's use cases on top of storage interfaces.
//
// # Library
//
// [Library] is the single entry point used by the HTTP server, the CLI and the review TUI.
// It depends only on the store interfaces ([LyricsStore], [ArtistStore], [PostStore],
// [StationStore]), which the SQLite repositories implement.
//
// # Duplicate Detection
//
// Two policies from the similarity package are applied:
//   - [similarity.StrictGuard] : checked by [Library.Submit] before a submission is stored
//   - [similarity.LooseScan] : used by [Library.Duplicates] for the moderation report
//
// Both read every live entry regardless of status. The scorer and thresholds come from the duplicates
// config section via [OptionsFromConfig].
//
// Dismissing a flagged pair ([Library.Dismiss]) is acknowledged and logged only; the pair is
// reported again by the next scan.
//
// # Client
//
// [Client] makes raw requests against a running songbook server and backs the CLI's remote
// commands.
//
// # Error Handling
//
// Errors from stores are returned wrapped so callers can match them with errors.Is:
//   - [shared.ErrNotFound] : unknown or deleted ID or slug
//   - [shared.ErrInvalidInput] : validation failures
//   - [shared.ErrConflict] : slug already taken
//   - [ErrDuplicate] : submission rejected by the strict guard, as a [*DuplicateError]
package services
