// package tasks implements bulk lyrics operations: dump import, export and multi-scorer duplicate reports.
//
// Operations emit progress updates via channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/desertthunder/songbook/internal/models"
	"github.com/desertthunder/songbook/internal/services"
	"github.com/desertthunder/songbook/internal/similarity"
)

// Record is one lyrics row in a JSON dump. Lyrics may be null in dumps taken from the hosted backend.
type Record struct {
	ID          string     `json:"id,omitempty"`
	Title       string     `json:"title"`
	Artist      string     `json:"artist"`
	Lyrics      *string    `json:"lyrics"`
	Status      string     `json:"status,omitempty"`
	YouTubeURL  string     `json:"youtube_url,omitempty"`
	SubmittedBy string     `json:"submitted_by,omitempty"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
}

// RecordOf converts a stored entry to its dump shape.
func RecordOf(e *models.LyricsEntry) Record {
	lyrics := e.Lyrics
	created := e.CreatedAt()
	return Record{
		ID:          e.ID(),
		Title:       e.Title,
		Artist:      e.Artist,
		Lyrics:      &lyrics,
		Status:      string(e.Status),
		YouTubeURL:  e.YouTubeURL,
		SubmittedBy: e.SubmittedBy,
		CreatedAt:   &created,
	}
}

// entry converts a record to a new, unsaved entry. Null lyrics become the empty string and a
// missing status becomes pending.
func (r Record) entry() (*models.LyricsEntry, error) {
	lyrics := ""
	if r.Lyrics != nil {
		lyrics = *r.Lyrics
	}

	e := models.NewLyricsEntry(r.Title, r.Artist, lyrics)
	if strings.TrimSpace(r.Status) != "" {
		status, err := models.ParseStatus(r.Status)
		if err != nil {
			return nil, err
		}
		e.Status = status
	}
	e.YouTubeURL = strings.TrimSpace(r.YouTubeURL)
	e.SubmittedBy = strings.TrimSpace(r.SubmittedBy)
	if r.CreatedAt != nil && !r.CreatedAt.IsZero() {
		e.SetCreatedAt(r.CreatedAt.UTC())
	}
	return e, e.Validate()
}

// ImportOptions controls duplicate handling during import.
type ImportOptions struct {
	SkipDuplicates bool              // skip records the policy flags against stored or already imported entries
	Policy         similarity.Policy // defaults to [similarity.StrictGuard]
	Scorer         similarity.Scorer // defaults to [similarity.Positional]
}

// RecordError describes a record that could not be imported.
type RecordError struct {
	Index int
	Title string
	Err   error
}

// ImportResult summarizes an import.
type ImportResult struct {
	Total   int
	Created int
	Skipped int
	Failed  int
	Errors  []RecordError
}

// Importer loads lyrics dumps into a store.
type Importer struct {
	store services.LyricsStore
	opts  ImportOptions
}

// NewImporter creates an Importer writing to store.
func NewImporter(store services.LyricsStore, opts ImportOptions) *Importer {
	if opts.Policy.Name == "" {
		opts.Policy = similarity.StrictGuard
	}
	if opts.Scorer == nil {
		opts.Scorer = similarity.Positional
	}
	return &Importer{store: store, opts: opts}
}

// Import reads a JSON array of [Record] values from r and creates one entry per record.
//
// Invalid records are counted as failed and do not stop the import. A decode error, a store
// read error or context cancellation does.
func (i *Importer) Import(ctx context.Context, r io.Reader, progress chan<- ProgressUpdate) (*ImportResult, error) {
	var records []Record
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to decode dump: %w", err)
	}
	sendProgress(progress, readDumpUpdate(len(records)))

	result := &ImportResult{Total: len(records)}

	var corpus []models.LyricsEntry
	if i.opts.SkipDuplicates {
		existing, err := i.store.All()
		if err != nil {
			return nil, fmt.Errorf("failed to load existing lyrics: %w", err)
		}
		corpus = existing
	}

	for idx, rec := range records {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		step := idx + 1
		entry, err := rec.entry()
		if err != nil {
			result.fail(idx, rec, err)
			sendProgress(progress, importFailedUpdate(step, len(records), rec, err))
			continue
		}

		if i.opts.SkipDuplicates {
			if matches := similarity.Guard(entry.Lyrics, corpus, i.opts.Policy, i.opts.Scorer); len(matches) > 0 {
				result.Skipped++
				sendProgress(progress, skippedUpdate(step, len(records), rec, matches[0].Entry.ID()))
				continue
			}
		}

		if err := i.store.Create(entry); err != nil {
			result.fail(idx, rec, err)
			sendProgress(progress, importFailedUpdate(step, len(records), rec, err))
			continue
		}

		result.Created++
		if i.opts.SkipDuplicates {
			corpus = append(corpus, *entry)
		}
		sendProgress(progress, importedUpdate(step, len(records), rec))
	}

	return result, nil
}

func (r *ImportResult) fail(idx int, rec Record, err error) {
	r.Failed++
	r.Errors = append(r.Errors, RecordError{Index: idx, Title: rec.Title, Err: err})
}

// Exporter writes lyrics dumps.
type Exporter struct {
	store services.LyricsStore
}

// NewExporter creates an Exporter reading from store.
func NewExporter(store services.LyricsStore) *Exporter {
	return &Exporter{store: store}
}

// Export writes every live entry to w as an indented JSON array of [Record] values, in sequence order.
// The output is accepted by [Importer.Import].
func (e *Exporter) Export(ctx context.Context, w io.Writer, progress chan<- ProgressUpdate) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	entries, err := e.store.List(map[string]any{})
	if err != nil {
		return 0, fmt.Errorf("failed to list lyrics: %w", err)
	}

	records := make([]Record, 0, len(entries))
	for _, entry := range entries {
		records = append(records, RecordOf(entry))
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return 0, fmt.Errorf("failed to write dump: %w", err)
	}

	sendProgress(progress, exportedUpdate(len(records)))
	return len(records), nil
}
