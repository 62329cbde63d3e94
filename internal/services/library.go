package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/songbook/internal/models"
	"github.com/desertthunder/songbook/internal/shared"
	"github.com/desertthunder/songbook/internal/similarity"
)

// ErrDuplicate is returned when a submission nearly repeats an existing entry.
var ErrDuplicate = errors.New("lyrics duplicate an existing entry")

// DuplicateError carries the existing entries a rejected submission matched.
type DuplicateError struct {
	Policy  similarity.Policy
	Matches []similarity.Match
}

func (e *DuplicateError) Error() string {
	best := 0.0
	for _, m := range e.Matches {
		best = max(best, m.Score)
	}
	return fmt.Sprintf("%s: %d match(es) above %s threshold %.2f (best %.2f%%)",
		ErrDuplicate, len(e.Matches), e.Policy.Name, e.Policy.Threshold, best*100)
}

func (e *DuplicateError) Unwrap() error { return ErrDuplicate }

// Options configures duplicate detection for a [Library].
type Options struct {
	Scorer similarity.Scorer
	Loose  similarity.Policy
	Strict similarity.Policy
	Logger *log.Logger
}

// OptionsFromConfig resolves the configured scorer and thresholds.
//
// Zero thresholds keep the built-in [similarity.LooseScan] and [similarity.StrictGuard] values.
func OptionsFromConfig(cfg shared.DuplicatesConfig, logger *log.Logger) (Options, error) {
	scorer, err := similarity.ScorerByName(cfg.Scorer)
	if err != nil {
		return Options{}, fmt.Errorf("%w: duplicates.scorer: %w", shared.ErrInvalidConfig, err)
	}

	opts := Options{
		Scorer: scorer,
		Loose:  similarity.LooseScan,
		Strict: similarity.StrictGuard,
		Logger: logger,
	}
	if cfg.LooseThreshold > 0 {
		opts.Loose = opts.Loose.WithThreshold(cfg.LooseThreshold)
	}
	if cfg.StrictThreshold > 0 {
		opts.Strict = opts.Strict.WithThreshold(cfg.StrictThreshold)
	}

	for _, p := range []similarity.Policy{opts.Loose, opts.Strict} {
		if p.Threshold > 1 {
			return Options{}, fmt.Errorf("%w: %s threshold %.2f exceeds 1", shared.ErrInvalidConfig, p.Name, p.Threshold)
		}
	}
	return opts, nil
}

// Library is the music library: lyrics moderation with duplicate detection, plus artist bios,
// the blog and the radio directory.
type Library struct {
	lyrics   LyricsStore
	artists  ArtistStore
	posts    PostStore
	stations StationStore

	scorer similarity.Scorer
	loose  similarity.Policy
	strict similarity.Policy
	logger *log.Logger
}

// NewLibrary wires the stores together. Zero-valued options fall back to the positional scorer
// and the built-in policies.
func NewLibrary(lyrics LyricsStore, artists ArtistStore, posts PostStore, stations StationStore, opts Options) *Library {
	l := &Library{
		lyrics:   lyrics,
		artists:  artists,
		posts:    posts,
		stations: stations,
		scorer:   opts.Scorer,
		loose:    opts.Loose,
		strict:   opts.Strict,
		logger:   opts.Logger,
	}

	if l.scorer == nil {
		l.scorer = similarity.Positional
	}
	if l.loose.Name == "" {
		l.loose = similarity.LooseScan
	}
	if l.strict.Name == "" {
		l.strict = similarity.StrictGuard
	}
	if l.logger == nil {
		l.logger = shared.NewLogger(nil)
	}
	l.logger = shared.WithLogger(l.logger, "component", "library")
	return l
}

// LoosePolicy returns the policy used for the admin duplicate report.
func (l *Library) LoosePolicy() similarity.Policy { return l.loose }

// StrictPolicy returns the policy used to guard new submissions.
func (l *Library) StrictPolicy() similarity.Policy { return l.strict }

// Scorer returns the configured similarity scorer.
func (l *Library) Scorer() similarity.Scorer { return l.scorer }

// Check runs the submission guard against text without storing anything.
func (l *Library) Check(ctx context.Context, text string) ([]similarity.Match, error) {
	existing, err := l.corpus(ctx)
	if err != nil {
		return nil, err
	}
	return similarity.Guard(text, existing, l.strict, l.scorer), nil
}

// Submit validates a public submission, rejects near-duplicates of any existing entry and stores
// the rest as pending.
func (l *Library) Submit(ctx context.Context, in SubmitLyrics) (*models.LyricsEntry, error) {
	entry := models.NewLyricsEntry(in.Title, in.Artist, in.Lyrics)
	entry.YouTubeURL = strings.TrimSpace(in.YouTubeURL)
	entry.SubmittedBy = strings.TrimSpace(in.SubmittedBy)

	if err := entry.Validate(); err != nil {
		return nil, err
	}

	matches, err := l.Check(ctx, entry.Lyrics)
	if err != nil {
		return nil, err
	}
	if len(matches) > 0 {
		l.logger.Warn("submission rejected as duplicate", "title", entry.Title, "artist", entry.Artist,
			"matches", len(matches), "closest", matches[0].Entry.ID())
		return nil, &DuplicateError{Policy: l.strict, Matches: matches}
	}

	if err := l.lyrics.Create(entry); err != nil {
		return nil, fmt.Errorf("failed to store submission: %w", err)
	}

	l.logger.Info("lyrics submitted", "id", entry.ID(), "title", entry.Title, "artist", entry.Artist)
	return entry, nil
}

// Lyrics lists entries. An empty status lists every status.
func (l *Library) Lyrics(ctx context.Context, status models.Status, artist string) ([]*models.LyricsEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if status != "" {
		if _, err := models.ParseStatus(string(status)); err != nil {
			return nil, err
		}
	}
	return l.lyrics.List(map[string]any{"status": status, "artist": artist})
}

// Entry returns one lyrics entry.
func (l *Library) Entry(ctx context.Context, id string) (*models.LyricsEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return l.lyrics.Get(id)
}

// Approve publishes an entry.
func (l *Library) Approve(ctx context.Context, id string) error {
	return l.setStatus(ctx, id, models.StatusApproved)
}

// MakePrivate hides an entry from the public listing without deleting it.
func (l *Library) MakePrivate(ctx context.Context, id string) error {
	return l.setStatus(ctx, id, models.StatusPrivate)
}

func (l *Library) setStatus(ctx context.Context, id string, status models.Status) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := l.lyrics.SetStatus(id, status); err != nil {
		return err
	}
	l.logger.Info("lyrics status changed", "id", id, "status", status)
	return nil
}

// Reject deletes an entry. Deleted entries drop out of every listing and scan.
func (l *Library) Reject(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := l.lyrics.Delete(id); err != nil {
		return err
	}
	l.logger.Info("lyrics rejected", "id", id)
	return nil
}

// Update applies admin edits to an entry.
func (l *Library) Update(ctx context.Context, id string, in LyricsUpdate) (*models.LyricsEntry, error) {
	entry, err := l.Entry(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		entry.Title = strings.TrimSpace(*in.Title)
	}
	if in.Artist != nil {
		entry.Artist = strings.TrimSpace(*in.Artist)
	}
	if in.Lyrics != nil {
		entry.Lyrics = *in.Lyrics
	}
	if in.YouTubeURL != nil {
		entry.YouTubeURL = strings.TrimSpace(*in.YouTubeURL)
	}

	if err := l.lyrics.Update(entry); err != nil {
		return nil, err
	}
	l.logger.Info("lyrics updated", "id", id)
	return entry, nil
}

// Duplicates scans every stored entry, whatever its status, under policy.
// A nil scorer uses the configured one.
func (l *Library) Duplicates(ctx context.Context, policy similarity.Policy, scorer similarity.Scorer) ([]similarity.Candidate, error) {
	entries, err := l.corpus(ctx)
	if err != nil {
		return nil, err
	}
	if scorer == nil {
		scorer = l.scorer
	}

	start := time.Now()
	candidates := similarity.ScanPolicy(entries, policy, scorer)
	l.logger.Debug("duplicate scan complete", "policy", policy.Name, "threshold", policy.Threshold,
		"entries", len(entries), "candidates", len(candidates), "elapsed", time.Since(start))
	return candidates, nil
}

// Pair loads two entries for side-by-side review.
func (l *Library) Pair(ctx context.Context, idA, idB string) (*models.LyricsEntry, *models.LyricsEntry, error) {
	a, err := l.Entry(ctx, idA)
	if err != nil {
		return nil, nil, err
	}
	b, err := l.Entry(ctx, idB)
	if err != nil {
		return nil, nil, err
	}
	return a, b, nil
}

// Dismiss acknowledges that a flagged pair is not a duplicate. Nothing is recorded, so the
// pair is reported again by the next scan.
func (l *Library) Dismiss(ctx context.Context, idA, idB string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(idA) == "" || strings.TrimSpace(idB) == "" {
		return fmt.Errorf("%w: dismiss needs two entry ids", shared.ErrMissingArgument)
	}
	l.logger.Info("duplicate pair dismissed", "a", idA, "b", idB)
	return nil
}

func (l *Library) corpus(ctx context.Context) ([]models.LyricsEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := l.lyrics.All()
	if err != nil {
		return nil, fmt.Errorf("failed to load lyrics: %w", err)
	}
	return entries, nil
}

// CreateArtist adds an artist bio.
func (l *Library) CreateArtist(ctx context.Context, in NewArtist) (*models.Artist, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	artist := models.NewArtist(in.Name, in.Bio)
	artist.ImageURL = strings.TrimSpace(in.ImageURL)
	if err := l.artists.Create(artist); err != nil {
		return nil, err
	}
	l.logger.Info("artist created", "id", artist.ID(), "slug", artist.Slug)
	return artist, nil
}

// Artists lists artists, optionally by name prefix.
func (l *Library) Artists(ctx context.Context, prefix string) ([]*models.Artist, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return l.artists.List(map[string]any{"name": prefix})
}

// Artist returns the artist with the given slug.
func (l *Library) Artist(ctx context.Context, slug string) (*models.Artist, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return l.artists.GetBySlug(slug)
}

// CreatePost adds a blog post, publishing it immediately when requested.
func (l *Library) CreatePost(ctx context.Context, in NewPost) (*models.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	post := models.NewPost(in.Title, in.Body, in.Author)
	if in.Publish {
		post.Publish(time.Now().UTC())
	}
	if err := l.posts.Create(post); err != nil {
		return nil, err
	}
	l.logger.Info("post created", "id", post.ID(), "slug", post.Slug, "published", post.Published)
	return post, nil
}

// Posts lists blog posts, newest first.
func (l *Library) Posts(ctx context.Context, publishedOnly bool) ([]*models.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	criteria := map[string]any{}
	if publishedOnly {
		criteria["published"] = true
	}
	return l.posts.List(criteria)
}

// Post returns the post with the given slug.
func (l *Library) Post(ctx context.Context, slug string) (*models.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return l.posts.GetBySlug(slug)
}

// PublishPost publishes a draft. Publishing an already published post keeps its original date.
func (l *Library) PublishPost(ctx context.Context, id string) (*models.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	post, err := l.posts.Get(id)
	if err != nil {
		return nil, err
	}
	post.Publish(time.Now().UTC())
	if err := l.posts.Update(post); err != nil {
		return nil, err
	}
	l.logger.Info("post published", "id", id, "at", post.PublishedAt)
	return post, nil
}

// CreateStation adds a radio station to the directory.
func (l *Library) CreateStation(ctx context.Context, in NewStation) (*models.Station, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	station := models.NewStation(in.Name, in.StreamURL, in.Genre, in.Country)
	station.Homepage = strings.TrimSpace(in.Homepage)
	if err := l.stations.Create(station); err != nil {
		return nil, err
	}
	l.logger.Info("station added", "id", station.ID(), "name", station.Name)
	return station, nil
}

// Stations lists the directory, optionally filtered by genre and country.
func (l *Library) Stations(ctx context.Context, genre, country string) ([]*models.Station, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return l.stations.List(map[string]any{"genre": genre, "country": country})
}

// RemoveStation deletes a station.
func (l *Library) RemoveStation(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := l.stations.Delete(id); err != nil {
		return err
	}
	l.logger.Info("station removed", "id", id)
	return nil
}
