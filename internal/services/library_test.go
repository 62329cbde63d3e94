package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/songbook/internal/models"
	"github.com/desertthunder/songbook/internal/shared"
	"github.com/desertthunder/songbook/internal/similarity"
	tu "github.com/desertthunder/songbook/internal/testing"
)

func newTestLibrary(t *testing.T, entries ...models.LyricsEntry) (*Library, *tu.MemoryLyrics) {
	t.Helper()
	store := tu.NewMemoryLyrics(entries...)
	lib := NewLibrary(store, tu.NewMemoryArtists(), tu.NewMemoryPosts(), tu.NewMemoryStations(),
		Options{Logger: log.New(io.Discard)})
	return lib, store
}

func TestLibrarySubmit(t *testing.T) {
	ctx := context.Background()

	t.Run("Accepts New Lyrics As Pending", func(t *testing.T) {
		lib, store := newTestLibrary(t, tu.Entry("1", "Song", "A", "completely different words"))

		entry, err := lib.Submit(ctx, SubmitLyrics{
			Title:      " Yesterday ",
			Artist:     "The Beatles",
			Lyrics:     "all my troubles seemed so far away",
			YouTubeURL: "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		})
		if err != nil {
			t.Fatalf("expected submission to be accepted, got %v", err)
		}
		if entry.Status != models.StatusPending {
			t.Errorf("expected pending, got %s", entry.Status)
		}
		if entry.Title != "Yesterday" {
			t.Errorf("expected trimmed title, got %q", entry.Title)
		}

		all, _ := store.All()
		if len(all) != 2 {
			t.Errorf("expected 2 stored entries, got %d", len(all))
		}
	})

	t.Run("Rejects Near Duplicate", func(t *testing.T) {
		lib, store := newTestLibrary(t,
			tu.Entry("1", "Other", "B", "nothing alike at all"),
			tu.Entry("2", "Hello", "A", "Hello   World\nagain"),
		)

		_, err := lib.Submit(ctx, SubmitLyrics{Title: "Hello", Artist: "A", Lyrics: "hello world again"})
		if !errors.Is(err, ErrDuplicate) {
			t.Fatalf("expected ErrDuplicate, got %v", err)
		}

		var dupErr *DuplicateError
		if !errors.As(err, &dupErr) {
			t.Fatalf("expected *DuplicateError, got %T", err)
		}
		if len(dupErr.Matches) != 1 || dupErr.Matches[0].Entry.ID() != "2" {
			t.Errorf("expected a single match on entry 2, got %+v", dupErr.Matches)
		}
		if dupErr.Matches[0].Score != 1 {
			t.Errorf("expected score 1, got %v", dupErr.Matches[0].Score)
		}

		all, _ := store.All()
		if len(all) != 2 {
			t.Errorf("duplicate must not be stored, have %d entries", len(all))
		}
	})

	t.Run("Score Equal To Strict Threshold Is Accepted", func(t *testing.T) {
		lib, _ := newTestLibrary(t, tu.Entry("1", "Song", "A", "abcdefghij"))

		if _, err := lib.Submit(ctx, SubmitLyrics{Title: "Song", Artist: "A", Lyrics: "abcdefghiX"}); err != nil {
			t.Fatalf("score of exactly 0.9 should pass the strict guard, got %v", err)
		}
	})

	t.Run("Guards Against Every Status", func(t *testing.T) {
		private := tu.Entry("1", "Song", "A", "same words here")
		private.Status = models.StatusPrivate
		lib, _ := newTestLibrary(t, private)

		if _, err := lib.Submit(ctx, SubmitLyrics{Title: "Song", Artist: "A", Lyrics: "same words here"}); !errors.Is(err, ErrDuplicate) {
			t.Fatalf("expected ErrDuplicate against private entry, got %v", err)
		}
	})

	t.Run("Empty Lyrics Never Match", func(t *testing.T) {
		lib, _ := newTestLibrary(t, tu.Entry("1", "Song", "A", ""))

		if _, err := lib.Submit(ctx, SubmitLyrics{Title: "Song", Artist: "A", Lyrics: "  "}); err != nil {
			t.Fatalf("blank lyrics score 0 and should be accepted, got %v", err)
		}
	})

	t.Run("Validation Error", func(t *testing.T) {
		lib, _ := newTestLibrary(t)

		_, err := lib.Submit(ctx, SubmitLyrics{Title: "", Artist: "A", Lyrics: "words"})
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput, got %v", err)
		}

		_, err = lib.Submit(ctx, SubmitLyrics{Title: "T", Artist: "A", YouTubeURL: "https://vimeo.com/1"})
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput for non-YouTube link, got %v", err)
		}
	})

	t.Run("Store Error", func(t *testing.T) {
		lib, store := newTestLibrary(t)
		store.Err = tu.ErrStore

		if _, err := lib.Submit(ctx, SubmitLyrics{Title: "T", Artist: "A", Lyrics: "w"}); !errors.Is(err, tu.ErrStore) {
			t.Fatalf("expected store error, got %v", err)
		}
	})

	t.Run("Canceled Context", func(t *testing.T) {
		lib, _ := newTestLibrary(t)
		canceled, cancel := context.WithCancel(ctx)
		cancel()

		if _, err := lib.Submit(canceled, SubmitLyrics{Title: "T", Artist: "A", Lyrics: "w"}); !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	})
}

func TestLibraryModeration(t *testing.T) {
	ctx := context.Background()

	t.Run("Approve And MakePrivate", func(t *testing.T) {
		lib, _ := newTestLibrary(t, tu.Entry("1", "Song", "A", "words"))

		if err := lib.Approve(ctx, "1"); err != nil {
			t.Fatalf("approve failed: %v", err)
		}
		approved, _ := lib.Lyrics(ctx, models.StatusApproved, "")
		if len(approved) != 1 {
			t.Errorf("expected 1 approved entry, got %d", len(approved))
		}

		if err := lib.MakePrivate(ctx, "1"); err != nil {
			t.Fatalf("make private failed: %v", err)
		}
		entry, _ := lib.Entry(ctx, "1")
		if entry.Status != models.StatusPrivate {
			t.Errorf("expected private, got %s", entry.Status)
		}
	})

	t.Run("Missing Entry", func(t *testing.T) {
		lib, _ := newTestLibrary(t)

		if err := lib.Approve(ctx, "missing"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
		if err := lib.Reject(ctx, "missing"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Logs Carry Component", func(t *testing.T) {
		var buf bytes.Buffer
		lib := NewLibrary(tu.NewMemoryLyrics(tu.Entry("1", "Song", "A", "words")), tu.NewMemoryArtists(),
			tu.NewMemoryPosts(), tu.NewMemoryStations(), Options{Logger: log.New(&buf)})

		if err := lib.Approve(ctx, "1"); err != nil {
			t.Fatalf("approve failed: %v", err)
		}
		out := buf.String()
		if !strings.Contains(out, "component=library") || strings.Contains(out, "missing value") {
			t.Errorf("expected component=library in log output, got %q", out)
		}
	})

	t.Run("Invalid Status Filter", func(t *testing.T) {
		lib, _ := newTestLibrary(t)

		if _, err := lib.Lyrics(ctx, models.Status("archived"), ""); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("Update Applies Only Given Fields", func(t *testing.T) {
		lib, _ := newTestLibrary(t, tu.Entry("1", "Song", "A", "old words"))

		lyrics := "new words"
		entry, err := lib.Update(ctx, "1", LyricsUpdate{Lyrics: &lyrics})
		if err != nil {
			t.Fatalf("update failed: %v", err)
		}
		if entry.Lyrics != "new words" || entry.Title != "Song" || entry.Artist != "A" {
			t.Errorf("unexpected entry after update: %+v", entry)
		}

		blank := ""
		if _, err := lib.Update(ctx, "1", LyricsUpdate{Title: &blank}); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput for blank title, got %v", err)
		}
	})
}

func TestLibraryDuplicates(t *testing.T) {
	ctx := context.Background()

	t.Run("Loose Scan Across Statuses", func(t *testing.T) {
		approved := tu.Entry("1", "Song", "A", "hello world")
		approved.Status = models.StatusApproved
		lib, _ := newTestLibrary(t, approved, tu.Entry("2", "Song", "B", "hello world"), tu.Entry("3", "Other", "C", "xyz"))

		candidates, err := lib.Duplicates(ctx, lib.LoosePolicy(), nil)
		if err != nil {
			t.Fatalf("scan failed: %v", err)
		}
		if len(candidates) != 1 {
			t.Fatalf("expected 1 candidate, got %d", len(candidates))
		}
		if candidates[0].A.ID() != "1" || candidates[0].B.ID() != "2" || candidates[0].Percent() != 100 {
			t.Errorf("unexpected candidate %+v", candidates[0])
		}
	})

	t.Run("Rejected Entries Drop Out", func(t *testing.T) {
		lib, _ := newTestLibrary(t, tu.Entry("1", "S", "A", "hello world"), tu.Entry("2", "S", "B", "hello world"))

		if err := lib.Reject(ctx, "2"); err != nil {
			t.Fatalf("reject failed: %v", err)
		}
		candidates, _ := lib.Duplicates(ctx, lib.LoosePolicy(), nil)
		if len(candidates) != 0 {
			t.Errorf("expected no candidates after reject, got %d", len(candidates))
		}
	})

	t.Run("Scorer Override", func(t *testing.T) {
		// one leading character shifts every offset, so only the bigram scorer sees the likeness
		lib, _ := newTestLibrary(t, tu.Entry("1", "S", "A", "the quick brown fox"), tu.Entry("2", "S", "B", "xthe quick brown fox"))

		positional, _ := lib.Duplicates(ctx, lib.LoosePolicy(), nil)
		if len(positional) != 0 {
			t.Errorf("expected no positional candidates, got %d", len(positional))
		}

		dice, _ := lib.Duplicates(ctx, lib.LoosePolicy(), similarity.Dice)
		if len(dice) != 1 {
			t.Errorf("expected 1 dice candidate, got %d", len(dice))
		}
	})

	t.Run("Dismiss Persists Nothing", func(t *testing.T) {
		lib, _ := newTestLibrary(t, tu.Entry("1", "S", "A", "hello world"), tu.Entry("2", "S", "B", "hello world"))

		if err := lib.Dismiss(ctx, "1", "2"); err != nil {
			t.Fatalf("dismiss failed: %v", err)
		}
		candidates, _ := lib.Duplicates(ctx, lib.LoosePolicy(), nil)
		if len(candidates) != 1 {
			t.Errorf("dismissed pair should be reported again, got %d candidates", len(candidates))
		}

		if err := lib.Dismiss(ctx, "1", ""); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("Check Does Not Store", func(t *testing.T) {
		lib, store := newTestLibrary(t, tu.Entry("1", "S", "A", "hello world"))

		matches, err := lib.Check(ctx, "HELLO WORLD")
		if err != nil {
			t.Fatalf("check failed: %v", err)
		}
		if len(matches) != 1 {
			t.Errorf("expected 1 match, got %d", len(matches))
		}
		all, _ := store.All()
		if len(all) != 1 {
			t.Errorf("check must not store, have %d entries", len(all))
		}
	})

	t.Run("Pair", func(t *testing.T) {
		lib, _ := newTestLibrary(t, tu.Entry("1", "S", "A", "a"), tu.Entry("2", "S", "B", "b"))

		a, b, err := lib.Pair(ctx, "1", "2")
		if err != nil {
			t.Fatalf("pair failed: %v", err)
		}
		if a.Lyrics != "a" || b.Lyrics != "b" {
			t.Errorf("unexpected pair %q %q", a.Lyrics, b.Lyrics)
		}
		if _, _, err := lib.Pair(ctx, "1", "missing"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestOptionsFromConfig(t *testing.T) {
	logger := log.New(io.Discard)

	t.Run("Defaults", func(t *testing.T) {
		opts, err := OptionsFromConfig(shared.DuplicatesConfig{}, logger)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if opts.Loose != similarity.LooseScan || opts.Strict != similarity.StrictGuard {
			t.Errorf("expected built-in policies, got %+v %+v", opts.Loose, opts.Strict)
		}
		if opts.Scorer("ab", "ab") != 1 {
			t.Error("expected a working default scorer")
		}
	})

	t.Run("Overrides", func(t *testing.T) {
		opts, err := OptionsFromConfig(shared.DuplicatesConfig{Scorer: "dice", LooseThreshold: 0.5, StrictThreshold: 0.95}, logger)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if opts.Loose.Threshold != 0.5 || opts.Loose.Strict {
			t.Errorf("unexpected loose policy %+v", opts.Loose)
		}
		if opts.Strict.Threshold != 0.95 || !opts.Strict.Strict {
			t.Errorf("unexpected strict policy %+v", opts.Strict)
		}
	})

	t.Run("Unknown Scorer", func(t *testing.T) {
		_, err := OptionsFromConfig(shared.DuplicatesConfig{Scorer: "soundex"}, logger)
		if !errors.Is(err, similarity.ErrUnknownScorer) || !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrUnknownScorer wrapped in ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("Threshold Above One", func(t *testing.T) {
		_, err := OptionsFromConfig(shared.DuplicatesConfig{StrictThreshold: 1.5}, logger)
		if !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}

func TestLibraryCatalog(t *testing.T) {
	ctx := context.Background()

	t.Run("Artists", func(t *testing.T) {
		lib, _ := newTestLibrary(t)

		artist, err := lib.CreateArtist(ctx, NewArtist{Name: "Nina Simone", Bio: "soul"})
		if err != nil {
			t.Fatalf("create artist failed: %v", err)
		}
		if artist.Slug != "nina-simone" {
			t.Errorf("expected slug nina-simone, got %s", artist.Slug)
		}

		if _, err := lib.CreateArtist(ctx, NewArtist{Name: "nina simone"}); !errors.Is(err, shared.ErrConflict) {
			t.Errorf("expected ErrConflict for duplicate slug, got %v", err)
		}

		got, err := lib.Artist(ctx, "nina-simone")
		if err != nil || got.Bio != "soul" {
			t.Errorf("unexpected artist lookup %+v %v", got, err)
		}

		list, _ := lib.Artists(ctx, "nin")
		if len(list) != 1 {
			t.Errorf("expected 1 artist by prefix, got %d", len(list))
		}
	})

	t.Run("Posts", func(t *testing.T) {
		lib, _ := newTestLibrary(t)

		draft, err := lib.CreatePost(ctx, NewPost{Title: "Draft Notes", Body: "soon"})
		if err != nil {
			t.Fatalf("create post failed: %v", err)
		}
		if draft.Published || draft.PublishedAt != nil {
			t.Error("draft should not be published")
		}

		if _, err := lib.CreatePost(ctx, NewPost{Title: "Launch", Body: "hi", Publish: true}); err != nil {
			t.Fatalf("create post failed: %v", err)
		}

		published, _ := lib.Posts(ctx, true)
		if len(published) != 1 || published[0].Slug != "launch" {
			t.Errorf("expected only the launch post, got %d", len(published))
		}

		post, err := lib.PublishPost(ctx, draft.ID())
		if err != nil {
			t.Fatalf("publish failed: %v", err)
		}
		first := *post.PublishedAt

		time.Sleep(time.Millisecond)
		again, err := lib.PublishPost(ctx, draft.ID())
		if err != nil {
			t.Fatalf("republish failed: %v", err)
		}
		if !again.PublishedAt.Equal(first) {
			t.Errorf("republishing should keep the first date, got %v want %v", again.PublishedAt, first)
		}

		all, _ := lib.Posts(ctx, false)
		if len(all) != 2 {
			t.Errorf("expected 2 posts, got %d", len(all))
		}
	})

	t.Run("Stations", func(t *testing.T) {
		lib, _ := newTestLibrary(t)

		station, err := lib.CreateStation(ctx, NewStation{Name: "Jazz24", StreamURL: "https://live.jazz24.org/stream", Genre: "Jazz", Country: "us"})
		if err != nil {
			t.Fatalf("create station failed: %v", err)
		}
		if station.Genre != "jazz" || station.Country != "US" {
			t.Errorf("expected normalized genre and country, got %s %s", station.Genre, station.Country)
		}

		if _, err := lib.CreateStation(ctx, NewStation{Name: "Bad", StreamURL: "ftp://x"}); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}

		list, _ := lib.Stations(ctx, "jazz", "")
		if len(list) != 1 {
			t.Errorf("expected 1 jazz station, got %d", len(list))
		}

		if err := lib.RemoveStation(ctx, station.ID()); err != nil {
			t.Fatalf("remove failed: %v", err)
		}
		list, _ = lib.Stations(ctx, "", "")
		if len(list) != 0 {
			t.Errorf("expected empty directory, got %d", len(list))
		}
	})
}
