package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/desertthunder/songbook/internal/models"
	"github.com/desertthunder/songbook/internal/services"
	"github.com/desertthunder/songbook/internal/shared"
	"github.com/desertthunder/songbook/internal/similarity"
	"github.com/desertthunder/songbook/internal/tasks"
	"github.com/urfave/cli/v3"
)

// LyricsList lists entries, optionally filtered by status and artist.
func (r *Runner) LyricsList(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(); err != nil {
		return err
	}

	var status models.Status
	if s := cmd.String("status"); s != "" {
		parsed, err := models.ParseStatus(s)
		if err != nil {
			return err
		}
		status = parsed
	}

	entries, err := r.library.Lyrics(ctx, status, cmd.String("artist"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(entries, true)
	}

	r.writePlainHeader(fmt.Sprintf("Lyrics (%d)", len(entries)))
	for _, e := range entries {
		r.writePlain("%s  %-8s  %s - %s\n", e.ID(), e.Status, e.Artist, e.Title)
	}
	return nil
}

// LyricsShow prints one entry.
func (r *Runner) LyricsShow(ctx context.Context, cmd *cli.Command) error {
	args, err := requireArgs(cmd, "id")
	if err != nil {
		return err
	}
	if err := r.open(); err != nil {
		return err
	}

	entry, err := r.library.Entry(ctx, args[0])
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(entry, true)
	}

	r.writePlainHeader(fmt.Sprintf("%s - %s", entry.Artist, entry.Title))
	r.writePlain("ID: %s\nStatus: %s\n", entry.ID(), entry.Status)
	if entry.YouTubeURL != "" {
		r.writePlain("Video: %s\n", entry.YouTubeURL)
	}
	if entry.SubmittedBy != "" {
		r.writePlain("Submitted by: %s\n", entry.SubmittedBy)
	}
	r.writePlain("\n%s\n", entry.Lyrics)
	return nil
}

// LyricsSubmit stores a new pending entry unless the strict guard flags it.
func (r *Runner) LyricsSubmit(ctx context.Context, cmd *cli.Command) error {
	text, err := r.readText(cmd)
	if err != nil {
		return err
	}
	if err := r.open(); err != nil {
		return err
	}

	entry, err := r.library.Submit(ctx, services.SubmitLyrics{
		Title:       cmd.String("title"),
		Artist:      cmd.String("artist"),
		Lyrics:      text,
		YouTubeURL:  cmd.String("youtube"),
		SubmittedBy: cmd.String("by"),
	})
	if err != nil {
		var dup *services.DuplicateError
		if errors.As(err, &dup) {
			r.writeMatches(dup.Policy, dup.Matches)
		}
		return err
	}

	r.writePlain("✓ Submitted %s - %s\n", entry.Artist, entry.Title)
	r.writePlain("ID: %s (pending)\n", entry.ID())
	return nil
}

// LyricsEdit applies admin edits to an entry. The strict guard is not re-run.
func (r *Runner) LyricsEdit(ctx context.Context, cmd *cli.Command) error {
	args, err := requireArgs(cmd, "id")
	if err != nil {
		return err
	}

	var in services.LyricsUpdate
	if cmd.IsSet("title") {
		in.Title = ptr(cmd.String("title"))
	}
	if cmd.IsSet("artist") {
		in.Artist = ptr(cmd.String("artist"))
	}
	if cmd.IsSet("youtube") {
		in.YouTubeURL = ptr(cmd.String("youtube"))
	}
	if cmd.IsSet("lyrics") || cmd.IsSet("file") {
		text, err := r.readText(cmd)
		if err != nil {
			return err
		}
		in.Lyrics = &text
	}
	if in == (services.LyricsUpdate{}) {
		return fmt.Errorf("%w: nothing to edit", shared.ErrMissingArgument)
	}

	if err := r.open(); err != nil {
		return err
	}
	entry, err := r.library.Update(ctx, args[0], in)
	if err != nil {
		return err
	}
	r.writePlain("✓ Updated %s - %s\n", entry.Artist, entry.Title)
	return nil
}

func ptr[T any](v T) *T { return &v }

// LyricsApprove publishes an entry.
func (r *Runner) LyricsApprove(ctx context.Context, cmd *cli.Command) error {
	return r.moderate(ctx, cmd, "approved", func(ctx context.Context, id string) error {
		return r.library.Approve(ctx, id)
	})
}

// LyricsPrivate hides an entry from the public listing.
func (r *Runner) LyricsPrivate(ctx context.Context, cmd *cli.Command) error {
	return r.moderate(ctx, cmd, "made private", func(ctx context.Context, id string) error {
		return r.library.MakePrivate(ctx, id)
	})
}

// LyricsReject deletes an entry.
func (r *Runner) LyricsReject(ctx context.Context, cmd *cli.Command) error {
	return r.moderate(ctx, cmd, "deleted", func(ctx context.Context, id string) error {
		return r.library.Reject(ctx, id)
	})
}

func (r *Runner) moderate(ctx context.Context, cmd *cli.Command, done string, action func(context.Context, string) error) error {
	args, err := requireArgs(cmd, "id")
	if err != nil {
		return err
	}
	if err := r.open(); err != nil {
		return err
	}

	if err := action(ctx, args[0]); err != nil {
		return err
	}
	r.writePlain("✓ %s %s\n", args[0], done)
	return nil
}

// statusCounter is implemented by stores that can count by status in one query.
type statusCounter interface {
	Count() (map[models.Status]int, error)
}

// LyricsStats prints the number of entries per status.
func (r *Runner) LyricsStats(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(); err != nil {
		return err
	}

	var counts map[models.Status]int
	if counter, ok := r.lyrics.(statusCounter); ok {
		c, err := counter.Count()
		if err != nil {
			return err
		}
		counts = c
	} else {
		entries, err := r.library.Lyrics(ctx, "", "")
		if err != nil {
			return err
		}
		counts = map[models.Status]int{}
		for _, e := range entries {
			counts[e.Status]++
		}
	}

	total := 0
	r.writePlainHeader("Lyrics by status")
	for _, s := range []models.Status{models.StatusPending, models.StatusApproved, models.StatusPrivate} {
		r.writePlain("%-9s %d\n", s, counts[s])
		total += counts[s]
	}
	r.writePlain("%-9s %d\n", "total", total)
	return nil
}

// LyricsImport loads a JSON dump.
func (r *Runner) LyricsImport(ctx context.Context, cmd *cli.Command) error {
	args, err := requireArgs(cmd, "path")
	if err != nil {
		return err
	}
	if err := r.open(); err != nil {
		return err
	}

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open dump: %w", err)
	}
	defer f.Close()

	importer := tasks.NewImporter(r.lyrics, tasks.ImportOptions{
		SkipDuplicates: cmd.Bool("skip-duplicates"),
		Policy:         r.library.StrictPolicy(),
		Scorer:         r.library.Scorer(),
	})

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := r.printProgress(progressCh)

	result, err := importer.Import(ctx, f, progressCh)
	close(progressCh)
	<-done

	if err != nil {
		return err
	}

	r.writePlainln("Import complete")
	r.writePlain("Total: %d\nCreated: %d\nSkipped: %d\nFailed: %d\n", result.Total, result.Created, result.Skipped, result.Failed)
	for _, e := range result.Errors {
		r.writePlain("  - #%d %s: %v\n", e.Index, e.Title, e.Err)
	}
	return nil
}

// LyricsExport writes every entry as a JSON dump.
func (r *Runner) LyricsExport(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(); err != nil {
		return err
	}

	var w io.Writer = r.output
	if path := cmd.String("output"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", path, err)
		}
		defer f.Close()
		w = f
	}

	count, err := tasks.NewExporter(r.lyrics).Export(ctx, w, nil)
	if err != nil {
		return err
	}
	r.logger.Info("exported lyrics", "count", count, "output", cmd.String("output"))
	return nil
}

// printProgress writes updates until ch is closed, then closes the returned channel.
func (r *Runner) printProgress(ch <-chan tasks.ProgressUpdate) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range ch {
			switch update.Phase {
			case tasks.ReadDump, tasks.ScanDuplicates:
				r.writePlain("📥 %s\n", update.Message)
			case tasks.WriteReports:
				r.writePlain("📝 %s\n", update.Message)
			default:
				r.writePlain("   %s\n", update.Message)
			}
		}
	}()
	return done
}

func (r *Runner) writeMatches(policy similarity.Policy, matches []similarity.Match) {
	r.writePlain("Matches under %s (threshold %.2f):\n", policy.Name, policy.Threshold)
	for _, m := range matches {
		r.writePlain("  %6.2f%%  %s - %s [%s]\n",
			similarity.Candidate{Score: m.Score}.Percent(), m.Entry.Artist, m.Entry.Title, m.Entry.ID())
	}
}

func oneLine(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > n {
		return string(r[:n-1]) + "…"
	}
	return s
}
