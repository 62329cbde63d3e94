package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/songbook/internal/formatter"
	"github.com/desertthunder/songbook/internal/services"
	"github.com/desertthunder/songbook/internal/shared"
	"github.com/desertthunder/songbook/internal/similarity"
	"github.com/desertthunder/songbook/internal/tasks"
	"github.com/urfave/cli/v3"
)

// loosePolicy returns the configured loose policy with the --threshold override applied.
func (r *Runner) loosePolicy(cmd *cli.Command) (similarity.Policy, error) {
	policy := r.library.LoosePolicy()
	if cmd.IsSet("threshold") {
		t := cmd.Float("threshold")
		if t < 0 || t > 1 {
			return policy, fmt.Errorf("%w: --threshold must be in [0,1], got %v", shared.ErrInvalidFlag, t)
		}
		policy = policy.WithThreshold(t)
	}
	return policy, nil
}

// scorerFlag resolves --scorer; nil selects the configured scorer.
func scorerFlag(cmd *cli.Command) (similarity.Scorer, error) {
	name := cmd.String("scorer")
	if name == "" {
		return nil, nil
	}
	return similarity.ScorerByName(name)
}

// DupesScan runs the loose pairwise scan and prints or writes the report.
func (r *Runner) DupesScan(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	scorer, err := scorerFlag(cmd)
	if err != nil {
		return err
	}
	if err := r.open(); err != nil {
		return err
	}
	policy, err := r.loosePolicy(cmd)
	if err != nil {
		return err
	}

	candidates, err := r.library.Duplicates(ctx, policy, scorer)
	if err != nil {
		return err
	}
	r.logger.Info("duplicate scan", "policy", policy.Name, "threshold", policy.Threshold, "pairs", len(candidates))

	if path := cmd.String("output"); path != "" {
		written, err := formatter.WriteReport(format, candidates, policy, path)
		if err != nil {
			return err
		}
		r.writePlain("✓ %d pair(s) written to %s\n", len(candidates), written)
		return nil
	}

	data, err := formatter.Render(format, candidates, policy)
	if err != nil {
		return err
	}
	_, err = r.output.Write(data)
	return err
}

// DupesCheck runs the strict guard against text. Matches fail the command with [services.ErrDuplicate].
func (r *Runner) DupesCheck(ctx context.Context, cmd *cli.Command) error {
	text, err := r.readText(cmd)
	if err != nil {
		return err
	}
	if err := r.open(); err != nil {
		return err
	}

	matches, err := r.library.Check(ctx, text)
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		r.writePlain("✓ No existing entry matches under %s\n", r.library.StrictPolicy().Name)
		return nil
	}

	r.writeMatches(r.library.StrictPolicy(), matches)
	return &services.DuplicateError{Policy: r.library.StrictPolicy(), Matches: matches}
}

// DupesDiff prints two entries' character diff, edit distance and score.
func (r *Runner) DupesDiff(ctx context.Context, cmd *cli.Command) error {
	args, err := requireArgs(cmd, "a", "b")
	if err != nil {
		return err
	}
	if err := r.open(); err != nil {
		return err
	}

	a, b, err := r.library.Pair(ctx, args[0], args[1])
	if err != nil {
		return err
	}

	score := r.library.Scorer()(a.Lyrics, b.Lyrics)
	r.writePlainHeader(fmt.Sprintf("%s - %s  ⇄  %s - %s", a.Artist, a.Title, b.Artist, b.Title))
	r.writePlain("Similarity: %.2f%%\n", similarity.Candidate{Score: score}.Percent())
	r.writePlain("Edit distance: %d\n\n", formatter.EditDistance(a.Lyrics, b.Lyrics))
	r.writePlain("%s\n", formatter.LyricsDiff(a.Lyrics, b.Lyrics))
	return nil
}

// DupesDismiss acknowledges a pair as not duplicate.
func (r *Runner) DupesDismiss(ctx context.Context, cmd *cli.Command) error {
	args, err := requireArgs(cmd, "a", "b")
	if err != nil {
		return err
	}
	if err := r.open(); err != nil {
		return err
	}

	if err := r.library.Dismiss(ctx, args[0], args[1]); err != nil {
		return err
	}
	r.writePlain("✓ Dismissed %s / %s (it will be reported again by the next scan)\n", args[0], args[1])
	return nil
}

// DupesReport scans with several scorers concurrently and writes one report per scorer and format.
func (r *Runner) DupesReport(ctx context.Context, cmd *cli.Command) error {
	var formats []formatter.Format
	for _, name := range cmd.StringSlice("format") {
		f, err := formatter.ParseFormat(name)
		if err != nil {
			return err
		}
		formats = append(formats, f)
	}
	if err := r.open(); err != nil {
		return err
	}
	policy, err := r.loosePolicy(cmd)
	if err != nil {
		return err
	}

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := r.printProgress(progressCh)

	result, err := tasks.BulkReport(ctx, progressCh, r.library, tasks.BulkReportOpts{
		Scorers:    cmd.StringSlice("scorer"),
		Formats:    formats,
		Policy:     policy,
		OutputDir:  cmd.String("dir"),
		NumWorkers: int(cmd.Int("workers")),
	})
	close(progressCh)
	<-done

	if err != nil {
		return err
	}

	r.writePlainln("")
	r.writePlainHeader("Duplicate Reports")
	r.writePlain("Directory: %s\n", result.OutputDirectory)
	r.writePlain("Policy: %s (threshold %.2f)\n\n", result.Policy, result.Threshold)
	for _, res := range result.Results {
		if res.Error != nil {
			r.writePlain("✗ %-10s %v\n", res.Scorer, res.Error)
			continue
		}
		r.writePlain("✓ %-10s %d pair(s)\n", res.Scorer, res.Pairs)
	}
	r.writePlain("\nManifest: %s\n", result.ManifestPath)

	if result.Failed > 0 {
		return fmt.Errorf("%d of %d scans failed", result.Failed, len(result.Results))
	}
	return nil
}
