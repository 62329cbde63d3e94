package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/desertthunder/songbook/internal/formatter"
	"github.com/desertthunder/songbook/internal/shared"
	"github.com/desertthunder/songbook/internal/similarity"
)

// Scanner runs a duplicate scan. [services.Library] implements it.
type Scanner interface {
	Duplicates(ctx context.Context, policy similarity.Policy, scorer similarity.Scorer) ([]similarity.Candidate, error)
}

// BulkReportOpts contains configuration for multi-scorer duplicate reports.
type BulkReportOpts struct {
	Scorers    []string           // Scorer names (default: positional, dice, edit)
	Formats    []formatter.Format // Output formats per scorer (default: text)
	Policy     similarity.Policy  // Acceptance rule shared by every scan
	OutputDir  string             // Base output directory (default: duplicates_{epoch})
	NumWorkers int                // Concurrent workers (default: number of scorers, at most 4)
}

// ReportResult is the outcome of one scorer's scan.
type ReportResult struct {
	Scorer string   `json:"scorer"`
	Pairs  int      `json:"pairs"`
	Files  []string `json:"files"`
	Error  error    `json:"-"`
	Reason string   `json:"error,omitempty"`
}

// BulkReportResult summarizes a bulk report run.
type BulkReportResult struct {
	OutputDirectory string         `json:"output_directory"`
	Policy          string         `json:"policy"`
	Threshold       float64        `json:"threshold"`
	Results         []ReportResult `json:"results"`
	Succeeded       int            `json:"succeeded"`
	Failed          int            `json:"failed"`
	ManifestPath    string         `json:"-"`
}

// BulkReport scans the library once per scorer, concurrently, and writes one report per scorer and format
// plus a manifest.json summarizing the run. Scorer names are case-insensitive and deduplicated; results keep
// the order the scorers were given in. Unknown scorer names fail before any scan starts.
func BulkReport(ctx context.Context, prog chan<- ProgressUpdate, scanner Scanner, opts BulkReportOpts) (*BulkReportResult, error) {
	if len(opts.Scorers) == 0 {
		opts.Scorers = []string{similarity.ScorerPositional, similarity.ScorerDice, similarity.ScorerEdit}
	}
	if len(opts.Formats) == 0 {
		opts.Formats = []formatter.Format{formatter.FormatText}
	}
	if opts.Policy.Name == "" && opts.Policy.Threshold == 0 {
		opts.Policy = similarity.LooseScan
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("duplicates_%d", time.Now().Unix())
	}

	scorers := make(map[string]similarity.Scorer, len(opts.Scorers))
	names := make([]string, 0, len(opts.Scorers))
	for _, name := range opts.Scorers {
		s, err := similarity.ScorerByName(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", shared.ErrInvalidArgument, err)
		}
		name = normalizeScorerName(name)
		if _, seen := scorers[name]; seen {
			continue
		}
		scorers[name] = s
		names = append(names, name)
	}
	opts.Scorers = names

	if opts.NumWorkers <= 0 {
		opts.NumWorkers = len(opts.Scorers)
	}
	opts.NumWorkers = min(opts.NumWorkers, 4)

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &BulkReportResult{
		OutputDirectory: opts.OutputDir,
		Policy:          opts.Policy.Name,
		Threshold:       opts.Policy.Threshold,
		Results:         make([]ReportResult, 0, len(opts.Scorers)),
	}

	jobs := make(chan string, len(opts.Scorers))
	results := make(chan ReportResult, len(opts.Scorers))

	var wg sync.WaitGroup
	for range opts.NumWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for name := range jobs {
				if ctx.Err() != nil {
					return
				}
				results <- reportOne(ctx, scanner, name, scorers[name], opts)
			}
		}()
	}

	for i, name := range opts.Scorers {
		sendProgress(prog, scanningUpdate(i+1, len(opts.Scorers), name))
		jobs <- name
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		if res.Error != nil {
			res.Reason = res.Error.Error()
		}
		result.Results = append(result.Results, res)

		if res.Error == nil {
			result.Succeeded++
			sendProgress(prog, reportWrittenUpdate(completed, len(opts.Scorers), res))
		} else {
			result.Failed++
			sendProgress(prog, reportFailedUpdate(completed, len(opts.Scorers), res))
		}
	}

	order := make(map[string]int, len(opts.Scorers))
	for i, name := range opts.Scorers {
		order[name] = i
	}
	slices.SortFunc(result.Results, func(a, b ReportResult) int {
		return order[a.Scorer] - order[b.Scorer]
	})

	if err := ctx.Err(); err != nil {
		return result, err
	}

	manifestPath := filepath.Join(opts.OutputDir, "manifest.json")
	data, err := shared.MarshalJSON(result, true)
	if err != nil {
		return result, fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := os.WriteFile(manifestPath, data, 0644); err != nil {
		return result, fmt.Errorf("reports written but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	return result, nil
}

// normalizeScorerName lowercases and trims a scorer name, mapping blank to the positional scorer.
func normalizeScorerName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return similarity.ScorerPositional
	}
	return name
}

// reportOne scans with a single scorer and writes its reports.
func reportOne(ctx context.Context, scanner Scanner, name string, scorer similarity.Scorer, opts BulkReportOpts) ReportResult {
	res := ReportResult{Scorer: name, Files: []string{}}

	candidates, err := scanner.Duplicates(ctx, opts.Policy, scorer)
	if err != nil {
		res.Error = fmt.Errorf("scan failed: %w", err)
		return res
	}
	res.Pairs = len(candidates)

	for _, format := range opts.Formats {
		path := filepath.Join(opts.OutputDir, fmt.Sprintf("duplicates_%s.%s", name, format.Ext()))
		written, err := formatter.WriteReport(format, candidates, opts.Policy, path)
		if err != nil {
			res.Error = err
			return res
		}
		res.Files = append(res.Files, written)
	}
	return res
}
