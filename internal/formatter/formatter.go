// package formatter renders duplicate lyrics reports (CSV, Markdown, plain text, JSON) and lyrics diffs
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/desertthunder/songbook/internal/shared"
	"github.com/desertthunder/songbook/internal/similarity"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// Format is an output format for duplicate reports.
type Format string

const (
	FormatText     Format = "text"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
)

// ParseFormat validates a format name. "md" is accepted for Markdown.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case "", FormatText:
		return FormatText, nil
	case FormatCSV, FormatMarkdown, FormatJSON:
		return f, nil
	case "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, name)
	}
}

// Render formats candidates found under policy.
func Render(format Format, candidates []similarity.Candidate, policy similarity.Policy) ([]byte, error) {
	switch format {
	case FormatCSV:
		return CandidatesToCSV(candidates)
	case FormatMarkdown:
		return CandidatesToMarkdown(candidates, policy)
	case FormatJSON:
		return CandidatesToJSON(candidates, policy)
	default:
		return CandidatesToText(candidates, policy)
	}
}

// CandidatesToCSV converts candidates to CSV with columns: A ID, A Title, A Artist, B ID, B Title, B Artist, Similarity
func CandidatesToCSV(candidates []similarity.Candidate) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"A ID", "A Title", "A Artist", "B ID", "B Title", "B Artist", "Similarity"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, c := range candidates {
		record := []string{
			c.A.ID(),
			c.A.Title,
			c.A.Artist,
			c.B.ID(),
			c.B.Title,
			c.B.Artist,
			strconv.FormatFloat(c.Percent(), 'f', 2, 64),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// CandidatesToMarkdown converts candidates to a Markdown report with a summary and a pair table
func CandidatesToMarkdown(candidates []similarity.Candidate, policy similarity.Policy) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Duplicate Lyrics Report\n\n")
	buf.WriteString(fmt.Sprintf("**Policy**: %s\n", policyLabel(policy)))
	buf.WriteString(fmt.Sprintf("**Pairs**: %d\n\n", len(candidates)))

	if len(candidates) == 0 {
		buf.WriteString("No duplicate candidates found.\n")
		return buf.Bytes(), nil
	}

	buf.WriteString("| # | Entry A | Entry B | Similarity |\n")
	buf.WriteString("|---|---------|---------|------------|\n")
	for i, c := range candidates {
		buf.WriteString(fmt.Sprintf("| %d | %s - %s (`%s`) | %s - %s (`%s`) | %.2f%% |\n",
			i+1,
			escapeCell(c.A.Artist), escapeCell(c.A.Title), c.A.ID(),
			escapeCell(c.B.Artist), escapeCell(c.B.Title), c.B.ID(),
			c.Percent()))
	}

	return buf.Bytes(), nil
}

// CandidatesToText converts candidates to plain text format
func CandidatesToText(candidates []similarity.Candidate, policy similarity.Policy) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Policy: %s\n", policyLabel(policy)))
	buf.WriteString(fmt.Sprintf("Pairs: %d\n\n", len(candidates)))

	for i, c := range candidates {
		buf.WriteString(fmt.Sprintf("%d. %6.2f%%  %s - %s [%s]\n", i+1, c.Percent(), c.A.Artist, c.A.Title, c.A.ID()))
		buf.WriteString(fmt.Sprintf("            %s - %s [%s]\n", c.B.Artist, c.B.Title, c.B.ID()))
	}

	return buf.Bytes(), nil
}

// Pair is the JSON shape of one duplicate candidate.
type Pair struct {
	A       PairEntry `json:"a"`
	B       PairEntry `json:"b"`
	Score   float64   `json:"score"`
	Percent float64   `json:"percent"`
}

// PairEntry identifies one side of a [Pair].
type PairEntry struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Artist string `json:"artist"`
	Status string `json:"status"`
	Lyrics string `json:"lyrics"`
}

// Report is the JSON shape of a duplicate scan.
type Report struct {
	Policy    string  `json:"policy"`
	Threshold float64 `json:"threshold"`
	Strict    bool    `json:"strict"`
	Pairs     []Pair  `json:"pairs"`
}

// NewReport converts candidates to their JSON shape.
func NewReport(candidates []similarity.Candidate, policy similarity.Policy) Report {
	r := Report{
		Policy:    policy.Name,
		Threshold: policy.Threshold,
		Strict:    policy.Strict,
		Pairs:     make([]Pair, 0, len(candidates)),
	}
	for _, c := range candidates {
		r.Pairs = append(r.Pairs, Pair{
			A:       PairEntry{c.A.ID(), c.A.Title, c.A.Artist, string(c.A.Status), c.A.Lyrics},
			B:       PairEntry{c.B.ID(), c.B.Title, c.B.Artist, string(c.B.Status), c.B.Lyrics},
			Score:   c.Score,
			Percent: c.Percent(),
		})
	}
	return r
}

// CandidatesToJSON converts candidates to an indented JSON [Report]
func CandidatesToJSON(candidates []similarity.Candidate, policy similarity.Policy) ([]byte, error) {
	return shared.MarshalJSON(NewReport(candidates, policy), true)
}

// WriteReport renders candidates and writes them to path.
//
// Defaults to duplicates.{ext} as the filename.
func WriteReport(format Format, candidates []similarity.Candidate, policy similarity.Policy, path string) (string, error) {
	if path == "" {
		path = "duplicates." + format.Ext()
	}

	data, err := Render(format, candidates, policy)
	if err != nil {
		return "", fmt.Errorf("failed to generate %s report: %w", format, err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write report file: %w", err)
	}

	return path, nil
}

// Ext returns the file extension used for the format.
func (f Format) Ext() string {
	switch f {
	case FormatCSV:
		return "csv"
	case FormatMarkdown:
		return "md"
	case FormatJSON:
		return "json"
	default:
		return "txt"
	}
}

// LyricsDiff renders a character-level diff from a to b, marking removals as [-text-] and additions as {+text+}.
// Texts are compared as stored, without normalization.
func LyricsDiff(a, b string) string {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCleanupSemantic(diffs)

	var buf strings.Builder
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			buf.WriteString("[-" + d.Text + "-]")
		case diffmatchpatch.DiffInsert:
			buf.WriteString("{+" + d.Text + "+}")
		default:
			buf.WriteString(d.Text)
		}
	}
	return buf.String()
}

// EditDistance returns the Levenshtein distance between a and b in characters.
func EditDistance(a, b string) int {
	dmp := diffmatchpatch.New()
	return dmp.DiffLevenshtein(dmp.DiffMain(a, b, false))
}

func policyLabel(p similarity.Policy) string {
	op := ">="
	if p.Strict {
		op = ">"
	}
	name := p.Name
	if name == "" {
		name = "custom"
	}
	return fmt.Sprintf("%s (score %s %.2f)", name, op, p.Threshold)
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
