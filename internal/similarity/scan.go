package similarity

import (
	"math"

	"github.com/desertthunder/songbook/internal/models"
)

// Candidate is a pair of entries flagged as textually similar. It is computed per scan and never stored.
type Candidate struct {
	A     models.LyricsEntry
	B     models.LyricsEntry
	I     int // index of A in the scanned slice
	J     int // index of B in the scanned slice, always > I
	Score float64
}

// Percent returns the score as a percentage rounded to two decimals.
func (c Candidate) Percent() float64 {
	return math.Round(c.Score*100*100) / 100
}

// Policy is a named duplicate threshold.
//
// Strict policies require the score to exceed the threshold; others accept scores equal to it.
type Policy struct {
	Name      string
	Threshold float64
	Strict    bool
}

var (
	// LooseScan flags pairs for the admin duplicate report.
	LooseScan = Policy{Name: "loose duplicate scan", Threshold: 0.4}
	// StrictGuard blocks a new submission that nearly repeats an existing one.
	StrictGuard = Policy{Name: "strict duplicate guard", Threshold: 0.9, Strict: true}
)

// Accepts reports whether score meets the policy.
func (p Policy) Accepts(score float64) bool {
	if p.Strict {
		return score > p.Threshold
	}
	return score >= p.Threshold
}

// WithThreshold returns a copy of the policy using threshold t.
func (p Policy) WithThreshold(t float64) Policy {
	p.Threshold = t
	return p
}

// Scan compares every unordered pair of entries and returns those scoring at or above threshold,
// ordered by outer index then inner index. A nil scorer means [Positional].
func Scan(entries []models.LyricsEntry, threshold float64, score Scorer) []Candidate {
	return ScanPolicy(entries, Policy{Threshold: threshold}, score)
}

// ScanPolicy is [Scan] with the acceptance rule of p.
func ScanPolicy(entries []models.LyricsEntry, p Policy, score Scorer) []Candidate {
	if score == nil {
		score = Positional
	}

	candidates := []Candidate{}
	for i := 0; i < len(entries); i++ {
		for j := i + 1; j < len(entries); j++ {
			s := score(entries[i].Lyrics, entries[j].Lyrics)
			if !p.Accepts(s) {
				continue
			}
			candidates = append(candidates, Candidate{A: entries[i], B: entries[j], I: i, J: j, Score: s})
		}
	}
	return candidates
}

// Match is an existing entry that a new text resembles.
type Match struct {
	Entry models.LyricsEntry
	Score float64
}

// Guard scores text against each existing entry and returns those accepted by p, in input order.
func Guard(text string, existing []models.LyricsEntry, p Policy, score Scorer) []Match {
	if score == nil {
		score = Positional
	}

	matches := []Match{}
	for _, e := range existing {
		if s := score(text, e.Lyrics); p.Accepts(s) {
			matches = append(matches, Match{Entry: e, Score: s})
		}
	}
	return matches
}
