package similarity

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xrash/smetrics"
)

// ErrUnknownScorer is returned by [ScorerByName] for names it does not know.
var ErrUnknownScorer = errors.New("unknown scorer")

// Scorer returns a similarity score in [0,1] for two texts.
type Scorer func(a, b string) float64

// Scorer names accepted by [ScorerByName].
const (
	ScorerPositional = "positional"
	ScorerDice       = "dice"
	ScorerEdit       = "edit"
)

// ScorerByName resolves a configured scorer name. An empty name selects [Positional].
func ScorerByName(name string) (Scorer, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", ScorerPositional:
		return Positional, nil
	case ScorerDice:
		return Dice, nil
	case ScorerEdit:
		return EditRatio, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownScorer, name)
	}
}

// Positional is the share of equal characters at equal offsets, over the shorter text's length.
//
// It is position sensitive: a single inserted character near the start shifts every later offset,
// so texts sharing most of their words can still score near zero.
func Positional(a, b string) float64 {
	ra, rb := []rune(Normalize(a)), []rune(Normalize(b))
	n := min(len(ra), len(rb))
	if n == 0 {
		return 0
	}

	matches := 0
	for i := 0; i < n; i++ {
		if ra[i] == rb[i] {
			matches++
		}
	}
	return float64(matches) / float64(n)
}

// Dice is the Sørensen–Dice coefficient over character bigrams of the normalized texts with
// whitespace removed. Bigrams are counted as a multiset.
func Dice(a, b string) float64 {
	na, nb := Normalize(a), Normalize(b)
	if na == "" || nb == "" {
		return 0
	}

	ra := []rune(strings.ReplaceAll(na, " ", ""))
	rb := []rune(strings.ReplaceAll(nb, " ", ""))
	if string(ra) == string(rb) {
		return 1
	}
	if len(ra) < 2 || len(rb) < 2 {
		return 0
	}

	counts := make(map[[2]rune]int, len(ra)-1)
	for i := 0; i < len(ra)-1; i++ {
		counts[[2]rune{ra[i], ra[i+1]}]++
	}

	shared := 0
	for i := 0; i < len(rb)-1; i++ {
		bg := [2]rune{rb[i], rb[i+1]}
		if counts[bg] > 0 {
			counts[bg]--
			shared++
		}
	}

	return 2 * float64(shared) / float64(len(ra)+len(rb)-2)
}

// EditRatio is 1 - distance/maxLen, with distance the unit-cost Wagner–Fischer edit distance.
func EditRatio(a, b string) float64 {
	na, nb := Normalize(a), Normalize(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 1
	}

	// smetrics compares bytes, so the length bound is in bytes too
	longest := max(len(na), len(nb))
	distance := smetrics.WagnerFischer(na, nb, 1, 1, 1)

	score := 1 - float64(distance)/float64(longest)
	if score < 0 {
		return 0
	}
	return score
}
