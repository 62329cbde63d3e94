// Package similarity detects potentially duplicate lyrics submissions.
//
// # Normalizer
//
// [Normalize] collapses whitespace runs to a single space, trims the ends and lowercases the text.
// Every scorer normalizes its inputs before comparing them.
//
// # Scorers
//
// A [Scorer] maps two texts to a score in [0,1]. A blank text (after normalization) always scores 0
// against anything, so two empty submissions are never reported as duplicates of each other.
//
//   - [Positional] : matching characters at equal offsets divided by the shorter length. This is the
//     reference measure and the default everywhere.
//   - [Dice] : Sørensen–Dice coefficient over character bigrams, whitespace removed.
//   - [EditRatio] : one minus the Wagner–Fischer edit distance over the longer length.
//
// The scorers produce materially different values for the same inputs and are never interchangeable;
// callers pick one by name with [ScorerByName].
//
// # Scanner
//
// [Scan] compares every unordered pair of entries once (i < j) and returns the pairs at or above a
// threshold in visit order. It is O(n²) over the entry set and meant for a library of a few thousand
// submissions at most.
//
// Two thresholds are in use and deliberately kept apart:
//   - [LooseScan] : score >= 0.4, the admin duplicate report over the whole table
//   - [StrictGuard] : score > 0.9, the pre-check that blocks a new submission
package similarity
