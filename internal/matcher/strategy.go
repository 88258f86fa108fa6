package matcher

import (
	"unicode/utf8"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/ginjaninja78/sevkiyat-converter/internal/normalize"
	"github.com/ginjaninja78/sevkiyat-converter/internal/types"
)

// DefaultThreshold is the minimum similarity for a fuzzy match.
const DefaultThreshold = 0.85

// minContainRunes is the shortest key that may match by containment.
const minContainRunes = 3

// Entry is one catalog item prepared for matching.
type Entry struct {
	// Original is the catalog spelling, reported as MatchedEntry.
	Original string

	// Key is the normalized form compared against records.
	Key string
}

// Strategy decides whether a normalized description matches one of a
// category's entries. Entries are sorted by Key; a strategy that finds several
// equally good candidates must return the first.
type Strategy interface {
	Name() string
	Confidence() types.MatchConfidence
	Match(key string, entries []Entry) (Entry, float64, bool)
}

// =============================================================================
// EXACT
// =============================================================================

// ExactStrategy matches when the normalized description equals an entry key.
type ExactStrategy struct{}

func (ExactStrategy) Name() string { return "exact" }

func (ExactStrategy) Confidence() types.MatchConfidence { return types.ConfidenceExact }

func (ExactStrategy) Match(key string, entries []Entry) (Entry, float64, bool) {
	for _, e := range entries {
		if e.Key == key {
			return e, 1, true
		}
	}
	return Entry{}, 0, false
}

// =============================================================================
// FUZZY
// =============================================================================

// FuzzyStrategy accepts an entry when either
//   - the shorter of the two keys has at least 3 runes and appears in the
//     longer one on word boundaries ("DONDURMA" in "DONDURMA KAKAOLU 350 GR"), or
//   - the Levenshtein similarity 1 - dist/max(len) reaches Threshold.
//
// Among accepted entries the highest similarity wins; ties go to the
// lexicographically smallest key.
type FuzzyStrategy struct {
	Threshold float64
}

func (FuzzyStrategy) Name() string { return "fuzzy" }

func (FuzzyStrategy) Confidence() types.MatchConfidence { return types.ConfidenceFuzzy }

func (s FuzzyStrategy) Match(key string, entries []Entry) (Entry, float64, bool) {
	threshold := s.Threshold
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultThreshold
	}

	var (
		best      Entry
		bestScore = -1.0
	)
	for _, e := range entries {
		score := Similarity(key, e.Key)
		if score < threshold && !contains(key, e.Key) {
			continue
		}
		if score > bestScore {
			best, bestScore = e, score
		}
	}
	if bestScore < 0 {
		return Entry{}, 0, false
	}
	return best, bestScore, true
}

// Similarity returns 1 - levenshtein(a, b) / max(runes(a), runes(b)).
func Similarity(a, b string) float64 {
	n := utf8.RuneCountInString(a)
	if m := utf8.RuneCountInString(b); m > n {
		n = m
	}
	if n == 0 {
		return 1
	}
	return 1 - float64(fuzzy.LevenshteinDistance(a, b))/float64(n)
}

func contains(a, b string) bool {
	short, long := a, b
	if utf8.RuneCountInString(short) > utf8.RuneCountInString(long) {
		short, long = long, short
	}
	if utf8.RuneCountInString(short) < minContainRunes {
		return false
	}
	return normalize.ContainsWord(long, short)
}
