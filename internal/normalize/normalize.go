// =============================================================================
// Sevkiyat Converter - Text Normalization
// =============================================================================
//
// Branch exports spell the same product many ways: "Dondurma", "DONDURMA ",
// "dondurma {kampanya}", "DÖNDÜRMA". Every comparison in the pipeline (column
// headers, catalog lookups, branch names) goes through this package so the
// rules live in one place.
//
// NORMALIZATION STEPS (Key):
//   1. Turkish letters folded to ASCII (ı→I, ğ→G, ş→S, ö→O, ç→C, ü→U, İ→I)
//   2. Remaining diacritics removed (NFKD, drop combining marks)
//   3. Upper-cased
//   4. Brace annotations removed ("BAKLAVA {PROMO}" → "BAKLAVA")
//   5. Punctuation removed, whitespace collapsed
//   6. Replacement aliases applied (e.g. GOGUSLU → GOGSU)
//
// =============================================================================

package normalize

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	turkishFold = strings.NewReplacer(
		"ı", "i", "ğ", "g", "ş", "s", "ö", "o", "ç", "c", "ü", "u",
		"İ", "I", "Ğ", "G", "Ş", "S", "Ö", "O", "Ç", "C", "Ü", "U",
	)

	braceAnnotation = regexp.MustCompile(`\{[^}]*\}`)
	nonWord         = regexp.MustCompile(`[^\p{L}\p{N}\s]`)
	whitespace      = regexp.MustCompile(`\s+`)
)

// DefaultReplacements are spelling aliases seen in branch exports.
var DefaultReplacements = map[string]string{
	"GOGUSLU":    "GOGSU",
	"GOGSULU":    "GOGSU",
	"HARMANDALI": "EFESUS",
	"AMASRA":     "DADAYLI",
}

// =============================================================================
// FOLDING
// =============================================================================

// Upper folds Turkish letters and diacritics and upper-cases s, keeping
// punctuation and spacing intact. Use it where punctuation carries meaning,
// such as package sizes ("3,5 KG").
func Upper(s string) string {
	s = turkishFold.Replace(s)
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(t, s); err == nil {
		s = folded
	}
	s = strings.ReplaceAll(s, "\u00a0", " ")
	return strings.ToUpper(s)
}

// Clean removes brace annotations and collapses whitespace while keeping the
// original letters. It produces display names for rendered artifacts.
func Clean(s string) string {
	s = braceAnnotation.ReplaceAllString(s, "")
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}

// =============================================================================
// NORMALIZER
// =============================================================================

// Normalizer produces comparison keys. The zero value applies no replacements.
type Normalizer struct {
	// replacements are applied longest-first so that overlapping aliases
	// resolve the same way on every run.
	replacements []replacement
}

type replacement struct {
	from, to string
}

// New builds a Normalizer with the given replacement aliases. Keys and values
// are themselves normalized before use.
func New(replacements map[string]string) *Normalizer {
	n := &Normalizer{}
	for from, to := range replacements {
		f := baseKey(from)
		if f == "" {
			continue
		}
		n.replacements = append(n.replacements, replacement{from: f, to: baseKey(to)})
	}
	sort.Slice(n.replacements, func(i, j int) bool {
		a, b := n.replacements[i], n.replacements[j]
		if len(a.from) != len(b.from) {
			return len(a.from) > len(b.from)
		}
		return a.from < b.from
	})
	return n
}

// Default returns a Normalizer with DefaultReplacements.
func Default() *Normalizer {
	return New(DefaultReplacements)
}

// Key returns the comparison key for s.
func (n *Normalizer) Key(s string) string {
	k := baseKey(s)
	if n == nil {
		return k
	}
	for _, r := range n.replacements {
		k = strings.ReplaceAll(k, r.from, r.to)
	}
	return k
}

// Equal reports whether a and b normalize to the same key.
func (n *Normalizer) Equal(a, b string) bool {
	return n.Key(a) == n.Key(b)
}

func baseKey(s string) string {
	s = Upper(s)
	s = braceAnnotation.ReplaceAllString(s, " ")
	s = nonWord.ReplaceAllString(s, "")
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}

// Key normalizes s without replacement aliases.
func Key(s string) string {
	return baseKey(s)
}

// ContainsWord reports whether needle occurs in haystack on token
// boundaries. Both arguments must already be keys.
func ContainsWord(haystack, needle string) bool {
	if needle == "" {
		return false
	}
	return strings.Contains(" "+haystack+" ", " "+needle+" ")
}
