// =============================================================================
// Sevkiyat Converter - Catalog Matcher
// =============================================================================
//
// The matcher assigns every OrderRecord to exactly one category.
//
// PRECEDENCE:
//   Strategies run in a fixed order (exact, then fuzzy). For each strategy the
//   categories are consulted in priority order Tatlı → Donuk → Lojistik and the
//   first category that matches wins. An exact match anywhere therefore beats
//   a fuzzy match anywhere, and two categories matching at the same level are
//   resolved by priority.
//
//   Entries are indexed sorted by normalized key, so the result never depends
//   on catalog file order. A record nothing matches is Unmatched with
//   confidence None; Classify never fails.
//
// =============================================================================

package matcher

import (
	"sort"

	"go.uber.org/zap"

	"github.com/ginjaninja78/sevkiyat-converter/internal/catalog"
	"github.com/ginjaninja78/sevkiyat-converter/internal/logging"
	"github.com/ginjaninja78/sevkiyat-converter/internal/normalize"
	"github.com/ginjaninja78/sevkiyat-converter/internal/types"
)

// Matcher classifies order records against a catalog. It is immutable after
// New and safe for concurrent use.
type Matcher struct {
	norm       *normalize.Normalizer
	strategies []Strategy
	index      map[types.Category][]Entry
	log        *zap.SugaredLogger
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithThreshold sets the fuzzy similarity threshold of the default strategies.
func WithThreshold(threshold float64) Option {
	return func(m *Matcher) {
		for i, s := range m.strategies {
			if _, ok := s.(FuzzyStrategy); ok {
				m.strategies[i] = FuzzyStrategy{Threshold: threshold}
			}
		}
	}
}

// WithStrategies replaces the strategy list. Order is precedence.
func WithStrategies(strategies ...Strategy) Option {
	return func(m *Matcher) {
		m.strategies = append([]Strategy(nil), strategies...)
	}
}

// WithLogger sets the logger used for per-record debug output.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(m *Matcher) {
		m.log = logging.OrNop(log)
	}
}

// New indexes cat for matching.
func New(cat *catalog.Catalog, opts ...Option) *Matcher {
	m := &Matcher{
		norm:       cat.Normalizer(),
		strategies: []Strategy{ExactStrategy{}, FuzzyStrategy{Threshold: DefaultThreshold}},
		index:      make(map[types.Category][]Entry, len(types.ShipmentCategories)),
		log:        logging.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}

	for _, c := range types.ShipmentCategories {
		seen := map[string]bool{}
		var entries []Entry
		for _, original := range cat.EntriesFor(c) {
			key := m.norm.Key(original)
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			entries = append(entries, Entry{Original: original, Key: key})
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
		m.index[c] = entries
	}
	return m
}

// Classify returns the assignment for one record.
func (m *Matcher) Classify(record types.OrderRecord) types.CategoryAssignment {
	key := m.norm.Key(record.ItemDescription)
	if key != "" {
		for _, s := range m.strategies {
			for _, c := range types.ShipmentCategories {
				entry, score, ok := s.Match(key, m.index[c])
				if !ok {
					continue
				}
				m.log.Debugw("record matched",
					logging.FieldFile, record.SourceFile,
					"row", record.RowNumber,
					logging.FieldCategory, c,
					logging.FieldStrategy, s.Name(),
					"entry", entry.Original,
					"score", score,
				)
				return types.CategoryAssignment{
					Record:       record,
					Category:     c,
					Confidence:   s.Confidence(),
					MatchedEntry: entry.Original,
				}
			}
		}
	}

	m.log.Debugw("record unmatched",
		logging.FieldFile, record.SourceFile,
		"row", record.RowNumber,
		"item", record.ItemDescription,
	)
	return types.CategoryAssignment{
		Record:     record,
		Category:   types.CategoryUnmatched,
		Confidence: types.ConfidenceNone,
	}
}

// ClassifyAll returns one assignment per record, in record order.
func (m *Matcher) ClassifyAll(records []types.OrderRecord) []types.CategoryAssignment {
	out := make([]types.CategoryAssignment, len(records))
	for i, r := range records {
		out[i] = m.Classify(r)
	}
	return out
}

// Size returns the number of indexed entries per category.
func (m *Matcher) Size() map[types.Category]int {
	out := make(map[types.Category]int, len(m.index))
	for c, entries := range m.index {
		out[c] = len(entries)
	}
	return out
}
