// =============================================================================
// Sevkiyat Converter - Catalog Validation
// =============================================================================
//
// Validate checks a catalog before it is used for matching. Issues are
// collected, not returned one at a time, so the `catalog validate` command can
// print every problem in one pass.
//
// RULES:
//   empty_category   (warning) a shipment category has no entries
//   empty_entry      (error)   an entry normalizes to nothing
//   duplicate        (warning) the same key appears twice in one category
//   cross_category   (warning) the same key appears in two categories; the
//                              higher-priority category always wins
//   short_entry      (warning) fewer than 3 characters; only exact matches apply
//
// =============================================================================

package catalog

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ginjaninja78/sevkiyat-converter/internal/types"
)

// Severity of a validation issue.
type Severity string

const (
	// SeverityError makes the catalog unusable.
	SeverityError Severity = "error"

	// SeverityWarning is reported but does not block processing.
	SeverityWarning Severity = "warning"
)

// MinFuzzyRunes is the shortest key eligible for containment matching.
const MinFuzzyRunes = 3

// Issue is a single validation finding.
type Issue struct {
	Severity Severity
	Category types.Category

	// Entry is the original spelling of the offending entry, if any.
	Entry string

	// Index is the 0-based position of Entry within its category.
	Index int

	Rule    string
	Message string
}

// Error implements the error interface.
func (i *Issue) Error() string {
	if i.Entry == "" {
		return fmt.Sprintf("[%s] %s: %s", strings.ToUpper(string(i.Severity)), i.Category, i.Message)
	}
	return fmt.Sprintf("[%s] %s #%d %q: %s", strings.ToUpper(string(i.Severity)), i.Category, i.Index+1, i.Entry, i.Message)
}

// ValidationResult contains the results of validation.
type ValidationResult struct {
	// IsValid is true if there are no error-severity issues.
	IsValid bool

	Issues       []*Issue
	ErrorCount   int
	WarningCount int

	// EntriesValidated is the total number of entries checked.
	EntriesValidated int
}

func (r *ValidationResult) add(issue *Issue) {
	r.Issues = append(r.Issues, issue)
	if issue.Severity == SeverityError {
		r.ErrorCount++
		r.IsValid = false
	} else {
		r.WarningCount++
	}
}

// Validate checks every category of c in priority order.
func Validate(c *Catalog) *ValidationResult {
	result := &ValidationResult{IsValid: true}
	norm := c.Normalizer()

	// owner records the first category that claimed each key.
	owner := make(map[string]types.Category)

	for _, cat := range types.ShipmentCategories {
		entries := c.EntriesFor(cat)
		if len(entries) == 0 {
			result.add(&Issue{
				Severity: SeverityWarning,
				Category: cat,
				Rule:     "empty_category",
				Message:  "category has no entries; nothing will be routed to it",
			})
			continue
		}

		seen := make(map[string]int, len(entries))
		for i, entry := range entries {
			result.EntriesValidated++
			key := norm.Key(entry)

			if key == "" {
				result.add(&Issue{
					Severity: SeverityError,
					Category: cat,
					Entry:    entry,
					Index:    i,
					Rule:     "empty_entry",
					Message:  "entry is empty after normalization",
				})
				continue
			}

			if first, dup := seen[key]; dup {
				result.add(&Issue{
					Severity: SeverityWarning,
					Category: cat,
					Entry:    entry,
					Index:    i,
					Rule:     "duplicate",
					Message:  fmt.Sprintf("duplicates entry #%d (%q)", first+1, entries[first]),
				})
				continue
			}
			seen[key] = i

			if other, taken := owner[key]; taken && other != cat {
				result.add(&Issue{
					Severity: SeverityWarning,
					Category: cat,
					Entry:    entry,
					Index:    i,
					Rule:     "cross_category",
					Message:  fmt.Sprintf("also listed under %s, which takes priority", other.DisplayName()),
				})
			} else if !taken {
				owner[key] = cat
			}

			if utf8.RuneCountInString(key) < MinFuzzyRunes {
				result.add(&Issue{
					Severity: SeverityWarning,
					Category: cat,
					Entry:    entry,
					Index:    i,
					Rule:     "short_entry",
					Message:  "entry is too short for fuzzy matching; only exact matches apply",
				})
			}
		}
	}

	return result
}
