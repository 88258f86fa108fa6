// =============================================================================
// Sevkiyat Converter - Shared Types
// =============================================================================
//
// This package contains the data model shared by every stage of the pipeline,
// kept in one place to avoid import cycles. Types defined here are used by:
//   - csvparser  (OrderRecord)
//   - matcher    (CategoryAssignment)
//   - shipment   (ShipmentList)
//   - converter  (FileOutcome, Event)
//   - batch      (BatchSummary, Observer)
//
// =============================================================================

package types

import (
	"time"
)

// =============================================================================
// CATEGORIES
// =============================================================================

// Category is the shipment stream an order line is routed to.
type Category string

const (
	// CategoryTatli is the confectionery stream.
	CategoryTatli Category = "tatli"

	// CategoryDonuk is the frozen stream.
	CategoryDonuk Category = "donuk"

	// CategoryLojistik is the general logistics stream.
	CategoryLojistik Category = "lojistik"

	// CategoryUnmatched collects lines that matched no catalog.
	// It is rendered as a diagnostic list, never as a shipment.
	CategoryUnmatched Category = "eslesmeyen"
)

// ShipmentCategories lists the real shipment categories in matching priority
// order. When a record matches more than one category with the same
// confidence, the earlier category wins.
var ShipmentCategories = []Category{CategoryTatli, CategoryDonuk, CategoryLojistik}

// DisplayName returns the Turkish label used in rendered artifacts.
func (c Category) DisplayName() string {
	switch c {
	case CategoryTatli:
		return "Tatlı"
	case CategoryDonuk:
		return "Donuk"
	case CategoryLojistik:
		return "Lojistik"
	case CategoryUnmatched:
		return "Eşleşmeyen"
	default:
		return string(c)
	}
}

// MatchConfidence records how a category assignment was determined.
type MatchConfidence string

const (
	// ConfidenceExact means the normalized description equals a catalog entry.
	ConfidenceExact MatchConfidence = "exact"

	// ConfidenceFuzzy means the description contains, or is close to, an entry.
	ConfidenceFuzzy MatchConfidence = "fuzzy"

	// ConfidenceNone is used for Unmatched assignments.
	ConfidenceNone MatchConfidence = "none"
)

// =============================================================================
// RECORDS AND ASSIGNMENTS
// =============================================================================

// OrderRecord is one parsed order line. It is created by the parser and is not
// modified afterwards.
type OrderRecord struct {
	// SourceFile is the path of the CSV file the line came from.
	SourceFile string

	// BranchCode identifies the ordering branch.
	BranchCode string

	// ItemDescription is the raw item text as exported by the branch.
	ItemDescription string

	// Quantity is the ordered amount. Never negative; unparseable values are
	// stored as 0 and flagged in RawFields.
	Quantity float64

	// Group is the export's product group column, if present.
	Group string

	// RowNumber is the 1-based line number in the source file.
	RowNumber int

	// RawFields maps original column headers to their original values.
	RawFields map[string]string
}

// CategoryAssignment is the matcher's verdict for exactly one OrderRecord.
type CategoryAssignment struct {
	Record     OrderRecord
	Category   Category
	Confidence MatchConfidence

	// MatchedEntry is the catalog entry that matched. Empty when Unmatched.
	MatchedEntry string
}

// ShipmentList is the ordered, append-only list of records for one category
// within one file run.
type ShipmentList struct {
	Category Category
	Entries  []OrderRecord
}

// Append adds a record to the end of the list.
func (l *ShipmentList) Append(r OrderRecord) {
	l.Entries = append(l.Entries, r)
}

// Len returns the number of entries.
func (l *ShipmentList) Len() int {
	if l == nil {
		return 0
	}
	return len(l.Entries)
}

// =============================================================================
// OUTCOMES
// =============================================================================

// FileStatus is the terminal state of one processed file.
type FileStatus string

const (
	// StatusSucceeded means the file parsed and, when anything needed
	// rendering, at least one artifact was written.
	StatusSucceeded FileStatus = "succeeded"

	// StatusFailed means the file produced no usable artifacts.
	StatusFailed FileStatus = "failed"
)

// FileOutcome is the result of processing one input file.
type FileOutcome struct {
	SourceFile     string
	Status         FileStatus
	RecordCount    int
	UnmatchedCount int

	// ErrorDetail is set only when Status is StatusFailed.
	ErrorDetail string

	// Artifacts maps each rendered category to its output path.
	Artifacts map[Category]string

	// RenderErrors holds per-category render failures of a file that still
	// succeeded because at least one other category rendered.
	RenderErrors []string

	Duration time.Duration
}

// Succeeded reports whether the file was processed successfully.
func (o FileOutcome) Succeeded() bool {
	return o.Status == StatusSucceeded
}

// BatchSummary aggregates the outcomes of one batch invocation.
type BatchSummary struct {
	RunID string

	// Submitted is the number of paths handed to the batch. It exceeds
	// TotalFiles only when the batch was interrupted.
	Submitted int

	TotalFiles     int
	SucceededFiles int
	FailedFiles    int
	Interrupted    bool

	// Outcomes are in submission order.
	Outcomes []FileOutcome

	StartedAt  time.Time
	FinishedAt time.Time
}

// Record appends an outcome and updates the counters.
func (s *BatchSummary) Record(o FileOutcome) {
	s.Outcomes = append(s.Outcomes, o)
	s.TotalFiles++
	if o.Succeeded() {
		s.SucceededFiles++
	} else {
		s.FailedFiles++
	}
}

// RecordCount returns the total number of records parsed across the batch.
func (s BatchSummary) RecordCount() int {
	n := 0
	for _, o := range s.Outcomes {
		n += o.RecordCount
	}
	return n
}

// UnmatchedCount returns the total number of unmatched records across the batch.
func (s BatchSummary) UnmatchedCount() int {
	n := 0
	for _, o := range s.Outcomes {
		n += o.UnmatchedCount
	}
	return n
}

// =============================================================================
// EVENTS
// =============================================================================

// Stage names one step of the per-file pipeline.
type Stage string

const (
	StageBatchStarted    Stage = "batch_started"
	StageParseStarted    Stage = "parse_started"
	StageParseCompleted  Stage = "parse_completed"
	StageMatchCompleted  Stage = "match_completed"
	StageRenderCompleted Stage = "render_completed"
	StageFileSucceeded   Stage = "file_succeeded"
	StageFileFailed      Stage = "file_failed"
	StageBatchCompleted  Stage = "batch_completed"
)

// Event is emitted once per stage per file so a presentation layer can show
// progress without sharing state with the pipeline.
type Event struct {
	RunID string
	File  string

	// Index is the 0-based position of File in the batch; Total the batch size.
	Index int
	Total int

	Stage  Stage
	Detail string
	Count  int
	Err    error
	At     time.Time
}

// Observer receives pipeline events. Events arrive from a single goroutine in
// pipeline order.
type Observer func(Event)

// NopObserver discards events.
func NopObserver(Event) {}
