// =============================================================================
// Sevkiyat Converter - Converter Module
// =============================================================================
//
// This module contains the per-file conversion pipeline. It turns one branch
// order CSV into its shipment workbooks.
//
// CONVERSION PIPELINE:
//   1. Parse the CSV into OrderRecords          (parse_started/parse_completed)
//   2. Classify every record against the catalog (match_completed)
//   3. Group assignments into per-category lists
//   4. Render one XLSX per non-empty list        (render_completed)
//
// FAILURE SEMANTICS:
//   - A ParseError fails the file; nothing is written.
//   - A RenderError fails only its category. The file still succeeds when at
//     least one category rendered; it fails when every render failed.
//   - A file with a header and no rows succeeds with no artifacts.
//
// ARTIFACT NAMES:
//   Names come from the name format. When two inputs of one batch expand to
//   the same name (same file stem in different directories), the later file
//   gets a "_2", "_3", ... suffix so no workbook is overwritten. Reprocessing
//   the same input reuses its earlier names.
//
// The converter keeps no record state between files and is driven by the
// batch orchestrator, one file at a time.
//
// =============================================================================

package converter

import (
	"context"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ginjaninja78/sevkiyat-converter/internal/csvparser"
	"github.com/ginjaninja78/sevkiyat-converter/internal/errors"
	"github.com/ginjaninja78/sevkiyat-converter/internal/logging"
	"github.com/ginjaninja78/sevkiyat-converter/internal/matcher"
	"github.com/ginjaninja78/sevkiyat-converter/internal/shipment"
	"github.com/ginjaninja78/sevkiyat-converter/internal/types"
	"github.com/ginjaninja78/sevkiyat-converter/pkg/utils"
)

// DefaultNameFormat names artifacts "<stem>_<category>.xlsx".
const DefaultNameFormat = "{original}_{category}.xlsx"

// Renderer writes one shipment list to path.
type Renderer interface {
	Render(list *types.ShipmentList, path string) error
}

// =============================================================================
// CONVERTER STRUCTURE
// =============================================================================

// Converter runs the pipeline for single files.
type Converter struct {
	settings   csvparser.Settings
	matcher    *matcher.Matcher
	renderer   Renderer
	outputDir  string
	nameFormat string
	log        *zap.SugaredLogger

	mu sync.Mutex
	// claimed maps artifact paths handed out so far to the input that owns them.
	claimed map[string]string
}

// Option configures a Converter.
type Option func(*Converter)

// WithRenderer replaces the XLSX renderer.
func WithRenderer(r Renderer) Option {
	return func(c *Converter) { c.renderer = r }
}

// WithNameFormat sets the artifact name format (see utils.GenerateOutputFileName).
func WithNameFormat(format string) Option {
	return func(c *Converter) {
		if format != "" {
			c.nameFormat = format
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(c *Converter) { c.log = logging.OrNop(log) }
}

// New creates a Converter that writes artifacts to outputDir.
//
// PARAMETERS:
//   - settings: CSV parsing strategies and column aliases.
//   - m: The catalog matcher.
//   - outputDir: Directory for the rendered workbooks; it must exist.
func New(settings csvparser.Settings, m *matcher.Matcher, outputDir string, opts ...Option) *Converter {
	c := &Converter{
		settings:   settings,
		matcher:    m,
		outputDir:  outputDir,
		nameFormat: DefaultNameFormat,
		log:        logging.Nop(),
		claimed:    make(map[string]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.renderer == nil {
		c.renderer = shipment.NewRenderer(c.log)
	}
	return c
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Process converts one file. It never returns an error: failures are carried
// in the outcome. observe receives one event per stage and may be nil.
func (c *Converter) Process(ctx context.Context, path string, observe types.Observer) types.FileOutcome {
	if observe == nil {
		observe = types.NopObserver
	}
	start := time.Now()
	log := c.log.With(logging.FieldFile, path)

	outcome := types.FileOutcome{SourceFile: path}
	fail := func(err error) types.FileOutcome {
		outcome.Status = types.StatusFailed
		outcome.ErrorDetail = describe(err)
		outcome.Duration = time.Since(start)
		return outcome
	}

	// =========================================================================
	// STEP 1: PARSE
	// =========================================================================

	observe(types.Event{File: path, Stage: types.StageParseStarted})
	data, err := csvparser.ParseFile(path, c.settings)
	if err != nil {
		observe(types.Event{File: path, Stage: types.StageParseCompleted, Err: err})
		log.Warnw("parse failed", logging.FieldError, err)
		return fail(err)
	}
	outcome.RecordCount = len(data.Records)
	observe(types.Event{
		File:   path,
		Stage:  types.StageParseCompleted,
		Count:  len(data.Records),
		Detail: data.Strategy.Name(),
	})
	log.Debugw("parsed",
		logging.FieldStrategy, data.Strategy.Name(),
		logging.FieldCount, len(data.Records),
		"header_row", data.HeaderRow,
		"branch", data.Branch,
	)
	if data.InvalidQuantities > 0 {
		log.Warnw("unparseable quantities recorded as 0", logging.FieldCount, data.InvalidQuantities)
	}

	// =========================================================================
	// STEP 2: CLASSIFY
	// =========================================================================

	assignments := c.matcher.ClassifyAll(data.Records)
	manifest := shipment.Build(assignments)
	outcome.UnmatchedCount = manifest.Unmatched().Len()
	observe(types.Event{
		File:   path,
		Stage:  types.StageMatchCompleted,
		Count:  len(assignments),
		Detail: matchDetail(manifest),
	})

	// =========================================================================
	// STEP 3: RENDER
	// =========================================================================

	lists := manifest.NonEmpty()
	outcome.Artifacts = make(map[types.Category]string, len(lists))
	var renderErrs []error
	for _, list := range lists {
		artifact := c.claim(path, filepath.Join(c.outputDir, c.artifactName(path, data.Branch, list.Category)))
		if err := c.renderer.Render(list, artifact); err != nil {
			log.Errorw("render failed", logging.FieldCategory, list.Category, logging.FieldError, err)
			renderErrs = append(renderErrs, err)
			outcome.RenderErrors = append(outcome.RenderErrors, err.Error())
			continue
		}
		outcome.Artifacts[list.Category] = artifact
	}

	var renderErr error
	if len(renderErrs) > 0 {
		renderErr = renderErrs[0]
	}
	observe(types.Event{
		File:   path,
		Stage:  types.StageRenderCompleted,
		Count:  len(outcome.Artifacts),
		Detail: artifactDetail(outcome.Artifacts),
		Err:    renderErr,
	})

	if len(lists) > 0 && len(outcome.Artifacts) == 0 {
		outcome.RenderErrors = nil
		return fail(errors.Newf("every category failed to render: %s", joinErrors(renderErrs)))
	}

	outcome.Status = types.StatusSucceeded
	outcome.Duration = time.Since(start)
	log.Infow("file converted",
		logging.FieldCount, outcome.RecordCount,
		"unmatched", outcome.UnmatchedCount,
		"artifacts", len(outcome.Artifacts),
		logging.FieldDurationMS, outcome.Duration.Milliseconds(),
	)
	return outcome
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func (c *Converter) artifactName(path, branch string, category types.Category) string {
	return utils.GenerateOutputFileName(c.nameFormat, map[string]string{
		"original": utils.FileStem(path),
		"category": string(category),
		"branch":   branch,
	})
}

// claim reserves artifact for source. A path already owned by another input
// is suffixed before the extension until it is free.
func (c *Converter) claim(source, artifact string) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	ext := filepath.Ext(artifact)
	base := strings.TrimSuffix(artifact, ext)
	candidate := artifact
	for n := 2; ; n++ {
		owner, taken := c.claimed[candidate]
		if !taken || owner == source {
			break
		}
		candidate = base + "_" + strconv.Itoa(n) + ext
	}
	if candidate != artifact {
		c.log.Warnw("artifact name already used in this batch",
			logging.FieldFile, source,
			logging.FieldPath, candidate,
			"wanted", filepath.Base(artifact),
			"owner", c.claimed[artifact],
		)
	}
	c.claimed[candidate] = source
	return candidate
}

// describe renders an error and its hints as one line for reports.
func describe(err error) string {
	msg := err.Error()
	if hint := errors.FlattenHints(err); hint != "" {
		msg += " (" + strings.ReplaceAll(hint, "\n", "; ") + ")"
	}
	return msg
}

func joinErrors(errs []error) string {
	parts := make([]string, len(errs))
	for i, err := range errs {
		parts[i] = err.Error()
	}
	return strings.Join(parts, "; ")
}

func matchDetail(m *shipment.Manifest) string {
	parts := make([]string, 0, len(shipment.OutputCategories))
	for _, c := range shipment.OutputCategories {
		parts = append(parts, string(c)+"="+strconv.Itoa(m.List(c).Len()))
	}
	return strings.Join(parts, " ")
}

func artifactDetail(artifacts map[types.Category]string) string {
	var names []string
	for _, c := range shipment.OutputCategories {
		if p, ok := artifacts[c]; ok {
			names = append(names, filepath.Base(p))
		}
	}
	return strings.Join(names, ", ")
}
