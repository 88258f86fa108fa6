// Package batch runs the converter over a list of files.
//
// Files are processed one at a time in submission order. A failing or
// panicking file becomes a Failed outcome and the batch moves on;
// cancellation is honoured between files, never mid-file, and yields a partial
// summary with Interrupted set.
//
// Progress is reported only through the Observer callback. The orchestrator
// writes nothing to stdout.
package batch

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ginjaninja78/sevkiyat-converter/internal/errors"
	"github.com/ginjaninja78/sevkiyat-converter/internal/logging"
	"github.com/ginjaninja78/sevkiyat-converter/internal/types"
)

// FileProcessor converts one file. It must not panic, but if it does the
// orchestrator recovers and records the file as failed.
type FileProcessor interface {
	Process(ctx context.Context, path string, observe types.Observer) types.FileOutcome
}

// FileProcessorFunc adapts a function to FileProcessor.
type FileProcessorFunc func(ctx context.Context, path string, observe types.Observer) types.FileOutcome

func (f FileProcessorFunc) Process(ctx context.Context, path string, observe types.Observer) types.FileOutcome {
	return f(ctx, path, observe)
}

// Orchestrator drives a FileProcessor over a batch.
type Orchestrator struct {
	processor FileProcessor
	observer  types.Observer
	log       *zap.SugaredLogger

	now   func() time.Time
	newID func() string
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithObserver sets the event callback.
func WithObserver(obs types.Observer) Option {
	return func(o *Orchestrator) {
		if obs != nil {
			o.observer = obs
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(o *Orchestrator) { o.log = logging.OrNop(log) }
}

// WithRunID fixes the run identifier instead of generating a UUID.
func WithRunID(id string) Option {
	return func(o *Orchestrator) { o.newID = func() string { return id } }
}

// New creates an Orchestrator.
func New(p FileProcessor, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		processor: p,
		observer:  types.NopObserver,
		log:       logging.Nop(),
		now:       time.Now,
		newID:     func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// RunBatch processes paths sequentially and returns the summary. It never
// fails: per-file problems are in the outcomes, and a cancelled context
// stops the batch before the next file.
func (o *Orchestrator) RunBatch(ctx context.Context, paths []string) types.BatchSummary {
	summary := types.BatchSummary{
		RunID:     o.newID(),
		Submitted: len(paths),
		StartedAt: o.now(),
	}
	log := o.log.With(logging.FieldRunID, summary.RunID)
	total := len(paths)

	o.emit(log, types.Event{RunID: summary.RunID, Index: -1, Total: total, Stage: types.StageBatchStarted, Count: total})
	log.Infow("batch started", logging.FieldCount, total)

	for i, path := range paths {
		if err := ctx.Err(); err != nil {
			summary.Interrupted = true
			log.Warnw("batch interrupted",
				"processed", summary.TotalFiles,
				"remaining", total-i,
				logging.FieldError, err,
			)
			break
		}

		stamp := func(e types.Event) {
			e.RunID = summary.RunID
			e.File = path
			e.Index = i
			e.Total = total
			o.emit(log, e)
		}

		outcome := o.processOne(ctx, path, stamp)
		summary.Record(outcome)

		final := types.Event{Stage: types.StageFileSucceeded, Count: outcome.RecordCount}
		if !outcome.Succeeded() {
			final.Stage = types.StageFileFailed
			final.Detail = outcome.ErrorDetail
			final.Err = errors.New(outcome.ErrorDetail)
		}
		stamp(final)
	}

	summary.FinishedAt = o.now()

	detail := ""
	var batchErr error
	if summary.Interrupted {
		detail = fmt.Sprintf("interrupted after %d of %d files", summary.TotalFiles, total)
		batchErr = errors.WithStack(errors.ErrBatchInterrupted)
	}
	o.emit(log, types.Event{
		RunID:  summary.RunID,
		Index:  -1,
		Total:  total,
		Stage:  types.StageBatchCompleted,
		Count:  summary.TotalFiles,
		Detail: detail,
		Err:    batchErr,
	})
	log.Infow("batch completed",
		"total", summary.TotalFiles,
		"succeeded", summary.SucceededFiles,
		"failed", summary.FailedFiles,
		"interrupted", summary.Interrupted,
		logging.FieldDurationMS, summary.FinishedAt.Sub(summary.StartedAt).Milliseconds(),
	)
	return summary
}

// processOne isolates a single file: a panic becomes a Failed outcome.
func (o *Orchestrator) processOne(ctx context.Context, path string, observe types.Observer) (outcome types.FileOutcome) {
	start := o.now()
	defer func() {
		if r := recover(); r != nil {
			o.log.Errorw("file processing panicked",
				logging.FieldFile, path,
				"panic", r,
				"stack", string(debug.Stack()),
			)
			outcome = types.FileOutcome{
				SourceFile:  path,
				Status:      types.StatusFailed,
				ErrorDetail: fmt.Sprintf("internal error: %v", r),
				Duration:    o.now().Sub(start),
			}
		}
	}()

	outcome = o.processor.Process(ctx, path, observe)
	if outcome.SourceFile == "" {
		outcome.SourceFile = path
	}
	if outcome.Status == "" {
		outcome.Status = types.StatusFailed
	}
	if !outcome.Succeeded() && outcome.ErrorDetail == "" {
		outcome.ErrorDetail = "file failed without detail"
	}
	return outcome
}

// emit stamps the time, logs the event and forwards it to the observer.
func (o *Orchestrator) emit(log *zap.SugaredLogger, e types.Event) {
	if e.At.IsZero() {
		e.At = o.now()
	}

	fields := []interface{}{logging.FieldStage, e.Stage}
	if e.File != "" {
		fields = append(fields, logging.FieldFile, e.File)
	}
	if e.Count != 0 {
		fields = append(fields, logging.FieldCount, e.Count)
	}
	if e.Detail != "" {
		fields = append(fields, "detail", e.Detail)
	}
	if e.Err != nil {
		fields = append(fields, logging.FieldError, e.Err)
		log.Warnw("pipeline event", fields...)
	} else {
		log.Debugw("pipeline event", fields...)
	}

	o.observer(e)
}
