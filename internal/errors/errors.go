// Package errors provides error handling for the converter.
//
// It re-exports github.com/cockroachdb/errors (stack traces, wrapping, hints)
// and defines the pipeline's error taxonomy:
//
//	ParseError   - an input file could not be read; fails that file only
//	RenderError  - one category artifact could not be written; fails that
//	               category only
//	ErrBatchInterrupted - the batch was cancelled between files
//
// Usage:
//
//	if err := doSomething(); err != nil {
//	    return errors.Wrap(err, "failed to do something")
//	}
//
//	var perr *errors.ParseError
//	if errors.As(err, &perr) { ... }
package errors

import (
	"fmt"

	crdb "github.com/cockroachdb/errors"

	"github.com/ginjaninja78/sevkiyat-converter/internal/types"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
)

// User-facing messages and details
var (
	WithHint       = crdb.WithHint
	WithHintf      = crdb.WithHintf
	WithDetail     = crdb.WithDetail
	WithDetailf    = crdb.WithDetailf
	GetAllHints    = crdb.GetAllHints
	FlattenHints   = crdb.FlattenHints
	FlattenDetails = crdb.FlattenDetails
)

// Error inspection
var (
	Is        = crdb.Is
	IsAny     = crdb.IsAny
	As        = crdb.As
	Unwrap    = crdb.Unwrap
	UnwrapAll = crdb.UnwrapAll
)

// Sentinels for errors.Is checks. Typed errors below match their sentinel.
var (
	ErrParse            = New("parse error")
	ErrRender           = New("render error")
	ErrBatchInterrupted = New("batch interrupted")
)

// ParseError reports that an input file could not be turned into records.
type ParseError struct {
	File string
	Err  error
}

// NewParseError wraps err as a ParseError for file.
func NewParseError(file string, err error) *ParseError {
	return &ParseError{File: file, Err: err}
}

// NewParseErrorf builds a ParseError from a formatted message.
func NewParseErrorf(file, format string, args ...interface{}) *ParseError {
	return &ParseError{File: file, Err: Newf(format, args...)}
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.File, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrParse) succeed for any ParseError.
func (e *ParseError) Is(target error) bool { return target == ErrParse }

// RenderError reports that one category artifact could not be written.
type RenderError struct {
	Category types.Category
	Path     string
	Err      error
}

// NewRenderError wraps err as a RenderError.
func NewRenderError(category types.Category, path string, err error) *RenderError {
	return &RenderError{Category: category, Path: path, Err: err}
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %s list to %s: %v", e.Category, e.Path, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrRender) succeed for any RenderError.
func (e *RenderError) Is(target error) bool { return target == ErrRender }
