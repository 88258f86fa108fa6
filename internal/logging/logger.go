// Package logging builds the zap logger shared by the converter.
//
// Components never reach for a global; they take a *zap.SugaredLogger in their
// constructor and fall back to Nop() when none is given.
package logging

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Standard field names for structured log entries.
const (
	FieldRunID      = "run_id"
	FieldFile       = "file"
	FieldStage      = "stage"
	FieldCategory   = "category"
	FieldCount      = "count"
	FieldPath       = "path"
	FieldStrategy   = "strategy"
	FieldDurationMS = "duration_ms"
	FieldError      = "error"
)

// New builds a logger. jsonOutput selects zap's production JSON encoder;
// otherwise a compact console encoder writes to stderr so stdout stays free
// for the summary.
func New(level string, jsonOutput bool) (*zap.SugaredLogger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	if jsonOutput {
		cfg := zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(lvl)
		cfg.OutputPaths = []string{"stderr"}
		cfg.ErrorOutputPaths = []string{"stderr"}
		zl, err := cfg.Build()
		if err != nil {
			return nil, err
		}
		return zl.Sugar(), nil
	}

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.AddSync(os.Stderr),
		lvl,
	)
	return zap.New(core).Sugar(), nil
}

// ParseLevel accepts debug, info, warn, error (case-insensitive). Empty means info.
func ParseLevel(level string) (zapcore.Level, error) {
	if strings.TrimSpace(level) == "" {
		return zapcore.InfoLevel, nil
	}
	return zapcore.ParseLevel(strings.ToLower(level))
}

// Nop returns a logger that discards everything.
func Nop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.SugaredLogger) *zap.SugaredLogger {
	if l == nil {
		return Nop()
	}
	return l
}
