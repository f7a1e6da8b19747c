// Package logger builds the zap logger shared by every pipeline stage.
package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New constructs the pipeline logger: console encoding for interactive use,
// JSON for machine-readable run logs. Debug enables per-record diagnostics
// such as dedup ambiguity traces and remote body previews.
func New(json bool, debug bool) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if debug {
		level = zapcore.DebugLevel
	}

	encoding := "console"
	if json {
		encoding = "json"
	}

	cfg := zap.Config{
		Encoding:         encoding,
		Level:            zap.NewAtomicLevelAt(level),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
		EncoderConfig:    encoderConfig(),
	}
	return cfg.Build()
}

// encoderConfig keys each line by pipeline event so a run log reads as a
// stage timeline ("source ingested", "quality gate evaluated", ...).
func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		MessageKey:     "event",
		LevelKey:       "level",
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		TimeKey:        "ts",
		EncodeTime:     zapcore.RFC3339TimeEncoder,
		CallerKey:      "caller",
		EncodeCaller:   zapcore.ShortCallerEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}
}

// TruncateForLog shortens the provided string to the specified limit, appending an ellipsis when truncated.
func TruncateForLog(s string, limit int) string {
	s = strings.TrimSpace(s)
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
