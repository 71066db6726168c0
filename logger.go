package hnswindex

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with index-specific helpers so every operation
// logs consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses a default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// LogInsert logs an insert operation.
func (l *Logger) LogInsert(ctx context.Context, column string, row uint64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "insert failed",
			"column", column,
			"row", row,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "insert completed",
			"column", column,
			"row", row,
		)
	}
}

// LogErase logs an erase operation.
func (l *Logger) LogErase(ctx context.Context, column string, row uint64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "erase failed",
			"column", column,
			"row", row,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "erase completed",
			"column", column,
			"row", row,
		)
	}
}

// LogSearch logs a search operation.
func (l *Logger) LogSearch(ctx context.Context, column string, k, resultsFound int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "search failed",
			"column", column,
			"k", k,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "search completed",
			"column", column,
			"k", k,
			"results", resultsFound,
		)
	}
}

// LogRebuild logs a rebuild operation.
func (l *Logger) LogRebuild(ctx context.Context, column string, numVectors int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "rebuild failed",
			"column", column,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "rebuild completed",
			"column", column,
			"vectors", numVectors,
		)
	}
}
