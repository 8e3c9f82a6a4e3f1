package imageset

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with imageset-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
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
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
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
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithImageNumber adds an image number field to the logger.
func (l *Logger) WithImageNumber(n uint32) *Logger {
	return &Logger{
		Logger: l.Logger.With("image_number", n),
	}
}

// WithGroupKeys adds a grouping keys field to the logger.
func (l *Logger) WithGroupKeys(keys []string) *Logger {
	return &Logger{
		Logger: l.Logger.With("group_keys", keys),
	}
}

// LogAddImageSet logs the registration of one image set.
func (l *Logger) LogAddImageSet(ctx context.Context, imageNumber uint32, err error) {
	if err != nil {
		l.ErrorContext(ctx, "add image set failed",
			"image_number", imageNumber,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "image set added",
			"image_number", imageNumber,
		)
	}
}

// LogPrepareRun logs a grouping run.
func (l *Logger) LogPrepareRun(ctx context.Context, keys []string, groups, images int, reordered bool, err error) {
	if err != nil {
		l.ErrorContext(ctx, "prepare run failed",
			"group_keys", keys,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "prepare run completed",
			"group_keys", keys,
			"groups", groups,
			"images", images,
			"reordered", reordered,
		)
	}
}

// LogSnapshot logs a snapshot save.
func (l *Logger) LogSnapshot(ctx context.Context, name string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "snapshot failed",
			"name", name,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "snapshot saved",
			"name", name,
		)
	}
}

// LogRestore logs a snapshot restore.
func (l *Logger) LogRestore(ctx context.Context, name string, images int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "restore failed",
			"name", name,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "restore completed",
			"name", name,
			"images", images,
		)
	}
}

// LogAggregate logs a group extrema aggregation.
func (l *Logger) LogAggregate(ctx context.Context, groupNumber, members int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "extrema aggregation failed",
			"group_number", groupNumber,
			"members", members,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "extrema aggregation completed",
			"group_number", groupNumber,
			"members", members,
		)
	}
}
