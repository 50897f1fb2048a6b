// Package observability provides logging and metrics.
package observability

import (
	"log/slog"
	"os"
)

// Logger wraps slog.Logger to provide specialized logging methods.
type Logger struct {
	*slog.Logger
}

// GlobalLogger is the default logger instance for the application.
var GlobalLogger *Logger

func init() {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	GlobalLogger = &Logger{Logger: slog.New(handler)}
}

// Component returns a logger scoped to one component, e.g. "docstore" or
// "viewmodel.feed".
func Component(name string) *Logger {
	return &Logger{Logger: GlobalLogger.With("component", name)}
}

// StreamLogger provides structured logging for live-stream lifecycles.
type StreamLogger struct {
	stream string
	logger *Logger
}

// NewStreamLogger creates a StreamLogger for the named stream.
func NewStreamLogger(stream string) *StreamLogger {
	return &StreamLogger{stream: stream, logger: GlobalLogger}
}

// Started logs a listener attach.
func (l *StreamLogger) Started() {
	l.logger.Info("stream listener attached", "stream", l.stream)
}

// Emitted logs one snapshot emission.
func (l *StreamLogger) Emitted(size int) {
	l.logger.Debug("stream emission", "stream", l.stream, "size", size)
}

// Failed logs a terminating listener error.
func (l *StreamLogger) Failed(err error) {
	ListenerErrors.WithLabelValues(l.stream).Inc()
	l.logger.Error("stream listener failed", "stream", l.stream, "error", err)
}

// Stopped logs a listener detach.
func (l *StreamLogger) Stopped() {
	l.logger.Info("stream listener detached", "stream", l.stream)
}
