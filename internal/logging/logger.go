package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// InitLogger installs the default slog logger with the specified level and format.
// level: "debug", "info", "warn", "error" (defaults to "info")
// format: "json" or "text" (defaults to "text")
func InitLogger(level, format string) {
	slog.SetDefault(New(os.Stderr, level, format))
}

// New builds a gesture-aware logger writing to w.
func New(w io.Writer, level, format string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(NewHandler(handler))
}

type gestureKey struct{}

// WithGesture returns a context whose log records carry the given gesture ID.
func WithGesture(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, gestureKey{}, id)
}

// Gesture extracts the gesture ID from ctx, returning ("", false) if not present.
func Gesture(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(gestureKey{}).(string)
	return id, ok && id != ""
}

// Handler wraps an existing slog.Handler to inject a "gesture_id" attribute
// when the context carries one.
type Handler struct {
	inner slog.Handler
}

// NewHandler creates a gesture-aware handler wrapping the given handler.
func NewHandler(inner slog.Handler) *Handler {
	return &Handler{inner: inner}
}

func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	if id, ok := Gesture(ctx); ok {
		r.AddAttrs(slog.String("gesture_id", id))
	}
	return h.inner.Handle(ctx, r)
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &Handler{inner: h.inner.WithAttrs(attrs)}
}

func (h *Handler) WithGroup(name string) slog.Handler {
	return &Handler{inner: h.inner.WithGroup(name)}
}
