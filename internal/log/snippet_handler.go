package log

import (
	"context"
	"io"
	"log/slog"
	"strings"
)

// MaxValueRunes is the longest string attribute value logged verbatim.
// Longer values, typically chapter bodies or context snippets, are cut
// to this length with a marker appended.
const MaxValueRunes = 160

// Ellipsis marks a truncated value.
const Ellipsis = "…"

// MaskValue replaces credential-like values.
const MaskValue = "***REDACTED***"

// sensitiveKeys lists attribute keys whose values are always masked.
var sensitiveKeys = map[string]bool{
	"api_key":       true,
	"apikey":        true,
	"api-key":       true,
	"authorization": true,
	"token":         true,
	"access_token":  true,
	"secret":        true,
	"password":      true,
}

// SnippetHandler wraps an slog.Handler to truncate long prose values and
// mask credentials before records reach the underlying handler.
//
// Design decision: a handler wrapper rather than a custom logger, so it
// integrates with standard slog APIs and composes with any underlying
// handler (text, JSON, test capture).
type SnippetHandler struct {
	handler slog.Handler
}

// NewSnippetHandler creates a SnippetHandler wrapping the given handler.
// If handler is nil, slog.Default().Handler() is used.
func NewSnippetHandler(handler slog.Handler) *SnippetHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &SnippetHandler{handler: handler}
}

// Enabled delegates to the underlying handler.
func (h *SnippetHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle rewrites the record's attributes and passes it on.
func (h *SnippetHandler) Handle(ctx context.Context, r slog.Record) error {
	rewritten := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		rewritten.AddAttrs(h.rewriteAttr(a))
		return true
	})
	return h.handler.Handle(ctx, rewritten)
}

// WithAttrs returns a new handler with the given attributes added,
// rewritten first.
func (h *SnippetHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	rewritten := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		rewritten[i] = h.rewriteAttr(a)
	}
	return &SnippetHandler{handler: h.handler.WithAttrs(rewritten)}
}

// WithGroup returns a new handler with the given group name.
func (h *SnippetHandler) WithGroup(name string) slog.Handler {
	return &SnippetHandler{handler: h.handler.WithGroup(name)}
}

// rewriteAttr masks or truncates a single attribute, recursing into
// groups.
func (h *SnippetHandler) rewriteAttr(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		rewritten := make([]slog.Attr, len(attrs))
		for i, groupAttr := range attrs {
			rewritten[i] = h.rewriteAttr(groupAttr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(rewritten...)}
	}

	if sensitiveKeys[strings.ToLower(a.Key)] {
		return slog.String(a.Key, MaskValue)
	}

	if a.Value.Kind() == slog.KindString {
		if truncated, ok := truncate(a.Value.String()); ok {
			return slog.String(a.Key, truncated)
		}
	}
	return a
}

// truncate shortens s to MaxValueRunes runes. The second return reports
// whether anything was cut.
func truncate(s string) (string, bool) {
	runes := []rune(s)
	if len(runes) <= MaxValueRunes {
		return s, false
	}
	return string(runes[:MaxValueRunes]) + Ellipsis, true
}

// NewLogger creates a *slog.Logger writing text records to w through a
// SnippetHandler. verbose selects LevelDebug, otherwise LevelWarn.
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	inner := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(NewSnippetHandler(inner))
}
