package log

import (
	"context"
	"io"
	"log/slog"
	"unicode/utf8"
)

// DefaultMaxAttrLen is the default cap on logged string attributes.
// 512 bytes keeps full URLs and reasons intact while cutting page
// snapshots and excerpt dumps down to a recognizable prefix.
const DefaultMaxAttrLen = 512

// truncationSuffix marks values that were cut.
const truncationSuffix = "...(truncated)"

// TruncatingHandler wraps an slog.Handler and caps oversized string
// attribute values before passing records to the underlying handler.
//
// Design decision: We use a handler wrapper rather than trimming at
// each call site because:
//  1. It integrates seamlessly with standard slog APIs
//  2. It works with any underlying handler (text, JSON, etc.)
//  3. Call sites stay readable; nobody has to remember to trim
type TruncatingHandler struct {
	// handler is the underlying slog handler.
	handler slog.Handler

	// maxLen is the byte cap applied to string attribute values.
	maxLen int
}

// NewTruncatingHandler creates a TruncatingHandler wrapping the given
// handler. maxLen <= 0 selects DefaultMaxAttrLen. If handler is nil,
// the handler of slog.Default() is used.
func NewTruncatingHandler(handler slog.Handler, maxLen int) *TruncatingHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	if maxLen <= 0 {
		maxLen = DefaultMaxAttrLen
	}
	return &TruncatingHandler{handler: handler, maxLen: maxLen}
}

// Enabled reports whether the handler handles records at the given
// level. It delegates to the underlying handler.
func (h *TruncatingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle truncates the record's attributes and passes it on.
func (h *TruncatingHandler) Handle(ctx context.Context, r slog.Record) error {
	out := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(h.truncateAttr(a))
		return true
	})
	return h.handler.Handle(ctx, out)
}

// WithAttrs returns a new handler with the given attributes added,
// truncated first.
func (h *TruncatingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	truncated := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		truncated[i] = h.truncateAttr(a)
	}
	return &TruncatingHandler{handler: h.handler.WithAttrs(truncated), maxLen: h.maxLen}
}

// WithGroup returns a new handler with the given group name.
func (h *TruncatingHandler) WithGroup(name string) slog.Handler {
	return &TruncatingHandler{handler: h.handler.WithGroup(name), maxLen: h.maxLen}
}

// truncateAttr caps a single attribute, recursively handling groups.
func (h *TruncatingHandler) truncateAttr(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		out := make([]slog.Attr, len(attrs))
		for i, ga := range attrs {
			out[i] = h.truncateAttr(ga)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(out...)}
	}

	if a.Value.Kind() != slog.KindString {
		return a
	}
	v := a.Value.String()
	if len(v) <= h.maxLen {
		return a
	}

	// Cut at a rune boundary so truncated UTF-8 stays valid.
	cut := h.maxLen
	for cut > 0 && !utf8.RuneStart(v[cut]) {
		cut--
	}
	return slog.String(a.Key, v[:cut]+truncationSuffix)
}

// NewLogger creates a *slog.Logger with attribute truncation.
//
// Parameters:
//   - w: destination for log output (typically os.Stderr)
//   - verbose: if true, log level is Debug; otherwise Warn
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	text := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(NewTruncatingHandler(text, 0))
}

// NewJSONLogger creates a *slog.Logger with attribute truncation that
// outputs JSON. Useful for structured log aggregation in serve mode.
func NewJSONLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	js := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(NewTruncatingHandler(js, 0))
}
