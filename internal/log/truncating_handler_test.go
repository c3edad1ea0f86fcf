package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"unicode/utf8"
)

// capture builds a logger over a TruncatingHandler writing JSON into
// buf, so attribute values can be decoded back out.
func capture(maxLen int) (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	js := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	return slog.New(NewTruncatingHandler(js, maxLen)), &buf
}

func TestTruncatingHandler(t *testing.T) {
	t.Parallel()

	t.Run("short values pass through", func(t *testing.T) {
		t.Parallel()

		logger, buf := capture(32)
		logger.Info("fetch", "url", "https://example.com/")

		var rec map[string]any
		if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if rec["url"] != "https://example.com/" {
			t.Errorf("url = %v", rec["url"])
		}
	})

	t.Run("long strings are cut with a suffix", func(t *testing.T) {
		t.Parallel()

		logger, buf := capture(32)
		logger.Info("page", "body", strings.Repeat("a", 100))

		var rec map[string]any
		if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
			t.Fatalf("decode: %v", err)
		}
		body, _ := rec["body"].(string)
		if !strings.HasSuffix(body, truncationSuffix) {
			t.Errorf("body = %q, want truncation suffix", body)
		}
		if got := len(body); got != 32+len(truncationSuffix) {
			t.Errorf("body length = %d, want %d", got, 32+len(truncationSuffix))
		}
	})

	t.Run("multibyte runes stay valid", func(t *testing.T) {
		t.Parallel()

		logger, buf := capture(5)
		logger.Info("page", "title", "日本語のタイトル")

		var rec map[string]any
		if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
			t.Fatalf("decode: %v", err)
		}
		title, _ := rec["title"].(string)
		if !utf8.ValidString(title) {
			t.Errorf("truncated value is not valid UTF-8: %q", title)
		}
	})

	t.Run("non-string values are untouched", func(t *testing.T) {
		t.Parallel()

		logger, buf := capture(4)
		logger.Info("audit", "checks", 7, "elapsed", 1.5)

		var rec map[string]any
		if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if rec["checks"] != float64(7) {
			t.Errorf("checks = %v", rec["checks"])
		}
	})

	t.Run("group attributes are truncated recursively", func(t *testing.T) {
		t.Parallel()

		logger, buf := capture(8)
		logger.Info("audit", slog.Group("page", slog.String("html", strings.Repeat("x", 50))))

		if !strings.Contains(buf.String(), truncationSuffix) {
			t.Errorf("group value not truncated: %s", buf.String())
		}
	})
}

func TestNewLoggerLevels(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	quiet := NewLogger(&buf, false)
	quiet.Debug("hidden")
	quiet.Info("also hidden")
	if buf.Len() != 0 {
		t.Errorf("non-verbose logger emitted: %s", buf.String())
	}
	quiet.Warn("visible")
	if buf.Len() == 0 {
		t.Error("warning suppressed")
	}

	buf.Reset()
	verbose := NewLogger(&buf, true)
	verbose.Debug("now visible")
	if buf.Len() == 0 {
		t.Error("verbose logger suppressed debug output")
	}
}
