package check

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/siteaudit/siteaudit/internal/model"
)

// TestRedirectInspectorCheck tests probe classification.
func TestRedirectInspectorCheck(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("non-redirect status passes", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		i := NewRedirectInspector()
		if res := i.Check(ctx, newTarget(t, srv.URL)); res != nil {
			t.Errorf("expected nil, got %+v", res)
		}
	})

	t.Run("redirect without location is review", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusFound)
		}))
		defer srv.Close()

		i := NewRedirectInspector()
		res := i.Check(ctx, newTarget(t, srv.URL))
		if res == nil || res.Status != model.StatusReview {
			t.Fatalf("expected review, got %+v", res)
		}
		if res.Reason != "redirect without destination" {
			t.Errorf("reason = %q", res.Reason)
		}
	})

	t.Run("cross-domain redirect fails", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Location", "https://elsewhere.example.net/landing")
			w.WriteHeader(http.StatusMovedPermanently)
		}))
		defer srv.Close()

		i := NewRedirectInspector()
		res := i.Check(ctx, newTarget(t, srv.URL))
		if res == nil || !res.Fail() {
			t.Fatalf("expected fail, got %+v", res)
		}
		if res.Reason != "external redirect" {
			t.Errorf("reason = %q, want %q", res.Reason, "external redirect")
		}
		if res.Details["destination"] != "https://elsewhere.example.net/landing" {
			t.Errorf("destination = %v", res.Details["destination"])
		}
	})

	t.Run("relative redirect on same host passes", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/" {
				w.Header().Set("Location", "/home")
				w.WriteHeader(http.StatusFound)
				return
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		i := NewRedirectInspector()
		if res := i.Check(ctx, newTarget(t, srv.URL+"/")); res != nil {
			t.Errorf("expected nil, got %+v", res)
		}
	})

	t.Run("network failure is an error result", func(t *testing.T) {
		t.Parallel()

		// A closed server guarantees a connection error.
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		srv.Close()

		i := NewRedirectInspector()
		res := i.Check(ctx, newTarget(t, srv.URL))
		if res == nil || res.Status != model.StatusError {
			t.Fatalf("expected error result, got %+v", res)
		}
		if res.Reason != "probe failed" {
			t.Errorf("reason = %q, want %q", res.Reason, "probe failed")
		}
	})

	t.Run("falls back to GET when HEAD is rejected", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodHead {
				// Drop the connection so the HEAD probe errors.
				hj, ok := w.(http.Hijacker)
				if !ok {
					t.Error("server does not support hijacking")
					return
				}
				conn, _, err := hj.Hijack()
				if err != nil {
					t.Errorf("hijack: %v", err)
					return
				}
				conn.Close()
				return
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		i := NewRedirectInspector()
		if res := i.Check(ctx, newTarget(t, srv.URL)); res != nil {
			t.Errorf("expected nil after GET fallback, got %+v", res)
		}
	})
}
