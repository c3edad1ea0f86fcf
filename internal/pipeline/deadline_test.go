package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/siteaudit/siteaudit/internal/model"
)

func TestRunWithDeadline(t *testing.T) {
	t.Parallel()

	t.Run("fast check passes through", func(t *testing.T) {
		t.Parallel()

		want := model.NewCheckResult("fast", model.StatusPass, "")
		got, timedOut := RunWithDeadline(context.Background(), time.Second, "fast", func(context.Context) *model.CheckResult {
			return want
		})
		if timedOut {
			t.Error("unexpected timeout")
		}
		if got != want {
			t.Errorf("result = %+v, want the check's own result", got)
		}
	})

	t.Run("stalled check becomes a timeout result", func(t *testing.T) {
		t.Parallel()

		block := make(chan struct{})
		defer close(block)

		got, timedOut := RunWithDeadline(context.Background(), 20*time.Millisecond, "stalled", func(context.Context) *model.CheckResult {
			<-block
			return model.NewCheckResult("stalled", model.StatusPass, "")
		})
		if !timedOut {
			t.Fatal("expected timeout")
		}
		if got.Status != model.StatusError {
			t.Errorf("status = %v, want error", got.Status)
		}
		if got.Reason != ReasonTimeout {
			t.Errorf("reason = %q, want %q", got.Reason, ReasonTimeout)
		}
		if got.Check != "stalled" {
			t.Errorf("check = %q, want %q", got.Check, "stalled")
		}
	})

	t.Run("cancelled context is not a timeout", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		block := make(chan struct{})
		defer close(block)

		got, timedOut := RunWithDeadline(ctx, time.Minute, "cancelled", func(context.Context) *model.CheckResult {
			<-block
			return nil
		})
		if timedOut {
			t.Error("cancellation must not count as a timeout")
		}
		if got.Status != model.StatusError {
			t.Errorf("status = %v, want error", got.Status)
		}
		if got.Reason != "audit cancelled" {
			t.Errorf("reason = %q", got.Reason)
		}
	})
}
