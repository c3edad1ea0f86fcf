package pipeline

import (
	"context"
	"time"

	"github.com/siteaudit/siteaudit/internal/model"
)

// ReasonTimeout is the reason string on synthetic timeout results.
const ReasonTimeout = "timed out"

// RunWithDeadline executes fn and returns its result, or a synthetic
// error result when fn does not finish within d. Every concurrent check
// goes through this one combinator so deadline semantics are uniform.
//
// Design decision: the deadline does not cancel fn. A check that blows
// its deadline is abandoned; its remote calls may still complete and
// their results are discarded. Propagating cancellation would gain
// little (the cost is already spent) and would complicate every check
// with cleanup paths.
func RunWithDeadline(ctx context.Context, d time.Duration, name string, fn func(context.Context) *model.CheckResult) (result *model.CheckResult, timedOut bool) {
	done := make(chan *model.CheckResult, 1)
	go func() {
		done <- fn(ctx)
	}()

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case res := <-done:
		return res, false
	case <-timer.C:
		return model.NewCheckResult(name, model.StatusError, ReasonTimeout), true
	case <-ctx.Done():
		return model.NewCheckResult(name, model.StatusError, "audit cancelled").
			WithDetail("error", ctx.Err().Error()), false
	}
}
