// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package steps holds the concrete deployment steps shared by the
// bootstrap, join and resize plans.
package steps

import (
	"context"
	"time"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/loggo/v2"
	"github.com/juju/retry"

	"github.com/canonical/sunbeam/core/plan"
	"github.com/canonical/sunbeam/terraform"
)

var logger = loggo.GetLogger("sunbeam.steps")

// RetryPolicy controls how a retrying step wrapper behaves.
type RetryPolicy struct {
	// Interval is the fixed delay between attempts.
	Interval time.Duration

	// MaxElapsed bounds the total time spent retrying.
	MaxElapsed time.Duration

	// Clock times the delays.
	Clock clock.Clock
}

// DefaultRetryPolicy matches the cadence of state lock contention:
// locks are usually released within a minute or two.
func DefaultRetryPolicy(clk clock.Clock) RetryPolicy {
	return RetryPolicy{
		Interval:   time.Minute,
		MaxElapsed: 5 * time.Minute,
		Clock:      clk,
	}
}

// RetryOnLock wraps a step so that a run failing with
// terraform.ErrStateLocked is retried on the default policy. Any other
// failure passes through untouched.
func RetryOnLock(step plan.Step, clk clock.Clock) plan.Step {
	return RetryOnLockPolicy(step, DefaultRetryPolicy(clk))
}

// RetryOnLockPolicy is RetryOnLock with an explicit policy, for callers
// that need a different cadence.
func RetryOnLockPolicy(step plan.Step, policy RetryPolicy) plan.Step {
	return &lockRetryStep{Step: step, policy: policy}
}

// lockRetryStep retries the wrapped step's Run while it fails with a
// state lock error. IsSkip, prompts and everything else delegate to the
// wrapped step.
type lockRetryStep struct {
	plan.Step

	policy RetryPolicy
}

func (s *lockRetryStep) Run(ctx context.Context, reporter plan.Reporter) plan.Result {
	var last plan.Result
	err := retry.Call(retry.CallArgs{
		Clock:       s.policy.Clock,
		Delay:       s.policy.Interval,
		MaxDuration: s.policy.MaxElapsed,
		Func: func() error {
			last = s.Step.Run(ctx, reporter)
			if last.Type == plan.Failed && last.Err != nil {
				return last.Err
			}
			return nil
		},
		IsFatalError: func(err error) bool {
			return !errors.Is(err, terraform.ErrStateLocked)
		},
		NotifyFunc: func(lastError error, attempt int) {
			logger.Debugf("state locked running %q (attempt %d), will retry: %v",
				s.Step.Name(), attempt, lastError)
		},
		Stop: ctx.Done(),
	})
	if err == nil {
		return last
	}
	if retry.IsDurationExceeded(err) || retry.IsRetryStopped(err) {
		return plan.Failedf(
			"Terraform state is locked (lock ID: %s). The lock is usually released "+
				"within a few minutes; if it persists, run 'sunbeam plans unlock' to "+
				"clear it.", terraform.LockID(last.Err))
	}
	// A fatal (non-lock) error: the wrapped step's own result stands.
	return last
}
