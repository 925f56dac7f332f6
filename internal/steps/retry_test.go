// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package steps_test

import (
	"context"
	"time"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/testing"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/canonical/sunbeam/core/plan"
	"github.com/canonical/sunbeam/internal/steps"
	"github.com/canonical/sunbeam/terraform"
)

type retrySuite struct {
	testing.IsolationSuite
}

var _ = gc.Suite(&retrySuite{})

// fastPolicy retries quickly enough for tests to run on the wall clock.
func fastPolicy() steps.RetryPolicy {
	return steps.RetryPolicy{
		Interval:   time.Millisecond,
		MaxElapsed: 50 * time.Millisecond,
		Clock:      clock.WallClock,
	}
}

// flakyStep fails with the given error a number of times before
// succeeding.
type flakyStep struct {
	plan.StepBase

	failures int
	err      error
	runs     int
}

func (s *flakyStep) Run(ctx context.Context, reporter plan.Reporter) plan.Result {
	s.runs++
	if s.runs <= s.failures {
		return plan.FailedErr(s.err)
	}
	return plan.CompletedResult()
}

func lockedError() error {
	return errors.Annotatef(terraform.ErrStateLocked, `error acquiring the state lock
Lock Info:
  ID:        11aa-22bb
  Operation: OperationTypeApply`)
}

func (s *retrySuite) TestLockReleasedBeforeBudget(c *gc.C) {
	step := &flakyStep{
		StepBase: plan.NewStepBase("flaky", "testing"),
		failures: 2,
		err:      lockedError(),
	}
	wrapped := steps.RetryOnLockPolicy(step, fastPolicy())

	result := wrapped.Run(context.Background(), plan.NopReporter())
	c.Check(result.Type, gc.Equals, plan.Completed)
	c.Check(step.runs, gc.Equals, 3)
}

func (s *retrySuite) TestLockHeldPastBudget(c *gc.C) {
	step := &flakyStep{
		StepBase: plan.NewStepBase("flaky", "testing"),
		failures: 1000,
		err:      lockedError(),
	}
	wrapped := steps.RetryOnLockPolicy(step, fastPolicy())

	result := wrapped.Run(context.Background(), plan.NopReporter())
	c.Check(result.Type, gc.Equals, plan.Failed)
	c.Check(result.Message, gc.Matches,
		`Terraform state is locked \(lock ID: 11aa-22bb\)\..*'sunbeam plans unlock'.*`)
	c.Check(step.runs > 1, jc.IsTrue)
}

func (s *retrySuite) TestOtherFailuresNotRetried(c *gc.C) {
	step := &flakyStep{
		StepBase: plan.NewStepBase("flaky", "testing"),
		failures: 1000,
		err:      errors.New("wires crossed"),
	}
	wrapped := steps.RetryOnLockPolicy(step, fastPolicy())

	result := wrapped.Run(context.Background(), plan.NopReporter())
	c.Check(result.Type, gc.Equals, plan.Failed)
	c.Check(result.Message, gc.Equals, "wires crossed")
	c.Check(step.runs, gc.Equals, 1)
}

func (s *retrySuite) TestSuccessFirstTry(c *gc.C) {
	step := &flakyStep{StepBase: plan.NewStepBase("steady", "testing")}
	wrapped := steps.RetryOnLockPolicy(step, fastPolicy())

	result := wrapped.Run(context.Background(), plan.NopReporter())
	c.Check(result.Type, gc.Equals, plan.Completed)
	c.Check(step.runs, gc.Equals, 1)
}

func (s *retrySuite) TestDelegatesEverythingButRun(c *gc.C) {
	step := &flakyStep{StepBase: plan.NewStepBase("steady", "a description")}
	wrapped := steps.RetryOnLockPolicy(step, fastPolicy())

	c.Check(wrapped.Name(), gc.Equals, "steady")
	c.Check(wrapped.Description(), gc.Equals, "a description")
	c.Check(wrapped.Status(), gc.Equals, "a description ... ")
}
