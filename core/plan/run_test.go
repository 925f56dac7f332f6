// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package plan_test

import (
	"context"

	"github.com/juju/errors"
	"github.com/juju/testing"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/canonical/sunbeam/core/plan"
)

type runSuite struct {
	testing.IsolationSuite
}

var _ = gc.Suite(&runSuite{})

type fakeStep struct {
	plan.StepBase

	prompts  bool
	prompted bool
	skip     plan.Result
	run      plan.Result

	skipCalled bool
	runCalled  bool
}

func newFakeStep(name string) *fakeStep {
	return &fakeStep{
		StepBase: plan.NewStepBase(name, "testing "+name),
		skip:     plan.CompletedResult(),
		run:      plan.CompletedResult(),
	}
}

func (s *fakeStep) HasPrompts() bool {
	return s.prompts
}

func (s *fakeStep) Prompt(ctx context.Context, prompter plan.Prompter) error {
	s.prompted = true
	return nil
}

func (s *fakeStep) IsSkip(ctx context.Context, reporter plan.Reporter) plan.Result {
	s.skipCalled = true
	return s.skip
}

func (s *fakeStep) Run(ctx context.Context, reporter plan.Reporter) plan.Result {
	s.runCalled = true
	return s.run
}

type recordingReporter struct {
	events []string
}

func (r *recordingReporter) Update(message string) {
	r.events = append(r.events, "update: "+message)
}

func (r *recordingReporter) Start() {
	r.events = append(r.events, "start")
}

func (r *recordingReporter) Stop() {
	r.events = append(r.events, "stop")
}

func (s *runSuite) TestRunAllCompleted(c *gc.C) {
	first := newFakeStep("first")
	second := newFakeStep("second")

	results, err := plan.Run(context.Background(), plan.Plan{first, second}, plan.RunOptions{})
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(results, gc.HasLen, 2)
	c.Check(results["first"].Type, gc.Equals, plan.Completed)
	c.Check(results["second"].Type, gc.Equals, plan.Completed)
	c.Check(first.runCalled, jc.IsTrue)
	c.Check(second.runCalled, jc.IsTrue)
}

func (s *runSuite) TestSkipShortCircuitsRun(c *gc.C) {
	skipped := newFakeStep("skipped")
	skipped.skip = plan.SkippedResult("already done")
	after := newFakeStep("after")

	results, err := plan.Run(context.Background(), plan.Plan{skipped, after}, plan.RunOptions{})
	c.Assert(err, jc.ErrorIsNil)
	c.Check(skipped.runCalled, jc.IsFalse)
	c.Check(after.runCalled, jc.IsTrue)
	c.Check(results["skipped"].Type, gc.Equals, plan.Skipped)
	c.Check(results["skipped"].Message, gc.Equals, "already done")
	c.Check(results["after"].Type, gc.Equals, plan.Completed)
}

func (s *runSuite) TestFailureHaltsPlan(c *gc.C) {
	first := newFakeStep("first")
	failing := newFakeStep("failing")
	failing.run = plan.Failedf("boom")
	never := newFakeStep("never")

	results, err := plan.Run(context.Background(), plan.Plan{first, failing, never}, plan.RunOptions{})
	c.Assert(err, gc.ErrorMatches, `step "failing": boom`)
	c.Assert(results, gc.HasLen, 2)
	c.Check(results["first"].Type, gc.Equals, plan.Completed)
	c.Check(results["failing"].Type, gc.Equals, plan.Failed)
	c.Check(never.skipCalled, jc.IsFalse)
	c.Check(never.runCalled, jc.IsFalse)
}

func (s *runSuite) TestFailedSkipCheckHaltsPlan(c *gc.C) {
	failing := newFakeStep("failing")
	failing.skip = plan.Failedf("cannot check")
	never := newFakeStep("never")

	results, err := plan.Run(context.Background(), plan.Plan{failing, never}, plan.RunOptions{})
	c.Assert(err, gc.ErrorMatches, `step "failing": cannot check`)
	c.Check(failing.runCalled, jc.IsFalse)
	c.Check(never.skipCalled, jc.IsFalse)
	c.Check(results["failing"].Type, gc.Equals, plan.Failed)
}

func (s *runSuite) TestBestEffortSuppressesError(c *gc.C) {
	failing := newFakeStep("failing")
	failing.run = plan.FailedErr(errors.New("boom"))

	results, err := plan.Run(context.Background(), plan.Plan{failing}, plan.RunOptions{BestEffort: true})
	c.Assert(err, jc.ErrorIsNil)
	c.Check(results["failing"].Type, gc.Equals, plan.Failed)
	c.Check(results["failing"].Message, gc.Equals, "boom")
}

func (s *runSuite) TestDuplicateStepNamesRejected(c *gc.C) {
	first := newFakeStep("same")
	second := newFakeStep("same")

	_, err := plan.Run(context.Background(), plan.Plan{first, second}, plan.RunOptions{})
	c.Assert(err, jc.ErrorIs, errors.NotValid)
	c.Assert(err, gc.ErrorMatches, `duplicate step name "same" not valid`)
	c.Check(first.skipCalled, jc.IsFalse)
}

func (s *runSuite) TestPromptSuspendsReporter(c *gc.C) {
	step := newFakeStep("prompting")
	step.prompts = true
	reporter := &recordingReporter{}

	_, err := plan.Run(context.Background(), plan.Plan{step}, plan.RunOptions{Reporter: reporter})
	c.Assert(err, jc.ErrorIsNil)
	c.Check(step.prompted, jc.IsTrue)
	c.Check(reporter.events, gc.DeepEquals, []string{
		"update: testing prompting ... ",
		"stop",
		"start",
	})
}

func (s *runSuite) TestNoPromptSuppressesPrompt(c *gc.C) {
	step := newFakeStep("prompting")
	step.prompts = true

	_, err := plan.Run(context.Background(), plan.Plan{step}, plan.RunOptions{NoPrompt: true})
	c.Assert(err, jc.ErrorIsNil)
	c.Check(step.prompted, jc.IsFalse)
}

func (s *runSuite) TestResultsAccessors(c *gc.C) {
	results := plan.Results{
		"done": plan.NewResult(plan.Completed, "all good"),
	}
	result, ok := results.Get("done")
	c.Assert(ok, jc.IsTrue)
	c.Check(result.Message, gc.Equals, "all good")
	c.Check(results.Message("done"), gc.Equals, "all good")
	c.Check(results.Message("missing"), gc.Equals, "")

	_, ok = results.Get("missing")
	c.Check(ok, jc.IsFalse)
}
