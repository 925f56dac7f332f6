// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package plan

import (
	"context"

	"github.com/juju/collections/set"
	"github.com/juju/errors"
	"github.com/juju/loggo/v2"
)

var logger = loggo.GetLogger("sunbeam.plan")

// Plan is an ordered list of steps executed front to back.
type Plan []Step

// Validate rejects plans whose steps do not have unique names. Results
// are keyed by name, so a duplicate would silently shadow an earlier
// step's outcome.
func (p Plan) Validate() error {
	seen := set.NewStrings()
	for _, step := range p {
		if step.Name() == "" {
			return errors.NotValidf("step with empty name")
		}
		if seen.Contains(step.Name()) {
			return errors.NotValidf("duplicate step name %q", step.Name())
		}
		seen.Add(step.Name())
	}
	return nil
}

// Results holds the outcome of each step that was reached, keyed by
// step name.
type Results map[string]Result

// Get returns the result recorded for the named step.
func (r Results) Get(name string) (Result, bool) {
	result, ok := r[name]
	return result, ok
}

// Message returns the message of the named step's result, or the empty
// string if the step was never reached.
func (r Results) Message(name string) string {
	return r[name].Message
}

// RunOptions control a single invocation of Run.
type RunOptions struct {
	// NoPrompt suppresses all interactive prompts.
	NoPrompt bool

	// BestEffort makes a failed step end the run without an error, so
	// callers can report partial progress instead of aborting.
	BestEffort bool

	// Prompter answers step prompts. Required when any step prompts
	// and NoPrompt is false.
	Prompter Prompter

	// Reporter receives status line updates. May be nil.
	Reporter Reporter
}

// Run executes the plan in order. Each step is precondition-checked via
// IsSkip; skipped steps are recorded and passed over. The first failure,
// whether from IsSkip or Run, stops the plan: with BestEffort the
// partial results are returned without an error, otherwise the failure
// is returned as an error alongside the results collected so far.
func Run(ctx context.Context, p Plan, opts RunOptions) (Results, error) {
	if err := p.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	reporter := opts.Reporter
	if reporter == nil {
		reporter = NopReporter()
	}

	results := make(Results)
	for _, step := range p {
		logger.Debugf("starting step %q", step.Name())
		reporter.Update(step.Status())

		if step.HasPrompts() && !opts.NoPrompt {
			reporter.Stop()
			if err := step.Prompt(ctx, opts.Prompter); err != nil {
				return results, errors.Annotatef(err, "prompting for step %q", step.Name())
			}
			reporter.Start()
		}

		result := step.IsSkip(ctx, reporter)
		switch result.Type {
		case Skipped:
			results[step.Name()] = result
			logger.Debugf("skipping step %q: %s", step.Name(), result.Message)
			continue
		case Failed:
			results[step.Name()] = result
			logger.Debugf("step %q failed precondition check: %s", step.Name(), result.Message)
			if opts.BestEffort {
				return results, nil
			}
			return results, stepError(step, result)
		}

		result = step.Run(ctx, reporter)
		results[step.Name()] = result
		logger.Debugf("finished step %q: %s", step.Name(), result.Type)
		if result.Type == Failed {
			if opts.BestEffort {
				return results, nil
			}
			return results, stepError(step, result)
		}
	}
	return results, nil
}

func stepError(step Step, result Result) error {
	err := result.Err
	if err == nil {
		err = errors.New(result.Message)
	}
	return errors.Annotatef(err, "step %q", step.Name())
}
