// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package plan holds the deployment step contract and the runner that
// drives an ordered list of steps to completion.
package plan

import (
	"context"
)

// Reporter is a handle on a live status display. The runner rewrites the
// current line as steps progress, and suspends the display around
// interactive prompts.
type Reporter interface {
	// Update replaces the current status line.
	Update(message string)

	// Start resumes the display after a suspension.
	Start()

	// Stop suspends the display so a prompt can own the terminal.
	Stop()
}

// Prompter asks the operator a question and returns their answer.
type Prompter interface {
	Ask(question, defaultValue string) (string, error)
}

// Step is a unit of deployment work. Steps are precondition-checked via
// IsSkip before Run; a step whose effect already holds reports Skipped
// and is never run.
type Step interface {
	// Name identifies the step within a plan. Names must be unique in
	// any one plan.
	Name() string

	// Description is the one-line human summary shown while running.
	Description() string

	// HasPrompts reports whether Prompt needs the terminal.
	HasPrompts() bool

	// Prompt gathers interactive input before the step is checked or
	// run. Only called when HasPrompts is true and prompting is not
	// suppressed.
	Prompt(ctx context.Context, prompter Prompter) error

	// IsSkip decides whether the step needs to run at all. Skipped
	// means the effect already holds; Failed aborts the plan just as a
	// failed Run does.
	IsSkip(ctx context.Context, reporter Reporter) Result

	// Run performs the step's work.
	Run(ctx context.Context, reporter Reporter) Result

	// Status is the status line shown while the step is in flight.
	Status() string
}

// StepBase supplies the boilerplate part of the Step contract. Concrete
// steps embed it and override IsSkip and Run.
type StepBase struct {
	name        string
	description string
}

// NewStepBase returns an embeddable base for a step with the given name
// and one-line description.
func NewStepBase(name, description string) StepBase {
	return StepBase{name: name, description: description}
}

// Name is part of the Step interface.
func (s StepBase) Name() string {
	return s.name
}

// Description is part of the Step interface.
func (s StepBase) Description() string {
	return s.description
}

// HasPrompts is part of the Step interface.
func (s StepBase) HasPrompts() bool {
	return false
}

// Prompt is part of the Step interface.
func (s StepBase) Prompt(ctx context.Context, prompter Prompter) error {
	return nil
}

// IsSkip is part of the Step interface.
func (s StepBase) IsSkip(ctx context.Context, reporter Reporter) Result {
	return CompletedResult()
}

// Status is part of the Step interface.
func (s StepBase) Status() string {
	return s.description + " ... "
}

// NopReporter returns a Reporter that discards everything. The runner
// uses it when no display is attached, so steps can always call their
// reporter without a nil check.
func NopReporter() Reporter {
	return nopReporter{}
}

type nopReporter struct{}

func (nopReporter) Update(string) {}
func (nopReporter) Start()        {}
func (nopReporter) Stop()         {}
