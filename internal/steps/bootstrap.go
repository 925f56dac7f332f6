// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package steps

import (
	"context"

	"github.com/canonical/sunbeam/cluster"
	"github.com/canonical/sunbeam/core/plan"
)

// SetBootstrappedStep marks the deployment bootstrapped in the cluster
// database, as the final step of the bootstrap plan.
type SetBootstrappedStep struct {
	plan.StepBase

	client cluster.Client
}

// NewSetBootstrappedStep returns the step.
func NewSetBootstrappedStep(client cluster.Client) *SetBootstrappedStep {
	return &SetBootstrappedStep{
		StepBase: plan.NewStepBase("set-bootstrapped", "Marking deployment bootstrapped"),
		client:   client,
	}
}

// IsSkip is part of the plan.Step interface.
func (s *SetBootstrappedStep) IsSkip(ctx context.Context, reporter plan.Reporter) plan.Result {
	bootstrapped, err := s.client.IsBootstrapped(ctx)
	if err != nil {
		return plan.FailedErr(err)
	}
	if bootstrapped {
		return plan.SkippedResult("deployment already bootstrapped")
	}
	return plan.CompletedResult()
}

// Run is part of the plan.Step interface.
func (s *SetBootstrappedStep) Run(ctx context.Context, reporter plan.Reporter) plan.Result {
	if err := s.client.SetBootstrapped(ctx); err != nil {
		return plan.FailedErr(err)
	}
	return plan.CompletedResult()
}
