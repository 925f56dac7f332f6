// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package steps

import (
	"context"

	"github.com/juju/errors"

	"github.com/canonical/sunbeam/cluster"
	"github.com/canonical/sunbeam/core/plan"
	"github.com/canonical/sunbeam/core/role"
	"github.com/canonical/sunbeam/terraform"
)

// ReapplyPlanStep re-applies a Terraform plan after cluster membership
// changes, so the plan picks up the new node set. It only runs when a
// node carrying one of the interesting roles exists.
type ReapplyPlanStep struct {
	plan.StepBase

	client        cluster.Client
	tf            terraform.Helper
	varsConfigKey string
	roles         []role.Role
}

// NewReapplyPlanStep returns the step.
func NewReapplyPlanStep(name, description string, client cluster.Client, tf terraform.Helper,
	varsConfigKey string, roles []role.Role) *ReapplyPlanStep {
	return &ReapplyPlanStep{
		StepBase:      plan.NewStepBase(name, description),
		client:        client,
		tf:            tf,
		varsConfigKey: varsConfigKey,
		roles:         roles,
	}
}

// IsSkip is part of the plan.Step interface.
func (s *ReapplyPlanStep) IsSkip(ctx context.Context, reporter plan.Reporter) plan.Result {
	for _, r := range s.roles {
		nodes, err := s.client.ListNodesByRole(ctx, r)
		if err != nil {
			return plan.FailedErr(err)
		}
		if len(nodes) > 0 {
			return plan.CompletedResult()
		}
	}
	return plan.SkippedResult("no nodes carry the relevant roles")
}

// Run is part of the plan.Step interface.
func (s *ReapplyPlanStep) Run(ctx context.Context, reporter plan.Reporter) plan.Result {
	vars, err := mergeVars(ctx, s.client, s.varsConfigKey, nil)
	if err != nil {
		return plan.FailedErr(err)
	}
	if err := s.tf.Apply(ctx, vars); err != nil {
		return plan.FailedErr(errors.Annotatef(err, "reapplying %s", s.Name()))
	}
	return plan.CompletedResult()
}
