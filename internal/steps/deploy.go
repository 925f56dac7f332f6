// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package steps

import (
	"context"
	"time"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/worker/v4"

	"github.com/canonical/sunbeam/cluster"
	"github.com/canonical/sunbeam/core/plan"
	"github.com/canonical/sunbeam/core/role"
	"github.com/canonical/sunbeam/internal/worker/appstatus"
	"github.com/canonical/sunbeam/juju"
	"github.com/canonical/sunbeam/terraform"
)

// eventBuffer sizes the readiness event channel. Sends are non-blocking
// on the producer side, so the buffer only smooths bursts.
const eventBuffer = 16

// DeployParams configures a DeployApplicationStep.
type DeployParams struct {
	// Name and Description label the step within its plan.
	Name        string
	Description string

	// Client persists the merged Terraform variables.
	Client cluster.Client

	// Terraform applies the plan.
	Terraform terraform.Helper

	// Juju waits for the deployed application to settle.
	Juju juju.Client

	// Model hosts the application.
	Model string

	// Application is the application being deployed.
	Application string

	// VarsConfigKey is the cluster config key holding the plan's
	// Terraform variables.
	VarsConfigKey string

	// ExtraVars are merged over the stored variables before applying.
	ExtraVars map[string]any

	// RequiredRoles, when set, restricts the step to deployments that
	// have at least one node carrying one of the roles.
	RequiredRoles []role.Role

	// Timeout bounds the wait for the application to settle.
	Timeout time.Duration

	// Clock times the status aggregation.
	Clock clock.Clock
}

// DeployApplicationStep applies a Terraform plan and waits for the
// resulting application to settle, aggregating readiness into the
// status line as it goes. Wrap it with RetryOnLock to survive state
// lock contention.
type DeployApplicationStep struct {
	plan.StepBase

	params DeployParams
}

// NewDeployApplicationStep returns the step.
func NewDeployApplicationStep(params DeployParams) *DeployApplicationStep {
	return &DeployApplicationStep{
		StepBase: plan.NewStepBase(params.Name, params.Description),
		params:   params,
	}
}

// IsSkip is part of the plan.Step interface.
func (s *DeployApplicationStep) IsSkip(ctx context.Context, reporter plan.Reporter) plan.Result {
	if len(s.params.RequiredRoles) == 0 {
		return plan.CompletedResult()
	}
	for _, r := range s.params.RequiredRoles {
		nodes, err := s.params.Client.ListNodesByRole(ctx, r)
		if err != nil {
			return plan.FailedErr(err)
		}
		if len(nodes) > 0 {
			return plan.CompletedResult()
		}
	}
	return plan.SkippedResult("no nodes require this application")
}

// Run is part of the plan.Step interface.
func (s *DeployApplicationStep) Run(ctx context.Context, reporter plan.Reporter) plan.Result {
	vars, err := mergeVars(ctx, s.params.Client, s.params.VarsConfigKey, s.params.ExtraVars)
	if err != nil {
		return plan.FailedErr(err)
	}
	if err := s.params.Terraform.Apply(ctx, vars); err != nil {
		return plan.FailedErr(errors.Annotatef(err, "applying %s", s.Name()))
	}

	events := make(chan juju.ReadinessEvent, eventBuffer)
	aggregator, err := appstatus.NewWorker(appstatus.Config{
		Applications: []string{s.params.Application},
		Events:       events,
		Reporter:     reporter,
		Prefix:       s.Status(),
		Clock:        s.params.Clock,
	})
	if err != nil {
		return plan.FailedErr(err)
	}
	defer func() { _ = worker.Stop(aggregator) }()

	err = s.params.Juju.WaitApplicationsActive(ctx, s.params.Model,
		[]string{s.params.Application}, events, s.params.Timeout)
	if err != nil {
		return plan.FailedErr(errors.Annotatef(err, "waiting for %q", s.params.Application))
	}
	return plan.CompletedResult()
}

// mergeVars reads the stored Terraform variables, overlays extras and
// persists the merged document so later applies see the same inputs.
func mergeVars(ctx context.Context, client cluster.Client, key string, extra map[string]any) (map[string]any, error) {
	vars := make(map[string]any)
	err := cluster.ReadConfig(ctx, client, key, &vars)
	if err != nil && !errors.Is(err, cluster.ErrConfigNotFound) {
		return nil, errors.Trace(err)
	}
	for name, value := range extra {
		vars[name] = value
	}
	if err := cluster.WriteConfig(ctx, client, key, vars); err != nil {
		return nil, errors.Trace(err)
	}
	return vars, nil
}
