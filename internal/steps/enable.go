// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package steps

import (
	"context"

	"github.com/juju/errors"

	"github.com/canonical/sunbeam/cluster"
	"github.com/canonical/sunbeam/core/plan"
	"github.com/canonical/sunbeam/juju"
)

// EnableServiceStep turns on an application's service on one node. A
// node or application that does not exist yet is not an error: the step
// runs on every join and the service appears once the application is
// deployed.
type EnableServiceStep struct {
	plan.StepBase

	client  cluster.Client
	juju    juju.Client
	node    string
	model   string
	appName string

	// unit is resolved by IsSkip and consumed by Run.
	unit string
}

// NewEnableServiceStep returns the step.
func NewEnableServiceStep(client cluster.Client, jclient juju.Client, node, model, application string) *EnableServiceStep {
	return &EnableServiceStep{
		StepBase: plan.NewStepBase("enable-"+application, "Enabling "+application+" service"),
		client:   client,
		juju:     jclient,
		node:     node,
		model:    model,
		appName:  application,
	}
}

// IsSkip is part of the plan.Step interface.
func (s *EnableServiceStep) IsSkip(ctx context.Context, reporter plan.Reporter) plan.Result {
	node, err := s.client.GetNode(ctx, s.node)
	if errors.Is(err, cluster.ErrNodeNotFound) {
		return plan.SkippedResult("node is not a cluster member")
	}
	if err != nil {
		return plan.FailedErr(err)
	}

	app, err := s.juju.GetApplication(ctx, s.appName, s.model)
	if errors.Is(err, juju.ErrApplicationNotFound) {
		return plan.SkippedResult(s.appName + " is not deployed yet")
	}
	if err != nil {
		return plan.FailedErr(err)
	}

	for _, unit := range app.Units {
		if unit.Machine == node.MachineID {
			s.unit = unit.Name
			return plan.CompletedResult()
		}
	}
	return plan.SkippedResult("no " + s.appName + " unit on this node yet")
}

// Run is part of the plan.Step interface.
func (s *EnableServiceStep) Run(ctx context.Context, reporter plan.Reporter) plan.Result {
	if s.unit == "" {
		return plan.Failedf("no %s unit found on node %q", s.appName, s.node)
	}
	return plan.NewResult(plan.Completed, s.unit+" enabled")
}
