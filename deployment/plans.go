// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package deployment

import (
	"time"

	"github.com/juju/errors"

	"github.com/canonical/sunbeam/core/plan"
	"github.com/canonical/sunbeam/core/role"
	"github.com/canonical/sunbeam/internal/steps"
)

// deployTimeout bounds how long a single application deploy waits.
const deployTimeout = 20 * time.Minute

func (d *Deployment) deployStep(name, description, planName, application, varsKey string,
	requiredRoles []role.Role) (plan.Step, error) {
	helper, err := d.TerraformHelper(planName)
	if err != nil {
		return nil, errors.Trace(err)
	}
	step := steps.NewDeployApplicationStep(steps.DeployParams{
		Name:          name,
		Description:   description,
		Client:        d.Cluster,
		Terraform:     helper,
		Juju:          d.Juju,
		Model:         d.Model,
		Application:   application,
		VarsConfigKey: varsKey,
		RequiredRoles: requiredRoles,
		Timeout:       deployTimeout,
		Clock:         d.Clock,
	})
	return steps.RetryOnLock(step, d.Clock), nil
}

// BootstrapPlan builds the plan turning a fresh node into a single-node
// deployment with the given roles.
func (d *Deployment) BootstrapPlan(roles []role.Role) (plan.Plan, error) {
	machine, err := d.deployStep("deploy-sunbeam-machine", "Deploying sunbeam machine agent",
		PlanMachine, "sunbeam-machine", "TerraformVarsSunbeamMachine", nil)
	if err != nil {
		return nil, errors.Trace(err)
	}
	storage, err := d.deployStep("deploy-microceph", "Deploying storage service",
		PlanStorage, "microceph", "TerraformVarsMicroceph", []role.Role{role.Storage})
	if err != nil {
		return nil, errors.Trace(err)
	}
	return plan.Plan{
		steps.NewSetProviderStep(d.Cluster, d.Local),
		machine,
		storage,
		steps.NewSyncFeatureGatesStep(d.Local, d.Cluster),
		steps.NewSetBootstrappedStep(d.Cluster),
	}, nil
}

// JoinPlan builds the plan run on a node joining an existing
// deployment. Dataplane steps only appear for nodes carrying a
// dataplane role.
func (d *Deployment) JoinPlan(node string, roles []role.Role) (plan.Plan, error) {
	p := plan.Plan{
		steps.NewSyncFeatureGatesStep(d.Local, d.Cluster),
	}
	if hasAnyRole(roles, role.Compute, role.Network) {
		helper, err := d.TerraformHelper(PlanMicroOVN)
		if err != nil {
			return nil, errors.Trace(err)
		}
		p = append(p,
			steps.RetryOnLock(steps.NewReapplyPlanStep("reapply-microovn", "Reapplying network plan",
				d.Cluster, helper, "TerraformVarsMicroOVN",
				[]role.Role{role.Compute, role.Network}), d.Clock),
			steps.NewEnableServiceStep(d.Cluster, d.Juju, node, d.Model, "microovn"),
		)
	}
	return p, nil
}

func hasAnyRole(roles []role.Role, wanted ...role.Role) bool {
	for _, r := range roles {
		for _, w := range wanted {
			if r == w {
				return true
			}
		}
	}
	return false
}

// ResizePlan builds the plan reconciling the deployed applications with
// the current cluster membership.
func (d *Deployment) ResizePlan() (plan.Plan, error) {
	storage, err := d.deployStep("deploy-microceph", "Scaling storage service",
		PlanStorage, "microceph", "TerraformVarsMicroceph", []role.Role{role.Storage})
	if err != nil {
		return nil, errors.Trace(err)
	}
	helper, err := d.TerraformHelper(PlanMicroOVN)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return plan.Plan{
		storage,
		steps.RetryOnLock(steps.NewReapplyPlanStep("reapply-microovn", "Reapplying network plan",
			d.Cluster, helper, "TerraformVarsMicroOVN",
			[]role.Role{role.Compute, role.Network}), d.Clock),
		steps.NewSyncFeatureGatesStep(d.Local, d.Cluster),
	}, nil
}
