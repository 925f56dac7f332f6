// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"context"
	"os"
	"strings"

	"github.com/juju/errors"
	"github.com/juju/gnuflag"

	"github.com/canonical/sunbeam/core/plan"
	"github.com/canonical/sunbeam/core/role"
	"github.com/canonical/sunbeam/deployment"
	"github.com/canonical/sunbeam/internal/capability"
	"github.com/canonical/sunbeam/internal/cmd"
)

// rolesValue accumulates repeated --role flags.
type rolesValue []string

func (v *rolesValue) String() string {
	return strings.Join(*v, ",")
}

func (v *rolesValue) Set(value string) error {
	*v = append(*v, value)
	return nil
}

// printResults renders the outcome of each plan step in plan order.
func printResults(ctx *cmd.Context, p plan.Plan, results plan.Results) {
	for _, step := range p {
		result, ok := results.Get(step.Name())
		if !ok {
			continue
		}
		line := step.Description() + ": " + string(result.Type)
		if result.Message != "" {
			line += " (" + result.Message + ")"
		}
		ctx.Printf("%s\n", line)
	}
}

type bootstrapCommand struct {
	cmd.CommandBase

	deploymentName string
	roles          rolesValue
	noPrompt       bool
}

func (c *bootstrapCommand) Info() *cmd.Info {
	return &cmd.Info{
		Name:    "bootstrap",
		Purpose: "Bootstrap an OpenStack deployment on this node",
		Doc: `Sets up this node as the first member of a new deployment.
Roles default to control and compute when none are given.`,
	}
}

func (c *bootstrapCommand) SetFlags(f *gnuflag.FlagSet) {
	f.Var(&c.roles, "role", "Role for this node, repeatable or comma separated")
	f.BoolVar(&c.noPrompt, "no-prompt", false, "Answer prompts with defaults")
}

func (c *bootstrapCommand) Run(ctx *cmd.Context) error {
	runCtx := context.Background()
	d, err := deployment.New(runCtx, c.deploymentName)
	if err != nil {
		return errors.Trace(err)
	}
	values := []string(c.roles)
	if len(values) == 0 {
		values = []string{"control,compute"}
	}
	roles, err := role.Parse(values, d.GateChecker())
	if err != nil {
		return errors.Trace(err)
	}
	p, err := d.BootstrapPlan(roles)
	if err != nil {
		return errors.Trace(err)
	}
	results, err := plan.Run(runCtx, p, plan.RunOptions{NoPrompt: c.noPrompt})
	printResults(ctx, p, results)
	return errors.Trace(err)
}

type joinCommand struct {
	cmd.CommandBase

	deploymentName string
	roles          rolesValue
	node           string
}

func (c *joinCommand) Info() *cmd.Info {
	return &cmd.Info{
		Name:    "join",
		Purpose: "Join this node to an existing deployment",
	}
}

func (c *joinCommand) SetFlags(f *gnuflag.FlagSet) {
	f.Var(&c.roles, "role", "Role for this node, repeatable or comma separated")
}

func (c *joinCommand) Run(ctx *cmd.Context) error {
	runCtx := context.Background()
	d, err := deployment.New(runCtx, c.deploymentName)
	if err != nil {
		return errors.Trace(err)
	}
	roles, err := role.Parse(c.roles, d.GateChecker())
	if err != nil {
		return errors.Trace(err)
	}
	node := c.node
	if node == "" {
		if node, err = os.Hostname(); err != nil {
			return errors.Trace(err)
		}
	}
	p, err := d.JoinPlan(node, roles)
	if err != nil {
		return errors.Trace(err)
	}
	results, err := plan.Run(runCtx, p, plan.RunOptions{NoPrompt: true})
	printResults(ctx, p, results)
	return errors.Trace(err)
}

type resizeCommand struct {
	cmd.CommandBase

	deploymentName string
}

func (c *resizeCommand) Info() *cmd.Info {
	return &cmd.Info{
		Name:    "resize",
		Purpose: "Reconcile deployed services with cluster membership",
	}
}

func (c *resizeCommand) Run(ctx *cmd.Context) error {
	runCtx := context.Background()
	d, err := deployment.New(runCtx, c.deploymentName)
	if err != nil {
		return errors.Trace(err)
	}
	p, err := d.ResizePlan()
	if err != nil {
		return errors.Trace(err)
	}
	results, err := plan.Run(runCtx, p, plan.RunOptions{NoPrompt: true})
	printResults(ctx, p, results)
	return errors.Trace(err)
}

type listFeaturesCommand struct {
	cmd.CommandBase

	deploymentName string
	registry       *capability.Registry
}

func (c *listFeaturesCommand) Info() *cmd.Info {
	return &cmd.Info{
		Name:    "list-features",
		Purpose: "List the features enabled on the deployment",
	}
}

func (c *listFeaturesCommand) Run(ctx *cmd.Context) error {
	runCtx := context.Background()
	d, err := deployment.New(runCtx, c.deploymentName)
	if err != nil {
		return errors.Trace(err)
	}
	enabled := c.registry.EnabledFeatures(runCtx, d.Cluster)
	if len(enabled) == 0 {
		ctx.Printf("no features enabled\n")
		return nil
	}
	for _, name := range enabled {
		ctx.Printf("%s\n", name)
	}
	return nil
}

type upgradeCommand struct {
	cmd.CommandBase

	deploymentName string
	registry       *capability.Registry
	release        bool
}

func (c *upgradeCommand) Info() *cmd.Info {
	return &cmd.Info{
		Name:    "upgrade",
		Purpose: "Run pending capability upgrades",
	}
}

func (c *upgradeCommand) SetFlags(f *gnuflag.FlagSet) {
	f.BoolVar(&c.release, "release", false, "Upgrade across a release boundary")
}

func (c *upgradeCommand) Run(ctx *cmd.Context) error {
	runCtx := context.Background()
	d, err := deployment.New(runCtx, c.deploymentName)
	if err != nil {
		return errors.Trace(err)
	}
	if err := c.registry.UpgradeAll(runCtx, d.Cluster, c.release); err != nil {
		return errors.Trace(err)
	}
	ctx.Printf("capabilities up to date\n")
	return nil
}
