// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package storage

import (
	"context"
	"strings"
	"time"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/gnuflag"

	"github.com/canonical/sunbeam/cluster"
	"github.com/canonical/sunbeam/core/plan"
	"github.com/canonical/sunbeam/internal/cmd"
	"github.com/canonical/sunbeam/internal/steps"
	"github.com/canonical/sunbeam/juju"
	"github.com/canonical/sunbeam/terraform"
)

// deployTimeout bounds how long adding a backend instance waits for the
// volume service to settle.
const deployTimeout = 20 * time.Minute

// Collaborators bundles the live deployment handles a storage command
// needs.
type Collaborators struct {
	Cluster   cluster.Client
	Terraform terraform.Helper
	Juju      juju.Client
	Model     string
}

// ConnectFunc yields collaborators at command run time.
type ConnectFunc func(ctx context.Context) (Collaborators, error)

// RegisterCommands attaches the backend's command group. A backend that
// is not enabled yet only exposes add, which enables it as a side
// effect.
func (b *BackendSpec) RegisterCommands(r *cmd.Registry, enabled bool) error {
	group := cmd.NewRegistry(b.Type, "Manage "+b.DisplayName+" storage backends")
	group.Register(&addCommand{backend: b})
	if enabled {
		group.Register(&optionsCommand{backend: b})
	}
	r.Register(group)
	return nil
}

// configValue accumulates repeated --config key=value flags.
type configValue map[string]string

func (v configValue) String() string {
	pairs := make([]string, 0, len(v))
	for key, value := range v {
		pairs = append(pairs, key+"="+value)
	}
	return strings.Join(pairs, ",")
}

func (v configValue) Set(raw string) error {
	key, value, found := strings.Cut(raw, "=")
	if !found || key == "" {
		return errors.NotValidf("config %q, expected key=value", raw)
	}
	v[key] = value
	return nil
}

type addCommand struct {
	cmd.CommandBase

	backend *BackendSpec
	name    string
	config  configValue
}

func (c *addCommand) Info() *cmd.Info {
	return &cmd.Info{
		Name:    "add",
		Args:    "<name>",
		Purpose: "Add a " + c.backend.DisplayName + " backend instance",
		Doc: "Enables the " + c.backend.Type + " backend if needed, records the\n" +
			"instance configuration and deploys the volume service for it.",
	}
}

func (c *addCommand) SetFlags(f *gnuflag.FlagSet) {
	c.config = make(configValue)
	f.Var(c.config, "config", "Backend option as key=value, repeatable")
}

func (c *addCommand) Init(args []string) error {
	if len(args) != 1 {
		return errors.Errorf("expected exactly one backend instance name")
	}
	c.name = args[0]
	return errors.Trace(ValidateApplicationName(c.name))
}

func (c *addCommand) Run(ctx *cmd.Context) error {
	if c.backend.Connect == nil {
		return errors.Errorf("%s backend is not wired to a deployment", c.backend.Type)
	}
	runCtx := context.Background()
	collab, err := c.backend.Connect(runCtx)
	if err != nil {
		return errors.Trace(err)
	}

	vars, err := c.backend.TerraformVars(c.name, c.config, nil)
	if err != nil {
		return errors.Trace(err)
	}
	if err := EnableBackend(runCtx, collab.Cluster, c.backend.Type); err != nil {
		return errors.Trace(err)
	}
	if err := cluster.WriteConfig(runCtx, collab.Cluster, InstanceConfigKey(c.name), map[string]string(c.config)); err != nil {
		return errors.Trace(err)
	}
	if err := UpdateInstanceVars(runCtx, collab.Cluster, c.name, vars); err != nil {
		return errors.Trace(err)
	}

	deploy := steps.RetryOnLock(steps.NewDeployApplicationStep(steps.DeployParams{
		Name:          "deploy-" + c.name,
		Description:   "Deploying " + c.name,
		Client:        collab.Cluster,
		Terraform:     collab.Terraform,
		Juju:          collab.Juju,
		Model:         collab.Model,
		Application:   c.name,
		VarsConfigKey: TerraformVarsConfigKey,
		Timeout:       deployTimeout,
		Clock:         clock.WallClock,
	}), clock.WallClock)

	results, err := plan.Run(runCtx, plan.Plan{deploy}, plan.RunOptions{NoPrompt: true})
	if err != nil {
		return errors.Trace(err)
	}
	ctx.Printf("%s added: %s\n", c.name, results["deploy-"+c.name].Type)
	return nil
}

type optionsCommand struct {
	cmd.CommandBase

	backend *BackendSpec
}

func (c *optionsCommand) Info() *cmd.Info {
	return &cmd.Info{
		Name:    "options",
		Purpose: "List the options of the " + c.backend.DisplayName + " backend",
	}
}

func (c *optionsCommand) Run(ctx *cmd.Context) error {
	for _, field := range c.backend.Fields {
		var notes []string
		if field.Required {
			notes = append(notes, "required")
		}
		if field.Secret {
			notes = append(notes, "secret")
		}
		suffix := ""
		if len(notes) > 0 {
			suffix = " [" + strings.Join(notes, ", ") + "]"
		}
		ctx.Printf("%-24s %s%s\n", field.Name, field.Description, suffix)
	}
	return nil
}
