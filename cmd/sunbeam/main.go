// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"context"
	"os"

	"github.com/juju/errors"
	"github.com/juju/loggo/v2"

	"github.com/canonical/sunbeam/cluster"
	"github.com/canonical/sunbeam/deployment"
	"github.com/canonical/sunbeam/internal/capability"
	"github.com/canonical/sunbeam/internal/cmd"
	"github.com/canonical/sunbeam/internal/features"
	"github.com/canonical/sunbeam/internal/storage"
)

var logger = loggo.GetLogger("sunbeam.cmd")

// defaultDeployment is the provider commands connect to unless told
// otherwise.
const defaultDeployment = "local"

func main() {
	ctx := &cmd.Context{Stdout: os.Stdout, Stderr: os.Stderr, Stdin: os.Stdin}
	os.Exit(Run(ctx, os.Args[1:]))
}

// Run builds the command tree and dispatches args against it.
func Run(ctx *cmd.Context, args []string) int {
	root := buildCommands(context.Background(), defaultDeployment)
	return cmd.Main(root, ctx, args)
}

// buildCommands assembles the command tree. The lifecycle commands are
// always present; capability command groups only appear when a
// deployment can be reached, since their visibility depends on its
// gates and risk level.
func buildCommands(ctx context.Context, deploymentName string) *cmd.Registry {
	root := cmd.NewRegistry("sunbeam", "Deploy and operate an OpenStack cloud")
	registry := capability.NewRegistry()

	root.Register(&bootstrapCommand{deploymentName: deploymentName})
	root.Register(&joinCommand{deploymentName: deploymentName})
	root.Register(&resizeCommand{deploymentName: deploymentName})
	root.Register(&listFeaturesCommand{deploymentName: deploymentName, registry: registry})
	root.Register(&upgradeCommand{deploymentName: deploymentName, registry: registry})

	d, err := deployment.New(ctx, deploymentName)
	if err != nil {
		logger.Debugf("no deployment available, capability commands hidden: %v", err)
		return root
	}
	if err := loadCapabilities(ctx, registry, root, d); err != nil {
		logger.Warningf("cannot register capabilities: %v", err)
	}
	return root
}

func loadCapabilities(ctx context.Context, registry *capability.Registry,
	root *cmd.Registry, d *deployment.Deployment) error {
	all := features.All(features.Params{
		Cluster: func(ctx context.Context) (cluster.Client, error) {
			return d.Cluster, nil
		},
		Storage: func(ctx context.Context) (storage.Collaborators, error) {
			helper, err := d.TerraformHelper(deployment.PlanStorage)
			if err != nil {
				return storage.Collaborators{}, errors.Trace(err)
			}
			return storage.Collaborators{
				Cluster:   d.Cluster,
				Terraform: helper,
				Juju:      d.Juju,
				Model:     d.Model,
			}, nil
		},
	})
	if err := registry.Load(all...); err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(registry.RegisterAll(ctx, capability.RegisterParams{
		Resolver: d.Resolver(),
		Risk:     d.Risk(),
		Client:   d.Cluster,
		Commands: root,
	}))
}
