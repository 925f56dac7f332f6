// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package deployment bundles the collaborators of one deployment and
// builds the plans the lifecycle commands run.
package deployment

import (
	"context"
	"sync"

	"github.com/juju/clock"
	"github.com/juju/errors"

	"github.com/canonical/sunbeam/cluster"
	"github.com/canonical/sunbeam/core/risk"
	"github.com/canonical/sunbeam/daemon"
	"github.com/canonical/sunbeam/internal/featuregates"
	"github.com/canonical/sunbeam/juju"
	"github.com/canonical/sunbeam/terraform"
)

// Plan names used to look up Terraform helpers.
const (
	PlanMachine  = "sunbeam-machine-plan"
	PlanStorage  = "microceph-plan"
	PlanMicroOVN = "microovn-plan"
)

// Deployment bundles the live collaborators of one deployment.
type Deployment struct {
	// Name identifies the deployment, e.g. "local".
	Name string

	// Cluster is the cluster database client. Nil before the node has
	// joined a cluster.
	Cluster cluster.Client

	// Local is the node-local daemon config store.
	Local daemon.ConfigStore

	// Juju is the orchestration control plane client.
	Juju juju.Client

	// Terraform maps plan names to their helpers.
	Terraform map[string]terraform.Helper

	// Model hosts the machine applications.
	Model string

	// Clock times retries and status aggregation.
	Clock clock.Clock
}

// TerraformHelper returns the helper for the named plan.
func (d *Deployment) TerraformHelper(name string) (terraform.Helper, error) {
	helper, ok := d.Terraform[name]
	if !ok {
		return nil, errors.NotFoundf("terraform plan %q", name)
	}
	return helper, nil
}

// Resolver returns a feature gate resolver over this deployment's
// configuration sources.
func (d *Deployment) Resolver() featuregates.Resolver {
	return featuregates.Resolver{Local: d.Local, Client: d.Cluster}
}

// Risk returns the installation risk level.
func (d *Deployment) Risk() risk.Level {
	return daemon.InferRisk(d.Local)
}

// GateChecker returns a role gate checker over the local config.
func (d *Deployment) GateChecker() func(string) bool {
	return func(gateKey string) bool {
		return featuregates.IsKeyEnabled(gateKey, d.Local)
	}
}

// Factory builds a deployment by connecting to its services.
type Factory func(ctx context.Context) (*Deployment, error)

var (
	factoriesMu sync.Mutex
	factories   = make(map[string]Factory)
)

// RegisterFactory registers a named deployment factory. Registering the
// same name twice is a programming error and panics. Providers register
// themselves from init.
func RegisterFactory(name string, factory Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	if _, found := factories[name]; found {
		panic("deployment factory already registered: " + name)
	}
	factories[name] = factory
}

// New builds the named deployment.
func New(ctx context.Context, name string) (*Deployment, error) {
	factoriesMu.Lock()
	factory, ok := factories[name]
	factoriesMu.Unlock()
	if !ok {
		return nil, errors.NotFoundf("deployment provider %q", name)
	}
	deployment, err := factory(ctx)
	if err != nil {
		return nil, errors.Annotatef(err, "connecting to deployment %q", name)
	}
	return deployment, nil
}
