// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package features holds the named feature capabilities compiled into
// the binary.
package features

import (
	"context"

	"github.com/juju/errors"
	"github.com/juju/version/v2"

	"github.com/canonical/sunbeam/cluster"
	"github.com/canonical/sunbeam/core/gate"
	"github.com/canonical/sunbeam/core/risk"
	"github.com/canonical/sunbeam/internal/cmd"
	"github.com/canonical/sunbeam/internal/featuregates"
)

// ConnectFunc yields a cluster client at command run time.
type ConnectFunc func(ctx context.Context) (cluster.Client, error)

// Feature is a named feature capability. Enabling a feature enables
// its gate cluster-wide.
type Feature struct {
	// Name is the feature name; the gate key is feature.<Name>.
	Name string

	// DisplayName is used in command help.
	DisplayName string

	// GenerallyAvailable marks graduated features that need no gate.
	GenerallyAvailable bool

	// MinimumRisk is the lowest installation risk level the feature is
	// visible at. Zero value means stable.
	MinimumRisk risk.Level

	// CurrentVersion is the feature's semantic version.
	CurrentVersion version.Number

	// UpgradeHook, when set, runs when the recorded version is stale.
	UpgradeHook func(ctx context.Context, client cluster.Client) error

	// Connect yields a live cluster client when a command runs. Wired
	// by the binary at startup.
	Connect ConnectFunc
}

// Identifier is part of the capability contract.
func (f *Feature) Identifier() string {
	return f.Name
}

// Gate is part of the capability contract.
func (f *Feature) Gate() featuregates.Gate {
	return featuregates.Gate{
		Identity:           gate.NamedFeature{Name: f.Name},
		GenerallyAvailable: f.GenerallyAvailable,
	}
}

// MinRisk is part of the capability contract.
func (f *Feature) MinRisk() risk.Level {
	if f.MinimumRisk == "" {
		return risk.Stable
	}
	return f.MinimumRisk
}

// Version is part of the capability contract.
func (f *Feature) Version() version.Number {
	return f.CurrentVersion
}

// IsEnabled reports whether the feature's gate is enabled in the
// cluster. A feature nobody ever enabled has no record and is
// disabled.
func (f *Feature) IsEnabled(ctx context.Context, client cluster.Client) (bool, error) {
	key, err := gate.NamedFeature{Name: f.Name}.GateKey()
	if err != nil {
		return false, errors.Trace(err)
	}
	record, err := client.GetFeatureGate(ctx, key)
	if errors.Is(err, cluster.ErrGateNotFound) {
		return false, nil
	}
	if err != nil {
		return false, errors.Trace(err)
	}
	return record.Enabled, nil
}

// Upgrade is part of the capability upgrade contract.
func (f *Feature) Upgrade(ctx context.Context, client cluster.Client) error {
	if f.UpgradeHook == nil {
		return nil
	}
	return errors.Trace(f.UpgradeHook(ctx, client))
}

// setEnabled writes the feature's gate record.
func (f *Feature) setEnabled(ctx context.Context, client cluster.Client, enabled bool) error {
	key, err := gate.NamedFeature{Name: f.Name}.GateKey()
	if err != nil {
		return errors.Trace(err)
	}
	_, err = client.GetFeatureGate(ctx, key)
	if errors.Is(err, cluster.ErrGateNotFound) {
		return errors.Trace(client.AddFeatureGate(ctx, key, enabled))
	}
	if err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(client.UpdateFeatureGate(ctx, key, enabled))
}

// RegisterCommands attaches the feature's command group. A disabled
// feature only exposes enable.
func (f *Feature) RegisterCommands(r *cmd.Registry, enabled bool) error {
	group := cmd.NewRegistry(f.Name, "Manage the "+f.DisplayName+" feature")
	group.Register(&toggleCommand{feature: f, enable: true})
	if enabled {
		group.Register(&toggleCommand{feature: f, enable: false})
	}
	r.Register(group)
	return nil
}

type toggleCommand struct {
	cmd.CommandBase

	feature *Feature
	enable  bool
}

func (c *toggleCommand) Info() *cmd.Info {
	if c.enable {
		return &cmd.Info{
			Name:    "enable",
			Purpose: "Enable the " + c.feature.DisplayName + " feature",
		}
	}
	return &cmd.Info{
		Name:    "disable",
		Purpose: "Disable the " + c.feature.DisplayName + " feature",
	}
}

func (c *toggleCommand) Run(ctx *cmd.Context) error {
	if c.feature.Connect == nil {
		return errors.Errorf("feature %q is not wired to a deployment", c.feature.Name)
	}
	runCtx := context.Background()
	client, err := c.feature.Connect(runCtx)
	if err != nil {
		return errors.Trace(err)
	}
	if err := c.feature.setEnabled(runCtx, client, c.enable); err != nil {
		return errors.Trace(err)
	}
	if c.enable {
		ctx.Printf("%s enabled\n", c.feature.Name)
	} else {
		ctx.Printf("%s disabled\n", c.feature.Name)
	}
	return nil
}
