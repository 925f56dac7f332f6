// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package capability manages the optional capabilities (features and
// storage backends) compiled into the binary, deciding which are
// visible on a given installation and keeping their cluster version
// records current.
package capability

import (
	"context"

	"github.com/juju/version/v2"

	"github.com/canonical/sunbeam/cluster"
	"github.com/canonical/sunbeam/core/risk"
	"github.com/canonical/sunbeam/internal/cmd"
	"github.com/canonical/sunbeam/internal/featuregates"
)

// Capability is an optional unit of functionality that can be shipped
// gated and graduated over time.
type Capability interface {
	// Identifier names the capability uniquely across all kinds.
	Identifier() string

	// Gate describes how the capability is gated.
	Gate() featuregates.Gate

	// MinRisk is the lowest installation risk level at which the
	// capability is visible.
	MinRisk() risk.Level

	// Version is the capability's current semantic version, compared
	// against the cluster record to detect pending upgrades.
	Version() version.Number

	// RegisterCommands attaches the capability's command surface.
	// enabled reports whether the capability is currently enabled on
	// the deployment, so disabled capabilities can expose only their
	// enable command.
	RegisterCommands(r *cmd.Registry, enabled bool) error
}

// EnableDisable is implemented by capabilities that can be switched on
// and off per deployment after installation.
type EnableDisable interface {
	// IsEnabled reports whether the capability is active on the
	// deployment.
	IsEnabled(ctx context.Context, client cluster.Client) (bool, error)
}

// Upgrader is implemented by capabilities with work to do when their
// version changes.
type Upgrader interface {
	Upgrade(ctx context.Context, client cluster.Client) error
}

// ReleaseUpgrader is the preferred upgrade hook: it is told whether the
// whole deployment release is being upgraded, not just the capability.
// Capabilities that only implement Upgrader get the plain call.
type ReleaseUpgrader interface {
	UpgradeRelease(ctx context.Context, client cluster.Client, upgradeRelease bool) error
}
