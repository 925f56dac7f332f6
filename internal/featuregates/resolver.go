// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package featuregates resolves whether gated capabilities are enabled
// on a deployment, and syncs node-local gate settings into the cluster.
package featuregates

import (
	"context"
	"encoding/json"

	"github.com/juju/collections/set"
	"github.com/juju/errors"
	"github.com/juju/loggo/v2"

	"github.com/canonical/sunbeam/cluster"
	"github.com/canonical/sunbeam/core/gate"
	"github.com/canonical/sunbeam/daemon"
)

var logger = loggo.GetLogger("sunbeam.featuregates")

// generallyAvailable lists gate keys whose capability has graduated and
// no longer needs an explicit gate anywhere.
var generallyAvailable = set.NewStrings()

// Gate describes how one capability is gated.
type Gate struct {
	// Identity derives the gate key. Required unless the capability is
	// generally available.
	Identity gate.Variant

	// GenerallyAvailable short-circuits resolution: the capability is
	// always enabled.
	GenerallyAvailable bool

	// EnabledListKey optionally names a cluster config key holding a
	// JSON array of enabled identifiers for the capability's family.
	EnabledListKey string

	// Identifier is the capability's entry in the enabled list.
	Identifier string
}

// Resolver answers gate questions against the available configuration
// sources.
type Resolver struct {
	// Local is the node-local daemon config. May be nil.
	Local daemon.ConfigStore

	// Client is the cluster database client. Nil before the node joins
	// a cluster; cluster-backed sources are then skipped.
	Client cluster.Client
}

// IsEnabled resolves a gate. Sources are consulted in precedence order
// and the first enabling source wins: general availability, the cluster
// gate record, the family's cluster enabled list, then the node-local
// config. An unreachable source has no opinion and resolution falls
// through, but a malformed enabled list is an error: silently gating a
// capability because of a corrupt record would hide it without
// explanation.
func (r Resolver) IsEnabled(ctx context.Context, g Gate) (bool, error) {
	if g.GenerallyAvailable {
		return true, nil
	}
	if g.Identity == nil {
		return false, errors.Trace(gate.ErrMissingIdentity)
	}
	key, err := g.Identity.GateKey()
	if err != nil {
		return false, errors.Trace(err)
	}
	if generallyAvailable.Contains(key) {
		return true, nil
	}

	if r.Client != nil {
		record, err := r.Client.GetFeatureGate(ctx, key)
		if err == nil && record.Enabled {
			return true, nil
		}
		if err != nil {
			logger.Debugf("no cluster record for gate %q: %v", key, err)
		}

		if g.EnabledListKey != "" && g.Identifier != "" {
			enabled, err := r.enabledList(ctx, g.EnabledListKey)
			switch {
			case err == nil:
				if enabled.Contains(g.Identifier) {
					return true, nil
				}
			case errors.Is(err, cluster.ErrConfigNotFound),
				errors.Is(err, cluster.ErrUnavailable):
				logger.Debugf("enabled list %q not readable: %v", g.EnabledListKey, err)
			default:
				return false, errors.Trace(err)
			}
		}
	}

	if r.Local != nil {
		value, err := r.Local.Get(key)
		if err == nil && daemon.Truthy(value) {
			return true, nil
		}
		if err != nil && !errors.Is(err, daemon.ErrUnknownKey) {
			logger.Debugf("cannot read local gate %q: %v", key, err)
		}
	}
	return false, nil
}

func (r Resolver) enabledList(ctx context.Context, key string) (set.Strings, error) {
	raw, err := r.Client.GetConfig(ctx, key)
	if err != nil {
		return nil, errors.Trace(err)
	}
	var identifiers []string
	if err := json.Unmarshal([]byte(raw), &identifiers); err != nil {
		return nil, errors.Annotatef(err, "decoding enabled list %q", key)
	}
	return set.NewStrings(identifiers...), nil
}

// IsKeyEnabled answers a bare gate key question from local state only.
// Role gating uses this before any cluster exists.
func IsKeyEnabled(key string, local daemon.ConfigStore) bool {
	if generallyAvailable.Contains(key) {
		return true
	}
	if local == nil {
		return false
	}
	value, err := local.Get(key)
	if err != nil {
		return false
	}
	return daemon.Truthy(value)
}
