// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package featuregates

import (
	"context"
	"strings"

	"github.com/juju/errors"

	"github.com/canonical/sunbeam/cluster"
	"github.com/canonical/sunbeam/core/gate"
	"github.com/canonical/sunbeam/daemon"
)

// optionsPrefix is the daemon namespace holding gate settings.
const optionsPrefix = "feature"

// Syncer pushes node-local feature gate settings into the cluster so
// every node resolves gates the same way. The flow is strictly one way:
// cluster records are never written back to the local store.
type Syncer struct {
	// Local is the node-local daemon config.
	Local daemon.ConfigStore

	// Client is the cluster database client. Nil before the node joins
	// a cluster, which makes Sync a no-op.
	Client cluster.Client
}

// Sync reconciles every local feature.* setting with the cluster: a
// gate with no cluster record is created, one whose enabled flag
// differs is updated, and one already in agreement is left untouched. A
// failure on one key is logged and does not stop the others; an
// unavailable cluster service skips the whole sync without error, since
// the sync will be retried on the next config change or deployment
// operation.
func (s Syncer) Sync(ctx context.Context) error {
	if s.Client == nil {
		logger.Debugf("no cluster client, skipping feature gate sync")
		return nil
	}
	options, err := s.Local.GetOptions(optionsPrefix)
	if err != nil {
		if errors.Is(err, daemon.ErrUnknownKey) {
			logger.Debugf("no local feature gates to sync")
			return nil
		}
		return errors.Trace(err)
	}

	flat := daemon.Flatten(options)
	for _, key := range daemon.SortedKeys(flat) {
		gateKey := key
		if !strings.HasPrefix(gateKey, gate.Prefix) {
			gateKey = gate.Prefix + gateKey
		}
		enabled := daemon.Truthy(flat[key])

		existing, err := s.Client.GetFeatureGate(ctx, gateKey)
		switch {
		case err == nil:
			if existing.Enabled == enabled {
				continue
			}
			if err := s.Client.UpdateFeatureGate(ctx, gateKey, enabled); err != nil {
				logger.Warningf("cannot update feature gate %q: %v", gateKey, err)
				continue
			}
			logger.Infof("updated feature gate %q in cluster (enabled=%t)", gateKey, enabled)
		case errors.Is(err, cluster.ErrUnavailable):
			logger.Debugf("cluster service unavailable, skipping feature gate sync")
			return nil
		default:
			if err := s.Client.AddFeatureGate(ctx, gateKey, enabled); err != nil {
				logger.Warningf("cannot create feature gate %q: %v", gateKey, err)
				continue
			}
			logger.Infof("created feature gate %q in cluster (enabled=%t)", gateKey, enabled)
		}
	}
	return nil
}
