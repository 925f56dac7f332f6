// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package storage

import (
	"context"

	"github.com/juju/collections/set"
	"github.com/juju/errors"
	"github.com/juju/loggo/v2"

	"github.com/canonical/sunbeam/cluster"
)

var logger = loggo.GetLogger("sunbeam.storage")

// EnabledBackends returns the backend types enabled on the deployment.
// A deployment with no record has no backends enabled.
func EnabledBackends(ctx context.Context, client cluster.Client) ([]string, error) {
	var enabled []string
	err := cluster.ReadConfig(ctx, client, EnabledBackendsConfigKey, &enabled)
	if errors.Is(err, cluster.ErrConfigNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Trace(err)
	}
	return enabled, nil
}

// EnableBackend adds a backend type to the enabled list. Enabling an
// already enabled backend is a no-op, so the call is safe to repeat.
func EnableBackend(ctx context.Context, client cluster.Client, backendType string) error {
	enabled, err := EnabledBackends(ctx, client)
	if err != nil {
		return errors.Trace(err)
	}
	if set.NewStrings(enabled...).Contains(backendType) {
		return nil
	}
	enabled = append(enabled, backendType)
	if err := cluster.WriteConfig(ctx, client, EnabledBackendsConfigKey, enabled); err != nil {
		return errors.Trace(err)
	}
	logger.Infof("enabled storage backend %q", backendType)
	return nil
}

// IsBackendEnabled reports whether the backend type is on the enabled
// list.
func IsBackendEnabled(ctx context.Context, client cluster.Client, backendType string) (bool, error) {
	enabled, err := EnabledBackends(ctx, client)
	if err != nil {
		return false, errors.Trace(err)
	}
	return set.NewStrings(enabled...).Contains(backendType), nil
}

// IsEnabled makes BackendSpec satisfy the capability enable/disable
// contract.
func (b *BackendSpec) IsEnabled(ctx context.Context, client cluster.Client) (bool, error) {
	return IsBackendEnabled(ctx, client, b.Type)
}

// UpdateInstanceVars merges one instance's Terraform variables into the
// stored per-instance variable document.
func UpdateInstanceVars(ctx context.Context, client cluster.Client, name string, vars map[string]any) error {
	all := make(map[string]any)
	err := cluster.ReadConfig(ctx, client, TerraformVarsConfigKey, &all)
	if err != nil && !errors.Is(err, cluster.ErrConfigNotFound) {
		return errors.Trace(err)
	}
	all[name] = vars
	return errors.Trace(cluster.WriteConfig(ctx, client, TerraformVarsConfigKey, all))
}
