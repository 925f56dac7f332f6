// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package capability

import (
	"context"
	"sort"
	"sync"

	"github.com/juju/errors"
	"github.com/juju/loggo/v2"

	"github.com/canonical/sunbeam/cluster"
	"github.com/canonical/sunbeam/core/risk"
	"github.com/canonical/sunbeam/internal/cmd"
	"github.com/canonical/sunbeam/internal/featuregates"
)

var logger = loggo.GetLogger("sunbeam.capability")

// versionConfigKey returns the cluster config key recording a
// capability's last registered version.
func versionConfigKey(identifier string) string {
	return "Feature-" + identifier
}

type versionRecord struct {
	Version string `json:"version"`
}

// Registry holds the capabilities compiled into the binary.
type Registry struct {
	mu           sync.Mutex
	loaded       bool
	capabilities map[string]Capability
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{capabilities: make(map[string]Capability)}
}

// Load records the compiled-in capability list. Loading is idempotent:
// the first call wins and later calls do nothing, so init-order races
// between callers are harmless.
func (r *Registry) Load(capabilities ...Capability) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loaded {
		return nil
	}
	for _, capability := range capabilities {
		id := capability.Identifier()
		if _, found := r.capabilities[id]; found {
			return errors.Errorf("capability %q registered twice", id)
		}
		r.capabilities[id] = capability
	}
	r.loaded = true
	return nil
}

// Capabilities returns the loaded capabilities sorted by identifier.
func (r *Registry) Capabilities() []Capability {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.capabilities))
	for id := range r.capabilities {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	capabilities := make([]Capability, 0, len(ids))
	for _, id := range ids {
		capabilities = append(capabilities, r.capabilities[id])
	}
	return capabilities
}

// Get returns the capability with the given identifier.
func (r *Registry) Get(identifier string) (Capability, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	capability, ok := r.capabilities[identifier]
	return capability, ok
}

// RegisterParams carries the context a registration pass runs in.
type RegisterParams struct {
	// Resolver answers gate questions. Its client may be nil when the
	// node has not joined a cluster yet.
	Resolver featuregates.Resolver

	// Risk is the installation risk level.
	Risk risk.Level

	// Client is the cluster client for enabled-state queries. May be
	// nil.
	Client cluster.Client

	// Commands is the command tree capabilities attach to.
	Commands *cmd.Registry
}

// RegisterAll walks the loaded capabilities and attaches the command
// surface of each one that passes the risk and gate filters. A
// capability above the installation risk level or behind a disabled
// gate is silently invisible; a gate that cannot be resolved because of
// malformed state is an error, not a silent refusal.
func (r *Registry) RegisterAll(ctx context.Context, params RegisterParams) error {
	for _, capability := range r.Capabilities() {
		if capability.MinRisk().Compare(params.Risk) > 0 {
			logger.Debugf("capability %q needs risk %s, installation is %s",
				capability.Identifier(), capability.MinRisk(), params.Risk)
			continue
		}
		open, err := params.Resolver.IsEnabled(ctx, capability.Gate())
		if err != nil {
			return errors.Annotatef(err, "resolving gate for capability %q", capability.Identifier())
		}
		if !open {
			logger.Debugf("capability %q is gated", capability.Identifier())
			continue
		}

		enabled := false
		if toggle, ok := capability.(EnableDisable); ok && params.Client != nil {
			enabled, err = toggle.IsEnabled(ctx, params.Client)
			if err != nil {
				logger.Debugf("cannot determine whether capability %q is enabled: %v",
					capability.Identifier(), err)
				enabled = false
			}
		}
		if err := capability.RegisterCommands(params.Commands, enabled); err != nil {
			return errors.Annotatef(err, "registering commands for capability %q",
				capability.Identifier())
		}
	}
	return nil
}

// EnabledFeatures returns the identifiers of capabilities currently
// enabled on the deployment. Capabilities whose enabled state cannot be
// read count as disabled.
func (r *Registry) EnabledFeatures(ctx context.Context, client cluster.Client) []string {
	var enabled []string
	for _, capability := range r.Capabilities() {
		toggle, ok := capability.(EnableDisable)
		if !ok {
			continue
		}
		on, err := toggle.IsEnabled(ctx, client)
		if err != nil {
			logger.Debugf("cannot determine whether capability %q is enabled: %v",
				capability.Identifier(), err)
			continue
		}
		if on {
			enabled = append(enabled, capability.Identifier())
		}
	}
	return enabled
}

// VersionChanged compares a capability's compiled-in version with the
// cluster record. A capability never registered before compares against
// 0.0.0.
func (r *Registry) VersionChanged(ctx context.Context, client cluster.Client, capability Capability) (bool, error) {
	record := versionRecord{Version: "0.0.0"}
	err := cluster.ReadConfig(ctx, client, versionConfigKey(capability.Identifier()), &record)
	if err != nil && !errors.Is(err, cluster.ErrConfigNotFound) {
		return false, errors.Trace(err)
	}
	return capability.Version().String() != record.Version, nil
}

// UpgradeAll runs the upgrade hook of every enabled capability whose
// version record is stale, then refreshes the record. The release-aware
// hook is preferred; capabilities that only implement the plain hook
// get that instead.
func (r *Registry) UpgradeAll(ctx context.Context, client cluster.Client, upgradeRelease bool) error {
	for _, capability := range r.Capabilities() {
		toggle, ok := capability.(EnableDisable)
		if !ok {
			continue
		}
		enabled, err := toggle.IsEnabled(ctx, client)
		if err != nil || !enabled {
			continue
		}
		changed, err := r.VersionChanged(ctx, client, capability)
		if err != nil {
			return errors.Trace(err)
		}
		if !changed {
			continue
		}

		logger.Infof("upgrading capability %q to %s", capability.Identifier(), capability.Version())
		switch hook := capability.(type) {
		case ReleaseUpgrader:
			err = hook.UpgradeRelease(ctx, client, upgradeRelease)
		case Upgrader:
			err = hook.Upgrade(ctx, client)
		default:
			// No upgrade work; just refresh the record.
		}
		if err != nil {
			return errors.Annotatef(err, "upgrading capability %q", capability.Identifier())
		}
		record := versionRecord{Version: capability.Version().String()}
		if err := cluster.WriteConfig(ctx, client, versionConfigKey(capability.Identifier()), record); err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}
