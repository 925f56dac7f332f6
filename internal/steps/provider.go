// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package steps

import (
	"context"

	"github.com/juju/errors"

	"github.com/canonical/sunbeam/cluster"
	"github.com/canonical/sunbeam/core/plan"
	"github.com/canonical/sunbeam/daemon"
	"github.com/canonical/sunbeam/internal/featuregates"
)

// SDNProvider names a software-defined networking provider.
type SDNProvider string

const (
	// ProviderOVNK8s is the default SDN provider.
	ProviderOVNK8s = SDNProvider("ovn-k8s")

	// ProviderMicroOVN is the gated alternative.
	ProviderMicroOVN = SDNProvider("microovn")
)

const (
	// providerConfigKey is the cluster config key recording the chosen
	// provider.
	providerConfigKey = "OvnConfig"

	// providerDaemonKey is the local daemon option naming the wanted
	// provider.
	providerDaemonKey = "ovn.provider"

	// microOVNGateKey gates the alternative provider.
	microOVNGateKey = "feature.microovn-sdn"
)

type providerConfig struct {
	Provider SDNProvider `json:"provider,omitempty"`
}

// SetProviderStep records the SDN provider choice in the cluster before
// anything is deployed on top of it. The choice is immutable once the
// deployment is bootstrapped: switching providers would strand the
// dataplane, so a post-bootstrap change fails the plan outright.
type SetProviderStep struct {
	plan.StepBase

	client cluster.Client
	local  daemon.ConfigStore

	// wanted is resolved by IsSkip and consumed by Run. The runner
	// guarantees IsSkip precedes Run.
	wanted SDNProvider
}

// NewSetProviderStep returns the step.
func NewSetProviderStep(client cluster.Client, local daemon.ConfigStore) *SetProviderStep {
	return &SetProviderStep{
		StepBase: plan.NewStepBase("set-sdn-provider", "Recording SDN provider"),
		client:   client,
		local:    local,
	}
}

// wantedProvider resolves the provider the operator asked for. Without
// the gate, or without an explicit choice, the default applies.
func (s *SetProviderStep) wantedProvider() (SDNProvider, error) {
	if !featuregates.IsKeyEnabled(microOVNGateKey, s.local) {
		return ProviderOVNK8s, nil
	}
	value, err := s.local.Get(providerDaemonKey)
	if errors.Is(err, daemon.ErrUnknownKey) {
		return ProviderOVNK8s, nil
	}
	if err != nil {
		return "", errors.Trace(err)
	}
	switch SDNProvider(value) {
	case ProviderOVNK8s, "":
		return ProviderOVNK8s, nil
	case ProviderMicroOVN:
		return ProviderMicroOVN, nil
	}
	return "", errors.NotValidf("SDN provider %q (choose from: %s, %s)",
		value, ProviderOVNK8s, ProviderMicroOVN)
}

// IsSkip is part of the plan.Step interface.
func (s *SetProviderStep) IsSkip(ctx context.Context, reporter plan.Reporter) plan.Result {
	wanted, err := s.wantedProvider()
	if err != nil {
		return plan.FailedErr(err)
	}

	var configured providerConfig
	err = cluster.ReadConfig(ctx, s.client, providerConfigKey, &configured)
	if err != nil && !errors.Is(err, cluster.ErrConfigNotFound) {
		return plan.FailedErr(err)
	}
	if configured.Provider == wanted {
		return plan.SkippedResult("SDN provider already recorded")
	}

	bootstrapped, err := s.client.IsBootstrapped(ctx)
	if err != nil {
		return plan.FailedErr(err)
	}
	if bootstrapped {
		return plan.Failedf("changing the SDN provider after bootstrap is not supported")
	}

	s.wanted = wanted
	return plan.CompletedResult()
}

// Run is part of the plan.Step interface.
func (s *SetProviderStep) Run(ctx context.Context, reporter plan.Reporter) plan.Result {
	if s.wanted == "" {
		return plan.Failedf("SDN provider was not resolved before run")
	}
	err := cluster.WriteConfig(ctx, s.client, providerConfigKey, providerConfig{Provider: s.wanted})
	if err != nil {
		return plan.FailedErr(err)
	}
	return plan.CompletedResult()
}
