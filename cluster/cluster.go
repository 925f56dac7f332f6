// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package cluster defines the contract with the cluster database
// service that stores deployment-wide configuration, node membership
// and feature gate records.
package cluster

import (
	"context"
	"encoding/json"

	"github.com/juju/errors"

	"github.com/canonical/sunbeam/core/role"
)

const (
	// ErrUnavailable is returned when the cluster service cannot be
	// reached, typically before the node has joined a cluster.
	ErrUnavailable = errors.ConstError("cluster service unavailable")

	// ErrConfigNotFound is returned when a config key has no record.
	ErrConfigNotFound = errors.ConstError("cluster config item not found")

	// ErrGateNotFound is returned when a feature gate has no record.
	ErrGateNotFound = errors.ConstError("feature gate not found")

	// ErrNodeNotFound is returned when a node is not a cluster member.
	ErrNodeNotFound = errors.ConstError("node not found")
)

// FeatureGate is the cluster-wide record for one gate key.
type FeatureGate struct {
	GateKey string
	Enabled bool
}

// Node is a cluster member.
type Node struct {
	Name      string
	MachineID string
	Roles     []role.Role
}

// Client talks to the cluster database service. All calls may return
// ErrUnavailable when the service is unreachable.
type Client interface {
	// GetFeatureGate returns the record for the given gate key, or
	// ErrGateNotFound.
	GetFeatureGate(ctx context.Context, gateKey string) (FeatureGate, error)

	// AddFeatureGate creates a gate record.
	AddFeatureGate(ctx context.Context, gateKey string, enabled bool) error

	// UpdateFeatureGate replaces the enabled flag of an existing record.
	UpdateFeatureGate(ctx context.Context, gateKey string, enabled bool) error

	// GetConfig returns the raw value stored under key, or
	// ErrConfigNotFound.
	GetConfig(ctx context.Context, key string) (string, error)

	// UpdateConfig stores value under key, creating it if absent.
	UpdateConfig(ctx context.Context, key, value string) error

	// DeleteConfig removes the record under key.
	DeleteConfig(ctx context.Context, key string) error

	// GetNode returns the membership record for the named node, or
	// ErrNodeNotFound.
	GetNode(ctx context.Context, name string) (Node, error)

	// ListNodesByRole returns all members carrying the given role.
	ListNodesByRole(ctx context.Context, r role.Role) ([]Node, error)

	// IsBootstrapped reports whether the deployment has been
	// bootstrapped.
	IsBootstrapped(ctx context.Context) (bool, error)

	// SetBootstrapped marks the deployment bootstrapped.
	SetBootstrapped(ctx context.Context) error
}

// ReadConfig reads the JSON document stored under key into out.
func ReadConfig(ctx context.Context, client Client, key string, out any) error {
	raw, err := client.GetConfig(ctx, key)
	if err != nil {
		return errors.Trace(err)
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return errors.Annotatef(err, "decoding cluster config %q", key)
	}
	return nil
}

// WriteConfig stores value under key as a JSON document.
func WriteConfig(ctx context.Context, client Client, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return errors.Annotatef(err, "encoding cluster config %q", key)
	}
	return errors.Trace(client.UpdateConfig(ctx, key, string(raw)))
}
