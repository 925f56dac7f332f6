// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package clustertest provides an in-memory cluster.Client for tests.
package clustertest

import (
	"context"
	"fmt"
	"sync"

	"github.com/juju/errors"

	"github.com/canonical/sunbeam/cluster"
	"github.com/canonical/sunbeam/core/role"
)

// Client is an in-memory cluster.Client. Populate the maps before use;
// set Unavailable to make every call fail with ErrUnavailable, or the
// per-method error fields to force specific failures. Every mutating
// call is appended to Calls.
type Client struct {
	mu sync.Mutex

	Unavailable  bool
	Gates        map[string]bool
	Config       map[string]string
	Nodes        map[string]cluster.Node
	Bootstrapped bool

	// GateErr, when set, is returned by GetFeatureGate regardless of
	// state.
	GateErr error

	// Calls records mutating operations as "op key value" strings.
	Calls []string
}

// NewClient returns an empty in-memory client.
func NewClient() *Client {
	return &Client{
		Gates:  make(map[string]bool),
		Config: make(map[string]string),
		Nodes:  make(map[string]cluster.Node),
	}
}

func (c *Client) record(format string, args ...any) {
	c.Calls = append(c.Calls, fmt.Sprintf(format, args...))
}

// GetFeatureGate is part of the cluster.Client interface.
func (c *Client) GetFeatureGate(ctx context.Context, gateKey string) (cluster.FeatureGate, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Unavailable {
		return cluster.FeatureGate{}, cluster.ErrUnavailable
	}
	if c.GateErr != nil {
		return cluster.FeatureGate{}, c.GateErr
	}
	enabled, ok := c.Gates[gateKey]
	if !ok {
		return cluster.FeatureGate{}, errors.Annotatef(cluster.ErrGateNotFound, "%q", gateKey)
	}
	return cluster.FeatureGate{GateKey: gateKey, Enabled: enabled}, nil
}

// AddFeatureGate is part of the cluster.Client interface.
func (c *Client) AddFeatureGate(ctx context.Context, gateKey string, enabled bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Unavailable {
		return cluster.ErrUnavailable
	}
	c.Gates[gateKey] = enabled
	c.record("AddFeatureGate %s %t", gateKey, enabled)
	return nil
}

// UpdateFeatureGate is part of the cluster.Client interface.
func (c *Client) UpdateFeatureGate(ctx context.Context, gateKey string, enabled bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Unavailable {
		return cluster.ErrUnavailable
	}
	if _, ok := c.Gates[gateKey]; !ok {
		return errors.Annotatef(cluster.ErrGateNotFound, "%q", gateKey)
	}
	c.Gates[gateKey] = enabled
	c.record("UpdateFeatureGate %s %t", gateKey, enabled)
	return nil
}

// GetConfig is part of the cluster.Client interface.
func (c *Client) GetConfig(ctx context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Unavailable {
		return "", cluster.ErrUnavailable
	}
	value, ok := c.Config[key]
	if !ok {
		return "", errors.Annotatef(cluster.ErrConfigNotFound, "%q", key)
	}
	return value, nil
}

// UpdateConfig is part of the cluster.Client interface.
func (c *Client) UpdateConfig(ctx context.Context, key, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Unavailable {
		return cluster.ErrUnavailable
	}
	c.Config[key] = value
	c.record("UpdateConfig %s %s", key, value)
	return nil
}

// DeleteConfig is part of the cluster.Client interface.
func (c *Client) DeleteConfig(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Unavailable {
		return cluster.ErrUnavailable
	}
	delete(c.Config, key)
	c.record("DeleteConfig %s", key)
	return nil
}

// GetNode is part of the cluster.Client interface.
func (c *Client) GetNode(ctx context.Context, name string) (cluster.Node, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Unavailable {
		return cluster.Node{}, cluster.ErrUnavailable
	}
	node, ok := c.Nodes[name]
	if !ok {
		return cluster.Node{}, errors.Annotatef(cluster.ErrNodeNotFound, "%q", name)
	}
	return node, nil
}

// ListNodesByRole is part of the cluster.Client interface.
func (c *Client) ListNodesByRole(ctx context.Context, r role.Role) ([]cluster.Node, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Unavailable {
		return nil, cluster.ErrUnavailable
	}
	var nodes []cluster.Node
	for _, node := range c.Nodes {
		for _, nodeRole := range node.Roles {
			if nodeRole == r {
				nodes = append(nodes, node)
				break
			}
		}
	}
	return nodes, nil
}

// IsBootstrapped is part of the cluster.Client interface.
func (c *Client) IsBootstrapped(ctx context.Context) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Unavailable {
		return false, cluster.ErrUnavailable
	}
	return c.Bootstrapped, nil
}

// SetBootstrapped is part of the cluster.Client interface.
func (c *Client) SetBootstrapped(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Unavailable {
		return cluster.ErrUnavailable
	}
	c.Bootstrapped = true
	c.record("SetBootstrapped")
	return nil
}
