// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package daemon defines the contract with the local snap daemon's
// configuration store and helpers for interpreting its values.
package daemon

import (
	"sort"

	"github.com/juju/errors"
	"github.com/juju/schema"

	"github.com/canonical/sunbeam/core/risk"
)

// ErrUnknownKey is returned when a configuration key has never been
// set.
const ErrUnknownKey = errors.ConstError("unknown configuration key")

// ConfigStore reads and writes the node-local daemon configuration.
type ConfigStore interface {
	// Get returns the value stored under key, or ErrUnknownKey.
	Get(key string) (string, error)

	// GetOptions returns the subtree rooted at prefix as nested maps,
	// keyed without the prefix itself, or ErrUnknownKey when nothing is
	// set under the prefix.
	GetOptions(prefix string) (map[string]any, error)

	// Set stores the given key/value pairs.
	Set(values map[string]string) error
}

// Flatten collapses a nested option tree into dotted leaf keys, in
// sorted order when ranged with sorted keys. {"storage": {"ceph":
// true}} becomes {"storage.ceph": true}.
func Flatten(tree map[string]any) map[string]any {
	flat := make(map[string]any)
	flattenInto(flat, "", tree)
	return flat
}

func flattenInto(flat map[string]any, prefix string, tree map[string]any) {
	for key, value := range tree {
		if prefix != "" {
			key = prefix + "." + key
		}
		if sub, ok := value.(map[string]any); ok {
			flattenInto(flat, key, sub)
			continue
		}
		flat[key] = value
	}
}

// SortedKeys returns the keys of a flattened option map in sorted
// order, for deterministic iteration.
func SortedKeys(flat map[string]any) []string {
	keys := make([]string, 0, len(flat))
	for key := range flat {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

var truthySchema = schema.Bool()

// Truthy interprets a stored option value as a boolean. The store
// round-trips values as strings, so "true" and true are equivalent;
// anything that does not coerce to a bool is false.
func Truthy(value any) bool {
	coerced, err := truthySchema.Coerce(value, nil)
	if err != nil {
		return false
	}
	b, _ := coerced.(bool)
	return b
}

// riskKey is the daemon option naming the installation risk channel.
const riskKey = "deployment.risk"

// InferRisk reads the installation risk level from the local daemon
// config. Missing or unparseable values resolve to stable.
func InferRisk(store ConfigStore) risk.Level {
	if store == nil {
		return risk.Stable
	}
	value, err := store.Get(riskKey)
	if err != nil {
		return risk.Stable
	}
	return risk.Parse(value)
}
