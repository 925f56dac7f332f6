// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package gate defines the feature gate key namespace. Every gateable
// capability derives its key from exactly one identity variant.
package gate

import (
	"github.com/juju/errors"
)

// Prefix is the root of the feature gate key namespace.
const Prefix = "feature."

// ErrMissingIdentity is returned when a gate variant carries no
// identity, so no gate key can be derived for it.
const ErrMissingIdentity = errors.ConstError("feature gate has no identity")

// Variant derives the gate key for one kind of gateable capability.
type Variant interface {
	// GateKey returns the fully qualified gate key, or
	// ErrMissingIdentity when the variant has no identity set.
	GateKey() (string, error)
}

// NamedFeature gates a feature by its name: feature.<name>.
type NamedFeature struct {
	Name string
}

// GateKey is part of the Variant interface.
func (v NamedFeature) GateKey() (string, error) {
	if v.Name == "" {
		return "", errors.Trace(ErrMissingIdentity)
	}
	return Prefix + v.Name, nil
}

// TypedBackend gates a storage backend by its backend type:
// feature.storage.<type>.
type TypedBackend struct {
	BackendType string
}

// GateKey is part of the Variant interface.
func (v TypedBackend) GateKey() (string, error) {
	if v.BackendType == "" {
		return "", errors.Trace(ErrMissingIdentity)
	}
	return Prefix + "storage." + v.BackendType, nil
}
