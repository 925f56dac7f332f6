// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package storage defines the storage backend capability kind: backend
// descriptors, the cluster-wide enabled list and the synthesis of
// Terraform variables for backend instances.
package storage

import (
	"regexp"

	"github.com/juju/errors"
	"github.com/juju/version/v2"

	"github.com/canonical/sunbeam/core/gate"
	"github.com/canonical/sunbeam/core/risk"
	"github.com/canonical/sunbeam/internal/featuregates"
)

const (
	// EnabledBackendsConfigKey is the cluster config key holding the
	// JSON list of enabled backend types.
	EnabledBackendsConfigKey = "StorageBackendsEnabled"

	// TerraformVarsConfigKey is the cluster config key holding the
	// Terraform variables of all backend instances.
	TerraformVarsConfigKey = "TerraformVarsStorageBackends"

	// principalHA and principalNonHA are the principal applications a
	// backend's subordinate charm relates to, depending on whether the
	// backend tolerates multiple volume services.
	principalHA    = "cinder-volume"
	principalNonHA = "cinder-volume-noha"
)

// ConfigField describes one option of a backend.
type ConfigField struct {
	// Name is the charm option name.
	Name string

	// Description is shown by the options command.
	Description string

	// Required options must be present when an instance is added.
	Required bool

	// Secret options are delivered to the charm via a secret instead
	// of plain charm config.
	Secret bool

	// SecretField overrides the key the secret is stored under;
	// defaults to Name.
	SecretField string
}

// BackendSpec describes one storage backend kind compiled into the
// binary.
type BackendSpec struct {
	// Type is the backend type, e.g. "ceph". It doubles as the
	// capability identifier and the enabled-list entry.
	Type string

	// DisplayName is the human name used in command help.
	DisplayName string

	// GenerallyAvailable marks backends that need no gate.
	GenerallyAvailable bool

	// MinimumRisk is the lowest installation risk level the backend is
	// visible at. Zero value means stable.
	MinimumRisk risk.Level

	// CurrentVersion is the backend's semantic version.
	CurrentVersion version.Number

	// CharmName, CharmChannel and CharmBase locate the backend's
	// subordinate charm.
	CharmName    string
	CharmChannel string
	CharmBase    string

	// CharmRevision pins a revision when non-zero.
	CharmRevision int

	// SupportsHA reports whether multiple volume service instances may
	// serve this backend.
	SupportsHA bool

	// Fields are the backend's options.
	Fields []ConfigField

	// Connect yields live collaborators when a command runs. Wired by
	// the binary at startup; nil in tests that never run commands.
	Connect ConnectFunc
}

// Identifier is part of the capability contract.
func (b *BackendSpec) Identifier() string {
	return b.Type
}

// Gate is part of the capability contract.
func (b *BackendSpec) Gate() featuregates.Gate {
	return featuregates.Gate{
		Identity:           gate.TypedBackend{BackendType: b.Type},
		GenerallyAvailable: b.GenerallyAvailable,
		EnabledListKey:     EnabledBackendsConfigKey,
		Identifier:         b.Type,
	}
}

// MinRisk is part of the capability contract.
func (b *BackendSpec) MinRisk() risk.Level {
	if b.MinimumRisk == "" {
		return risk.Stable
	}
	return b.MinimumRisk
}

// Version is part of the capability contract.
func (b *BackendSpec) Version() version.Number {
	return b.CurrentVersion
}

// PrincipalApplication returns the principal application instances of
// this backend relate to.
func (b *BackendSpec) PrincipalApplication() string {
	if b.SupportsHA {
		return principalHA
	}
	return principalNonHA
}

// InstanceConfigKey returns the cluster config key holding the stored
// options of the named instance.
func InstanceConfigKey(name string) string {
	return "Storage-" + name
}

// TerraformVars synthesizes the Terraform variables deploying one
// instance of the backend. Secret options are split out of the charm
// config so the plan can deliver them as secrets.
func (b *BackendSpec) TerraformVars(name string, config map[string]string,
	endpointBindings []map[string]string) (map[string]any, error) {
	if err := ValidateApplicationName(name); err != nil {
		return nil, errors.Trace(err)
	}
	charmConfig := make(map[string]any)
	secrets := make(map[string]any)
	for _, field := range b.Fields {
		value, ok := config[field.Name]
		if !ok {
			if field.Required {
				return nil, errors.NotValidf("missing required option %q for %s backend", field.Name, b.Type)
			}
			continue
		}
		if field.Secret {
			key := field.SecretField
			if key == "" {
				key = field.Name
			}
			secrets[key] = value
			continue
		}
		charmConfig[field.Name] = value
	}

	vars := map[string]any{
		"principal_application": b.PrincipalApplication(),
		"charm_name":            b.CharmName,
		"charm_base":            b.CharmBase,
		"charm_channel":         b.CharmChannel,
		"endpoint_bindings":     endpointBindings,
		"charm_config":          charmConfig,
		"secrets":               secrets,
	}
	if b.CharmRevision > 0 {
		vars["charm_revision"] = b.CharmRevision
	}
	return vars, nil
}

// Application names follow the charm application naming rules: lower
// case alphanumeric words separated by single hyphens, where no word
// following a hyphen is all digits.
var applicationNamePattern = regexp.MustCompile(`^(?:[a-z][a-z0-9]*(?:-[a-z0-9]*[a-z][a-z0-9]*)*)$`)

// ValidateApplicationName rejects instance names that are not valid
// application names.
func ValidateApplicationName(name string) error {
	if !applicationNamePattern.MatchString(name) {
		return errors.NotValidf("application name %q", name)
	}
	return nil
}
