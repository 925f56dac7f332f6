// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package role defines node roles and the parsing rules that gate some
// roles behind feature gates.
package role

import (
	"strings"

	"github.com/juju/collections/set"
	"github.com/juju/errors"
)

// Role describes what a node contributes to the deployment.
type Role string

const (
	Control          = Role("control")
	Compute          = Role("compute")
	Storage          = Role("storage")
	Network          = Role("network")
	RegionController = Role("region_controller")
)

// allRoles fixes the presentation order for listings and errors.
var allRoles = []Role{Control, Compute, Storage, Network, RegionController}

// roleGates maps a role to the feature gate that must be enabled before
// the role may be assigned. Ungated roles are absent.
var roleGates = map[Role]string{
	RegionController: "feature.multi-region",
}

// String implements fmt.Stringer.
func (r Role) String() string {
	return string(r)
}

// GateKey returns the feature gate key guarding r, if any.
func GateKey(r Role) (string, bool) {
	key, ok := roleGates[r]
	return key, ok
}

// GateChecker reports whether the named feature gate is enabled. A nil
// checker treats every gated role as unavailable.
type GateChecker func(gateKey string) bool

// EnabledValues lists the role values an operator may currently choose,
// omitting roles whose gate is not enabled.
func EnabledValues(enabled GateChecker) []string {
	var values []string
	for _, r := range allRoles {
		if key, gated := roleGates[r]; gated {
			if enabled == nil || !enabled(key) {
				continue
			}
		}
		values = append(values, r.String())
	}
	return values
}

// Parse turns operator-supplied role values into a validated role set.
// Values may be repeated and may contain comma-separated lists;
// duplicates collapse silently. Unknown roles and roles whose gate is
// disabled are rejected, as are mutually exclusive combinations. The
// returned roles are in canonical order.
func Parse(values []string, enabled GateChecker) ([]Role, error) {
	seen := set.NewStrings()
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			part = strings.ToLower(strings.TrimSpace(part))
			if part == "" {
				continue
			}
			seen.Add(part)
		}
	}

	known := set.NewStrings()
	for _, r := range allRoles {
		known.Add(r.String())
	}
	for _, value := range seen.SortedValues() {
		if !known.Contains(value) {
			return nil, errors.NotValidf("role %q (choose from: %s)",
				value, strings.Join(EnabledValues(enabled), ", "))
		}
	}

	var roles []Role
	for _, r := range allRoles {
		if !seen.Contains(r.String()) {
			continue
		}
		if key, gated := roleGates[r]; gated {
			if enabled == nil || !enabled(key) {
				return nil, errors.Errorf(
					"role %q is not available on this installation, enable it with: sudo snap set openstack %s=true",
					r, key)
			}
		}
		roles = append(roles, r)
	}

	if err := validateExclusions(roles); err != nil {
		return nil, errors.Trace(err)
	}
	return roles, nil
}

// validateExclusions enforces role combinations that cannot share a
// node: a region controller carries no other role, and compute and
// network gateways contend for the same dataplane.
func validateExclusions(roles []Role) error {
	chosen := set.NewStrings()
	for _, r := range roles {
		chosen.Add(r.String())
	}
	if chosen.Contains(RegionController.String()) && chosen.Size() > 1 {
		return errors.NotValidf("combining %q with other roles", RegionController)
	}
	if chosen.Contains(Compute.String()) && chosen.Contains(Network.String()) {
		return errors.NotValidf("combining %q and %q roles", Compute, Network)
	}
	return nil
}
