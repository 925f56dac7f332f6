// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package features

import (
	"github.com/juju/version/v2"

	"github.com/canonical/sunbeam/core/risk"
	"github.com/canonical/sunbeam/internal/capability"
	"github.com/canonical/sunbeam/internal/storage"
)

// Params wires the compiled-in capabilities to a live deployment.
type Params struct {
	// Cluster yields the cluster client for feature toggle commands.
	Cluster ConnectFunc

	// Storage yields collaborators for storage backend commands.
	Storage storage.ConnectFunc
}

// All returns the capabilities compiled into this binary.
func All(params Params) []capability.Capability {
	return []capability.Capability{
		&Feature{
			Name:           "multi-region",
			DisplayName:    "Multi-region",
			MinimumRisk:    risk.Beta,
			CurrentVersion: version.MustParse("1.0.0"),
			Connect:        params.Cluster,
		},
		&Feature{
			Name:               "telemetry",
			DisplayName:        "Telemetry",
			GenerallyAvailable: true,
			CurrentVersion:     version.MustParse("2.1.0"),
			Connect:            params.Cluster,
		},
		&storage.BackendSpec{
			Type:               "ceph",
			DisplayName:        "Ceph",
			GenerallyAvailable: true,
			CurrentVersion:     version.MustParse("1.2.0"),
			CharmName:          "cinder-volume-ceph",
			CharmChannel:       "2024.1/stable",
			CharmBase:          "ubuntu@24.04",
			SupportsHA:         true,
			Fields: []storage.ConfigField{
				{Name: "ceph-osd-replication-count", Description: "Replica count for volumes"},
				{Name: "ceph-pool-name", Description: "Pool backing the volumes"},
			},
			Connect: params.Storage,
		},
		&storage.BackendSpec{
			Type:           "pure-storage",
			DisplayName:    "Pure Storage",
			MinimumRisk:    risk.Beta,
			CurrentVersion: version.MustParse("0.9.0"),
			CharmName:      "cinder-volume-pure",
			CharmChannel:   "2024.1/edge",
			CharmBase:      "ubuntu@24.04",
			SupportsHA:     true,
			Fields: []storage.ConfigField{
				{Name: "san-ip", Description: "Array management address", Required: true},
				{Name: "api-token", Description: "Array API token", Required: true,
					Secret: true, SecretField: "pure-api-token"},
			},
			Connect: params.Storage,
		},
	}
}
