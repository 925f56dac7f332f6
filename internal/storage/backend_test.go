// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package storage_test

import (
	"context"

	"github.com/juju/errors"
	"github.com/juju/testing"
	jc "github.com/juju/testing/checkers"
	"github.com/juju/version/v2"
	gc "gopkg.in/check.v1"

	"github.com/canonical/sunbeam/cluster/clustertest"
	"github.com/canonical/sunbeam/core/risk"
	"github.com/canonical/sunbeam/internal/cmd"
	"github.com/canonical/sunbeam/internal/storage"
)

type backendSuite struct {
	testing.IsolationSuite

	client *clustertest.Client
}

var _ = gc.Suite(&backendSuite{})

func (s *backendSuite) SetUpTest(c *gc.C) {
	s.IsolationSuite.SetUpTest(c)
	s.client = clustertest.NewClient()
}

func pureBackend() *storage.BackendSpec {
	return &storage.BackendSpec{
		Type:           "pure-storage",
		DisplayName:    "Pure Storage",
		MinimumRisk:    risk.Beta,
		CurrentVersion: version.MustParse("0.9.0"),
		CharmName:      "cinder-volume-pure",
		CharmChannel:   "2024.1/edge",
		CharmBase:      "ubuntu@24.04",
		SupportsHA:     true,
		Fields: []storage.ConfigField{
			{Name: "san-ip", Description: "Management IP", Required: true},
			{Name: "api-token", Description: "API token", Required: true,
				Secret: true, SecretField: "pure-api-token"},
			{Name: "protocol", Description: "Data protocol"},
		},
	}
}

func (s *backendSuite) TestTerraformVarsSeparatesSecrets(c *gc.C) {
	vars, err := pureBackend().TerraformVars("pure-main", map[string]string{
		"san-ip":    "10.0.0.5",
		"api-token": "hunter2",
		"protocol":  "iscsi",
	}, nil)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(vars["principal_application"], gc.Equals, "cinder-volume")
	c.Check(vars["charm_name"], gc.Equals, "cinder-volume-pure")
	c.Check(vars["charm_channel"], gc.Equals, "2024.1/edge")
	c.Check(vars["charm_config"], gc.DeepEquals, map[string]any{
		"san-ip":   "10.0.0.5",
		"protocol": "iscsi",
	})
	c.Check(vars["secrets"], gc.DeepEquals, map[string]any{
		"pure-api-token": "hunter2",
	})
	_, found := vars["charm_revision"]
	c.Check(found, jc.IsFalse)
}

func (s *backendSuite) TestTerraformVarsMissingRequiredOption(c *gc.C) {
	_, err := pureBackend().TerraformVars("pure-main", map[string]string{
		"san-ip": "10.0.0.5",
	}, nil)
	c.Assert(err, jc.ErrorIs, errors.NotValid)
	c.Assert(err, gc.ErrorMatches, `missing required option "api-token" .* not valid`)
}

func (s *backendSuite) TestTerraformVarsRevisionPin(c *gc.C) {
	backend := pureBackend()
	backend.CharmRevision = 42
	vars, err := backend.TerraformVars("pure-main", map[string]string{
		"san-ip":    "10.0.0.5",
		"api-token": "hunter2",
	}, nil)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(vars["charm_revision"], gc.Equals, 42)
}

func (s *backendSuite) TestTerraformVarsNonHAPrincipal(c *gc.C) {
	backend := pureBackend()
	backend.SupportsHA = false
	backend.Fields = nil
	vars, err := backend.TerraformVars("pure-main", nil, nil)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(vars["principal_application"], gc.Equals, "cinder-volume-noha")
}

func (s *backendSuite) TestValidateApplicationName(c *gc.C) {
	for _, name := range []string{"ceph", "pure-main", "pure-main-2x"} {
		c.Check(storage.ValidateApplicationName(name), jc.ErrorIsNil)
	}
	for _, name := range []string{"", "Pure", "pure--main", "pure-", "-pure", "pure-2", "9lives"} {
		c.Check(storage.ValidateApplicationName(name), jc.ErrorIs, errors.NotValid,
			gc.Commentf("name %q", name))
	}
}

func (s *backendSuite) TestEnableBackendIdempotent(c *gc.C) {
	ctx := context.Background()
	c.Assert(storage.EnableBackend(ctx, s.client, "ceph"), jc.ErrorIsNil)
	c.Assert(storage.EnableBackend(ctx, s.client, "pure-storage"), jc.ErrorIsNil)
	c.Assert(storage.EnableBackend(ctx, s.client, "ceph"), jc.ErrorIsNil)

	enabled, err := storage.EnabledBackends(ctx, s.client)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(enabled, gc.DeepEquals, []string{"ceph", "pure-storage"})
}

func (s *backendSuite) TestEnabledBackendsEmpty(c *gc.C) {
	enabled, err := storage.EnabledBackends(context.Background(), s.client)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(enabled, gc.HasLen, 0)
}

func (s *backendSuite) TestIsEnabled(c *gc.C) {
	ctx := context.Background()
	backend := pureBackend()

	enabled, err := backend.IsEnabled(ctx, s.client)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(enabled, jc.IsFalse)

	c.Assert(storage.EnableBackend(ctx, s.client, "pure-storage"), jc.ErrorIsNil)
	enabled, err = backend.IsEnabled(ctx, s.client)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(enabled, jc.IsTrue)
}

func (s *backendSuite) TestUpdateInstanceVars(c *gc.C) {
	ctx := context.Background()
	err := storage.UpdateInstanceVars(ctx, s.client, "pure-main", map[string]any{"charm_name": "cinder-volume-pure"})
	c.Assert(err, jc.ErrorIsNil)
	err = storage.UpdateInstanceVars(ctx, s.client, "ceph-main", map[string]any{"charm_name": "cinder-volume-ceph"})
	c.Assert(err, jc.ErrorIsNil)

	c.Check(s.client.Config[storage.TerraformVarsConfigKey], gc.Matches,
		`.*"ceph-main".*"pure-main".*`)
}

func (s *backendSuite) TestGateUsesEnabledList(c *gc.C) {
	g := pureBackend().Gate()
	c.Check(g.EnabledListKey, gc.Equals, storage.EnabledBackendsConfigKey)
	c.Check(g.Identifier, gc.Equals, "pure-storage")
	key, err := g.Identity.GateKey()
	c.Assert(err, jc.ErrorIsNil)
	c.Check(key, gc.Equals, "feature.storage.pure-storage")
}

func (s *backendSuite) TestRegisterCommands(c *gc.C) {
	r := cmd.NewRegistry("sunbeam", "testing")
	c.Assert(pureBackend().RegisterCommands(r, false), jc.ErrorIsNil)

	group, ok := r.Lookup("pure-storage")
	c.Assert(ok, jc.IsTrue)
	c.Check(group.(*cmd.Registry).Names(), gc.DeepEquals, []string{"add"})

	r = cmd.NewRegistry("sunbeam", "testing")
	c.Assert(pureBackend().RegisterCommands(r, true), jc.ErrorIsNil)
	group, ok = r.Lookup("pure-storage")
	c.Assert(ok, jc.IsTrue)
	c.Check(group.(*cmd.Registry).Names(), gc.DeepEquals, []string{"add", "options"})
}
