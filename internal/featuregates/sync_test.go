// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package featuregates_test

import (
	"context"

	"github.com/juju/errors"
	"github.com/juju/testing"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/canonical/sunbeam/cluster/clustertest"
	"github.com/canonical/sunbeam/daemon/daemontest"
	"github.com/canonical/sunbeam/internal/featuregates"
)

type syncSuite struct {
	testing.IsolationSuite

	client *clustertest.Client
	local  *daemontest.Store
}

var _ = gc.Suite(&syncSuite{})

func (s *syncSuite) SetUpTest(c *gc.C) {
	s.IsolationSuite.SetUpTest(c)
	s.client = clustertest.NewClient()
	s.local = daemontest.NewStore()
	s.local.Options["feature"] = map[string]any{
		"multi-region": "true",
		"storage": map[string]any{
			"ceph": "false",
		},
	}
}

func (s *syncSuite) TestSyncCreatesMissingGates(c *gc.C) {
	err := featuregates.Syncer{Local: s.local, Client: s.client}.Sync(context.Background())
	c.Assert(err, jc.ErrorIsNil)
	c.Check(s.client.Gates, gc.DeepEquals, map[string]bool{
		"feature.multi-region": true,
		"feature.storage.ceph": false,
	})
}

func (s *syncSuite) TestSyncUpdatesChangedGates(c *gc.C) {
	s.client.Gates["feature.multi-region"] = false
	s.client.Gates["feature.storage.ceph"] = false

	err := featuregates.Syncer{Local: s.local, Client: s.client}.Sync(context.Background())
	c.Assert(err, jc.ErrorIsNil)
	c.Check(s.client.Gates["feature.multi-region"], jc.IsTrue)
	c.Check(s.client.Calls, gc.DeepEquals, []string{
		"UpdateFeatureGate feature.multi-region true",
	})
}

func (s *syncSuite) TestSyncIsIdempotent(c *gc.C) {
	syncer := featuregates.Syncer{Local: s.local, Client: s.client}
	err := syncer.Sync(context.Background())
	c.Assert(err, jc.ErrorIsNil)
	writes := len(s.client.Calls)

	err = syncer.Sync(context.Background())
	c.Assert(err, jc.ErrorIsNil)
	c.Check(s.client.Calls, gc.HasLen, writes)
}

func (s *syncSuite) TestSyncSkipsWhenClusterUnavailable(c *gc.C) {
	s.client.Unavailable = true
	err := featuregates.Syncer{Local: s.local, Client: s.client}.Sync(context.Background())
	c.Assert(err, jc.ErrorIsNil)
	c.Check(s.client.Calls, gc.HasLen, 0)
}

func (s *syncSuite) TestSyncSkipsWithoutClient(c *gc.C) {
	err := featuregates.Syncer{Local: s.local}.Sync(context.Background())
	c.Assert(err, jc.ErrorIsNil)
}

func (s *syncSuite) TestSyncSkipsWithoutLocalGates(c *gc.C) {
	delete(s.local.Options, "feature")
	err := featuregates.Syncer{Local: s.local, Client: s.client}.Sync(context.Background())
	c.Assert(err, jc.ErrorIsNil)
	c.Check(s.client.Calls, gc.HasLen, 0)
}

// failingAddClient refuses to create one particular gate, so the sync's
// per-key failure isolation can be observed.
type failingAddClient struct {
	*clustertest.Client
	failKey string
}

func (f *failingAddClient) AddFeatureGate(ctx context.Context, gateKey string, enabled bool) error {
	if gateKey == f.failKey {
		return errors.Errorf("wedged creating %q", gateKey)
	}
	return f.Client.AddFeatureGate(ctx, gateKey, enabled)
}

func (s *syncSuite) TestSyncFailedKeyDoesNotStopOthers(c *gc.C) {
	client := &failingAddClient{Client: s.client, failKey: "feature.multi-region"}

	err := featuregates.Syncer{Local: s.local, Client: client}.Sync(context.Background())
	c.Assert(err, jc.ErrorIsNil)
	c.Check(s.client.Gates, gc.DeepEquals, map[string]bool{
		"feature.storage.ceph": false,
	})
}
