// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package steps_test

import (
	"context"

	"github.com/juju/testing"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/canonical/sunbeam/cluster/clustertest"
	"github.com/canonical/sunbeam/core/plan"
	"github.com/canonical/sunbeam/daemon/daemontest"
	"github.com/canonical/sunbeam/internal/steps"
)

type providerSuite struct {
	testing.IsolationSuite

	client *clustertest.Client
	local  *daemontest.Store
}

var _ = gc.Suite(&providerSuite{})

func (s *providerSuite) SetUpTest(c *gc.C) {
	s.IsolationSuite.SetUpTest(c)
	s.client = clustertest.NewClient()
	s.local = daemontest.NewStore()
}

func (s *providerSuite) run(c *gc.C) plan.Results {
	step := steps.NewSetProviderStep(s.client, s.local)
	results, err := plan.Run(context.Background(), plan.Plan{step}, plan.RunOptions{NoPrompt: true})
	c.Assert(err, jc.ErrorIsNil)
	return results
}

func (s *providerSuite) TestDefaultProviderWithoutGate(c *gc.C) {
	// The provider option is set but the gate is not: the choice is
	// ignored and the default recorded.
	s.local.Values["ovn.provider"] = "microovn"

	results := s.run(c)
	c.Check(results["set-sdn-provider"].Type, gc.Equals, plan.Completed)
	c.Check(s.client.Config["OvnConfig"], gc.Equals, `{"provider":"ovn-k8s"}`)
}

func (s *providerSuite) TestGatedProviderChoice(c *gc.C) {
	s.local.Values["feature.microovn-sdn"] = "true"
	s.local.Values["ovn.provider"] = "microovn"

	results := s.run(c)
	c.Check(results["set-sdn-provider"].Type, gc.Equals, plan.Completed)
	c.Check(s.client.Config["OvnConfig"], gc.Equals, `{"provider":"microovn"}`)
}

func (s *providerSuite) TestInvalidProviderFailsFast(c *gc.C) {
	s.local.Values["feature.microovn-sdn"] = "true"
	s.local.Values["ovn.provider"] = "flannel"

	step := steps.NewSetProviderStep(s.client, s.local)
	_, err := plan.Run(context.Background(), plan.Plan{step}, plan.RunOptions{NoPrompt: true})
	c.Assert(err, gc.ErrorMatches, `step "set-sdn-provider": SDN provider "flannel" .* not valid`)
	c.Check(s.client.Config["OvnConfig"], gc.Equals, "")
}

func (s *providerSuite) TestAlreadyRecordedSkips(c *gc.C) {
	s.client.Config["OvnConfig"] = `{"provider":"ovn-k8s"}`

	results := s.run(c)
	c.Check(results["set-sdn-provider"].Type, gc.Equals, plan.Skipped)
	c.Check(s.client.Calls, gc.HasLen, 0)
}

func (s *providerSuite) TestChangeAfterBootstrapFails(c *gc.C) {
	s.client.Config["OvnConfig"] = `{"provider":"ovn-k8s"}`
	s.client.Bootstrapped = true
	s.local.Values["feature.microovn-sdn"] = "true"
	s.local.Values["ovn.provider"] = "microovn"

	step := steps.NewSetProviderStep(s.client, s.local)
	results, err := plan.Run(context.Background(), plan.Plan{step}, plan.RunOptions{NoPrompt: true})
	c.Assert(err, gc.ErrorMatches,
		`step "set-sdn-provider": changing the SDN provider after bootstrap is not supported`)
	c.Check(results["set-sdn-provider"].Type, gc.Equals, plan.Failed)
	c.Check(s.client.Config["OvnConfig"], gc.Equals, `{"provider":"ovn-k8s"}`)
}

func (s *providerSuite) TestFirstRecordingBeforeBootstrap(c *gc.C) {
	results := s.run(c)
	c.Check(results["set-sdn-provider"].Type, gc.Equals, plan.Completed)
	c.Check(s.client.Config["OvnConfig"], gc.Equals, `{"provider":"ovn-k8s"}`)
}
