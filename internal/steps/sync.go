// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package steps

import (
	"context"

	"github.com/canonical/sunbeam/cluster"
	"github.com/canonical/sunbeam/core/plan"
	"github.com/canonical/sunbeam/daemon"
	"github.com/canonical/sunbeam/internal/featuregates"
)

// SyncFeatureGatesStep pushes local feature gate settings into the
// cluster. The step never fails the plan: gates sync again on the next
// operation, and blocking a deployment on them would hurt more than a
// stale gate does.
type SyncFeatureGatesStep struct {
	plan.StepBase

	syncer featuregates.Syncer
}

// NewSyncFeatureGatesStep returns the sync step. client may be nil when
// the node has not joined a cluster, making the step a no-op.
func NewSyncFeatureGatesStep(local daemon.ConfigStore, client cluster.Client) *SyncFeatureGatesStep {
	return &SyncFeatureGatesStep{
		StepBase: plan.NewStepBase("sync-feature-gates", "Syncing feature gates"),
		syncer:   featuregates.Syncer{Local: local, Client: client},
	}
}

// Run is part of the plan.Step interface.
func (s *SyncFeatureGatesStep) Run(ctx context.Context, reporter plan.Reporter) plan.Result {
	if err := s.syncer.Sync(ctx); err != nil {
		logger.Warningf("cannot sync feature gates: %v", err)
		return plan.NewResult(plan.Completed, "feature gate sync failed, will retry on next operation")
	}
	return plan.CompletedResult()
}
