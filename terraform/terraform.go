// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package terraform defines the contract with the infrastructure-as-code
// adapter that applies deployment plans.
package terraform

import (
	"context"
	"strings"

	"github.com/juju/errors"
)

// ErrStateLocked is returned when an apply cannot take the state lock,
// usually because a concurrent operation holds it. The condition is
// transient and safe to retry.
const ErrStateLocked = errors.ConstError("terraform state is locked")

// Helper applies one named plan.
type Helper interface {
	// Apply writes vars and applies the plan.
	Apply(ctx context.Context, vars map[string]any) error

	// Output returns the plan outputs from the last apply.
	Output(ctx context.Context) (map[string]any, error)
}

// LockID extracts the lock holder identifier from a state lock error.
// The adapter embeds the underlying tool's diagnostics, which carry the
// holder on an "ID:" line; when no identifier is present "unknown" is
// returned.
func LockID(err error) string {
	if err == nil {
		return "unknown"
	}
	for _, line := range strings.Split(err.Error(), "\n") {
		line = strings.TrimSpace(line)
		if rest, ok := strings.CutPrefix(line, "ID:"); ok {
			if id := strings.TrimSpace(rest); id != "" {
				return id
			}
		}
	}
	return "unknown"
}
