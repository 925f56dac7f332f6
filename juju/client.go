// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package juju defines the contract with the orchestration control
// plane that hosts the deployed applications.
package juju

import (
	"context"
	"time"

	"github.com/juju/errors"
)

const (
	// ErrApplicationNotFound is returned when an application is not
	// deployed in the model.
	ErrApplicationNotFound = errors.ConstError("application not found")

	// ErrUnitNotFound is returned when a unit does not exist.
	ErrUnitNotFound = errors.ConstError("unit not found")
)

// Unit is one running instance of an application.
type Unit struct {
	Name           string
	Machine        string
	WorkloadStatus string
}

// Application is a deployed application and its units.
type Application struct {
	Name   string
	Status string
	Units  []Unit
}

// ReadinessEvent reports one observation of an application's health,
// taken while waiting for a deployment to settle. Consumers debounce
// these; a single Ready observation does not mean the application has
// settled.
type ReadinessEvent struct {
	Application string
	Ready       bool
}

// Client talks to the orchestration control plane.
type Client interface {
	// GetApplication returns the named application in the model, or
	// ErrApplicationNotFound.
	GetApplication(ctx context.Context, name, model string) (*Application, error)

	// WaitApplicationsActive blocks until every listed application is
	// active or the timeout elapses. While polling it posts one
	// ReadinessEvent per application per poll to events, if events is
	// not nil; sends never block, observations are dropped when the
	// consumer lags.
	WaitApplicationsActive(ctx context.Context, model string, applications []string,
		events chan<- ReadinessEvent, timeout time.Duration) error

	// AddUnit adds a unit of the application on the given machine.
	AddUnit(ctx context.Context, application, model, machine string) error

	// RemoveUnit removes the named unit.
	RemoveUnit(ctx context.Context, application, unit, model string) error
}
