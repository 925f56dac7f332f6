// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package appstatus aggregates per-application readiness observations
// into a single status line while a deployment settles.
package appstatus

import (
	"fmt"
	"time"

	"github.com/juju/clock"
	"github.com/juju/collections/set"
	"github.com/juju/errors"
	"github.com/juju/loggo/v2"
	"github.com/juju/worker/v4/catacomb"

	"github.com/canonical/sunbeam/core/plan"
	"github.com/canonical/sunbeam/juju"
)

var logger = loggo.GetLogger("sunbeam.worker.appstatus")

const (
	// pollInterval bounds how long the loop sits on the event channel
	// before rechecking for shutdown.
	pollInterval = 15 * time.Second

	// readyThreshold is how many consecutive ready observations an
	// application needs before it counts as online. Charm status
	// flaps while relations settle, so one observation proves nothing.
	readyThreshold = 4
)

// Config holds the dependencies of the aggregator worker.
type Config struct {
	// Applications lists the applications being waited on. Events for
	// anything else are logged and ignored.
	Applications []string

	// Events carries readiness observations from the waiter's polling
	// loop. Closing the channel stops the worker.
	Events <-chan juju.ReadinessEvent

	// Reporter receives the aggregated status line. Nil means no
	// display is attached and the worker only drains events.
	Reporter plan.Reporter

	// Prefix is prepended to every status line, typically the owning
	// step's status.
	Prefix string

	// Clock times the shutdown recheck.
	Clock clock.Clock
}

// Validate is part of the worker config contract.
func (c Config) Validate() error {
	if len(c.Applications) == 0 {
		return errors.NotValidf("empty Applications")
	}
	if c.Events == nil {
		return errors.NotValidf("nil Events")
	}
	if c.Clock == nil {
		return errors.NotValidf("nil Clock")
	}
	return nil
}

// Worker consumes readiness events and rewrites the status line as
// applications come online. It exits on its own once every application
// has settled.
type Worker struct {
	catacomb catacomb.Catacomb
	config   Config
}

// NewWorker starts an aggregator worker.
func NewWorker(config Config) (*Worker, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	w := &Worker{config: config}
	err := catacomb.Invoke(catacomb.Plan{
		Name: "appstatus",
		Site: &w.catacomb,
		Work: w.loop,
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	return w, nil
}

// Kill is part of the worker.Worker interface.
func (w *Worker) Kill() {
	w.catacomb.Kill(nil)
}

// Wait is part of the worker.Worker interface.
func (w *Worker) Wait() error {
	return w.catacomb.Wait()
}

func (w *Worker) loop() error {
	known := set.NewStrings(w.config.Applications...)
	counts := make(map[string]int)

	for {
		select {
		case <-w.catacomb.Dying():
			return w.catacomb.ErrDying()
		case event, ok := <-w.config.Events:
			if !ok {
				return nil
			}
			if !known.Contains(event.Application) {
				logger.Debugf("ignoring status for unknown application %q", event.Application)
				continue
			}
			if event.Ready {
				counts[event.Application]++
			} else {
				counts[event.Application] = 0
			}

			online := 0
			for _, count := range counts {
				if count >= readyThreshold {
					online++
				}
			}
			if online == known.Size() {
				w.update("all services are online")
				return nil
			}
			w.update(fmt.Sprintf("waiting for services to come online (%d/%d)",
				online, known.Size()))
		case <-w.config.Clock.After(pollInterval):
			// Nothing arrived; loop to recheck for shutdown.
		}
	}
}

func (w *Worker) update(message string) {
	if w.config.Reporter == nil {
		return
	}
	w.config.Reporter.Update(w.config.Prefix + message)
}
