// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package daemontest provides an in-memory ConfigStore for tests.
package daemontest

import (
	"sync"

	"github.com/juju/errors"

	"github.com/canonical/sunbeam/daemon"
)

// Store is an in-memory daemon.ConfigStore. Fields may be populated
// directly before use; the zero value via NewStore is ready to go.
type Store struct {
	mu sync.Mutex

	// Values backs Get and Set.
	Values map[string]string

	// Options holds subtrees returned by GetOptions, keyed by prefix.
	Options map[string]map[string]any

	// SetCalls records every map passed to Set.
	SetCalls []map[string]string
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		Values:  make(map[string]string),
		Options: make(map[string]map[string]any),
	}
}

// Get is part of the daemon.ConfigStore interface.
func (s *Store) Get(key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.Values[key]
	if !ok {
		return "", errors.Annotatef(daemon.ErrUnknownKey, "%q", key)
	}
	return value, nil
}

// GetOptions is part of the daemon.ConfigStore interface.
func (s *Store) GetOptions(prefix string) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tree, ok := s.Options[prefix]
	if !ok {
		return nil, errors.Annotatef(daemon.ErrUnknownKey, "%q", prefix)
	}
	return tree, nil
}

// Set is part of the daemon.ConfigStore interface.
func (s *Store) Set(values map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, value := range values {
		s.Values[key] = value
	}
	s.SetCalls = append(s.SetCalls, values)
	return nil
}
