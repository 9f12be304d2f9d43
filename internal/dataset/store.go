// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package dataset

import "sync"

// Store holds zero or one Dataset. It never validates what it is given and
// only ever swaps whole values, so concurrent writers cannot leave a merged
// state behind.
type Store struct {
	mu         sync.RWMutex
	current    *Dataset
	generation uint64
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{}
}

// Set replaces the current dataset.
func (s *Store) Set(ds *Dataset) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = ds
	s.generation++
}

// Clear removes the current dataset.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
	s.generation++
}

// Current returns the current dataset, or nil when none is loaded.
func (s *Store) Current() *Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Generation counts Set and Clear calls. Renderers use it to tell two
// datasets apart without comparing rows.
func (s *Store) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}
