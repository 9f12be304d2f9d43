// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transcript

import "sync"

// Transcript is the ordered sequence of turns for one session.
//
// The Transcript is safe for concurrent use. Several request cycles may
// append to it at once; their turns interleave in arrival order.
type Transcript struct {
	// writeMu serializes mutate-then-notify so observers see snapshots in
	// the order the changes happened. mu guards turns for readers.
	writeMu sync.Mutex
	mu      sync.Mutex
	turns   []Turn

	subMu     sync.Mutex
	observers map[int]func([]Turn)
	nextSub   int
}

// New creates an empty transcript.
func New() *Transcript {
	return &Transcript{
		turns:     make([]Turn, 0),
		observers: make(map[int]func([]Turn)),
	}
}

// =============================================================================
// MUTATIONS
// =============================================================================

// Append adds a turn to the end.
func (t *Transcript) Append(turn Turn) {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	t.mu.Lock()
	t.turns = append(t.turns, turn)
	snap := t.snapshotLocked()
	t.mu.Unlock()
	t.notify(snap)
}

// AppendExchange appends a user turn followed by a pending placeholder as one
// step, so observers never see one without the other. A placeholder left by
// another in-flight request is removed first; at most one placeholder exists
// and it is always the last turn.
func (t *Transcript) AppendExchange(user Turn) {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	t.mu.Lock()
	t.turns = removeKind(t.turns, KindPending)
	t.turns = append(t.turns, user, Pending())
	snap := t.snapshotLocked()
	t.mu.Unlock()
	t.notify(snap)
}

// RemovePending removes every pending placeholder. It is a no-op when there
// is none.
func (t *Transcript) RemovePending() {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	t.mu.Lock()
	before := len(t.turns)
	t.turns = removeKind(t.turns, KindPending)
	changed := len(t.turns) != before
	snap := t.snapshotLocked()
	t.mu.Unlock()
	if changed {
		t.notify(snap)
	}
}

// Resolve removes every pending placeholder and then appends the final turn
// of a request as one step.
func (t *Transcript) Resolve(final Turn) {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	t.mu.Lock()
	t.turns = append(removeKind(t.turns, KindPending), final)
	snap := t.snapshotLocked()
	t.mu.Unlock()
	t.notify(snap)
}

// Clear empties the transcript.
func (t *Transcript) Clear() {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	t.mu.Lock()
	t.turns = make([]Turn, 0)
	t.mu.Unlock()
	t.notify([]Turn{})
}

// removeKind filters into a fresh slice so earlier snapshots stay intact.
func removeKind(turns []Turn, kind Kind) []Turn {
	out := make([]Turn, 0, len(turns))
	for _, turn := range turns {
		if turn.Kind != kind {
			out = append(out, turn)
		}
	}
	return out
}

// =============================================================================
// QUERIES
// =============================================================================

// Snapshot returns a copy of the current turns.
func (t *Transcript) Snapshot() []Turn {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

func (t *Transcript) snapshotLocked() []Turn {
	out := make([]Turn, len(t.turns))
	copy(out, t.turns)
	return out
}

// Len returns the number of turns, placeholders included.
func (t *Transcript) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.turns)
}

// HasPending reports whether a placeholder is currently shown.
func (t *Transcript) HasPending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, turn := range t.turns {
		if turn.IsPending() {
			return true
		}
	}
	return false
}

// Charts returns the chart turns in order.
func (t *Transcript) Charts() []Turn {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []Turn
	for _, turn := range t.turns {
		if turn.IsChart() {
			out = append(out, turn)
		}
	}
	return out
}

// Last returns the most recent turn and whether one exists.
func (t *Transcript) Last() (Turn, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.turns) == 0 {
		return Turn{}, false
	}
	return t.turns[len(t.turns)-1], true
}

// =============================================================================
// CHANGE NOTIFICATION
// =============================================================================

// Subscribe registers fn to receive a snapshot after every change. The
// returned function unregisters it. fn runs on the goroutine that made the
// change; it may read the transcript but must not mutate it.
func (t *Transcript) Subscribe(fn func([]Turn)) func() {
	t.subMu.Lock()
	id := t.nextSub
	t.nextSub++
	t.observers[id] = fn
	t.subMu.Unlock()

	return func() {
		t.subMu.Lock()
		delete(t.observers, id)
		t.subMu.Unlock()
	}
}

func (t *Transcript) notify(snap []Turn) {
	t.subMu.Lock()
	fns := make([]func([]Turn), 0, len(t.observers))
	for _, fn := range t.observers {
		fns = append(fns, fn)
	}
	t.subMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}
