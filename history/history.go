// Package history records the changes made by the local site and builds the
// changes that undo or redo them.
package history

import (
	"strings"
	"time"

	"github.com/burntcarrot/linepad/crdt"
)

const (
	// DefaultBatchDelay separates actions into different batches.
	DefaultBatchDelay = time.Second

	// DefaultMaxBatchSize caps the number of insertions (or removals) in a batch.
	DefaultMaxBatchSize = 10
)

// whitespace characters always start a new insertion batch.
const whitespace = " \t\n\r"

// Options configures a History. Zero values fall back to the defaults.
type Options struct {
	BatchDelay   time.Duration
	MaxBatchSize int

	// Now returns the current time. Used by tests.
	Now func() time.Time
}

// History holds the undo and redo stacks. Each entry is a batch of changes
// undone (or redone) together.
type History struct {
	undo [][]crdt.RemoteChange
	redo [][]crdt.RemoteChange

	newBatch   bool
	lastAction time.Time

	delay   time.Duration
	maxSize int
	now     func() time.Time
}

// New returns an empty history.
func New(opts Options) *History {
	h := &History{
		delay:   opts.BatchDelay,
		maxSize: opts.MaxBatchSize,
		now:     opts.Now,
	}
	if h.delay <= 0 {
		h.delay = DefaultBatchDelay
	}
	if h.maxSize <= 0 {
		h.maxSize = DefaultMaxBatchSize
	}
	if h.now == nil {
		h.now = time.Now
	}
	return h
}

// OnChanges records the changes produced by a local edit.
func (h *History) OnChanges(changes []crdt.RemoteChange) {
	if len(changes) == 0 {
		return
	}

	now := h.now()
	if h.shouldStartNewBatch(now, changes) {
		batch := make([]crdt.RemoteChange, len(changes))
		copy(batch, changes)
		h.undo = append(h.undo, batch)
	} else {
		top := len(h.undo) - 1
		h.undo[top] = append(h.undo[top], changes...)
	}

	h.newBatch = false
	h.lastAction = now
}

// OnCursorMove must be called when the cursor moves for a reason other than
// an edit. The next change starts a new batch.
func (h *History) OnCursorMove() {
	h.newBatch = true
}

// MakeUndoChanges pops the last batch and returns the changes reverting it,
// or nil if there is nothing to undo. Reinserted characters get lamport.
func (h *History) MakeUndoChanges(lamport int) []crdt.RemoteChange {
	if len(h.undo) == 0 {
		return nil
	}

	batch := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]

	inverted := invertAll(batch, lamport)
	h.redo = append(h.redo, inverted)
	h.newBatch = true
	return inverted
}

// MakeRedoChanges pops the last undone batch and returns the changes
// reapplying it, or nil if there is nothing to redo.
func (h *History) MakeRedoChanges(lamport int) []crdt.RemoteChange {
	if len(h.redo) == 0 {
		return nil
	}

	batch := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]

	inverted := invertAll(batch, lamport)
	h.undo = append(h.undo, inverted)
	h.newBatch = true
	return inverted
}

// CanUndo reports whether MakeUndoChanges would return changes.
func (h *History) CanUndo() bool { return len(h.undo) > 0 }

// CanRedo reports whether MakeRedoChanges would return changes.
func (h *History) CanRedo() bool { return len(h.redo) > 0 }

// invertAll inverts a batch back to front. A batch may remove a character
// and add another one at the same position, so order matters.
func invertAll(batch []crdt.RemoteChange, lamport int) []crdt.RemoteChange {
	out := make([]crdt.RemoteChange, 0, len(batch))
	for i := len(batch) - 1; i >= 0; i-- {
		if inverted := invert(batch[i], lamport); inverted != nil {
			out = append(out, inverted)
		}
	}
	return out
}

// invert turns an Add into a Remove of the same character, and a Remove into
// an Add at the same position. The reinsertion is a new event, so it carries
// the given lamport.
func invert(change crdt.RemoteChange, lamport int) crdt.RemoteChange {
	switch c := change.(type) {
	case crdt.Add:
		return crdt.Remove{Char: c.Char}
	case crdt.Remove:
		return crdt.Add{Char: crdt.Char{Position: c.Char.Position, Lamport: lamport, Value: c.Char.Value}}
	default:
		return nil
	}
}

func (h *History) shouldStartNewBatch(now time.Time, changes []crdt.RemoteChange) bool {
	if h.newBatch {
		return true
	}

	// Only single-character edits are merged.
	if len(changes) > 1 {
		return true
	}
	if now.Sub(h.lastAction) > h.delay {
		return true
	}
	if len(h.undo) == 0 {
		return true
	}

	top := h.undo[len(h.undo)-1]
	additions := 0
	for _, c := range top {
		if _, ok := c.(crdt.Add); ok {
			additions++
		}
	}

	switch c := changes[0].(type) {
	case crdt.Add:
		return additions >= h.maxSize || strings.Contains(whitespace, c.Char.Value)
	case crdt.Remove:
		// Additions and removals never share a batch.
		return additions > 0 || len(top) >= h.maxSize
	default:
		return true
	}
}
