package history

import (
	"testing"
	"time"

	"github.com/burntcarrot/linepad/crdt"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"pgregory.net/rapid"
)

// clock is a manual time source.
type clock struct {
	t time.Time
}

func (c *clock) now() time.Time { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newHistory() (*History, *clock) {
	c := &clock{t: time.Date(2022, 8, 1, 12, 0, 0, 0, time.UTC)}
	return New(Options{Now: c.now}), c
}

func char(digit int, value string) crdt.Char {
	return crdt.Char{Position: crdt.Position{{Digit: 1, Site: 0}, {Digit: digit, Site: 1}}, Lamport: 1, Value: value}
}

func add(digit int, value string) crdt.RemoteChange { return crdt.Add{Char: char(digit, value)} }
func remove(digit int, value string) crdt.RemoteChange { return crdt.Remove{Char: char(digit, value)} }

func TestBatching(t *testing.T) {
	tests := []struct {
		description string
		// run records changes, one slice per edit. A nil edit is a cursor move.
		edits    [][]crdt.RemoteChange
		gap      time.Duration
		expected int
	}{
		{description: "two insertions 100ms apart merge",
			edits: [][]crdt.RemoteChange{{add(1, "a")}, {add(2, "b")}}, gap: 100 * time.Millisecond, expected: 1},

		{description: "a cursor move splits the batch",
			edits: [][]crdt.RemoteChange{{add(1, "a")}, nil, {add(2, "b")}}, gap: 100 * time.Millisecond, expected: 2},

		{description: "insertions more than a second apart",
			edits: [][]crdt.RemoteChange{{add(1, "a")}, {add(2, "b")}}, gap: 1500 * time.Millisecond, expected: 2},

		{description: "multi-character edits are never merged",
			edits: [][]crdt.RemoteChange{{add(1, "a")}, {add(2, "b"), add(3, "c")}}, gap: 0, expected: 2},

		{description: "whitespace starts a new batch",
			edits: [][]crdt.RemoteChange{{add(1, "a")}, {add(2, " ")}, {add(3, "b")}}, gap: 0, expected: 2},

		{description: "newline starts a new batch",
			edits: [][]crdt.RemoteChange{{add(1, "a")}, {add(2, "\n")}}, gap: 0, expected: 2},

		{description: "removals merge",
			edits: [][]crdt.RemoteChange{{remove(1, "a")}, {remove(2, "b")}}, gap: 0, expected: 1},

		{description: "removal after insertions",
			edits: [][]crdt.RemoteChange{{add(1, "a")}, {remove(1, "a")}}, gap: 0, expected: 2},

		{description: "insertion after removals merges",
			edits: [][]crdt.RemoteChange{{remove(1, "a")}, {add(1, "b")}}, gap: 0, expected: 1},
	}

	for _, tc := range tests {
		h, c := newHistory()
		for _, edit := range tc.edits {
			if edit == nil {
				h.OnCursorMove()
				continue
			}
			h.OnChanges(edit)
			c.advance(tc.gap)
		}

		if len(h.undo) != tc.expected {
			t.Errorf("(%s) got %d batches, expected %d\n", tc.description, len(h.undo), tc.expected)
		}
	}
}

func TestBatching_MaxSize(t *testing.T) {
	h, _ := newHistory()
	for i := 0; i < 25; i++ {
		h.OnChanges([]crdt.RemoteChange{add(i+1, "a")})
	}

	got := []int{}
	for _, batch := range h.undo {
		got = append(got, len(batch))
	}
	expected := []int{10, 10, 5}

	if !cmp.Equal(got, expected) {
		t.Errorf("got != expected, diff: %v\n", cmp.Diff(got, expected))
	}

	h, _ = newHistory()
	for i := 0; i < 12; i++ {
		h.OnChanges([]crdt.RemoteChange{remove(i+1, "a")})
	}
	if len(h.undo) != 2 {
		t.Errorf("got %d removal batches, expected 2\n", len(h.undo))
	}
}

func TestUndoRedo(t *testing.T) {
	h, _ := newHistory()

	if h.MakeUndoChanges(1) != nil || h.MakeRedoChanges(1) != nil {
		t.Fatalf("empty history returned changes\n")
	}

	h.OnChanges([]crdt.RemoteChange{remove(1, "a"), add(2, "b")})

	got := h.MakeUndoChanges(7)
	expected := []crdt.RemoteChange{
		remove(2, "b"),
		crdt.Add{Char: crdt.Char{Position: char(1, "a").Position, Lamport: 7, Value: "a"}},
	}
	if !cmp.Equal(got, expected) {
		t.Errorf("got != expected, diff: %v\n", cmp.Diff(got, expected))
	}
	if h.CanUndo() || !h.CanRedo() {
		t.Errorf("got CanUndo = %v, CanRedo = %v after undo\n", h.CanUndo(), h.CanRedo())
	}

	got = h.MakeRedoChanges(8)
	expected = []crdt.RemoteChange{
		crdt.Remove{Char: crdt.Char{Position: char(1, "a").Position, Lamport: 7, Value: "a"}},
		crdt.Add{Char: crdt.Char{Position: char(2, "b").Position, Lamport: 8, Value: "b"}},
	}
	if !cmp.Equal(got, expected) {
		t.Errorf("got != expected, diff: %v\n", cmp.Diff(got, expected))
	}
	if !h.CanUndo() || h.CanRedo() {
		t.Errorf("got CanUndo = %v, CanRedo = %v after redo\n", h.CanUndo(), h.CanRedo())
	}

	// An undo always closes the current batch.
	h.OnChanges([]crdt.RemoteChange{add(3, "c")})
	if len(h.undo) != 2 {
		t.Errorf("got %d batches, expected 2\n", len(h.undo))
	}
}

// apply replays changes on doc the way a site applies its own undo or redo.
func apply(t *rapid.T, doc *crdt.Document, changes []crdt.RemoteChange) {
	for _, c := range changes {
		if _, err := crdt.RemoteToLocal(doc, c); err != nil {
			t.Fatalf("apply %v: %v", c, err)
		}
	}
}

// TestUndoRedoLaws undoes every batch of a random editing session, then
// redoes them all, and expects the same characters as before the undos.
func TestUndoRedoLaws(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		c := &clock{t: time.Date(2022, 8, 1, 12, 0, 0, 0, time.UTC)}
		h := New(Options{Now: c.now})
		doc := crdt.New()
		lamport := 0

		steps := rapid.IntRange(1, 30).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			if rapid.Bool().Draw(t, "move") {
				h.OnCursorMove()
			}
			c.advance(time.Duration(rapid.IntRange(0, 1500).Draw(t, "gap")) * time.Millisecond)

			chars := doc.Characters()
			n := len(chars)
			var change crdt.LocalChange
			if n > 0 && rapid.Bool().Draw(t, "delete") {
				from := rapid.IntRange(0, n-1).Draw(t, "from")
				to := rapid.IntRange(from+1, min(n, from+3)).Draw(t, "to")
				change = crdt.LocalChange{From: posAt(doc, from), To: posAt(doc, to)}
			} else {
				at := posAt(doc, rapid.IntRange(0, n).Draw(t, "at"))
				text := rapid.SampledFrom([]string{"a", "b", " ", "\n", "cd"}).Draw(t, "text")
				change = crdt.LocalChange{From: at, To: at, Text: text}
			}

			lamport++
			changes, err := crdt.LocalToRemote(doc, lamport, 1, change)
			if err != nil {
				t.Fatalf("edit %v: %v", change, err)
			}
			h.OnChanges(changes)
		}

		expected := doc.Characters()

		undos := 0
		for {
			lamport++
			changes := h.MakeUndoChanges(lamport)
			if changes == nil {
				break
			}
			apply(t, doc, changes)
			undos++
		}
		if doc.String() != "" {
			t.Fatalf("content after undoing everything: %q", doc.String())
		}

		for i := 0; i < undos; i++ {
			lamport++
			apply(t, doc, h.MakeRedoChanges(lamport))
		}

		got := doc.Characters()
		if !cmp.Equal(got, expected, cmpopts.IgnoreFields(crdt.Char{}, "Lamport"), cmpopts.EquateEmpty()) {
			t.Fatalf("characters differ: %v", cmp.Diff(got, expected, cmpopts.IgnoreFields(crdt.Char{}, "Lamport"), cmpopts.EquateEmpty()))
		}
	})
}

func posAt(doc *crdt.Document, index int) crdt.Pos {
	last := doc.LineCount() - 1
	for line := 0; line < last; line++ {
		n := len(doc.Line(line))
		if index < n {
			return crdt.Pos{Line: line, Ch: index}
		}
		index -= n
	}
	return crdt.Pos{Line: last, Ch: index}
}
