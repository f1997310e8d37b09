package main

import (
	"github.com/burntcarrot/linepad/crdt"
	"github.com/tidwall/btree"
)

// snapshot holds the characters of the shared document, ordered by position.
// New clients receive it on connect. Like the document, it tolerates
// duplicate and out-of-order delivery.
type snapshot struct {
	chars *btree.BTreeG[crdt.Char]
}

func newSnapshot() *snapshot {
	return &snapshot{
		chars: btree.NewBTreeGOptions(
			func(a, b crdt.Char) bool {
				return a.Compare(b) < 0
			},
			btree.Options{
				NoLocks: true,
				Degree:  8,
			},
		),
	}
}

// apply updates the snapshot and reports whether it changed.
func (s *snapshot) apply(change crdt.RemoteChange) bool {
	switch c := change.(type) {
	case crdt.Add:
		if _, ok := s.chars.Get(c.Char); ok {
			return false
		}
		s.chars.Set(c.Char)
		return true
	case crdt.Remove:
		// A position can be reused once its character is gone, so only the
		// exact record is removed.
		stored, ok := s.chars.Get(c.Char)
		if !ok || !stored.Equal(c.Char) {
			return false
		}
		s.chars.Delete(c.Char)
		return true
	}
	return false
}

// characters returns the characters in document order.
func (s *snapshot) characters() []crdt.Char {
	chars := make([]crdt.Char, 0, s.chars.Len())
	s.chars.Scan(func(c crdt.Char) bool {
		chars = append(chars, c)
		return true
	})
	return chars
}

func (s *snapshot) len() int {
	return s.chars.Len()
}
