// Package crdt implements a Logoot-style sequence CRDT for plain text.
//
// Every character of a document carries a Position: a list of (digit, site)
// identifiers read as a base-256 fraction. Positions are dense and totally
// ordered, so any site can mint a new position between two existing ones
// without renumbering. The Document keeps characters grouped into lines so
// that edits expressed in line/column coordinates can be reconciled against
// the position order.
package crdt

import "github.com/pkg/errors"

// CRDT is the set of operations a site performs on its replica.
type CRDT interface {
	RemoteInsert(char Char) *LocalChange
	RemoteDelete(char Char) *LocalChange
	LocalInsert(lamport, site int, change LocalChange) ([]Char, error)
	LocalDelete(change LocalChange) ([]Char, error)
}

var (
	// ErrOverflow is returned when a fractional sum reaches 1 and can no longer be represented.
	ErrOverflow = errors.New("sum is greater than one, cannot be represented")

	// ErrNegativeDifference is returned when subtracting a larger fraction from a smaller one.
	ErrNegativeDifference = errors.New("difference is negative")

	// ErrInvalidOrdering is returned when positions handed to the generator are not in order.
	ErrInvalidOrdering = errors.New("invalid site ordering")

	ErrInvertedRange       = errors.New("inverted range: from is after to")
	ErrRangeMismatch       = errors.New("removed range does not match the requested range")
	ErrPositionOutOfBounds = errors.New("position out of bounds")
	ErrUnknownRemoteChange = errors.New("unknown remote change")
	ErrMalformedChar       = errors.New("malformed character")
)
