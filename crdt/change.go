package crdt

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// Pos is a line/column coordinate in the editor.
type Pos struct {
	Line int `json:"line"`
	Ch   int `json:"ch"`
}

// Less reports whether p comes before other.
func (p Pos) Less(other Pos) bool {
	return p.Line < other.Line || (p.Line == other.Line && p.Ch < other.Ch)
}

// LocalChange replaces the range [From, To) with Text. It is an insertion
// when From == To and a deletion when Text is empty.
type LocalChange struct {
	From Pos    `json:"from"`
	To   Pos    `json:"to"`
	Text string `json:"text"`
}

// RemoteChange is an operation exchanged between sites: either Add or Remove.
type RemoteChange interface {
	Character() Char
	remoteChange()
}

// Add inserts a character.
type Add struct {
	Char Char
}

// Remove deletes a character.
type Remove struct {
	Char Char
}

func (a Add) Character() Char    { return a.Char }
func (r Remove) Character() Char { return r.Char }

func (Add) remoteChange()    {}
func (Remove) remoteChange() {}

const (
	addTag    = "add"
	removeTag = "remove"
)

// EncodeRemoteChange encodes a change as ["add", char] or ["remove", char].
func EncodeRemoteChange(change RemoteChange) ([]byte, error) {
	switch c := change.(type) {
	case Add:
		return json.Marshal([]interface{}{addTag, c.Char})
	case Remove:
		return json.Marshal([]interface{}{removeTag, c.Char})
	default:
		return nil, errors.Wrapf(ErrUnknownRemoteChange, "%T", change)
	}
}

// DecodeRemoteChange is the inverse of EncodeRemoteChange.
func DecodeRemoteChange(data []byte) (RemoteChange, error) {
	var fields []json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, errors.Wrap(ErrUnknownRemoteChange, err.Error())
	}
	if len(fields) != 2 {
		return nil, errors.Wrapf(ErrUnknownRemoteChange, "change has %d fields", len(fields))
	}

	var tag string
	if err := json.Unmarshal(fields[0], &tag); err != nil {
		return nil, errors.Wrap(ErrUnknownRemoteChange, err.Error())
	}
	var char Char
	if err := json.Unmarshal(fields[1], &char); err != nil {
		return nil, err
	}

	switch tag {
	case addTag:
		return Add{Char: char}, nil
	case removeTag:
		return Remove{Char: char}, nil
	default:
		return nil, errors.Wrapf(ErrUnknownRemoteChange, "tag %q", tag)
	}
}

type checkpointer interface {
	checkpoint() func()
}

// LocalToRemote applies an editor edit to the replica and returns the
// changes to broadcast: removals first, then additions.
func LocalToRemote(doc CRDT, lamport, site int, change LocalChange) (changes []RemoteChange, err error) {
	if change.To.Less(change.From) {
		return nil, errors.Wrapf(ErrInvertedRange, "%v > %v", change.From, change.To)
	}

	// A replace must not leave the deletion applied if the insertion fails.
	if c, ok := doc.(checkpointer); ok {
		rollback := c.checkpoint()
		defer func() {
			if err != nil {
				rollback()
			}
		}()
	}

	changes = []RemoteChange{}
	if change.From != change.To {
		var removed []Char
		removed, err = doc.LocalDelete(LocalChange{From: change.From, To: change.To})
		if err != nil {
			return nil, err
		}
		for _, char := range removed {
			changes = append(changes, Remove{Char: char})
		}
	}

	if change.Text == "" {
		return changes, nil
	}

	var added []Char
	added, err = doc.LocalInsert(lamport, site, LocalChange{From: change.From, To: change.From, Text: change.Text})
	if err != nil {
		return nil, err
	}
	for _, char := range added {
		changes = append(changes, Add{Char: char})
	}
	return changes, nil
}

// RemoteToLocal applies a change from another site and returns the edit for
// the view, or nil when the change was already applied.
func RemoteToLocal(doc CRDT, change RemoteChange) (*LocalChange, error) {
	switch c := change.(type) {
	case Add:
		return doc.RemoteInsert(c.Char), nil
	case Remove:
		return doc.RemoteDelete(c.Char), nil
	default:
		return nil, errors.Wrapf(ErrUnknownRemoteChange, "%T", change)
	}
}
