package commons

import (
	"github.com/burntcarrot/linepad/crdt"
)

// Operation wraps a CRDT operation so it can be embedded in a Message. It is
// encoded as ["add", char] or ["remove", char].
type Operation struct {
	Change crdt.RemoteChange
}

// NewOperation returns the operation carrying change.
func NewOperation(change crdt.RemoteChange) *Operation {
	return &Operation{Change: change}
}

func (o Operation) MarshalJSON() ([]byte, error) {
	return crdt.EncodeRemoteChange(o.Change)
}

func (o *Operation) UnmarshalJSON(data []byte) error {
	change, err := crdt.DecodeRemoteChange(data)
	if err != nil {
		return err
	}
	o.Change = change
	return nil
}
