package commons

import (
	"github.com/burntcarrot/linepad/crdt"
	"github.com/google/uuid"
)

// Message represents the message sent over the wire.
type Message struct {
	// Type represents the message type.
	Type MessageType `json:"type"`

	Username string `json:"username,omitempty"`

	// Text represents the body of the message. This is currently used for join messages.
	Text string `json:"text,omitempty"`

	// ID represents the client's UUID. It is set by the server.
	ID uuid.UUID `json:"ID"`

	// Site is the site assigned to the client (init) or the site that made a change.
	Site int `json:"site,omitempty"`

	// Lamport is the sender's clock when the change was made.
	Lamport int `json:"lamport,omitempty"`

	// Operation represents the CRDT operation carried by change messages.
	Operation *Operation `json:"operation,omitempty"`

	// Characters is the document snapshot sent on init. It can be large, so it is only sent once per client.
	Characters []crdt.Char `json:"characters,omitempty"`

	// Cursor is the position of the sender's cursor.
	Cursor *crdt.Pos `json:"cursor,omitempty"`

	// Users is the list of active users.
	Users []Presence `json:"users,omitempty"`
}

// MessageType represents the type of the message.
type MessageType string

// Currently, linepad supports 5 message types:
// - init (snapshot and site assignment, sent by the server on connect)
// - join (for joining messages)
// - change (for CRDT operations)
// - cursor (for cursor moves)
// - users (for the list of active users)

const (
	InitMessage   MessageType = "init"
	JoinMessage   MessageType = "join"
	ChangeMessage MessageType = "change"
	CursorMessage MessageType = "cursor"
	UsersMessage  MessageType = "users"
)

// Presence describes a connected user.
type Presence struct {
	Site     int      `json:"site"`
	Username string   `json:"username"`
	Color    int      `json:"color"`
	Cursor   crdt.Pos `json:"cursor"`
}
