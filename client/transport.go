package main

import (
	"sync"

	"github.com/burntcarrot/linepad/commons"
	"github.com/burntcarrot/linepad/crdt"
	"github.com/gorilla/websocket"
)

type ConnReader interface {
	ReadJSON(v interface{}) error
}

type ConnWriter interface {
	WriteJSON(v interface{}) error
}

// transport sends the session's messages over a WebSocket connection.
type transport struct {
	mu   sync.Mutex
	conn ConnWriter
}

func newTransport(conn ConnWriter) *transport {
	return &transport{conn: conn}
}

func (t *transport) write(msg commons.Message) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conn.WriteJSON(&msg)
}

// Join announces the user to the other clients.
func (t *transport) Join(name string) error {
	return t.write(commons.Message{Type: commons.JoinMessage, Username: name})
}

func (t *transport) SendChange(change crdt.RemoteChange, lamport int) error {
	return t.write(commons.Message{Type: commons.ChangeMessage, Operation: commons.NewOperation(change), Lamport: lamport})
}

func (t *transport) SendCursor(pos crdt.Pos) error {
	return t.write(commons.Message{Type: commons.CursorMessage, Cursor: &pos})
}

// getMsgChan returns a message channel that repeatedly reads from a websocket
// connection. The channel is closed when the connection is.
func getMsgChan(conn ConnReader) chan commons.Message {
	messageChan := make(chan commons.Message)
	go func() {
		defer close(messageChan)
		for {
			var msg commons.Message

			// Read message.
			err := conn.ReadJSON(&msg)
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					logger.Errorf("websocket error: %v", err)
				}
				return
			}

			logger.WithField("type", msg.Type).Debug("message received")

			// send message through channel
			messageChan <- msg
		}
	}()
	return messageChan
}
