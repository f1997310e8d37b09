package main

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/burntcarrot/linepad/commons"
	"github.com/burntcarrot/linepad/crdt"
	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// colors is the number of cursor colors a client can be assigned.
const colors = 6

// unknownLabel counts messages of unknown types.
const unknownLabel = "unknown"

// client is a connection to the hub.
type client struct {
	conn *websocket.Conn
	id   uuid.UUID
	site int

	username string
	color    int
	cursor   crdt.Pos
	joined   bool
}

// clientMessage is a message read from a client.
type clientMessage struct {
	from *client
	msg  commons.Message
}

// hub relays messages between clients. All state is owned by the run
// goroutine, so clients are served in the order their messages arrive and
// every connection has a single writer.
type hub struct {
	upgrader websocket.Upgrader

	register   chan *client
	unregister chan *client
	messages   chan clientMessage
	done       chan struct{}

	clients  map[*client]bool
	snapshot *snapshot
	nextSite int

	logger  logrus.FieldLogger
	metrics *metrics
}

func newHub(logger logrus.FieldLogger, m *metrics) *hub {
	return &hub{
		register:   make(chan *client),
		unregister: make(chan *client),
		messages:   make(chan clientMessage),
		done:       make(chan struct{}),
		clients:    make(map[*client]bool),
		snapshot:   newSnapshot(),
		nextSite:   1,
		logger:     logger,
		metrics:    m,
	}
}

// run serves the hub until ctx is cancelled.
func (h *hub) run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				c.conn.Close()
			}
			return

		case c := <-h.register:
			h.addClient(c)

		case c := <-h.unregister:
			h.removeClient(c)

		case m := <-h.messages:
			h.handleMsg(m.from, m.msg)
		}
	}
}

// handleConn upgrades an HTTP connection to a WebSocket and reads messages
// from it until it is closed.
func (h *hub) handleConn(w http.ResponseWriter, r *http.Request) {
	// Upgrade incoming HTTP connections to WebSocket connections
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Error("error upgrading connection to websocket")
		return
	}

	c := &client{conn: conn, id: uuid.New()}
	if !h.send(h.register, c) {
		conn.Close()
		return
	}

	for {
		var msg commons.Message

		// Read message from the connection.
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.WithError(err).WithField("id", c.id).Warn("connection closed unexpectedly")
			}
			h.send(h.unregister, c)
			return
		}

		select {
		case h.messages <- clientMessage{from: c, msg: msg}:
		case <-h.done:
			return
		}
	}
}

// send hands c to the run goroutine, unless the hub has stopped.
func (h *hub) send(ch chan *client, c *client) bool {
	select {
	case ch <- c:
		return true
	case <-h.done:
		return false
	}
}

// addClient assigns the next site to c and sends it the snapshot.
func (h *hub) addClient(c *client) {
	c.site = h.nextSite
	c.color = (c.site - 1) % colors
	h.nextSite++

	h.clients[c] = true
	h.metrics.clients.Set(float64(len(h.clients)))

	h.logger.WithFields(logrus.Fields{"id": c.id, "site": c.site}).Info("client connected")

	h.write(c, commons.Message{
		Type:       commons.InitMessage,
		ID:         c.id,
		Site:       c.site,
		Characters: h.snapshot.characters(),
	})
}

func (h *hub) removeClient(c *client) {
	if !h.clients[c] {
		return
	}
	delete(h.clients, c)
	c.conn.Close()
	h.metrics.clients.Set(float64(len(h.clients)))

	h.logger.WithFields(logrus.Fields{"id": c.id, "site": c.site}).Info("client disconnected")
	if c.joined {
		color.Red("%s >> %s left the session\n", time.Now().Format(time.ANSIC), c.username)
		h.broadcastUsers()
	}
}

// handleMsg updates the hub state with msg and relays it.
func (h *hub) handleMsg(from *client, msg commons.Message) {
	if !h.clients[from] {
		return
	}

	// Set message ID and site.
	msg.ID = from.id
	msg.Site = from.site

	switch msg.Type {
	case commons.JoinMessage, commons.CursorMessage, commons.ChangeMessage:
		h.metrics.messages.WithLabelValues(string(msg.Type)).Inc()
	default:
		// Arbitrary types must not create new label values.
		h.metrics.messages.WithLabelValues(unknownLabel).Inc()
	}

	switch msg.Type {
	case commons.JoinMessage:
		from.username = msg.Username
		from.joined = true
		color.Green("%s >> %s joined the session\n", time.Now().Format(time.ANSIC), msg.Username)

		h.broadcast(from, msg)
		h.broadcastUsers()

	case commons.CursorMessage:
		if msg.Cursor == nil {
			return
		}
		from.cursor = *msg.Cursor
		h.broadcastUsers()

	case commons.ChangeMessage:
		if msg.Operation == nil || msg.Operation.Change == nil {
			h.logger.WithField("site", from.site).Warn("change message without an operation")
			return
		}
		h.snapshot.apply(msg.Operation.Change)
		h.metrics.snapshotSize.Set(float64(h.snapshot.len()))

		h.broadcast(from, msg)

	default:
		h.logger.WithFields(logrus.Fields{"site": from.site, "type": msg.Type}).Warn("unknown message type")
	}
}

// broadcast sends msg to every client except its origin.
func (h *hub) broadcast(from *client, msg commons.Message) {
	for c := range h.clients {
		// Check the client to prevent sending messages to their origin.
		if c != from {
			h.write(c, msg)
		}
	}
}

// broadcastUsers sends the list of joined users to every client.
func (h *hub) broadcastUsers() {
	users := h.users()
	for c := range h.clients {
		h.write(c, commons.Message{Type: commons.UsersMessage, Users: users})
	}
}

// users returns the presence of every joined client, ordered by site.
func (h *hub) users() []commons.Presence {
	users := []commons.Presence{}
	for c := range h.clients {
		if !c.joined {
			continue
		}
		users = append(users, commons.Presence{
			Site:     c.site,
			Username: c.username,
			Color:    c.color,
			Cursor:   c.cursor,
		})
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Site < users[j].Site })
	return users
}

// write sends msg to c. A client that cannot be written to is dropped; its
// reader will fail and unregister it.
func (h *hub) write(c *client, msg commons.Message) {
	if err := c.conn.WriteJSON(&msg); err != nil {
		h.logger.WithError(err).WithField("site", c.site).Error("error sending message to client")
		c.conn.Close()
	}
}
