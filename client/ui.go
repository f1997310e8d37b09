package main

import (
	"github.com/gorilla/websocket"
	"github.com/nsf/termbox-go"
	"github.com/pkg/errors"
)

// UI creates a new editor view and runs the main loop.
func UI(conn *websocket.Conn, c *client) error {
	err := termbox.Init()
	if err != nil {
		return err
	}
	defer termbox.Close()

	c.draw = c.editor.Draw
	c.editor.SetSize(termbox.Size())
	c.editor.SetStatus("Connecting...")
	c.redraw()

	return mainLoop(conn, c)
}

// mainLoop is the main update loop for the UI. Both event sources are
// handled on this goroutine, so the session never sees concurrent calls.
func mainLoop(conn ConnReader, c *client) error {
	termboxChan := getTermboxChan()
	msgChan := getMsgChan(conn)

	// event select
	for {
		select {
		case termboxEvent := <-termboxChan:
			if err := c.handleTermboxEvent(termboxEvent); err != nil {
				return err
			}
		case msg, ok := <-msgChan:
			if !ok {
				return errors.New("connection to the server was lost")
			}
			c.handleMsg(msg)
		}
	}
}

// getTermboxChan returns a channel of termbox Events repeatedly waiting on user input.
func getTermboxChan() chan termbox.Event {
	termboxChan := make(chan termbox.Event)

	go func() {
		for {
			termboxChan <- termbox.PollEvent()
		}
	}()

	return termboxChan
}
