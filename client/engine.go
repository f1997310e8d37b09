package main

import (
	"fmt"
	"os"

	"github.com/burntcarrot/linepad/client/editor"
	"github.com/burntcarrot/linepad/commons"
	"github.com/burntcarrot/linepad/config"
	"github.com/burntcarrot/linepad/crdt"
	"github.com/burntcarrot/linepad/session"
	"github.com/nsf/termbox-go"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// defaultFileName is used by Ctrl+S when no file was given.
const defaultFileName = "linepad-content.txt"

// errExit is returned by the event handler when the user quits.
var errExit = errors.New("linepad: exiting")

// client connects the terminal editor to a session.
type client struct {
	cfg       config.ClientConfig
	editor    *editor.Editor
	session   *session.Session
	transport *transport
	logger    logrus.FieldLogger

	// initialized is set once the server sent the document.
	initialized bool

	// draw renders the editor. It is a no-op until termbox is running.
	draw func()
}

func newClient(cfg config.ClientConfig, t *transport) *client {
	e := editor.NewEditor()

	opts := cfg.SessionOptions()
	opts.Logger = logger

	return &client{
		cfg:       cfg,
		editor:    e,
		session:   session.New(e, t, opts),
		transport: t,
		logger:    logger,
		draw:      func() {},
	}
}

func (c *client) redraw() {
	c.draw()
}

// handleTermboxEvent handles key input by updating the session, which updates
// the local CRDT document and sends the changes to the server.
func (c *client) handleTermboxEvent(ev termbox.Event) error {
	if ev.Type == termbox.EventResize {
		c.editor.SetSize(ev.Width, ev.Height)
		c.redraw()
		return nil
	}

	// We only want to deal with termbox key events (EventKey).
	if ev.Type != termbox.EventKey {
		return nil
	}

	// The default keys for exiting a session are Esc and Ctrl+C.
	if ev.Key == termbox.KeyEsc || ev.Key == termbox.KeyCtrlC {
		return errExit
	}

	// Nothing can be edited until the document arrives.
	if !c.initialized {
		return nil
	}

	switch ev.Key {
	// The default key for saving the editor's contents is Ctrl+S.
	case termbox.KeyCtrlS:
		c.save()

	case termbox.KeyCtrlZ:
		c.report(c.session.Undo())

	case termbox.KeyCtrlY:
		c.report(c.session.Redo())

	// The default keys for moving left inside the text area are the left arrow key, and Ctrl+B (move backward).
	case termbox.KeyArrowLeft, termbox.KeyCtrlB:
		c.editor.MoveCursor(-1, 0)

	// The default keys for moving right inside the text area are the right arrow key, and Ctrl+F (move forward).
	case termbox.KeyArrowRight, termbox.KeyCtrlF:
		c.editor.MoveCursor(1, 0)

	// The default keys for moving up inside the text area are the up arrow key, and Ctrl+P (move to previous line).
	case termbox.KeyArrowUp, termbox.KeyCtrlP:
		c.editor.MoveCursor(0, -1)

	// The default keys for moving down inside the text area are the down arrow key, and Ctrl+N (move to next line).
	case termbox.KeyArrowDown, termbox.KeyCtrlN:
		c.editor.MoveCursor(0, 1)

	case termbox.KeyHome:
		c.editor.MoveToLineStart()

	case termbox.KeyEnd:
		c.editor.MoveToLineEnd()

	case termbox.KeyBackspace, termbox.KeyBackspace2:
		c.deleteAt(c.editor.Cursor - 1)

	case termbox.KeyDelete:
		c.deleteAt(c.editor.Cursor)

	// The Tab key inserts 4 spaces to simulate a "tab".
	case termbox.KeyTab:
		c.insert("    ", session.OriginInput)

	case termbox.KeyEnter:
		c.insert("\n", session.OriginInput)

	case termbox.KeySpace:
		c.insert(" ", session.OriginInput)

	// Every other key is eligible to be a candidate for insertion.
	default:
		if ev.Ch != 0 {
			c.insert(string(ev.Ch), session.OriginInput)
		}
	}

	// Every key may have moved the cursor.
	c.report(c.session.OnLocalCursor(c.editor.CursorPos()))
	c.redraw()
	return nil
}

// insert types text at the cursor.
func (c *client) insert(text string, origin session.Origin) {
	pos := c.editor.CursorPos()
	c.edit(session.Edit{
		Change: crdt.LocalChange{From: pos, To: pos, Text: text},
		Origin: origin,
	})
}

// deleteAt removes the character at index.
func (c *client) deleteAt(index int) {
	text := c.editor.GetText()
	if index < 0 || index >= len(text) {
		return
	}

	c.edit(session.Edit{
		Change:  crdt.LocalChange{From: c.editor.Pos(index), To: c.editor.Pos(index + 1)},
		Removed: string(text[index]),
		Origin:  session.OriginDelete,
	})
}

// edit applies an edit to the view, then to the session. A rejected edit
// is reverted in the view.
func (c *client) edit(edit session.Edit) {
	if !c.session.Admit(edit) {
		return
	}
	c.editor.Apply(edit.Change)
	if err := c.session.OnLocalEdit(edit); err != nil {
		c.report(err)
		c.editor.SetText(c.session.Document().String())
	}
}

// report logs err and shows it in the status bar.
func (c *client) report(err error) {
	if err == nil {
		return
	}
	c.logger.WithError(err).Error("edit failed")
	c.editor.SetStatus("error: " + err.Error())
}

// save writes the document to the file given on the command line.
func (c *client) save() {
	fileName := c.cfg.File
	if fileName == "" {
		fileName = defaultFileName
	}

	content := c.session.Document().String()
	if err := os.WriteFile(fileName, []byte(content), 0644); err != nil { // skipcq: GSC-G306
		c.logger.WithError(err).Errorf("failed to save to %s", fileName)
		c.editor.SetStatus("Failed to save to " + fileName)
		return
	}
	c.editor.SetStatus("Saved document to " + fileName)
}

// load pastes the content of the file given on the command line into an
// empty document.
func (c *client) load() {
	if c.cfg.File == "" || c.session.Document().Len() > 0 {
		return
	}

	data, err := os.ReadFile(c.cfg.File)
	if err != nil {
		if !os.IsNotExist(err) {
			c.logger.WithError(err).Errorf("failed to load file %s", c.cfg.File)
			c.editor.SetStatus("Failed to load " + c.cfg.File)
		}
		return
	}

	c.insert(string(data), session.OriginPaste)
	c.editor.SetStatus("Loaded " + c.cfg.File)
}

// handleMsg updates the session with the contents of the message.
func (c *client) handleMsg(msg commons.Message) {
	switch msg.Type {
	case commons.InitMessage:
		content := c.session.Init(msg.Characters, msg.Site)
		c.editor.SetText(content)
		c.editor.SetCursorPos(crdt.Pos{})
		c.initialized = true
		c.editor.SetStatus(fmt.Sprintf("Connected as site %d", msg.Site))
		c.load()

	case commons.ChangeMessage:
		if !c.initialized || msg.Operation == nil {
			c.logger.WithField("site", msg.Site).Warn("dropping change message")
			return
		}
		c.report(c.session.OnRemoteChange(msg.Operation.Change, msg.Lamport))
		printDoc(c.logger, c.cfg.Debug, c.session.Document())

	case commons.UsersMessage:
		c.session.OnPresence(msg.Users)

	case commons.JoinMessage:
		c.editor.SetStatus(fmt.Sprintf("%s has joined the session!", msg.Username))

	default:
		c.logger.WithField("type", msg.Type).Warn("unknown message type")
	}

	c.redraw()
}
