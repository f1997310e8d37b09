package editor

import (
	"fmt"
	"sync"
	"time"

	"github.com/burntcarrot/linepad/commons"
	"github.com/burntcarrot/linepad/crdt"
	"github.com/mattn/go-runewidth"
	"github.com/nsf/termbox-go"
)

// statusDuration is how long a status message stays in the status bar.
const statusDuration = 5 * time.Second

// cursorColors is the palette used for remote cursors, indexed by Presence.Color.
var cursorColors = []termbox.Attribute{
	termbox.ColorRed,
	termbox.ColorGreen,
	termbox.ColorYellow,
	termbox.ColorBlue,
	termbox.ColorMagenta,
	termbox.ColorCyan,
}

// Editor is the terminal view of the document. Text mirrors the content of
// the CRDT document, and positions are line/column pairs where the newline
// ending a line counts as its last column.
type Editor struct {
	// Text contains the editor's content.
	Text []rune

	// Cursor is the index of the cursor in Text.
	Cursor int

	// Width and Height are the terminal dimensions.
	Width  int
	Height int

	// RowOff is the first line shown on screen.
	RowOff int

	// StatusMsg is shown in the status bar until statusUntil.
	StatusMsg   string
	statusUntil time.Time

	// Exceeded is set while the document is over the size limit.
	Exceeded bool

	users []commons.Presence

	mu sync.RWMutex
}

// NewEditor returns an empty editor.
func NewEditor() *Editor {
	return &Editor{}
}

// GetText returns the editor's content.
func (e *Editor) GetText() []rune {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.Text
}

// SetText replaces the editor's content and keeps the cursor in bounds.
func (e *Editor) SetText(text string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Text = []rune(text)
	e.Cursor = min(e.Cursor, len(e.Text))
}

func (e *Editor) SetSize(w, h int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Width = w
	e.Height = h
}

// SetStatus shows msg in the status bar for a few seconds.
func (e *Editor) SetStatus(msg string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.StatusMsg = msg
	e.statusUntil = time.Now().Add(statusDuration)
}

/////////////////////
// Session view API
/////////////////////

// Apply replaces the range of change with its text. A cursor after the range
// moves with the text, a cursor inside it moves to its start.
func (e *Editor) Apply(change crdt.LocalChange) {
	e.mu.Lock()
	defer e.mu.Unlock()

	from, to := e.index(change.From), e.index(change.To)
	if to < from {
		from, to = to, from
	}
	text := []rune(change.Text)

	out := make([]rune, 0, len(e.Text)-(to-from)+len(text))
	out = append(out, e.Text[:from]...)
	out = append(out, text...)
	out = append(out, e.Text[to:]...)
	e.Text = out

	switch {
	case e.Cursor >= to:
		e.Cursor += len(text) - (to - from)
	case e.Cursor > from:
		e.Cursor = from
	}
}

// CursorPos returns the cursor as a line/column pair.
func (e *Editor) CursorPos() crdt.Pos {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.pos(e.Cursor)
}

// SetCursorPos moves the cursor to pos.
func (e *Editor) SetCursorPos(pos crdt.Pos) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Cursor = e.index(pos)
}

// LimitExceeded shows or clears the size limit warning.
func (e *Editor) LimitExceeded(exceeded bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Exceeded = exceeded
}

// ShowCursors replaces the remote cursors.
func (e *Editor) ShowCursors(presences []commons.Presence) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.users = presences
}

// Pos converts an index in Text to a line/column pair.
func (e *Editor) Pos(index int) crdt.Pos {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.pos(index)
}

// Index converts a line/column pair to an index in Text.
func (e *Editor) Index(pos crdt.Pos) int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.index(pos)
}

func (e *Editor) pos(index int) crdt.Pos {
	index = max(0, min(index, len(e.Text)))

	line, start := 0, 0
	for i := 0; i < index; i++ {
		if e.Text[i] == '\n' {
			line++
			start = i + 1
		}
	}
	return crdt.Pos{Line: line, Ch: index - start}
}

// index clamps pos to its line. A line past the end maps to the end of Text.
func (e *Editor) index(pos crdt.Pos) int {
	start := e.lineStart(pos.Line)
	if start < 0 {
		return len(e.Text)
	}
	end := e.lineEnd(start)
	if end < len(e.Text) {
		// The newline is part of the line.
		end++
	}
	return start + max(0, min(pos.Ch, end-start))
}

// lineStart returns the index of the first rune of line, or -1.
func (e *Editor) lineStart(line int) int {
	if line <= 0 {
		return 0
	}
	for i, r := range e.Text {
		if r == '\n' {
			line--
			if line == 0 {
				return i + 1
			}
		}
	}
	return -1
}

// lineEnd returns the index of the newline ending the line starting at
// start, or len(Text) for the last line.
func (e *Editor) lineEnd(start int) int {
	for i := start; i < len(e.Text); i++ {
		if e.Text[i] == '\n' {
			return i
		}
	}
	return len(e.Text)
}

////////////
// Cursor
////////////

// MoveCursor moves the cursor horizontally by x runes, or vertically by one
// line in the direction of y.
func (e *Editor) MoveCursor(x, y int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.Text) == 0 {
		e.Cursor = 0
		return
	}

	// Move cursor horizontally.
	newCursor := e.Cursor + x

	// Move cursor vertically.
	if y > 0 {
		newCursor = e.calcCursorDown()
	}
	if y < 0 {
		newCursor = e.calcCursorUp()
	}

	// Reset to bounds.
	e.Cursor = max(0, min(newCursor, len(e.Text)))
}

// MoveToLineStart moves the cursor to the start of its line.
func (e *Editor) MoveToLineStart() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Cursor = e.lineStart(e.pos(e.Cursor).Line)
}

// MoveToLineEnd moves the cursor before the newline ending its line.
func (e *Editor) MoveToLineEnd() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Cursor = e.lineEnd(e.lineStart(e.pos(e.Cursor).Line))
}

// calcCursorUp returns the cursor after moving up one line. The column is
// kept when the previous line is long enough. On the first line the cursor
// goes to the start of the text.
func (e *Editor) calcCursorUp() int {
	p := e.pos(e.Cursor)
	if p.Line == 0 {
		return 0
	}

	start := e.lineStart(p.Line - 1)
	return start + min(p.Ch, e.lineEnd(start)-start)
}

// calcCursorDown returns the cursor after moving down one line. On the last
// line the cursor goes to the end of the text.
func (e *Editor) calcCursorDown() int {
	p := e.pos(e.Cursor)
	start := e.lineStart(p.Line + 1)
	if start < 0 {
		return len(e.Text)
	}
	return start + min(p.Ch, e.lineEnd(start)-start)
}

// calcXY returns the 1-based screen coordinates of the rune at index, taking
// rune widths into account.
func (e *Editor) calcXY(index int) (int, int) {
	x, y := 1, 1

	if index < 0 {
		return x, y
	}
	if index > len(e.Text) {
		index = len(e.Text)
	}

	for i := 0; i < index; i++ {
		if e.Text[i] == '\n' {
			x = 1
			y++
		} else {
			x += runewidth.RuneWidth(e.Text[i])
		}
	}
	return x, y
}

// scroll keeps the cursor line on screen.
func (e *Editor) scroll() {
	_, y := e.calcXY(e.Cursor)
	rows := max(1, e.Height-1)

	if y-1 < e.RowOff {
		e.RowOff = y - 1
	}
	if y-1 >= e.RowOff+rows {
		e.RowOff = y - rows
	}
}

//////////
// Draw
//////////

// Draw updates the UI by setting cells with the editor's content.
func (e *Editor) Draw() {
	e.mu.Lock()
	defer e.mu.Unlock()

	_ = termbox.Clear(termbox.ColorDefault, termbox.ColorDefault)
	e.scroll()

	cx, cy := e.calcXY(e.Cursor)
	termbox.SetCursor(cx-1, cy-1-e.RowOff)

	x, y := 0, 0
	for i := 0; i < len(e.Text); i++ {
		if e.Text[i] == '\n' {
			x = 0
			y++
			continue
		}
		row := y - e.RowOff
		if x < e.Width && row >= 0 && row < e.Height-1 {
			// Set cell content.
			termbox.SetCell(x, row, e.Text[i], termbox.ColorDefault, termbox.ColorDefault)
		}

		// Update x by rune's Width.
		x += runewidth.RuneWidth(e.Text[i])
	}

	e.drawCursors()
	e.drawStatusBar()

	// Flush back buffer!
	termbox.Flush()
}

// drawCursors highlights the cell under each remote cursor.
func (e *Editor) drawCursors() {
	for _, u := range e.users {
		i := e.index(u.Cursor)
		x, y := e.calcXY(i)
		row := y - 1 - e.RowOff
		if row < 0 || row >= e.Height-1 || x-1 >= e.Width {
			continue
		}

		r := ' '
		if i < len(e.Text) && e.Text[i] != '\n' {
			r = e.Text[i]
		}
		color := cursorColors[((u.Color%len(cursorColors))+len(cursorColors))%len(cursorColors)]
		termbox.SetCell(x-1, row, r, termbox.ColorBlack, color)
	}
}

func (e *Editor) drawStatusBar() {
	msg := e.statusLine()
	for i, r := range []rune(msg) {
		if i >= e.Width {
			break
		}
		termbox.SetCell(i, e.Height-1, r, termbox.ColorDefault, termbox.ColorDefault)
	}
}

// statusLine returns the content of the status bar.
func (e *Editor) statusLine() string {
	if e.Exceeded {
		return "document size limit reached"
	}
	if e.StatusMsg != "" && time.Now().Before(e.statusUntil) {
		return e.StatusMsg
	}

	p := e.pos(e.Cursor)
	return fmt.Sprintf("line %d, col %d | %d users", p.Line+1, p.Ch+1, len(e.users)+1)
}
