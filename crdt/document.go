package crdt

import (
	"strings"

	"github.com/pkg/errors"
)

// Document is an ordered list of lines. Every line but the last ends with a
// newline character, and the concatenation of all lines is sorted by
// position. Lines are never modified in place: each edit builds new slices
// and swaps them in, so a line handed out earlier stays valid.
type Document struct {
	lines [][]Char
}

// New returns an empty document.
func New() *Document {
	return &Document{lines: [][]Char{{}}}
}

// Init rebuilds the document from a flat, position-ordered list of characters.
func (doc *Document) Init(chars []Char) {
	lines := [][]Char{}
	line := []Char{}
	for _, char := range chars {
		line = append(line, char)
		if char.IsNewline() {
			lines = append(lines, line)
			line = []Char{}
		}
	}
	doc.lines = append(lines, line)
}

// String returns the content of the document.
func (doc *Document) String() string {
	var b strings.Builder
	for _, line := range doc.lines {
		for _, char := range line {
			b.WriteString(char.Value)
		}
	}
	return b.String()
}

// Len returns the number of characters in the document.
func (doc *Document) Len() int {
	n := 0
	for _, line := range doc.lines {
		n += len(line)
	}
	return n
}

// LineCount returns the number of lines.
func (doc *Document) LineCount() int {
	return len(doc.lines)
}

// Line returns the characters of line i.
func (doc *Document) Line(i int) []Char {
	if i < 0 || i >= len(doc.lines) {
		return nil
	}
	return doc.lines[i]
}

// Characters returns every character in document order.
func (doc *Document) Characters() []Char {
	chars := make([]Char, 0, doc.Len())
	for _, line := range doc.lines {
		chars = append(chars, line...)
	}
	return chars
}

///////////////////
// Remote changes
///////////////////

// RemoteInsert integrates a character generated by another site. It returns
// the matching edit for the view, or nil if the character is already present.
func (doc *Document) RemoteInsert(char Char) *LocalChange {
	lineIndex, ch, found := doc.findPosition(char)
	if found {
		return nil
	}

	line := doc.lines[lineIndex]
	change := &LocalChange{
		From: Pos{Line: lineIndex, Ch: ch},
		To:   Pos{Line: lineIndex, Ch: ch},
		Text: char.Value,
	}

	if char.IsNewline() {
		before, after := splitLineAt(line, ch)
		doc.lines = spliceLines(doc.lines, lineIndex, 1, append(before, char), after)
	} else {
		doc.lines = spliceLines(doc.lines, lineIndex, 1, insertAt(line, ch, char))
	}
	return change
}

// RemoteDelete removes a character deleted by another site. It returns the
// matching edit for the view, or nil if the character is already gone. A
// position can be minted again after a delete, so only the exact record is
// removed.
func (doc *Document) RemoteDelete(char Char) *LocalChange {
	lineIndex, ch, found := doc.findPosition(char)
	if !found || !doc.lines[lineIndex][ch].Equal(char) {
		return nil
	}

	line := doc.lines[lineIndex]
	removed := line[ch]
	newLine := concat(line[:ch], line[ch+1:])

	if removed.IsNewline() && lineIndex+1 < len(doc.lines) {
		// The line lost its newline, join it with the next one.
		doc.lines = spliceLines(doc.lines, lineIndex, 2, concat(newLine, doc.lines[lineIndex+1]))
		return &LocalChange{
			From: Pos{Line: lineIndex, Ch: ch},
			To:   Pos{Line: lineIndex + 1, Ch: 0},
		}
	}

	doc.lines = spliceLines(doc.lines, lineIndex, 1, newLine)
	return &LocalChange{
		From: Pos{Line: lineIndex, Ch: ch},
		To:   Pos{Line: lineIndex, Ch: ch + 1},
	}
}

//////////////////
// Local changes
//////////////////

// LocalInsert inserts change.Text at change.From and returns the new
// characters in insertion order, all tagged with lamport.
func (doc *Document) LocalInsert(lamport, site int, change LocalChange) ([]Char, error) {
	lineIndex, ch := change.From.Line, change.From.Ch

	next, err := doc.charAt(lineIndex, ch)
	if err != nil {
		return nil, err
	}
	prev := doc.precedingChar(lineIndex, ch)

	before, after := splitLineAt(doc.lines[lineIndex], ch)
	current := before
	lines := [][]Char{}
	added := []Char{}

	// Characters are placed one at a time, each one right after the previous.
	for _, r := range change.Text {
		pos, err := GeneratePositionBetween(prev.Position, next.Position, site)
		if err != nil {
			return nil, errors.Wrapf(err, "inserting at %d:%d", lineIndex, ch)
		}

		char := Char{Position: pos, Lamport: lamport, Value: string(r)}
		current = append(current, char)
		if char.IsNewline() {
			lines = append(lines, current)
			current = []Char{}
		}

		added = append(added, char)
		prev = char
	}

	lines = append(lines, concat(current, after))
	doc.lines = spliceLines(doc.lines, lineIndex, 1, lines...)
	return added, nil
}

// LocalDelete removes the range [change.From, change.To) and returns the
// removed characters in document order.
func (doc *Document) LocalDelete(change LocalChange) ([]Char, error) {
	from, to := change.From, change.To
	if from.Line < 0 || to.Line >= len(doc.lines) || from.Line > to.Line {
		return nil, errors.Wrapf(ErrPositionOutOfBounds, "lines %d-%d of %d", from.Line, to.Line, len(doc.lines))
	}
	if from.Ch < 0 || to.Ch < 0 {
		return nil, errors.Wrapf(ErrPositionOutOfBounds, "columns %d-%d", from.Ch, to.Ch)
	}

	lines := doc.lines[from.Line : to.Line+1]
	kept := make([][]Char, len(lines))
	removed := []Char{}

	for i, line := range lines {
		start, end := 0, len(line)
		if i == 0 {
			start = from.Ch
		}
		if i == len(lines)-1 {
			end = to.Ch
		}

		// Clamp before slicing; a short slice means the coordinates are wrong.
		s, e := min(start, len(line)), min(end, len(line))
		if s > e || e-s != end-start {
			return nil, errors.Wrapf(ErrRangeMismatch, "line %d: want [%d, %d), have %d characters", from.Line+i, start, end, len(line))
		}

		removed = append(removed, line[s:e]...)
		kept[i] = concat(line[:s], line[e:])
	}

	// Only the first and last lines keep characters.
	if len(lines) == 1 {
		doc.lines = spliceLines(doc.lines, from.Line, 1, kept[0])
	} else {
		doc.lines = spliceLines(doc.lines, from.Line, len(lines), concat(kept[0], kept[len(kept)-1]))
	}
	return removed, nil
}

//////////////
// Utilities
//////////////

// precedingChar returns the character before (line, ch), assuming the
// coordinates were validated by charAt.
func (doc *Document) precedingChar(lineIndex, ch int) Char {
	if ch == 0 {
		if lineIndex == 0 {
			return StartOfFile()
		}
		prevLine := doc.lines[lineIndex-1]
		return prevLine[len(prevLine)-1]
	}
	return doc.lines[lineIndex][ch-1]
}

// charAt returns the character at (line, ch), or the end of file when the
// coordinates point right after the last character.
func (doc *Document) charAt(lineIndex, ch int) (Char, error) {
	if lineIndex < 0 || lineIndex >= len(doc.lines) || ch < 0 {
		return Char{}, errors.Wrapf(ErrPositionOutOfBounds, "%d:%d", lineIndex, ch)
	}

	line := doc.lines[lineIndex]
	if ch < len(line) {
		return line[ch], nil
	}
	if ch == len(line) && lineIndex == len(doc.lines)-1 {
		return EndOfFile(), nil
	}
	return Char{}, errors.Wrapf(ErrPositionOutOfBounds, "%d:%d", lineIndex, ch)
}

func splitLineAt(line []Char, at int) ([]Char, []Char) {
	return concat(line[:at]), concat(line[at:])
}

// concat returns a fresh slice holding the given slices back to back.
func concat(parts ...[]Char) []Char {
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	out := make([]Char, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func insertAt(line []Char, at int, char Char) []Char {
	return concat(line[:at], []Char{char}, line[at:])
}

// spliceLines returns a new line list where deleteCount lines starting at
// index are replaced by replacement.
func spliceLines(lines [][]Char, index, deleteCount int, replacement ...[]Char) [][]Char {
	out := make([][]Char, 0, len(lines)-deleteCount+len(replacement))
	out = append(out, lines[:index]...)
	out = append(out, replacement...)
	out = append(out, lines[index+deleteCount:]...)
	return out
}

// checkpoint returns a function restoring the current content. Lines are
// never modified in place, so keeping the line list is enough.
func (doc *Document) checkpoint() func() {
	lines := doc.lines
	return func() {
		doc.lines = lines
	}
}
