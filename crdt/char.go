package crdt

import (
	"encoding/json"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// Newline is the value of a character that ends a line.
const Newline = "\n"

// Char is a character of the document. It is never mutated after creation.
type Char struct {
	Position Position
	// Lamport is bookkeeping for history; it plays no part in ordering.
	Lamport int
	Value   string
}

// StartOfFile bounds the document on the left. Its digit is 1 and not 0 so
// that no real position ends with a zero digit.
func StartOfFile() Char {
	return Char{Position: Position{{Digit: 1, Site: 0}}, Value: "^"}
}

// EndOfFile bounds the document on the right.
func EndOfFile() Char {
	return Char{Position: Position{{Digit: Base - 1, Site: 0}}, Value: "$"}
}

// Compare orders characters by position.
func (c Char) Compare(other Char) int {
	return ComparePositions(c.Position, other.Position)
}

// Equal reports whether both characters carry the same position, lamport and value.
func (c Char) Equal(other Char) bool {
	return c.Lamport == other.Lamport && c.Value == other.Value && c.Compare(other) == 0
}

// IsNewline reports whether the character ends a line.
func (c Char) IsNewline() bool {
	return c.Value == Newline
}

// MarshalJSON encodes the character as [[[digit, site], ...], lamport, value].
func (c Char) MarshalJSON() ([]byte, error) {
	pos := c.Position
	if pos == nil {
		pos = Position{}
	}
	return json.Marshal([]interface{}{pos, c.Lamport, c.Value})
}

func (c *Char) UnmarshalJSON(data []byte) error {
	var fields []json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return errors.Wrap(ErrMalformedChar, err.Error())
	}
	if len(fields) != 3 {
		return errors.Wrapf(ErrMalformedChar, "character has %d fields", len(fields))
	}

	var char Char
	if err := json.Unmarshal(fields[0], &char.Position); err != nil {
		return err
	}
	if len(char.Position) == 0 {
		return errors.Wrap(ErrMalformedChar, "empty position")
	}
	if err := json.Unmarshal(fields[1], &char.Lamport); err != nil {
		return errors.Wrap(ErrMalformedChar, err.Error())
	}
	if err := json.Unmarshal(fields[2], &char.Value); err != nil {
		return errors.Wrap(ErrMalformedChar, err.Error())
	}
	if utf8.RuneCountInString(char.Value) != 1 {
		return errors.Wrapf(ErrMalformedChar, "value %q is not a single character", char.Value)
	}

	*c = char
	return nil
}
