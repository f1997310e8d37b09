package crdt

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// Base is the radix of a position digit.
const Base = 256

// Identifier is one digit of a position, tagged with the site that minted it.
type Identifier struct {
	Digit int
	Site  int
}

// Compare orders identifiers by digit, then by site.
func (i Identifier) Compare(other Identifier) int {
	switch {
	case i.Digit < other.Digit:
		return -1
	case i.Digit > other.Digit:
		return 1
	case i.Site < other.Site:
		return -1
	case i.Site > other.Site:
		return 1
	}
	return 0
}

// MarshalJSON encodes the identifier as [digit, site].
func (i Identifier) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{i.Digit, i.Site})
}

func (i *Identifier) UnmarshalJSON(data []byte) error {
	var pair []int
	if err := json.Unmarshal(data, &pair); err != nil {
		return errors.Wrap(ErrMalformedChar, err.Error())
	}
	if len(pair) != 2 {
		return errors.Wrapf(ErrMalformedChar, "identifier has %d fields", len(pair))
	}
	if pair[0] < 0 || pair[0] >= Base {
		return errors.Wrapf(ErrMalformedChar, "digit %d out of range", pair[0])
	}
	i.Digit, i.Site = pair[0], pair[1]
	return nil
}

// Position locates a character in the document order.
type Position []Identifier

// ComparePositions compares positions identifier by identifier. A strict
// prefix sorts before the longer position.
func ComparePositions(p1, p2 Position) int {
	n := len(p1)
	if len(p2) < n {
		n = len(p2)
	}
	for i := 0; i < n; i++ {
		if c := p1[i].Compare(p2[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(p1) < len(p2):
		return -1
	case len(p1) > len(p2):
		return 1
	}
	return 0
}

// Digits returns the fraction digits of the position.
func (p Position) Digits() []int {
	digits := make([]int, len(p))
	for i, id := range p {
		digits[i] = id.Digit
	}
	return digits
}

func (p Position) head() (Identifier, bool) {
	if len(p) == 0 {
		return Identifier{}, false
	}
	return p[0], true
}

func (p Position) rest() Position {
	if len(p) == 0 {
		return nil
	}
	return p[1:]
}
