package crdt

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
)

func TestSubtractGreaterThan(t *testing.T) {
	tests := []struct {
		description string
		n1          []int
		n2          []int
		expected    []int
		err         error
	}{
		{description: "borrow from higher digit", n1: []int{5, 3}, n2: []int{2, 4}, expected: []int{2, 255}},
		{description: "missing digits read as zero", n1: []int{2}, n2: []int{1, 5}, expected: []int{0, 251}},
		{description: "equal values", n1: []int{7, 7}, n2: []int{7, 7}, expected: []int{0, 0}},
		{description: "negative result", n1: []int{1}, n2: []int{2}, err: ErrNegativeDifference},
		{description: "negative result (longer subtrahend)", n1: []int{1}, n2: []int{1, 5}, err: ErrNegativeDifference},
	}

	for _, tc := range tests {
		got, err := subtractGreaterThan(tc.n1, tc.n2)
		if !errors.Is(err, tc.err) {
			t.Errorf("(%s) unexpected error: got %v, expected %v\n", tc.description, err, tc.err)
			continue
		}
		if !cmp.Equal(got, tc.expected) {
			t.Errorf("(%s) got != expected, diff: %v\n", tc.description, cmp.Diff(got, tc.expected))
		}
	}
}

func TestAdd(t *testing.T) {
	tests := []struct {
		description string
		n1          []int
		n2          []int
		expected    []int
		err         error
	}{
		{description: "no carry", n1: []int{1, 2}, n2: []int{0, 3}, expected: []int{1, 5}},
		{description: "carry", n1: []int{1, 255}, n2: []int{0, 1}, expected: []int{2, 0}},
		{description: "different lengths", n1: []int{1}, n2: []int{0, 0, 1}, expected: []int{1, 0, 1}},
		{description: "overflow", n1: []int{255}, n2: []int{1}, err: ErrOverflow},
	}

	for _, tc := range tests {
		got, err := add(tc.n1, tc.n2)
		if !errors.Is(err, tc.err) {
			t.Errorf("(%s) unexpected error: got %v, expected %v\n", tc.description, err, tc.err)
			continue
		}
		if !cmp.Equal(got, tc.expected) {
			t.Errorf("(%s) got != expected, diff: %v\n", tc.description, cmp.Diff(got, tc.expected))
		}
	}
}

func TestIncrement(t *testing.T) {
	tests := []struct {
		description string
		n1          []int
		delta       []int
		expected    []int
	}{
		{description: "one digit deeper than delta", n1: []int{1}, delta: []int{254}, expected: []int{1, 1}},
		{description: "leading zeros of delta are kept", n1: []int{1, 255}, delta: []int{0, 3}, expected: []int{1, 255, 1}},
		{description: "trailing zero is skipped", n1: []int{3, 255}, delta: []int{5}, expected: []int{4, 1}},
		{description: "empty delta", n1: []int{}, delta: []int{}, expected: []int{0, 1}},
	}

	for _, tc := range tests {
		got, err := increment(tc.n1, tc.delta)
		if err != nil {
			t.Errorf("(%s) error: %v\n", tc.description, err)
			continue
		}
		if !cmp.Equal(got, tc.expected) {
			t.Errorf("(%s) got != expected, diff: %v\n", tc.description, cmp.Diff(got, tc.expected))
		}
	}
}

func TestDistanceToOne(t *testing.T) {
	got := distanceToOne([]int{1, 1})
	expected := []int{254, 255}

	if !cmp.Equal(got, expected) {
		t.Errorf("got != expected, diff: %v\n", cmp.Diff(got, expected))
	}
}

func TestToIdentifierList(t *testing.T) {
	before := Position{{Digit: 1, Site: 0}, {Digit: 4, Site: 2}}
	after := Position{{Digit: 2, Site: 0}, {Digit: 5, Site: 3}}

	got := toIdentifierList([]int{1, 5, 9}, before, after, 7)
	expected := Position{{Digit: 1, Site: 0}, {Digit: 5, Site: 3}, {Digit: 9, Site: 7}}

	if !cmp.Equal(got, expected) {
		t.Errorf("got != expected, diff: %v\n", cmp.Diff(got, expected))
	}

	// The last digit belongs to the creating site even when it matches a boundary.
	got = toIdentifierList([]int{1, 4}, before, after, 7)
	expected = Position{{Digit: 1, Site: 0}, {Digit: 4, Site: 7}}

	if !cmp.Equal(got, expected) {
		t.Errorf("got != expected, diff: %v\n", cmp.Diff(got, expected))
	}
}
