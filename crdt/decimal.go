package crdt

import "github.com/pkg/errors"

// Digit sequences are base-256 fractions, most significant digit first.
// Missing trailing digits read as 0.

func digitAt(n []int, i int) int {
	if i < len(n) {
		return n[i]
	}
	return 0
}

// subtract computes n1 - n2 and reports the borrow that escaped the most
// significant digit.
func subtract(n1, n2 []int) ([]int, int) {
	size := len(n1)
	if len(n2) > size {
		size = len(n2)
	}

	diff := make([]int, size)
	borrow := 0
	for i := size - 1; i >= 0; i-- {
		d1 := digitAt(n1, i) - borrow
		d2 := digitAt(n2, i)
		if d1 < d2 {
			borrow = 1
			diff[i] = d1 + Base - d2
		} else {
			borrow = 0
			diff[i] = d1 - d2
		}
	}
	return diff, borrow
}

// subtractGreaterThan computes n1 - n2 where n1 > n2.
func subtractGreaterThan(n1, n2 []int) ([]int, error) {
	diff, borrow := subtract(n1, n2)
	if borrow != 0 {
		return nil, errors.Wrapf(ErrNegativeDifference, "%v - %v", n1, n2)
	}
	return diff, nil
}

// distanceToOne computes 1 - n.
func distanceToOne(n []int) []int {
	diff, _ := subtract(nil, n)
	return diff
}

// add computes n1 + n2, failing if the sum is not below 1.
func add(n1, n2 []int) ([]int, error) {
	size := len(n1)
	if len(n2) > size {
		size = len(n2)
	}

	sum := make([]int, size)
	carry := 0
	for i := size - 1; i >= 0; i-- {
		s := digitAt(n1, i) + digitAt(n2, i) + carry
		carry = s / Base
		sum[i] = s % Base
	}
	if carry != 0 {
		return nil, errors.Wrapf(ErrOverflow, "%v + %v", n1, n2)
	}
	return sum, nil
}

// increment adds to n1 an amount much smaller than delta, such that the last
// digit of the result is not zero (0.1 and 0.10 must not both exist).
func increment(n1, delta []int) ([]int, error) {
	firstNonZero := -1
	for i, d := range delta {
		if d != 0 {
			firstNonZero = i
			break
		}
	}

	var prefix []int
	if firstNonZero >= 0 {
		prefix = delta[:firstNonZero]
	} else if len(delta) > 0 {
		prefix = delta[:len(delta)-1]
	}
	inc := make([]int, 0, len(prefix)+2)
	inc = append(inc, prefix...)
	inc = append(inc, 0, 1)

	v, err := add(n1, inc)
	if err != nil {
		return nil, err
	}
	if v[len(v)-1] == 0 {
		return add(v, inc)
	}
	return v, nil
}

// toIdentifierList turns digits back into a position. Digits inherited from
// a boundary keep that boundary's site; the last digit is always owned by
// the creating site.
func toIdentifierList(digits []int, before, after Position, site int) Position {
	pos := make(Position, len(digits))
	for i, digit := range digits {
		switch {
		case i == len(digits)-1:
			pos[i] = Identifier{Digit: digit, Site: site}
		case i < len(before) && before[i].Digit == digit:
			pos[i] = Identifier{Digit: digit, Site: before[i].Site}
		case i < len(after) && after[i].Digit == digit:
			pos[i] = Identifier{Digit: digit, Site: after[i].Site}
		default:
			pos[i] = Identifier{Digit: digit, Site: site}
		}
	}
	return pos
}
