package crdt

import "github.com/pkg/errors"

// GeneratePositionBetween returns a position strictly between p1 and p2,
// which must satisfy p1 < p2. The result leans heavily towards p1, since
// most insertions extend text on its right.
func GeneratePositionBetween(p1, p2 Position, site int) (Position, error) {
	var prefix Position

	for {
		// An exhausted lower bound is the smallest possible identifier; an
		// exhausted upper bound sits one past the largest digit.
		head1, ok := p1.head()
		if !ok {
			head1 = Identifier{Digit: 0, Site: 0}
		}
		head2, upperOk := p2.head()
		if !upperOk {
			head2 = Identifier{Digit: Base, Site: site}
		}

		if head1.Digit > head2.Digit {
			return nil, errors.Wrapf(ErrInvalidOrdering, "%v after %v", head1, head2)
		}

		if head1.Digit != head2.Digit {
			n1 := p1.Digits()

			var delta []int
			if upperOk {
				var err error
				delta, err = subtractGreaterThan(p2.Digits(), n1)
				if err != nil {
					return nil, err
				}
			} else {
				delta = distanceToOne(n1)
			}

			next, err := increment(n1, delta)
			if err != nil {
				return nil, err
			}
			return append(prefix, toIdentifierList(next, p1, p2, site)...), nil
		}

		switch {
		case head1.Site < head2.Site:
			// head1 already sorts below p2, anything after it is free.
			prefix = append(prefix, head1)
			p1, p2 = p1.rest(), nil
		case head1.Site == head2.Site:
			prefix = append(prefix, head1)
			p1, p2 = p1.rest(), p2.rest()
		default:
			return nil, errors.Wrapf(ErrInvalidOrdering, "%v after %v", head1, head2)
		}
	}
}
