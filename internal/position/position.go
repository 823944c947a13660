// Package position computes ordinals for items inside an ordered sibling
// set. Siblings are spaced Gap apart so that most inserts only write the
// moved item; when two neighbours are adjacent integers the caller must
// renumber the set and allocate again.
package position

import "errors"

// Gap is the distance between consecutive siblings after a renumber and
// between the last sibling and an appended one.
const Gap int64 = 1000

// ErrExhaustedSpace means no integer lies strictly between the neighbours.
var ErrExhaustedSpace = errors.New("position: no space left between neighbours")

// Allocate returns a position strictly between lower and upper. A nil
// lower means the slot is at the front of the set, a nil upper means it
// is at the end. Both nil is an empty set.
func Allocate(lower, upper *int64) (int64, error) {
	switch {
	case lower == nil && upper == nil:
		return Gap, nil
	case upper == nil:
		return *lower + Gap, nil
	case lower == nil:
		return between(0, *upper)
	default:
		return between(*lower, *upper)
	}
}

func between(lower, upper int64) (int64, error) {
	if upper-lower < 2 {
		return 0, ErrExhaustedSpace
	}
	return lower + (upper-lower)/2, nil
}

// Neighbours returns the bounds of slot index inside the ordered
// positions. The index is clamped to [0, len(positions)].
func Neighbours(positions []int64, index int) (lower, upper *int64) {
	if index < 0 {
		index = 0
	}
	if index > len(positions) {
		index = len(positions)
	}
	if index > 0 {
		lower = &positions[index-1]
	}
	if index < len(positions) {
		upper = &positions[index]
	}
	return lower, upper
}

// Renumber returns n dense positions Gap, 2*Gap, ... n*Gap.
func Renumber(n int) []int64 {
	out := make([]int64, n)
	for i := range out {
		out[i] = Gap * int64(i+1)
	}
	return out
}
