package coverage

import "fmt"

// Range is an inclusive [Start, End] span over token positions.
type Range struct {
	Start int
	End   int
}

// NotFound marks the empty range carried by the initial hypothesis.
var NotFound = Range{Start: -1, End: -1}

// NewRange creates a range, panicking when end precedes start.
func NewRange(start, end int) Range {
	if end < start {
		panic(fmt.Sprintf("coverage: invalid range [%d..%d]", start, end))
	}
	return Range{Start: start, End: end}
}

// NumWords returns the number of positions in the range.
func (r Range) NumWords() int {
	if r == NotFound {
		return 0
	}
	return r.End - r.Start + 1
}

// Overlaps reports whether the two ranges share a position.
func (r Range) Overlaps(o Range) bool {
	return r.Start <= o.End && o.Start <= r.End
}

// WordsBetween returns the number of positions strictly between two
// non-overlapping ranges.
func (r Range) WordsBetween(o Range) int {
	if r.Overlaps(o) {
		return 0
	}
	if r.End < o.Start {
		return o.Start - r.End - 1
	}
	return r.Start - o.End - 1
}

func (r Range) String() string {
	return fmt.Sprintf("[%d..%d]", r.Start, r.End)
}
