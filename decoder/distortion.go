package decoder

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/teatak/smt/coverage"
)

// DistortionModel selects how reordering is scored.
type DistortionModel int

const (
	// DistanceDistortion charges the jump between the previous span end and
	// the new span start.
	DistanceDistortion DistortionModel = iota
	// EarlyDistortion charges skipped words as soon as they are skipped
	// (Moore and Quirk, 2007).
	EarlyDistortion
)

// ParseDistortionModel maps a config value to a model.
func ParseDistortionModel(s string) (DistortionModel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "distance":
		return DistanceDistortion, nil
	case "early":
		return EarlyDistortion, nil
	}
	return DistanceDistortion, errors.Errorf("unknown distortion model %q (want distance or early)", s)
}

func (m DistortionModel) String() string {
	if m == EarlyDistortion {
		return "early"
	}
	return "distance"
}

// Score returns the distortion feature value for translating curr after
// prev, given the coverage before curr was added. The root's prev is
// coverage.NotFound.
func (m DistortionModel) Score(prev, curr coverage.Range, before coverage.Bitmap) float64 {
	if m == EarlyDistortion {
		return earlyDistortion(prev, curr, before)
	}
	return -float64(abs(curr.Start - (prev.End + 1)))
}

func earlyDistortion(prev, curr coverage.Range, before coverage.Bitmap) float64 {
	prefixEnd := before.FirstGapPosition() - 1
	switch {
	case curr.Start == prefixEnd+1:
		return 0
	case curr.End < prev.End:
		return -2 * float64(curr.NumWords())
	case prev.End <= prefixEnd:
		return -2 * float64(curr.Start-prefixEnd-1+curr.NumWords())
	default:
		return -2 * float64(prev.WordsBetween(curr)+curr.NumWords())
	}
}

// ReorderingAllowed reports whether r may be translated next from coverage
// cov under the distortion limit maxDistortion (negative means unlimited).
//
// With g the first gap and w the number of covered words:
//   - no gap yet (g == w): r starts at w, or starts after w and ends at or
//     before w+maxDistortion
//   - r starts before w: it fills a gap and must start at or after g
//   - otherwise r must end at or before g+maxDistortion
//
// Overlapping ranges are never allowed.
func ReorderingAllowed(cov coverage.Bitmap, r coverage.Range, maxDistortion int) bool {
	if cov.Overlap(r) {
		return false
	}
	if maxDistortion < 0 {
		return true
	}
	g := cov.FirstGapPosition()
	w := cov.NumWordsCovered()
	if g == w {
		return r.Start == w || (r.Start > w && r.End <= w+maxDistortion)
	}
	if r.Start < w {
		return r.Start >= g
	}
	return r.End <= g+maxDistortion
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
