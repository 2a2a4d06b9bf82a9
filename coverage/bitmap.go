// Package coverage tracks which source positions a partial translation has
// already consumed.
package coverage

import (
	"fmt"
	"strings"
)

// Bitmap is a fixed-length coverage vector, one bit per source word.
// Bits only move from false to true; a hypothesis owns its own copy.
type Bitmap struct {
	bits    []uint64
	size    int
	covered int
}

// NewBitmap creates an empty bitmap for a sentence of n words.
func NewBitmap(n int) Bitmap {
	return Bitmap{bits: make([]uint64, (n+63)/64), size: n}
}

// Len returns the sentence length the bitmap was created for.
func (b Bitmap) Len() int {
	return b.size
}

// Covered reports whether pos has been translated.
func (b Bitmap) Covered(pos int) bool {
	if pos < 0 || pos >= b.size {
		return false
	}
	return b.bits[pos/64]&(1<<uint(pos%64)) != 0
}

// Overlap reports whether any position in r is already covered.
func (b Bitmap) Overlap(r Range) bool {
	for pos := r.Start; pos <= r.End; pos++ {
		if b.Covered(pos) {
			return true
		}
	}
	return false
}

// SetCovered marks every position of r as translated. Covering a position
// twice or outside the sentence is a caller bug and panics.
func (b *Bitmap) SetCovered(r Range) {
	if r.Start < 0 || r.End >= b.size || r.End < r.Start {
		panic(fmt.Sprintf("coverage: range %s outside sentence of %d words", r, b.size))
	}
	if b.Overlap(r) {
		panic(fmt.Sprintf("coverage: range %s overlaps %s", r, b))
	}
	for pos := r.Start; pos <= r.End; pos++ {
		b.bits[pos/64] |= 1 << uint(pos%64)
	}
	b.covered += r.NumWords()
}

// NumWordsCovered returns the number of translated positions.
func (b Bitmap) NumWordsCovered() int {
	return b.covered
}

// IsComplete reports whether every position is covered.
func (b Bitmap) IsComplete() bool {
	return b.covered == b.size
}

// FirstGapPosition returns the first untranslated position, or Len() when
// the bitmap is complete.
func (b Bitmap) FirstGapPosition() int {
	for pos := 0; pos < b.size; pos++ {
		if !b.Covered(pos) {
			return pos
		}
	}
	return b.size
}

// Gaps returns the maximal runs of untranslated positions, left to right.
func (b Bitmap) Gaps() []Range {
	var gaps []Range
	start := -1
	for pos := 0; pos < b.size; pos++ {
		if !b.Covered(pos) {
			if start < 0 {
				start = pos
			}
			continue
		}
		if start >= 0 {
			gaps = append(gaps, Range{Start: start, End: pos - 1})
			start = -1
		}
	}
	if start >= 0 {
		gaps = append(gaps, Range{Start: start, End: b.size - 1})
	}
	return gaps
}

// Clone returns an independent copy.
func (b Bitmap) Clone() Bitmap {
	c := b
	c.bits = append([]uint64(nil), b.bits...)
	return c
}

// Key returns a comparable representation of the covered set.
func (b Bitmap) Key() string {
	var sb strings.Builder
	for _, w := range b.bits {
		fmt.Fprintf(&sb, "%x.", w)
	}
	return sb.String()
}

func (b Bitmap) String() string {
	var sb strings.Builder
	for pos := 0; pos < b.size; pos++ {
		if b.Covered(pos) {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}
