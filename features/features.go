// Package features describes the log-linear feature vector shared by
// translation options, hypotheses and n-best output.
package features

import (
	"strconv"
	"strings"
)

// block is a contiguous slice of the feature vector owned by one producer.
type block struct {
	label  string
	offset int
	size   int
}

// Layout fixes the position of every producer inside a Breakdown.
// Producers are laid out as d, lm..., w, tm..., unk.
type Layout struct {
	blocks []block
	lm     []int
	tm     []int
	tmSize []int
	d, w   int
	unk    int
	size   int
}

// NewLayout builds the layout for numLMs language models and one
// translation block per entry of tableScores.
func NewLayout(numLMs int, tableScores []int) *Layout {
	l := &Layout{}
	l.d = l.add("d", 1)
	for i := 0; i < numLMs; i++ {
		l.lm = append(l.lm, l.add("lm", 1))
	}
	l.w = l.add("w", 1)
	for _, n := range tableScores {
		l.tm = append(l.tm, l.add("tm", n))
		l.tmSize = append(l.tmSize, n)
	}
	l.unk = l.add("unk", 1)
	return l
}

func (l *Layout) add(label string, size int) int {
	off := l.size
	l.blocks = append(l.blocks, block{label: label, offset: off, size: size})
	l.size += size
	return off
}

// Size returns the length of a Breakdown for this layout.
func (l *Layout) Size() int { return l.size }

// DistortionIndex returns the distortion feature position.
func (l *Layout) DistortionIndex() int { return l.d }

// WordPenaltyIndex returns the word penalty feature position.
func (l *Layout) WordPenaltyIndex() int { return l.w }

// UnknownIndex returns the unknown word penalty position.
func (l *Layout) UnknownIndex() int { return l.unk }

// LMIndex returns the position of the i-th language model.
func (l *Layout) LMIndex(i int) int { return l.lm[i] }

// TableOffset returns the first position of the i-th phrase table block.
func (l *Layout) TableOffset(i int) int { return l.tm[i] }

// NewBreakdown returns a zero vector.
func (l *Layout) NewBreakdown() Breakdown {
	return make(Breakdown, l.size)
}

// Format renders b the way n-best lists expect it:
// "d: -2 lm: -10.5 w: -3 tm: -1 -2 unk: 0". Blocks sharing a label
// are printed under a single label.
func (l *Layout) Format(b Breakdown) string {
	var sb strings.Builder
	prev := ""
	for _, blk := range l.blocks {
		if blk.label != prev {
			if sb.Len() > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(blk.label)
			sb.WriteByte(':')
			prev = blk.label
		}
		for i := blk.offset; i < blk.offset+blk.size; i++ {
			sb.WriteByte(' ')
			sb.WriteString(FormatScore(b[i]))
		}
	}
	return sb.String()
}

// FormatScore prints a score with the shortest exact representation.
func FormatScore(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Breakdown holds per-feature scores aligned with a Layout.
type Breakdown []float64

// Clone returns a copy of b.
func (b Breakdown) Clone() Breakdown {
	return append(Breakdown(nil), b...)
}

// Add adds o into b element-wise.
func (b Breakdown) Add(o Breakdown) {
	for i, v := range o {
		b[i] += v
	}
}

// Sub subtracts o from b element-wise.
func (b Breakdown) Sub(o Breakdown) {
	for i, v := range o {
		b[i] -= v
	}
}

// Weights is the log-linear weight vector aligned with a Layout.
type Weights []float64

// Dot returns the weighted sum of b.
func (w Weights) Dot(b Breakdown) float64 {
	total := 0.0
	for i, v := range b {
		total += w[i] * v
	}
	return total
}

// NewWeights assembles a weight vector for l. lmWeights and tableWeights
// must match the layout's producer counts; missing table weights are zero.
func NewWeights(l *Layout, distortion float64, lmWeights []float64, wordPenalty float64, tableWeights [][]float64, unknown float64) Weights {
	w := make(Weights, l.size)
	w[l.d] = distortion
	for i, off := range l.lm {
		if i < len(lmWeights) {
			w[off] = lmWeights[i]
		}
	}
	w[l.w] = wordPenalty
	for i, off := range l.tm {
		if i >= len(tableWeights) {
			continue
		}
		for j, v := range tableWeights[i] {
			if j < l.tmSize[i] {
				w[off+j] = v
			}
		}
	}
	w[l.unk] = unknown
	return w
}

// TableSize returns the number of scores in the i-th phrase table block.
func (l *Layout) TableSize(i int) int { return l.tmSize[i] }
