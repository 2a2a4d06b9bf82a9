package decoder

import (
	"strconv"
	"strings"

	"github.com/teatak/smt/features"
)

// TrellisPath is one complete walk through the search graph. Edges are
// stored from the final hypothesis back to the root.
type TrellisPath struct {
	edges     []*Hypothesis
	changed   int // edge replaced last, -1 for a pure path
	total     float64
	breakdown features.Breakdown
}

// NewTrellisPath follows the primary parent pointers from h.
func NewTrellisPath(h *Hypothesis) *TrellisPath {
	p := &TrellisPath{
		changed:   -1,
		total:     h.total,
		breakdown: h.breakdown,
	}
	for cur := h; cur != nil; cur = cur.prev {
		p.edges = append(p.edges, cur)
	}
	return p
}

// deviate copies p up to edge, substitutes arc there and follows the
// arc's own parents to the root. The suffix after the arc scores the same
// as before because arc and the replaced edge share a recombination key.
func (p *TrellisPath) deviate(edge int, arc *Hypothesis) *TrellisPath {
	replaced := p.edges[edge]
	d := &TrellisPath{
		changed:   edge,
		total:     p.total - replaced.total + arc.total,
		edges:     make([]*Hypothesis, 0, len(p.edges)),
		breakdown: p.breakdown.Clone(),
	}
	d.breakdown.Sub(replaced.breakdown)
	d.breakdown.Add(arc.breakdown)
	d.edges = append(d.edges, p.edges[:edge]...)
	for cur := arc; cur != nil; cur = cur.prev {
		d.edges = append(d.edges, cur)
	}
	return d
}

// deviations returns the paths that differ from p in exactly one more
// edge. Only edges at or beyond the last change are varied, so every path
// of the graph is produced once.
func (p *TrellisPath) deviations() []*TrellisPath {
	var out []*TrellisPath
	if p.changed < 0 {
		for i, e := range p.edges {
			for _, arc := range e.arcs {
				out = append(out, p.deviate(i, arc))
			}
		}
		return out
	}
	for _, arc := range p.edges[p.changed].arcs {
		out = append(out, p.deviate(p.changed, arc))
	}
	for i := p.changed + 1; i < len(p.edges); i++ {
		for _, arc := range p.edges[i].arcs {
			out = append(out, p.deviate(i, arc))
		}
	}
	return out
}

// TotalScore returns the weighted score of the path.
func (p *TrellisPath) TotalScore() float64 { return p.total }

// Breakdown returns the feature scores of the path. Do not modify.
func (p *TrellisPath) Breakdown() features.Breakdown { return p.breakdown }

// Edges returns the hypotheses of the path from the final one to the root.
func (p *TrellisPath) Edges() []*Hypothesis { return p.edges }

// Segments returns the translated phrases in target order.
func (p *TrellisPath) Segments() []Segment {
	var segs []Segment
	for i := len(p.edges) - 1; i >= 0; i-- {
		e := p.edges[i]
		if e.option == nil {
			continue
		}
		segs = append(segs, Segment{Source: e.srcRange, Target: e.option.Target})
	}
	return segs
}

// OutputWords returns the target words of the path.
func (p *TrellisPath) OutputWords() []string {
	var words []string
	for _, seg := range p.Segments() {
		words = append(words, seg.Target...)
	}
	return words
}

// Surface returns the target words joined by spaces.
func (p *TrellisPath) Surface() string {
	return strings.Join(p.OutputWords(), " ")
}

// Key identifies the path by its hypothesis ids.
func (p *TrellisPath) Key() string {
	var sb strings.Builder
	for i, e := range p.edges {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(strconv.Itoa(e.id))
	}
	return sb.String()
}
