// Package decoder implements the phrase-based stack decoder: hypotheses,
// hypothesis stacks, the search manager and n-best extraction.
package decoder

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/teatak/smt/coverage"
	"github.com/teatak/smt/features"
	"github.com/teatak/smt/lm"
	"github.com/teatak/smt/options"
)

// ScoreContext carries the read-only models and weights used to score
// hypotheses of one sentence.
type ScoreContext struct {
	Layout     *features.Layout
	Weights    features.Weights
	LMs        []lm.Model
	Distortion DistortionModel
	Options    *options.Collection
	// TrackEnd adds the last translated source position to the
	// recombination key. Required whenever reordering is scored or limited.
	TrackEnd bool
}

// Segment is one translated phrase of a hypothesis chain.
type Segment struct {
	Source coverage.Range
	Target []string
}

// Hypothesis is a node of the search graph: a partial translation that
// covers some source words and has produced a target prefix.
type Hypothesis struct {
	id        int
	prev      *Hypothesis
	option    *options.Option
	cover     coverage.Bitmap
	srcRange  coverage.Range
	lmStates  []lm.State
	delta     features.Breakdown
	breakdown features.Breakdown
	total     float64
	future    float64
	key       string
	arcs      []*Hypothesis
}

// CreateInitial returns the root hypothesis for source: nothing covered,
// nothing produced, score zero.
func CreateInitial(id int, source []string, sc *ScoreContext) *Hypothesis {
	h := &Hypothesis{
		id:        id,
		cover:     coverage.NewBitmap(len(source)),
		srcRange:  coverage.NotFound,
		lmStates:  make([]lm.State, len(sc.LMs)),
		delta:     sc.Layout.NewBreakdown(),
		breakdown: sc.Layout.NewBreakdown(),
	}
	for i, m := range sc.LMs {
		h.lmStates[i] = m.BeginState()
	}
	if sc.Options != nil {
		h.future = sc.Options.FutureScore(h.cover)
	}
	h.key = h.recombinationKey(sc)
	return h
}

// CreateNext extends h with opt. The option must not overlap the covered
// words; callers filter with ReorderingAllowed first.
func (h *Hypothesis) CreateNext(id int, opt *options.Option) *Hypothesis {
	if h.cover.Overlap(opt.Range) {
		panic(fmt.Sprintf("decoder: option %s overlaps coverage %s", opt.Range, h.cover))
	}
	cover := h.cover.Clone()
	cover.SetCovered(opt.Range)
	return &Hypothesis{
		id:       id,
		prev:     h,
		option:   opt,
		cover:    cover,
		srcRange: opt.Range,
	}
}

// CalcScore fills in the incremental and cumulative scores, the LM states,
// the future estimate and the recombination key. Only h is modified.
func (h *Hypothesis) CalcScore(sc *ScoreContext) {
	l := sc.Layout
	delta := l.NewBreakdown()
	delta.Add(h.option.Scores)

	// 1. Distortion
	delta[l.DistortionIndex()] = sc.Distortion.Score(h.prev.srcRange, h.srcRange, h.prev.cover)

	// 2. Language models
	target := h.option.Target
	complete := h.cover.IsComplete()
	h.lmStates = make([]lm.State, len(sc.LMs))
	for i, m := range sc.LMs {
		state := h.prev.lmStates[i]
		score := 0.0
		if len(target) > 0 {
			score, state = m.Score(state, target)
		}
		if complete {
			score += m.ScoreEnd(state)
		}
		delta[l.LMIndex(i)] = score
		h.lmStates[i] = state
	}

	// 3. Word penalty
	delta[l.WordPenaltyIndex()] = -float64(len(target))

	h.delta = delta
	h.breakdown = h.prev.breakdown.Clone()
	h.breakdown.Add(delta)
	h.total = h.prev.total + sc.Weights.Dot(delta)
	h.future = 0
	if sc.Options != nil {
		h.future = sc.Options.FutureScore(h.cover)
	}
	h.key = h.recombinationKey(sc)
}

func (h *Hypothesis) recombinationKey(sc *ScoreContext) string {
	var sb strings.Builder
	sb.WriteString(h.cover.Key())
	for _, s := range h.lmStates {
		sb.WriteByte('|')
		sb.WriteString(s.String())
	}
	if sc.TrackEnd {
		sb.WriteByte('|')
		sb.WriteString(strconv.Itoa(h.srcRange.End))
	}
	return sb.String()
}

// ID returns the creation number of h, unique within a Manager.
func (h *Hypothesis) ID() int { return h.id }

// Prev returns the parent, nil for the root.
func (h *Hypothesis) Prev() *Hypothesis { return h.prev }

// Option returns the option that created h, nil for the root.
func (h *Hypothesis) Option() *options.Option { return h.option }

// Coverage returns the covered source words. Do not modify.
func (h *Hypothesis) Coverage() coverage.Bitmap { return h.cover }

// SourceRange returns the span translated last.
func (h *Hypothesis) SourceRange() coverage.Range { return h.srcRange }

// TotalScore returns the weighted score accumulated from the root.
func (h *Hypothesis) TotalScore() float64 { return h.total }

// FutureScore returns the estimate for translating the remaining words.
func (h *Hypothesis) FutureScore() float64 { return h.future }

// RankScore orders hypotheses within a stack.
func (h *Hypothesis) RankScore() float64 { return h.total + h.future }

// Breakdown returns the cumulative feature scores. Do not modify.
func (h *Hypothesis) Breakdown() features.Breakdown { return h.breakdown }

// Delta returns the feature scores added by the last phrase.
func (h *Hypothesis) Delta() features.Breakdown { return h.delta }

// RecombinationKey returns the key shared by hypotheses that will score
// every future expansion identically.
func (h *Hypothesis) RecombinationKey() string { return h.key }

// Arcs returns the hypotheses recombined into h.
func (h *Hypothesis) Arcs() []*Hypothesis { return h.arcs }

// IsComplete reports whether every source word is covered.
func (h *Hypothesis) IsComplete() bool { return h.cover.IsComplete() }

// OutputWords returns the target words produced from the root to h.
func (h *Hypothesis) OutputWords() []string {
	var chain []*Hypothesis
	for cur := h; cur.prev != nil; cur = cur.prev {
		chain = append(chain, cur)
	}
	var words []string
	for i := len(chain) - 1; i >= 0; i-- {
		words = append(words, chain[i].option.Target...)
	}
	return words
}

// Segments returns the (source span, target phrase) pairs from the root to h.
func (h *Hypothesis) Segments() []Segment {
	var segs []Segment
	for cur := h; cur.prev != nil; cur = cur.prev {
		segs = append(segs, Segment{Source: cur.srcRange, Target: cur.option.Target})
	}
	for i, j := 0, len(segs)-1; i < j; i, j = i+1, j-1 {
		segs[i], segs[j] = segs[j], segs[i]
	}
	return segs
}

func (h *Hypothesis) String() string {
	return fmt.Sprintf("#%d %s %s total=%g future=%g", h.id, h.cover, h.srcRange, h.total, h.future)
}

// better orders hypotheses by rank score, then by creation.
func better(a, b *Hypothesis) bool {
	ra, rb := a.RankScore(), b.RankScore()
	if ra != rb && !(math.IsNaN(ra) || math.IsNaN(rb)) {
		return ra > rb
	}
	return a.id < b.id
}
