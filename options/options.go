// Package options builds the per-sentence set of translation options and
// the future-score estimates derived from it.
package options

import (
	"fmt"
	"math"
	"strings"

	"github.com/pkg/errors"
	"github.com/teatak/smt/coverage"
	"github.com/teatak/smt/features"
	"github.com/teatak/smt/lm"
	"github.com/teatak/smt/phrasetable"
	"github.com/teatak/smt/util"
)

// UnknownScore is the unknown-word feature value of a fallback option.
const UnknownScore = -100.0

// UnknownPolicy decides what happens to a source word no table covers.
type UnknownPolicy int

const (
	UnknownCopy UnknownPolicy = iota // UnknownCopy passes the word through verbatim.
	UnknownDrop                      // UnknownDrop translates the word to nothing.
	UnknownNone                      // UnknownNone adds no fallback; the word is untranslatable.
)

// ParseUnknownPolicy maps a config value to a policy.
func ParseUnknownPolicy(s string) (UnknownPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "copy":
		return UnknownCopy, nil
	case "drop":
		return UnknownDrop, nil
	case "none":
		return UnknownNone, nil
	}
	return UnknownCopy, errors.Errorf("unknown word policy %q (want copy, drop or none)", s)
}

func (p UnknownPolicy) String() string {
	switch p {
	case UnknownDrop:
		return "drop"
	case UnknownNone:
		return "none"
	default:
		return "copy"
	}
}

// Option is one scored way to translate a source span.
type Option struct {
	Range       coverage.Range
	Target      []string
	Scores      features.Breakdown // translation and unknown-word entries only
	FutureScore float64
	Unknown     bool
	Table       int // index of the contributing table, -1 for fallbacks
	Alignment   string
}

func (o *Option) String() string {
	return fmt.Sprintf("%s->%q", o.Range, strings.Join(o.Target, " "))
}

// Params are the read-only models and weights shared by every sentence.
type Params struct {
	Layout       *features.Layout
	Weights      features.Weights
	Tables       []*phrasetable.Table
	LMs          []lm.Model
	MaxPhraseLen int
	Unknown      UnknownPolicy
}

// Collection holds every option of one sentence, indexed by span.
type Collection struct {
	source  []string
	surface []string
	params *Params
	spans  [][][]*Option // spans[start][length-1]
	count  int
	future [][]float64
}

// NewCollection creates an empty collection for source. Options added with
// Add become visible to FutureScore after Finalize.
func NewCollection(source []string, params *Params) *Collection {
	n := len(source)
	c := &Collection{
		source:  source,
		surface: source,
		params:  params,
		spans:   make([][][]*Option, n),
	}
	for start := 0; start < n; start++ {
		c.spans[start] = make([][]*Option, n-start)
	}
	return c
}

// CreateForSentence looks up every span up to the maximum phrase length in
// every table, adds unknown-word fallbacks and computes future scores.
func CreateForSentence(source []string, params *Params) *Collection {
	return CreateForSurface(source, source, params)
}

// CreateForSurface is CreateForSentence for input whose lookup keys differ
// from the words as written. Tables are searched with source; unknown-word
// fallbacks copy the matching surface word.
func CreateForSurface(source, surface []string, params *Params) *Collection {
	if len(surface) != len(source) {
		panic(fmt.Sprintf("options: %d surface words for %d source words", len(surface), len(source)))
	}
	c := NewCollection(source, params)
	c.surface = surface
	n := len(source)
	maxLen := c.maxPhraseLen()

	for start := 0; start < n; start++ {
		for end := start; end < n && end-start+1 <= maxLen; end++ {
			words := source[start : end+1]
			r := coverage.NewRange(start, end)
			for ti, table := range params.Tables {
				for _, tp := range table.Lookup(words) {
					c.Add(c.newTableOption(r, ti, tp))
				}
			}
		}
	}

	// 2. Unknown words
	for pos := 0; pos < n; pos++ {
		if len(c.spans[pos][0]) > 0 {
			continue
		}
		if opt := c.newUnknownOption(pos); opt != nil {
			c.Add(opt)
		}
	}

	c.Finalize()
	return c
}

func (c *Collection) maxPhraseLen() int {
	maxLen := c.params.MaxPhraseLen
	if maxLen <= 0 {
		for _, t := range c.params.Tables {
			if t.MaxPhraseLen > maxLen {
				maxLen = t.MaxPhraseLen
			}
		}
	}
	if maxLen <= 0 {
		maxLen = 1
	}
	return maxLen
}

func (c *Collection) newTableOption(r coverage.Range, table int, tp phrasetable.TargetPhrase) *Option {
	scores := c.params.Layout.NewBreakdown()
	off := c.params.Layout.TableOffset(table)
	size := c.params.Layout.TableSize(table)
	for i, s := range tp.Scores {
		if i < size {
			scores[off+i] = s
		}
	}
	return &Option{
		Range:     r,
		Target:    tp.Words,
		Scores:    scores,
		Table:     table,
		Alignment: tp.Alignment,
	}
}

func (c *Collection) newUnknownOption(pos int) *Option {
	word := c.surface[pos]
	var target []string
	switch c.params.Unknown {
	case UnknownNone:
		return nil
	case UnknownDrop:
		// numbers and punctuation survive dropping
		if util.ContainsDigit(word) || util.IsPunctuation(word) {
			target = []string{word}
		}
	default:
		target = []string{word}
	}
	scores := c.params.Layout.NewBreakdown()
	scores[c.params.Layout.UnknownIndex()] = UnknownScore
	return &Option{
		Range:   coverage.NewRange(pos, pos),
		Target:  target,
		Scores:  scores,
		Unknown: true,
		Table:   -1,
	}
}

// Add registers an option and computes its future score.
func (c *Collection) Add(opt *Option) {
	r := opt.Range
	if r.Start < 0 || r.End >= len(c.source) || r.End < r.Start {
		panic(fmt.Sprintf("options: range %s outside sentence of %d words", r, len(c.source)))
	}
	opt.FutureScore = c.estimate(opt)
	c.spans[r.Start][r.End-r.Start] = append(c.spans[r.Start][r.End-r.Start], opt)
	c.count++
}

func (c *Collection) estimate(opt *Option) float64 {
	p := c.params
	score := p.Weights.Dot(opt.Scores)
	for i, m := range p.LMs {
		score += p.Weights[p.Layout.LMIndex(i)] * m.Estimate(opt.Target)
	}
	score += p.Weights[p.Layout.WordPenaltyIndex()] * -float64(len(opt.Target))
	return score
}

// Finalize fills the future-score chart: each cell holds the better of the
// best option for the span and the best split into two sub-spans.
func (c *Collection) Finalize() {
	n := len(c.source)
	c.future = make([][]float64, n)
	for start := 0; start < n; start++ {
		c.future[start] = make([]float64, n)
		for end := start; end < n; end++ {
			best := math.Inf(-1)
			for _, opt := range c.spans[start][end-start] {
				if opt.FutureScore > best {
					best = opt.FutureScore
				}
			}
			c.future[start][end] = best
		}
	}
	for length := 2; length <= n; length++ {
		for start := 0; start+length <= n; start++ {
			end := start + length - 1
			for split := start; split < end; split++ {
				joined := c.future[start][split] + c.future[split+1][end]
				if joined > c.future[start][end] {
					c.future[start][end] = joined
				}
			}
		}
	}
}

// GetOptions returns the options for exactly r. The slice is owned by the
// collection; repeated calls return the same list.
func (c *Collection) GetOptions(r coverage.Range) []*Option {
	if r.Start < 0 || r.End >= len(c.source) || r.End < r.Start {
		return nil
	}
	return c.spans[r.Start][r.End-r.Start]
}

// Source returns the sentence words.
func (c *Collection) Source() []string { return c.source }

// Len returns the number of options in the collection.
func (c *Collection) Len() int { return c.count }

// MaxSpan returns the longest span length that has any option.
func (c *Collection) MaxSpan() int {
	longest := 0
	for start := range c.spans {
		for l := len(c.spans[start]); l > longest; l-- {
			if len(c.spans[start][l-1]) > 0 {
				longest = l
				break
			}
		}
	}
	return longest
}

// SpanFutureScore returns the estimate for translating r from scratch.
func (c *Collection) SpanFutureScore(r coverage.Range) float64 {
	return c.future[r.Start][r.End]
}

// FutureScore sums the estimates of every untranslated gap of b.
func (c *Collection) FutureScore(b coverage.Bitmap) float64 {
	total := 0.0
	for _, gap := range b.Gaps() {
		total += c.future[gap.Start][gap.End]
	}
	return total
}
