package decoder

import (
	"context"
	"fmt"
	"strings"

	"github.com/teatak/smt/coverage"
	"github.com/teatak/smt/options"
	"github.com/teatak/smt/util"
)

// SearchParams bound the beam search.
type SearchParams struct {
	StackSize     int     // hypotheses kept per stack, 0 = unlimited
	BeamThreshold float64 // probability ratio to the best, 0 = off
	MaxDistortion int     // negative = unrestricted reordering
	MaxExpansions int     // hypotheses created before giving up, 0 = unlimited
}

// Stats describes one search.
type Stats struct {
	Created    int
	Recombined int
	Pruned     int
	StackSizes []int
}

// Result is the outcome of ProcessSentence.
type Result struct {
	// Best is the best complete hypothesis, or in degraded mode the best
	// partial one. Nil when nothing was found.
	Best *Hypothesis
	// Found is set when Best covers the whole sentence.
	Found bool
	// Degraded is set when the search stopped before the last stack.
	Degraded bool
	// Reason explains a degraded search.
	Reason string
}

// Manager runs the stack search for one sentence. A Manager is not safe
// for concurrent use; each sentence gets its own.
type Manager struct {
	source []string
	opts   *options.Collection
	sc     *ScoreContext
	params SearchParams
	stacks []*Stack
	maxLen int
	nextID int
	stats  Stats
}

// NewManager prepares a search over the options of one sentence.
func NewManager(opts *options.Collection, sc *ScoreContext, params SearchParams) *Manager {
	source := opts.Source()
	m := &Manager{
		source: source,
		opts:   opts,
		sc:     sc,
		params: params,
		stacks: make([]*Stack, len(source)+1),
		maxLen: opts.MaxSpan(),
	}
	for i := range m.stacks {
		m.stacks[i] = NewStack(params.StackSize, params.BeamThreshold)
	}
	return m
}

func (m *Manager) newID() int {
	id := m.nextID
	m.nextID++
	m.stats.Created++
	return id
}

// ProcessSentence fills the stacks in order of covered word count. It stops
// early, marking the result degraded, when ctx is done or the expansion
// budget is spent.
func (m *Manager) ProcessSentence(ctx context.Context) Result {
	n := len(m.source)
	root := CreateInitial(m.newID(), m.source, m.sc)
	m.stacks[0].AddPrune(root)

	reason := ""
	k := 0
loop:
	for ; k <= n; k++ {
		stack := m.stacks[k]
		stack.Prune()
		if k == n {
			break
		}
		util.Debugf("stack %d: %d hypotheses", k, stack.Len())
		for _, h := range stack.GetSortedHypotheses() {
			if err := ctx.Err(); err != nil {
				reason = err.Error()
				break loop
			}
			if m.params.MaxExpansions > 0 && m.stats.Created >= m.params.MaxExpansions {
				reason = fmt.Sprintf("expansion budget of %d hypotheses spent", m.params.MaxExpansions)
				break loop
			}
			m.processHypothesis(h)
		}
	}
	m.collectStats()

	if reason != "" {
		return m.degradedResult(reason, k)
	}
	best := m.stacks[n].GetBestHypothesis()
	return Result{Best: best, Found: best != nil}
}

// degradedResult falls back to the best hypothesis of the highest completed
// stack. Stacks up to stopped have received every hypothesis; the ones above
// were still being filled.
func (m *Manager) degradedResult(reason string, stopped int) Result {
	util.Warnf("search stopped early at stack %d: %s", stopped, reason)
	for k := stopped; k >= 0; k-- {
		if m.stacks[k].Len() == 0 {
			continue
		}
		best := m.stacks[k].GetBestHypothesis()
		return Result{Best: best, Found: best.IsComplete(), Degraded: true, Reason: reason}
	}
	return Result{Degraded: true, Reason: reason}
}

// processHypothesis expands h with every option on a span that passes the
// overlap and reordering checks.
func (m *Manager) processHypothesis(h *Hypothesis) {
	n := len(m.source)
	cov := h.Coverage()
	for start := cov.FirstGapPosition(); start < n; start++ {
		if cov.Covered(start) {
			continue
		}
		for end := start; end < n && end-start < m.maxLen; end++ {
			r := coverage.NewRange(start, end)
			if cov.Overlap(r) {
				break
			}
			if !ReorderingAllowed(cov, r, m.params.MaxDistortion) {
				continue
			}
			m.expand(h, r)
		}
	}
}

func (m *Manager) expand(h *Hypothesis, r coverage.Range) {
	target := m.stacks[h.Coverage().NumWordsCovered()+r.NumWords()]
	for _, opt := range m.opts.GetOptions(r) {
		next := h.CreateNext(m.newID(), opt)
		next.CalcScore(m.sc)
		target.AddPrune(next)
	}
}

func (m *Manager) collectStats() {
	m.stats.Recombined, m.stats.Pruned = 0, 0
	m.stats.StackSizes = make([]int, len(m.stacks))
	for i, s := range m.stacks {
		m.stats.Recombined += s.Recombined()
		m.stats.Pruned += s.Pruned()
		m.stats.StackSizes[i] = s.Len()
	}
}

// GetBestHypothesis returns the best complete hypothesis, or nil.
func (m *Manager) GetBestHypothesis() *Hypothesis {
	return m.stacks[len(m.stacks)-1].GetBestHypothesis()
}

// Stacks returns the stacks indexed by covered word count.
func (m *Manager) Stacks() []*Stack { return m.stacks }

// Stats returns counters of the last search.
func (m *Manager) Stats() Stats { return m.stats }

func (s Stats) String() string {
	sizes := make([]string, len(s.StackSizes))
	for i, n := range s.StackSizes {
		sizes[i] = fmt.Sprint(n)
	}
	return fmt.Sprintf("created=%d recombined=%d pruned=%d stacks=[%s]",
		s.Created, s.Recombined, s.Pruned, strings.Join(sizes, " "))
}
