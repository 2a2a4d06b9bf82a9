package decoder

import (
	"math"
	"sort"
)

// Stack holds the hypotheses that cover the same number of source words.
// Hypotheses with equal recombination keys are merged on insertion; size
// and threshold pruning are deferred to PruneToSize so neither the retained
// set nor the arcs of a representative depend on insertion order.
type Stack struct {
	maxSize   int
	threshold float64 // log-domain margin below the best rank score
	hyps      map[string]*Hypothesis
	sorted    []*Hypothesis

	recombined int
	pruned     int
}

// NewStack creates a stack keeping at most maxSize hypotheses (0 means
// unlimited) whose rank is within beamThreshold of the best. beamThreshold
// is a probability ratio in (0, 1]; 0 disables threshold pruning.
func NewStack(maxSize int, beamThreshold float64) *Stack {
	threshold := math.Inf(-1)
	if beamThreshold > 0 {
		threshold = math.Log(beamThreshold)
	}
	return &Stack{
		maxSize:   maxSize,
		threshold: threshold,
		hyps:      make(map[string]*Hypothesis),
	}
}

// AddPrune inserts h, recombining it with an existing hypothesis of the
// same key. The better of the two stays in the stack and the other becomes
// one of its arcs. It reports whether h is now the stack's representative
// for its key.
func (s *Stack) AddPrune(h *Hypothesis) bool {
	s.sorted = nil
	existing, ok := s.hyps[h.key]
	if !ok {
		s.hyps[h.key] = h
		return true
	}

	s.recombined++
	if better(h, existing) {
		h.arcs = append(h.arcs, existing)
		h.arcs = append(h.arcs, existing.arcs...)
		existing.arcs = nil
		s.hyps[h.key] = h
		return true
	}
	existing.arcs = append(existing.arcs, h)
	h.arcs = nil
	return false
}

// Prune applies PruneToSize with the stack's own size limit.
func (s *Stack) Prune() { s.PruneToSize(s.maxSize) }

// PruneToSize keeps the limit best hypotheses (limit <= 0 keeps all), then
// drops those ranking below the best by more than the beam threshold.
func (s *Stack) PruneToSize(limit int) {
	s.pruneSize(limit)
	if math.IsInf(s.threshold, -1) || len(s.hyps) == 0 {
		return
	}
	sorted := s.GetSortedHypotheses()
	floor := sorted[0].RankScore() + s.threshold
	kept := sorted[:0:0]
	for _, h := range sorted {
		if h.RankScore() >= floor {
			kept = append(kept, h)
			continue
		}
		delete(s.hyps, h.key)
		s.pruned++
	}
	s.sorted = kept
}

func (s *Stack) pruneSize(limit int) {
	if limit <= 0 || len(s.hyps) <= limit {
		return
	}
	sorted := s.GetSortedHypotheses()
	for _, h := range sorted[limit:] {
		delete(s.hyps, h.key)
		s.pruned++
	}
	s.sorted = sorted[:limit:limit]
}

// GetSortedHypotheses returns the hypotheses best first. Ties are broken
// by creation order.
func (s *Stack) GetSortedHypotheses() []*Hypothesis {
	if s.sorted != nil {
		return s.sorted
	}
	list := make([]*Hypothesis, 0, len(s.hyps))
	for _, h := range s.hyps {
		list = append(list, h)
	}
	sort.Slice(list, func(i, j int) bool {
		return better(list[i], list[j])
	})
	s.sorted = list
	return list
}

// GetBestHypothesis returns the best hypothesis, or nil when the stack is
// empty.
func (s *Stack) GetBestHypothesis() *Hypothesis {
	if len(s.hyps) == 0 {
		return nil
	}
	return s.GetSortedHypotheses()[0]
}

// Len returns the number of distinct hypotheses.
func (s *Stack) Len() int { return len(s.hyps) }

// Recombined returns how many insertions were merged into an existing key.
func (s *Stack) Recombined() int { return s.recombined }

// Pruned returns how many hypotheses were discarded by pruning.
func (s *Stack) Pruned() int { return s.pruned }
