package decoder

import "sort"

// DefaultNBestFactor bounds distinct n-best search at count*factor pops.
const DefaultNBestFactor = 20

// contenders is a score-ordered collection of candidate paths. The slice
// is kept ascending so the best path is popped from the end.
type contenders struct {
	paths []*TrellisPath
	seqs  []int
	seq   int
	seen  map[string]struct{}
}

func newContenders() *contenders {
	return &contenders{seen: make(map[string]struct{})}
}

func (c *contenders) add(p *TrellisPath) {
	key := p.Key()
	if _, ok := c.seen[key]; ok {
		return
	}
	c.seen[key] = struct{}{}
	seq := c.seq
	c.seq++
	// earlier insertions win ties, so they sit closer to the end
	i := sort.Search(len(c.paths), func(i int) bool {
		if c.paths[i].total != p.total {
			return c.paths[i].total > p.total
		}
		return c.seqs[i] < seq
	})
	c.paths = append(c.paths, nil)
	c.seqs = append(c.seqs, 0)
	copy(c.paths[i+1:], c.paths[i:])
	copy(c.seqs[i+1:], c.seqs[i:])
	c.paths[i] = p
	c.seqs[i] = seq
}

func (c *contenders) pop() *TrellisPath {
	last := len(c.paths) - 1
	p := c.paths[last]
	c.paths = c.paths[:last]
	c.seqs = c.seqs[:last]
	return p
}

// prune keeps the size best paths.
func (c *contenders) prune(size int) {
	if extra := len(c.paths) - size; extra > 0 {
		c.paths = c.paths[extra:]
		c.seqs = c.seqs[extra:]
	}
}

func (c *contenders) len() int { return len(c.paths) }

// CalcNBest extracts up to count complete paths, best first. In distinct
// mode paths with an already emitted surface string are skipped and the
// search gives up after count*factor pops (factor 0 means 1000).
func (m *Manager) CalcNBest(count int, distinct bool, factor int) []*TrellisPath {
	if count <= 0 {
		return nil
	}
	final := m.stacks[len(m.stacks)-1]
	sorted := final.GetSortedHypotheses()
	if len(sorted) == 0 {
		return nil
	}
	if factor < 1 {
		factor = 1000
	}

	queue := newContenders()
	for _, h := range sorted {
		queue.add(NewTrellisPath(h))
	}

	var ret []*TrellisPath
	surfaces := make(map[string]struct{})
	for iter := 0; len(ret) < count && queue.len() > 0 && iter < count*factor; iter++ {
		path := queue.pop()
		for _, d := range path.deviations() {
			queue.add(d)
		}
		if distinct {
			surface := path.Surface()
			if _, ok := surfaces[surface]; !ok {
				surfaces[surface] = struct{}{}
				ret = append(ret, path)
			}
			queue.prune(count * factor)
		} else {
			ret = append(ret, path)
			queue.prune(count)
		}
	}
	return ret
}
