package translator

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/teatak/smt/util"
)

// Batch translates many sentences with a pool of workers. Counters
// accumulate over calls to Run.
type Batch struct {
	ID      string
	Workers int

	t         *Translator
	sentences atomic.Int64
	failed    atomic.Int64
	degraded  atomic.Int64
}

// NewBatch creates a batch with a fresh run ID. Workers below one means one.
func (t *Translator) NewBatch(workers int) *Batch {
	if workers < 1 {
		workers = 1
	}
	return &Batch{ID: uuid.NewString(), Workers: workers, t: t}
}

// Run translates lines and returns the results in input order. Result IDs
// start at firstID.
func (b *Batch) Run(ctx context.Context, lines []string, firstID int) []Result {
	results := make([]Result, len(lines))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < b.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				res := b.t.Translate(ctx, lines[i])
				res.ID = firstID + i
				results[i] = res
				b.record(res)
			}
		}()
	}
	for i := range lines {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return results
}

func (b *Batch) record(res Result) {
	b.sentences.Add(1)
	if res.Degraded {
		b.degraded.Add(1)
	}
	if !res.Found {
		b.failed.Add(1)
		util.Warnf("[%s] sentence %d: no translation found", b.ID, res.ID)
	}
}

// Summary reports the counters of the batch.
func (b *Batch) Summary(elapsed time.Duration) string {
	n := b.sentences.Load()
	rate := 0.0
	if elapsed > 0 {
		rate = float64(n) / elapsed.Seconds()
	}
	return fmtSummary(b.ID, n, b.failed.Load(), b.degraded.Load(), elapsed, rate)
}
