package lm

import (
	"bufio"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/teatak/smt/util"
)

// OOVScore is used for words missing from a model without an <unk> entry.
const OOVScore = -100.0

type entry struct {
	logProb float64
	backoff float64
}

// NGram is a back-off n-gram model. Scores are stored as natural logs.
type NGram struct {
	order   int
	entries map[string]entry
	oov     float64
}

// NewNGram creates an empty model of the given order.
func NewNGram(order int) *NGram {
	return &NGram{
		order:   order,
		entries: make(map[string]entry),
		oov:     OOVScore,
	}
}

// Set stores the log probability and back-off weight of an n-gram.
func (m *NGram) Set(words []string, logProb, backoff float64) {
	if len(words) > m.order {
		m.order = len(words)
	}
	m.entries[strings.Join(words, " ")] = entry{logProb: logProb, backoff: backoff}
	if len(words) == 1 && words[0] == Unknown {
		m.oov = logProb
	}
}

// Order returns the n-gram order.
func (m *NGram) Order() int { return m.order }

// BeginState returns the sentence-start context.
func (m *NGram) BeginState() State {
	return NewState([]string{SentenceStart})
}

// Score implements Model.
func (m *NGram) Score(prior State, words []string) (float64, State) {
	ctx := prior.Words()
	total := 0.0
	for _, w := range words {
		total += m.wordProb(ctx, w)
		ctx = m.shrink(append(ctx, w))
	}
	return total, NewState(ctx)
}

// ScoreEnd implements Model.
func (m *NGram) ScoreEnd(prior State) float64 {
	return m.wordProb(prior.Words(), SentenceEnd)
}

// Estimate implements Model.
func (m *NGram) Estimate(words []string) float64 {
	total := 0.0
	var ctx []string
	for _, w := range words {
		total += m.wordProb(ctx, w)
		ctx = m.shrink(append(ctx, w))
	}
	return total
}

// wordProb walks from the longest history down, adding back-off weights of
// the histories that miss.
func (m *NGram) wordProb(ctx []string, w string) float64 {
	if len(ctx) > m.order-1 {
		ctx = ctx[len(ctx)-(m.order-1):]
	}
	acc := 0.0
	for {
		key := w
		if len(ctx) > 0 {
			key = strings.Join(ctx, " ") + " " + w
		}
		if e, ok := m.entries[key]; ok {
			return acc + e.logProb
		}
		if len(ctx) == 0 {
			return acc + m.oov
		}
		if e, ok := m.entries[strings.Join(ctx, " ")]; ok {
			acc += e.backoff
		}
		ctx = ctx[1:]
	}
}

// shrink keeps the longest suffix of ctx, at most order-1 words, that the
// model knows. A missing history has no extensions and a zero back-off, so
// dropping it does not change any later probability.
func (m *NGram) shrink(ctx []string) []string {
	if m.order <= 1 {
		return nil
	}
	if len(ctx) > m.order-1 {
		ctx = ctx[len(ctx)-(m.order-1):]
	}
	for len(ctx) > 0 {
		if _, ok := m.entries[strings.Join(ctx, " ")]; ok {
			break
		}
		ctx = ctx[1:]
	}
	return append([]string(nil), ctx...)
}

// LoadARPA reads a model in ARPA format (plain, .gz or .zst). log10 scores
// are converted to natural logs.
func LoadARPA(path string) (*NGram, error) {
	r, err := util.OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer util.CloseWithErr(r, "arpa")

	m := NewNGram(1)
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 1024*1024)
	scanner.Buffer(buf, 1024*1024)

	section := 0
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		switch {
		case line == `\data\`:
			section = 0
			continue
		case line == `\end\`:
			return m, nil
		case strings.HasPrefix(line, `\`) && strings.HasSuffix(line, "-grams:"):
			n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(line, `\`), "-grams:"))
			if err != nil {
				return nil, errors.Wrapf(err, "%s:%d: section header", path, lineNo)
			}
			section = n
			continue
		}
		if section == 0 {
			// "ngram N=count" lines in \data\
			continue
		}
		parts := strings.Fields(line)
		if len(parts) < section+1 {
			return nil, errors.Errorf("%s:%d: expected %d words", path, lineNo, section)
		}
		prob, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return nil, errors.Wrapf(err, "%s:%d: probability", path, lineNo)
		}
		backoff := 0.0
		if len(parts) > section+1 {
			backoff, err = strconv.ParseFloat(parts[section+1], 64)
			if err != nil {
				return nil, errors.Wrapf(err, "%s:%d: back-off", path, lineNo)
			}
		}
		m.Set(parts[1:section+1], prob*math.Ln10, backoff*math.Ln10)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	return nil, errors.Errorf(`%s: missing \end\ marker`, path)
}
