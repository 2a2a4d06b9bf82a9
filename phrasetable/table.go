// Package phrasetable loads phrase translation tables in the Moses text
// format and answers exact source-phrase lookups.
package phrasetable

import (
	"bufio"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/teatak/smt/util"
)

// LowestScore floors log-probabilities so a zero probability stays finite.
const LowestScore = -100.0

// Separator splits the fields of a phrase-table line.
const Separator = " ||| "

// TargetPhrase is one candidate translation of a source phrase.
type TargetPhrase struct {
	Words     []string
	Scores    []float64 // natural log, floored at LowestScore
	Alignment string
}

// Table holds source phrases and their scored translations.
type Table struct {
	Name         string
	NumScores    int
	MaxPhraseLen int
	Entries      map[string][]TargetPhrase
}

// NewTable creates an empty table expecting numScores scores per entry.
// Zero means "take the count from the first line".
func NewTable(name string, numScores int) *Table {
	return &Table{
		Name:      name,
		NumScores: numScores,
		Entries:   make(map[string][]TargetPhrase),
	}
}

// Load reads entries from path (plain, .gz or .zst).
// Line format: source ||| target ||| p1 p2 ... [||| alignment]
// Scores are probabilities and are stored as floored natural logs.
// When limit > 0 only the best limit translations per source phrase are
// kept, ranked by weights.
func (t *Table) Load(path string, weights []float64, limit int) error {
	r, err := util.OpenReader(path)
	if err != nil {
		return err
	}
	defer util.CloseWithErr(r, "phrase table")

	scanner := bufio.NewScanner(r)
	buf := make([]byte, 1024*1024)
	scanner.Buffer(buf, 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		source, tp, err := ParseLine(line)
		if err != nil {
			return errors.Wrapf(err, "%s:%d", path, lineNo)
		}
		if t.NumScores == 0 {
			t.NumScores = len(tp.Scores)
		}
		if len(tp.Scores) != t.NumScores {
			return errors.Errorf("%s:%d: expected %d scores, got %d", path, lineNo, t.NumScores, len(tp.Scores))
		}
		t.Add(source, tp)
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "read %s", path)
	}
	t.Finalize(weights, limit)
	return nil
}

// ParseLine splits one phrase-table line into its source key and entry.
// The source side is keyed with util.Tokenize, like decoder input; target
// words are kept as written.
func ParseLine(line string) (string, TargetPhrase, error) {
	parts := strings.Split(line, Separator)
	if len(parts) < 3 {
		return "", TargetPhrase{}, errors.Errorf("malformed entry %q", line)
	}
	source := strings.Join(util.Tokenize(parts[0]), " ")
	if source == "" {
		return "", TargetPhrase{}, errors.Errorf("empty source phrase in %q", line)
	}
	tp := TargetPhrase{Words: strings.Fields(parts[1])}
	for _, f := range strings.Fields(parts[2]) {
		p, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return "", TargetPhrase{}, errors.Wrapf(err, "score %q", f)
		}
		tp.Scores = append(tp.Scores, FloorLog(p))
	}
	if len(parts) > 3 {
		tp.Alignment = strings.TrimSpace(parts[3])
	}
	return source, tp, nil
}

// FloorLog converts a probability to a natural log floored at LowestScore.
func FloorLog(p float64) float64 {
	if p <= 0 {
		return LowestScore
	}
	return math.Max(math.Log(p), LowestScore)
}

// Add inserts a translation for the space-joined source phrase.
func (t *Table) Add(source string, tp TargetPhrase) {
	t.Entries[source] = append(t.Entries[source], tp)
	if n := len(strings.Fields(source)); n > t.MaxPhraseLen {
		t.MaxPhraseLen = n
	}
}

// Finalize orders every translation list by weighted score, best first,
// and applies the per-phrase limit when limit > 0.
func (t *Table) Finalize(weights []float64, limit int) {
	for src, list := range t.Entries {
		sort.SliceStable(list, func(i, j int) bool {
			return weighted(list[i].Scores, weights) > weighted(list[j].Scores, weights)
		})
		if limit > 0 && len(list) > limit {
			list = list[:limit]
		}
		t.Entries[src] = list
	}
}

func weighted(scores, weights []float64) float64 {
	total := 0.0
	for i, s := range scores {
		if i < len(weights) {
			total += s * weights[i]
		}
	}
	return total
}

// Lookup returns the translations of the exact phrase words.
// The returned slice is shared and must not be modified.
func (t *Table) Lookup(words []string) []TargetPhrase {
	if len(words) == 0 || len(words) > t.MaxPhraseLen {
		return nil
	}
	return t.Entries[strings.Join(words, " ")]
}

// Contains checks if a source phrase exists in the table.
func (t *Table) Contains(source string) bool {
	_, ok := t.Entries[source]
	return ok
}
