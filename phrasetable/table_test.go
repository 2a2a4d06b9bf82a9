package phrasetable

import (
	"math"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

const sampleTable = `das ||| the ||| 0.4 0.5
das ||| that ||| 0.6 0.1
das ist ||| it is ||| 0.8 0.8 ||| 0-0 1-1
haus ||| house ||| 1 0
`

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestTable_Load(t *testing.T) {
	path := writeTemp(t, "phrase-table", sampleTable)

	table := NewTable("tm", 0)
	if err := table.Load(path, []float64{1, 0}, 0); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if table.NumScores != 2 {
		t.Errorf("NumScores = %d, want 2", table.NumScores)
	}
	if table.MaxPhraseLen != 2 {
		t.Errorf("MaxPhraseLen = %d, want 2", table.MaxPhraseLen)
	}

	got := table.Lookup([]string{"das"})
	if len(got) != 2 || got[0].Words[0] != "that" {
		t.Fatalf("Lookup(das) = %+v, want that first", got)
	}
	if math.Abs(got[0].Scores[0]-math.Log(0.6)) > 1e-12 {
		t.Errorf("score = %v, want ln(0.6)", got[0].Scores[0])
	}

	pair := table.Lookup([]string{"das", "ist"})
	if len(pair) != 1 || !reflect.DeepEqual(pair[0].Words, []string{"it", "is"}) || pair[0].Alignment != "0-0 1-1" {
		t.Errorf("Lookup(das ist) = %+v", pair)
	}
	if zero := table.Lookup([]string{"haus"})[0].Scores[1]; zero != LowestScore {
		t.Errorf("zero probability = %v, want %v", zero, LowestScore)
	}
	if table.Lookup([]string{"das", "ist", "ein"}) != nil {
		t.Errorf("lookup longer than MaxPhraseLen should be nil")
	}
}

func TestTable_LoadLimit(t *testing.T) {
	path := writeTemp(t, "phrase-table", sampleTable)
	table := NewTable("tm", 2)
	if err := table.Load(path, []float64{0, 1}, 1); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	got := table.Lookup([]string{"das"})
	if len(got) != 1 || got[0].Words[0] != "the" {
		t.Errorf("limited Lookup(das) = %+v, want only the", got)
	}
}

func TestTable_LoadNormalizesSource(t *testing.T) {
	path := writeTemp(t, "phrase-table", "ﬁsh ||| Fisch ||| 0.5\nＤＡＳ  ｈａｕｓ ||| the house ||| 0.5\n")
	table := NewTable("tm", 0)
	if err := table.Load(path, []float64{1}, 0); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	got := table.Lookup([]string{"fish"})
	if len(got) != 1 || !reflect.DeepEqual(got[0].Words, []string{"Fisch"}) {
		t.Errorf("Lookup(fish) = %+v, want Fisch", got)
	}
	if !table.Contains("DAS haus") {
		t.Errorf("full-width source not keyed as %q", "DAS haus")
	}
}

func TestTable_LoadScoreCountMismatch(t *testing.T) {
	path := writeTemp(t, "phrase-table", "a ||| b ||| 0.5\n")
	table := NewTable("tm", 2)
	if err := table.Load(path, nil, 0); err == nil {
		t.Errorf("expected error for wrong score count")
	}
}

func TestFilter(t *testing.T) {
	input := writeTemp(t, "input.txt", "das ist\n")
	tablePath := writeTemp(t, "phrase-table", sampleTable)
	out := filepath.Join(t.TempDir(), "filtered.gz")

	kept, seen, err := Filter(input, tablePath, out, 3)
	if err != nil {
		t.Fatalf("Filter() error = %v", err)
	}
	if kept != 3 || seen != 4 {
		t.Errorf("Filter() kept %d of %d, want 3 of 4", kept, seen)
	}

	filtered := NewTable("tm", 2)
	if err := filtered.Load(out, nil, 0); err != nil {
		t.Fatalf("Load(filtered) error = %v", err)
	}
	if filtered.Contains("haus") || !filtered.Contains("das ist") {
		t.Errorf("unexpected filtered entries: %v", filtered.Entries)
	}
}
