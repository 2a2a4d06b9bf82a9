package translator

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/teatak/smt/config"
	"github.com/teatak/smt/features"
	"github.com/teatak/smt/util"
)

const testTable = `das ||| the ||| 0.6 0.5
das ||| that ||| 0.05 0.05
kleine ||| small ||| 0.7 0.6
kleine ||| little ||| 0.1 0.1
haus ||| house ||| 0.8 0.7
das kleine ||| the small ||| 0.5 0.5
ist ||| is ||| 0.9 0.8
ﬁsch ||| fish ||| 0.5 0.5
`

const testARPA = `\data\
ngram 1=8
ngram 2=6

\1-grams:
-1.0 </s>
-99 <s> -0.5
-1.2 the -0.3
-1.5 small -0.3
-1.8 little -0.3
-1.5 house -0.3
-1.5 is -0.4
-1.6 that -0.3

\2-grams:
-0.2 <s> the
-0.3 the small
-0.3 small house
-0.1 house is
-0.9 the house
-1.0 <s> that

\end\
`

func testConfig(t *testing.T) config.Config {
	t.Helper()
	dir := t.TempDir()
	tablePath := filepath.Join(dir, "phrase-table.gz")
	w, err := util.CreateWriter(tablePath)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte(testTable)); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	lmPath := filepath.Join(dir, "lm.arpa")
	if err := os.WriteFile(lmPath, []byte(testARPA), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.Models.PhraseTables = []config.PhraseTable{{Path: tablePath, NumScores: 2, Weights: []float64{0.2, 0.2}}}
	cfg.Models.LanguageModels = []config.LanguageModel{{Path: lmPath, Order: 2, Weight: 0.5}}
	cfg.Weights = config.Weights{Distortion: 0.3, WordPenalty: 0, UnknownWord: 1}
	return cfg
}

func newTranslator(t *testing.T, cfg config.Config) *Translator {
	t.Helper()
	tr, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return tr
}

func TestTranslator_Translate(t *testing.T) {
	cfg := testConfig(t)
	cfg.NBest.Size = 3
	tr := newTranslator(t, cfg)

	res := tr.Translate(context.Background(), "das  kleine haus\tist klein")
	if !res.Found || res.Degraded {
		t.Fatalf("result = %+v, want found", res)
	}
	if got, want := res.Text(), "the small house is klein"; got != want {
		t.Errorf("Text() = %q, want %q", got, want)
	}
	if !reflect.DeepEqual(res.Unknown, []string{"klein"}) {
		t.Errorf("Unknown = %v, want [klein]", res.Unknown)
	}
	if got := res.Breakdown[tr.Layout().UnknownIndex()]; got != -100 {
		t.Errorf("unknown feature = %v, want -100", got)
	}

	lines := tr.NBestLines(res)
	if len(lines) != 3 {
		t.Fatalf("NBestLines() = %d lines, want 3", len(lines))
	}
	fields := strings.Split(lines[0], " ||| ")
	if len(fields) != 4 {
		t.Fatalf("n-best line %q has %d fields", lines[0], len(fields))
	}
	if fields[0] != "0" || fields[1] != "the small house is klein" {
		t.Errorf("n-best line = %q", lines[0])
	}
	if !strings.HasPrefix(fields[2], "d: ") || !strings.Contains(fields[2], " lm: ") || !strings.HasSuffix(fields[2], " unk: -100") {
		t.Errorf("feature field = %q", fields[2])
	}
	if fields[3] != features.FormatScore(res.Score) {
		t.Errorf("total = %s, want %s", fields[3], features.FormatScore(res.Score))
	}
	for i := 1; i < len(res.NBest); i++ {
		if res.NBest[i].Score > res.NBest[i-1].Score {
			t.Errorf("n-best entry %d out of order", i)
		}
	}
}

func TestTranslator_Normalization(t *testing.T) {
	tr := newTranslator(t, testConfig(t))

	for _, input := range []string{"ﬁsch", "fisch"} {
		res := tr.Translate(context.Background(), input)
		if !reflect.DeepEqual(res.Words, []string{"fish"}) || len(res.Unknown) != 0 {
			t.Errorf("Translate(%q) = %v unknown %v, want [fish]", input, res.Words, res.Unknown)
		}
	}

	res := tr.Translate(context.Background(), "ｋｌｅｉｎ")
	if !reflect.DeepEqual(res.Words, []string{"ｋｌｅｉｎ"}) || !reflect.DeepEqual(res.Unknown, []string{"ｋｌｅｉｎ"}) {
		t.Errorf("unknown word = %v unknown %v, want it copied as written", res.Words, res.Unknown)
	}
}

func TestTranslator_UnknownPolicies(t *testing.T) {
	cfg := testConfig(t)
	cfg.Search.UnknownWords = "drop"
	res := newTranslator(t, cfg).Translate(context.Background(), "das kleine haus ist klein")
	if got, want := res.Text(), "the small house is"; got != want {
		t.Errorf("drop: Text() = %q, want %q", got, want)
	}

	cfg.Search.UnknownWords = "none"
	cfg.NBest.Size = 5
	tr := newTranslator(t, cfg)
	res = tr.Translate(context.Background(), "das kleine haus ist klein")
	if res.Found || res.Text() != "" || len(tr.NBestLines(res)) != 0 {
		t.Errorf("none: result = %+v, want no translation", res)
	}
}

func TestTranslator_Segmentation(t *testing.T) {
	cfg := testConfig(t)
	cfg.Search.ReportSegmentation = true
	tr := newTranslator(t, cfg)

	res := tr.Translate(context.Background(), "das haus")
	if got, want := tr.OutputLine(res), "the |0-0| house |1-1|"; got != want {
		t.Errorf("OutputLine() = %q, want %q", got, want)
	}
	res = tr.Translate(context.Background(), "das kleine haus")
	if got, want := tr.OutputLine(res), "the small |0-1| house |2-2|"; got != want {
		t.Errorf("OutputLine() = %q, want %q", got, want)
	}
}

func TestTranslator_Degraded(t *testing.T) {
	cfg := testConfig(t)
	cfg.Search.MaxExpansions = 3
	res := newTranslator(t, cfg).Translate(context.Background(), "das kleine haus ist klein")
	if !res.Degraded {
		t.Fatalf("result = %+v, want degraded", res)
	}
	if res.Found {
		t.Error("a partial translation should not be reported as found")
	}
	if res.Text() == "" {
		t.Error("degraded result should still carry the partial output")
	}
}

func TestTranslator_EmptyInput(t *testing.T) {
	tr := newTranslator(t, testConfig(t))
	res := tr.Translate(context.Background(), "   ")
	if !res.Found || res.Text() != "" {
		t.Errorf("result = %+v, want empty translation", res)
	}
}

func TestBatch_Run(t *testing.T) {
	tr := newTranslator(t, testConfig(t))
	batch := tr.NewBatch(3)
	if batch.ID == "" {
		t.Fatal("batch should have an ID")
	}

	lines := []string{"das haus", "", "ist", "das kleine haus"}
	results := batch.Run(context.Background(), lines, 10)

	var got []string
	for i, res := range results {
		if res.ID != 10+i {
			t.Errorf("result %d has ID %d", i, res.ID)
		}
		got = append(got, res.Text())
	}
	if want := []string{"the house", "", "is", "the small house"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Run() = %q, want %q", got, want)
	}
	if !strings.Contains(batch.Summary(0), "4 sentences") {
		t.Errorf("Summary() = %q", batch.Summary(0))
	}
}

func TestNew_MissingModel(t *testing.T) {
	cfg := testConfig(t)
	cfg.Models.PhraseTables[0].Path = filepath.Join(t.TempDir(), "missing.txt")
	if _, err := New(cfg); err == nil || !strings.Contains(err.Error(), "load phrase table") {
		t.Errorf("New() error = %v, want phrase table error", err)
	}

	cfg = testConfig(t)
	cfg.Models.LanguageModels[0].Path = filepath.Join(t.TempDir(), "missing.arpa")
	if _, err := New(cfg); err == nil || !strings.Contains(err.Error(), "load language model") {
		t.Errorf("New() error = %v, want language model error", err)
	}
}

func TestTranslator_WithNBest(t *testing.T) {
	tr := newTranslator(t, testConfig(t))
	sized := tr.WithNBest(2)

	if got := len(sized.Translate(context.Background(), "das kleine haus").NBest); got != 2 {
		t.Errorf("WithNBest(2): %d entries, want 2", got)
	}
	if got := len(tr.Translate(context.Background(), "das kleine haus").NBest); got != 0 {
		t.Errorf("original translator: %d entries, want 0", got)
	}
}
