package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmp, err := os.CreateTemp(t.TempDir(), "config-*.yaml")
	if err != nil {
		t.Fatalf("create temp file: %v", err)
	}
	if _, err := tmp.WriteString(content); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	if err := tmp.Close(); err != nil {
		t.Fatalf("close temp file: %v", err)
	}
	return tmp.Name()
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "models:\n  phrase_tables:\n    - path: model/phrase-table.gz\n      weights: [0.2, 0.3]\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Search.StackSize != stackSizeDefault {
		t.Fatalf("unexpected stack size: %d", cfg.Search.StackSize)
	}
	if cfg.Search.DistortionLimit != distortionLimitDefault {
		t.Fatalf("unexpected distortion limit: %d", cfg.Search.DistortionLimit)
	}
	if cfg.Search.BeamThreshold != beamThresholdDefault {
		t.Fatalf("unexpected beam threshold: %v", cfg.Search.BeamThreshold)
	}
	if cfg.Search.UnknownWords != "copy" || cfg.Search.DistortionModel != "distance" {
		t.Fatalf("unexpected search defaults: %+v", cfg.Search)
	}
	if cfg.NBest.Factor != nbestFactorDefault {
		t.Fatalf("unexpected nbest factor: %d", cfg.NBest.Factor)
	}
	if cfg.Workers != 1 {
		t.Fatalf("unexpected workers: %d", cfg.Workers)
	}
	pt := cfg.Models.PhraseTables[0]
	if pt.NumScores != 2 {
		t.Fatalf("num_scores should follow the weights, got %d", pt.NumScores)
	}
	if want := filepath.Join(filepath.Dir(path), "model/phrase-table.gz"); pt.Path != want {
		t.Fatalf("unexpected table path: %s, want %s", pt.Path, want)
	}
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `
models:
  phrase_tables:
    - path: /abs/pt.txt
      num_scores: 1
      weights: [1]
      table_limit: 20
  language_models:
    - path: lm.arpa
      order: 3
      weight: 0.5
weights:
  distortion: 0
  word_penalty: 0.5
search:
  stack_size: 10
  distortion_limit: -1
  unknown_words: drop
  distortion_model: early
  max_expansions: 1000
nbest:
  size: 100
  distinct: true
  factor: 0
workers: 4
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Models.PhraseTables[0].Path != "/abs/pt.txt" || cfg.Models.PhraseTables[0].TableLimit != 20 {
		t.Fatalf("unexpected phrase table: %+v", cfg.Models.PhraseTables[0])
	}
	if lm := cfg.Models.LanguageModels[0]; lm.Order != 3 || lm.Weight != 0.5 || !strings.HasSuffix(lm.Path, "lm.arpa") {
		t.Fatalf("unexpected language model: %+v", lm)
	}
	if cfg.Weights.Distortion != 0 || cfg.Weights.WordPenalty != 0.5 {
		t.Fatalf("unexpected weights: %+v", cfg.Weights)
	}
	if cfg.Search.StackSize != 10 || cfg.Search.DistortionLimit != -1 || cfg.Search.MaxExpansions != 1000 {
		t.Fatalf("unexpected search: %+v", cfg.Search)
	}
	if cfg.Search.UnknownWords != "drop" || cfg.Search.DistortionModel != "early" {
		t.Fatalf("unexpected policies: %+v", cfg.Search)
	}
	if cfg.NBest.Size != 100 || !cfg.NBest.Distinct || cfg.NBest.Factor != 0 {
		t.Fatalf("unexpected nbest: %+v", cfg.NBest)
	}
	if cfg.Workers != 4 {
		t.Fatalf("unexpected workers: %d", cfg.Workers)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"no tables", "workers: 2\n", "no phrase table"},
		{"weights mismatch", "models:\n  phrase_tables:\n    - path: pt\n      num_scores: 3\n      weights: [1]\n", "1 weights for 3 scores"},
		{"bad policy", "models:\n  phrase_tables:\n    - path: pt\nsearch:\n  unknown_words: keep\n", "unknown_words"},
		{"bad yaml", "models: [", "parse config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestDump(t *testing.T) {
	cfg := Default()
	out, err := cfg.Dump()
	if err != nil {
		t.Fatalf("dump config: %v", err)
	}
	if !strings.Contains(out, "stack_size: 100") {
		t.Fatalf("dump missing stack size:\n%s", out)
	}
}
