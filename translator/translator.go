// Package translator wires configuration, models and the decoder into a
// sentence-level translation service.
package translator

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/teatak/smt/config"
	"github.com/teatak/smt/decoder"
	"github.com/teatak/smt/features"
	"github.com/teatak/smt/lm"
	"github.com/teatak/smt/options"
	"github.com/teatak/smt/phrasetable"
	"github.com/teatak/smt/util"
)

// Translator holds read-only models shared by every sentence. It is safe
// for concurrent use.
type Translator struct {
	cfg        config.Config
	layout     *features.Layout
	weights    features.Weights
	params     *options.Params
	search     decoder.SearchParams
	distortion decoder.DistortionModel
	trackEnd   bool
}

// Candidate is one entry of an n-best list.
type Candidate struct {
	Words     []string
	Score     float64
	Breakdown features.Breakdown
	Segments  []decoder.Segment
}

// Result is the translation of one sentence.
type Result struct {
	ID        int
	Source    []string
	Words     []string
	Found     bool
	Degraded  bool
	Score     float64
	Breakdown features.Breakdown
	Segments  []decoder.Segment
	Unknown   []string
	NBest     []Candidate
	Stats     decoder.Stats
}

// New loads every model named in cfg. Load failures are returned wrapped
// with the offending file.
func New(cfg config.Config) (*Translator, error) {
	var tables []*phrasetable.Table
	for i, pt := range cfg.Models.PhraseTables {
		start := time.Now()
		table := phrasetable.NewTable(fmt.Sprintf("tm%d", i), pt.NumScores)
		if err := table.Load(pt.Path, pt.Weights, pt.TableLimit); err != nil {
			return nil, errors.Wrapf(err, "load phrase table %s", pt.Path)
		}
		util.Infof("loaded phrase table %s: %d source phrases, %d scores (%v)",
			filepath.Base(pt.Path), len(table.Entries), table.NumScores, time.Since(start))
		tables = append(tables, table)
	}

	var models []lm.Model
	for _, m := range cfg.Models.LanguageModels {
		start := time.Now()
		model, err := lm.LoadARPA(m.Path)
		if err != nil {
			return nil, errors.Wrapf(err, "load language model %s", m.Path)
		}
		if m.Order > 0 && m.Order != model.Order() {
			util.Warnf("language model %s: configured order %d, file has %d", m.Path, m.Order, model.Order())
		}
		util.Infof("loaded %d-gram language model %s (%v)", model.Order(), filepath.Base(m.Path), time.Since(start))
		models = append(models, model)
	}
	return NewFromModels(cfg, tables, models)
}

// NewFromModels builds a translator around models that are already loaded.
func NewFromModels(cfg config.Config, tables []*phrasetable.Table, models []lm.Model) (*Translator, error) {
	if len(tables) == 0 {
		return nil, errors.New("no phrase table")
	}
	unknown, err := options.ParseUnknownPolicy(cfg.Search.UnknownWords)
	if err != nil {
		return nil, err
	}
	distortion, err := decoder.ParseDistortionModel(cfg.Search.DistortionModel)
	if err != nil {
		return nil, err
	}

	tableScores := make([]int, len(tables))
	tableWeights := make([][]float64, len(tables))
	for i, table := range tables {
		tableScores[i] = table.NumScores
		if i < len(cfg.Models.PhraseTables) {
			tableWeights[i] = cfg.Models.PhraseTables[i].Weights
		}
		if len(tableWeights[i]) != table.NumScores {
			util.Warnf("phrase table %s: %d weights for %d scores", table.Name, len(tableWeights[i]), table.NumScores)
		}
	}
	lmWeights := make([]float64, len(models))
	for i := range models {
		if i < len(cfg.Models.LanguageModels) {
			lmWeights[i] = cfg.Models.LanguageModels[i].Weight
		}
	}

	layout := features.NewLayout(len(models), tableScores)
	weights := features.NewWeights(layout, cfg.Weights.Distortion, lmWeights, cfg.Weights.WordPenalty, tableWeights, cfg.Weights.UnknownWord)

	return &Translator{
		cfg:     cfg,
		layout:  layout,
		weights: weights,
		params: &options.Params{
			Layout:       layout,
			Weights:      weights,
			Tables:       tables,
			LMs:          models,
			MaxPhraseLen: cfg.Search.MaxPhraseLength,
			Unknown:      unknown,
		},
		search: decoder.SearchParams{
			StackSize:     cfg.Search.StackSize,
			BeamThreshold: cfg.Search.BeamThreshold,
			MaxDistortion: cfg.Search.DistortionLimit,
			MaxExpansions: cfg.Search.MaxExpansions,
		},
		distortion: distortion,
		trackEnd:   weights[layout.DistortionIndex()] != 0 || cfg.Search.DistortionLimit >= 0,
	}, nil
}

// Config returns the configuration the translator was built with.
func (t *Translator) Config() config.Config { return t.cfg }

// WithNBest returns a translator sharing t's models that extracts n-best
// lists of the given size.
func (t *Translator) WithNBest(size int) *Translator {
	c := *t
	c.cfg.NBest.Size = size
	return &c
}

// Layout returns the feature layout used in score breakdowns.
func (t *Translator) Layout() *features.Layout { return t.layout }

// Translate splits text on whitespace and translates it.
func (t *Translator) Translate(ctx context.Context, text string) Result {
	return t.TranslateWords(ctx, strings.Fields(text))
}

// TranslateWords decodes one tokenized sentence. Phrase lookups use the
// normalized form of each word; unknown words are copied as written. A
// sentence without any complete translation yields a result with Found
// unset, never an error.
func (t *Translator) TranslateWords(ctx context.Context, tokens []string) Result {
	surface, words := util.NormalizeTokens(tokens)
	res := Result{Source: surface}
	if len(words) == 0 {
		res.Found = true
		return res
	}
	if t.cfg.Search.TimeoutMs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(t.cfg.Search.TimeoutMs)*time.Millisecond)
		defer cancel()
	}

	opts := options.CreateForSurface(words, surface, t.params)
	sc := &decoder.ScoreContext{
		Layout:     t.layout,
		Weights:    t.weights,
		LMs:        t.params.LMs,
		Distortion: t.distortion,
		Options:    opts,
		TrackEnd:   t.trackEnd,
	}
	m := decoder.NewManager(opts, sc, t.search)
	out := m.ProcessSentence(ctx)
	res.Stats = m.Stats()
	res.Found = out.Found
	res.Degraded = out.Degraded
	util.Debugf("decoded %d words with %d options: %s", len(words), opts.Len(), res.Stats)

	if out.Best == nil {
		return res
	}
	res.Words = out.Best.OutputWords()
	res.Score = out.Best.TotalScore()
	res.Breakdown = out.Best.Breakdown()
	res.Segments = out.Best.Segments()
	for h := out.Best; h.Prev() != nil; h = h.Prev() {
		if h.Option().Unknown {
			res.Unknown = append([]string{surface[h.SourceRange().Start]}, res.Unknown...)
		}
	}

	if t.cfg.NBest.Size > 0 && out.Found && !out.Degraded {
		for _, p := range m.CalcNBest(t.cfg.NBest.Size, t.cfg.NBest.Distinct, t.cfg.NBest.Factor) {
			res.NBest = append(res.NBest, Candidate{
				Words:     p.OutputWords(),
				Score:     p.TotalScore(),
				Breakdown: p.Breakdown(),
				Segments:  p.Segments(),
			})
		}
	}
	return res
}
