package config

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config captures the models, weights and search options of the decoder.
type Config struct {
	Models  Models  `yaml:"models"`
	Weights Weights `yaml:"weights"`
	Search  Search  `yaml:"search"`
	NBest   NBest   `yaml:"nbest"`
	Workers int     `yaml:"workers"`
	Logging Logging `yaml:"logging"`
	Server  Server  `yaml:"server"`
}

// Models lists the phrase tables and language models to load.
type Models struct {
	PhraseTables   []PhraseTable   `yaml:"phrase_tables"`
	LanguageModels []LanguageModel `yaml:"language_models"`
}

// PhraseTable describes one phrase table file.
type PhraseTable struct {
	Path      string    `yaml:"path"`
	NumScores int       `yaml:"num_scores"`
	Weights   []float64 `yaml:"weights"`
	// TableLimit keeps the best N translations per source phrase, 0 keeps all.
	TableLimit int `yaml:"table_limit"`
}

// LanguageModel describes one ARPA language model.
type LanguageModel struct {
	Path   string  `yaml:"path"`
	Order  int     `yaml:"order"`
	Weight float64 `yaml:"weight"`
}

// Weights holds the weights of the single-valued features.
type Weights struct {
	Distortion  float64 `yaml:"distortion"`
	WordPenalty float64 `yaml:"word_penalty"`
	UnknownWord float64 `yaml:"unknown_word"`
}

// Search controls the beam search.
type Search struct {
	StackSize     int     `yaml:"stack_size"`
	BeamThreshold float64 `yaml:"beam_threshold"`
	// DistortionLimit bounds reordering jumps; -1 allows any reordering.
	DistortionLimit    int    `yaml:"distortion_limit"`
	MaxPhraseLength    int    `yaml:"max_phrase_length"`
	UnknownWords       string `yaml:"unknown_words"`
	DistortionModel    string `yaml:"distortion_model"`
	MaxExpansions      int    `yaml:"max_expansions"`
	TimeoutMs          int    `yaml:"timeout_ms"`
	ReportSegmentation bool   `yaml:"report_segmentation"`
}

// NBest controls n-best list output.
type NBest struct {
	Size     int    `yaml:"size"`
	Distinct bool   `yaml:"distinct"`
	Factor   int    `yaml:"factor"`
	File     string `yaml:"file"`
}

// Logging controls log output.
type Logging struct {
	Verbose bool   `yaml:"verbose"`
	LogFile string `yaml:"log_file"`
}

// Server controls the HTTP service.
type Server struct {
	Addr            string `yaml:"addr"`
	CacheTTLSeconds int    `yaml:"cache_ttl_seconds"`
}

// Load reads configuration from a YAML file. Relative model paths are
// resolved against the directory of the file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "read config")
	}
	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrapf(err, "parse config %s", path)
	}
	normalizeConfig(&cfg)
	resolvePaths(&cfg, filepath.Dir(path))
	if err := cfg.Validate(); err != nil {
		return Config{}, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

// Default returns the built-in configuration without any models.
func Default() Config {
	cfg := defaultConfig()
	normalizeConfig(&cfg)
	return cfg
}

// Validate checks that the model list is usable.
func (c Config) Validate() error {
	if len(c.Models.PhraseTables) == 0 {
		return errors.New("no phrase table configured")
	}
	for i, pt := range c.Models.PhraseTables {
		if pt.Path == "" {
			return errors.Errorf("phrase table %d: missing path", i)
		}
		if pt.NumScores > 0 && len(pt.Weights) != pt.NumScores {
			return errors.Errorf("phrase table %s: %d weights for %d scores", pt.Path, len(pt.Weights), pt.NumScores)
		}
	}
	for i, m := range c.Models.LanguageModels {
		if m.Path == "" {
			return errors.Errorf("language model %d: missing path", i)
		}
	}
	switch c.Search.UnknownWords {
	case "copy", "drop", "none":
	default:
		return errors.Errorf("unknown_words must be copy, drop or none, got %q", c.Search.UnknownWords)
	}
	switch c.Search.DistortionModel {
	case "distance", "early":
	default:
		return errors.Errorf("distortion_model must be distance or early, got %q", c.Search.DistortionModel)
	}
	return nil
}

// Dump renders the configuration as YAML.
func (c Config) Dump() (string, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return "", errors.Wrap(err, "marshal config")
	}
	return string(data), nil
}

const (
	stackSizeDefault       = 100
	beamThresholdDefault   = 0.00001
	distortionLimitDefault = 6
	maxPhraseLenDefault    = 20
	nbestFactorDefault     = 20
	cacheTTLDefault        = 300
)

func normalizeConfig(cfg *Config) {
	if cfg.Search.StackSize <= 0 {
		cfg.Search.StackSize = stackSizeDefault
	}
	if cfg.Search.BeamThreshold < 0 || cfg.Search.BeamThreshold > 1 {
		cfg.Search.BeamThreshold = beamThresholdDefault
	}
	if cfg.Search.DistortionLimit < -1 {
		cfg.Search.DistortionLimit = -1
	}
	if cfg.Search.MaxPhraseLength <= 0 {
		cfg.Search.MaxPhraseLength = maxPhraseLenDefault
	}
	if cfg.Search.UnknownWords == "" {
		cfg.Search.UnknownWords = "copy"
	}
	if cfg.Search.DistortionModel == "" {
		cfg.Search.DistortionModel = "distance"
	}
	if cfg.Search.MaxExpansions < 0 {
		cfg.Search.MaxExpansions = 0
	}
	if cfg.Search.TimeoutMs < 0 {
		cfg.Search.TimeoutMs = 0
	}
	if cfg.NBest.Size < 0 {
		cfg.NBest.Size = 0
	}
	if cfg.NBest.Factor < 0 {
		cfg.NBest.Factor = nbestFactorDefault
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Server.CacheTTLSeconds < 0 {
		cfg.Server.CacheTTLSeconds = 0
	}
	for i := range cfg.Models.PhraseTables {
		pt := &cfg.Models.PhraseTables[i]
		if pt.NumScores <= 0 {
			pt.NumScores = len(pt.Weights)
		}
		if pt.TableLimit < 0 {
			pt.TableLimit = 0
		}
	}
	for i := range cfg.Models.LanguageModels {
		if cfg.Models.LanguageModels[i].Order < 0 {
			cfg.Models.LanguageModels[i].Order = 0
		}
	}
}

func resolvePaths(cfg *Config, dir string) {
	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(dir, p)
	}
	for i := range cfg.Models.PhraseTables {
		cfg.Models.PhraseTables[i].Path = resolve(cfg.Models.PhraseTables[i].Path)
	}
	for i := range cfg.Models.LanguageModels {
		cfg.Models.LanguageModels[i].Path = resolve(cfg.Models.LanguageModels[i].Path)
	}
}

func defaultConfig() Config {
	return Config{
		Weights: Weights{
			Distortion:  0.3,
			WordPenalty: -1,
			UnknownWord: 1,
		},
		Search: Search{
			StackSize:       stackSizeDefault,
			BeamThreshold:   beamThresholdDefault,
			DistortionLimit: distortionLimitDefault,
			MaxPhraseLength: maxPhraseLenDefault,
			UnknownWords:    "copy",
			DistortionModel: "distance",
		},
		NBest: NBest{
			Factor: nbestFactorDefault,
		},
		Workers: 1,
		Server: Server{
			Addr:            ":8080",
			CacheTTLSeconds: cacheTTLDefault,
		},
	}
}
