package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// CorpusConfig points at the article and query collections.
type CorpusConfig struct {
	Articles     string `yaml:"articles"`
	Queries      string `yaml:"queries"`
	MaxDocuments int    `yaml:"max_documents"`
}

// NormalizerConfig selects the optional stemming step.
type NormalizerConfig struct {
	Stemmer string `yaml:"stemmer"`
}

// CacheConfig controls the persisted IDF statistics.
type CacheConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
}

type RankingConfig struct {
	TopK    int `yaml:"top_k"`
	Workers int `yaml:"workers"`
}

// OutputConfig names the batch result files. TitlesPath is optional.
type OutputConfig struct {
	Path       string `yaml:"path"`
	TitlesPath string `yaml:"titles_path,omitempty"`
}

// InteractiveConfig switches from batch ranking to a query prompt.
type InteractiveConfig struct {
	Enabled bool   `yaml:"enabled"`
	UI      string `yaml:"ui"`
}

// EvaluationConfig enables scoring the batch output against judgements.
type EvaluationConfig struct {
	Qrels  string `yaml:"qrels,omitempty"`
	Scores string `yaml:"scores,omitempty"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type MetricsConfig struct {
	Textfile string `yaml:"textfile,omitempty"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Corpus      CorpusConfig      `yaml:"corpus"`
	Normalizer  NormalizerConfig  `yaml:"normalizer"`
	Cache       CacheConfig       `yaml:"cache"`
	Ranking     RankingConfig     `yaml:"ranking"`
	Output      OutputConfig      `yaml:"output"`
	Interactive InteractiveConfig `yaml:"interactive"`
	Evaluation  EvaluationConfig  `yaml:"evaluation"`
	Logging     LoggingConfig     `yaml:"logging"`
	Metrics     MetricsConfig     `yaml:"metrics"`
}

// CacheDir returns the cache directory, or "" when caching is off.
func (c *AppConfig) CacheDir() string {
	if !c.Cache.Enabled {
		return ""
	}
	return c.Cache.Dir
}

// Validate rejects settings no component can run with.
func (c *AppConfig) Validate() error {
	var errs []error
	if c.Corpus.Articles == "" {
		errs = append(errs, errors.New("corpus.articles is required"))
	}
	if !c.Interactive.Enabled && c.Corpus.Queries == "" {
		errs = append(errs, errors.New("corpus.queries is required in batch mode"))
	}
	if !c.Interactive.Enabled && c.Output.Path == "" {
		errs = append(errs, errors.New("output.path is required in batch mode"))
	}
	if c.Corpus.MaxDocuments < 0 {
		errs = append(errs, fmt.Errorf("corpus.max_documents must not be negative, got %d", c.Corpus.MaxDocuments))
	}
	if c.Ranking.TopK < 1 {
		errs = append(errs, fmt.Errorf("ranking.top_k must be positive, got %d", c.Ranking.TopK))
	}
	switch c.Interactive.UI {
	case "tui", "plain":
	default:
		errs = append(errs, fmt.Errorf("interactive.ui must be tui or plain, got %q", c.Interactive.UI))
	}
	return errors.Join(errs...)
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := defaultConfig()
			return cfg, nil
		}
		return nil, err
	}
	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	applyConfigDefaults(cfg)
	return cfg, nil
}

// LoadDefault tries ./keysearch.yaml first, then ~/.config/keysearch/config.yaml.
// If neither exists, it writes defaults to ~/.config/keysearch/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "keysearch.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// ApplyEnv overrides fields from KEYSEARCH_* variables. lookup is usually
// os.LookupEnv.
func ApplyEnv(cfg *AppConfig, lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"KEYSEARCH_ARTICLES":   &cfg.Corpus.Articles,
		"KEYSEARCH_QUERIES":    &cfg.Corpus.Queries,
		"KEYSEARCH_STEMMER":    &cfg.Normalizer.Stemmer,
		"KEYSEARCH_CACHE_DIR":  &cfg.Cache.Dir,
		"KEYSEARCH_OUTPUT":     &cfg.Output.Path,
		"KEYSEARCH_UI":         &cfg.Interactive.UI,
		"KEYSEARCH_QRELS":      &cfg.Evaluation.Qrels,
		"KEYSEARCH_LOG_LEVEL":  &cfg.Logging.Level,
		"KEYSEARCH_LOG_FORMAT": &cfg.Logging.Format,
		"KEYSEARCH_METRICS":    &cfg.Metrics.Textfile,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}
	ints := map[string]*int{
		"KEYSEARCH_MAX_DOCUMENTS": &cfg.Corpus.MaxDocuments,
		"KEYSEARCH_TOP_K":         &cfg.Ranking.TopK,
		"KEYSEARCH_WORKERS":       &cfg.Ranking.Workers,
	}
	for key, dst := range ints {
		v, ok := lookup(key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = n
	}
	bools := map[string]*bool{
		"KEYSEARCH_CACHE":       &cfg.Cache.Enabled,
		"KEYSEARCH_INTERACTIVE": &cfg.Interactive.Enabled,
	}
	for key, dst := range bools {
		v, ok := lookup(key)
		if !ok {
			continue
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = b
	}
	applyConfigDefaults(cfg)
	return nil
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "keysearch", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{
		Corpus: CorpusConfig{
			Articles:     "data/processed/all_articles.txt",
			Queries:      "data/processed/keysearch.qry",
			MaxDocuments: 100000,
		},
		Normalizer:  NormalizerConfig{Stemmer: "snowball"},
		Cache:       CacheConfig{Enabled: true, Dir: "data/cache"},
		Ranking:     RankingConfig{TopK: 10, Workers: runtime.GOMAXPROCS(0)},
		Output:      OutputConfig{Path: "data/results/ranking_output.txt"},
		Interactive: InteractiveConfig{UI: "tui"},
		Logging:     LoggingConfig{Level: "info", Format: "text"},
	}
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Ranking.TopK == 0 {
		cfg.Ranking.TopK = 10
	}
	if cfg.Ranking.Workers <= 0 {
		cfg.Ranking.Workers = runtime.GOMAXPROCS(0)
	}
	if cfg.Cache.Enabled && cfg.Cache.Dir == "" {
		cfg.Cache.Dir = "data/cache"
	}
	if cfg.Interactive.UI == "" {
		cfg.Interactive.UI = "tui"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
}
