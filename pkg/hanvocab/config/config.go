package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/hanvocab/pkg/hanvocab/internalerr"
	"github.com/cognicore/hanvocab/pkg/hanvocab/stoplist"
)

// Source is a remote file cached locally under Name.
type Source struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// Reports lists output paths. CSV and Markdown are always written; HTML and
// SQLite only when set.
type Reports struct {
	CSV      string `yaml:"csv"`
	Markdown string `yaml:"markdown"`
	HTML     string `yaml:"html"`
	SQLite   string `yaml:"sqlite"`
}

// Log configures the CLI logger.
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Config is the full run configuration.
type Config struct {
	CacheDir    string        `yaml:"cache_dir"`
	HTTPTimeout time.Duration `yaml:"http_timeout"`
	Vocabulary  Source        `yaml:"vocabulary"`
	Stopwords   []Source      `yaml:"stopwords"`
	Reports     Reports       `yaml:"reports"`
	Log         Log           `yaml:"log"`
}

// Default returns the built-in configuration: the o200k_base vocabulary,
// the two jieba reference lists, and reports in the working directory.
func Default() Config {
	return Config{
		CacheDir:    "./downloaded",
		HTTPTimeout: 5 * time.Minute,
		Vocabulary: Source{
			Name: "o200k_base.tiktoken",
			URL:  "https://openaipublic.blob.core.windows.net/encodings/o200k_base.tiktoken",
		},
		Stopwords: []Source{
			{
				Name: "dict.txt.big",
				URL:  "https://raw.githubusercontent.com/fxsjy/jieba/refs/heads/master/extra_dict/dict.txt.big",
			},
			{
				Name: "idf.txt.big",
				URL:  "https://raw.githubusercontent.com/fxsjy/jieba/refs/heads/master/extra_dict/idf.txt.big",
			},
		},
		Reports: Reports{
			CSV:      "./o200k_base_filtered.csv",
			Markdown: "result.md",
		},
		Log: Log{Level: "info", Format: "console"},
	}
}

// Load reads a YAML file over the defaults. Keys absent from the file keep
// their default value; a stopwords list in the file replaces the default one.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that every required field is set and that source names
// are usable as cache file names.
func (c Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.CacheDir) == "" {
		problems = append(problems, "cache_dir is required")
	}
	if c.HTTPTimeout < 0 {
		problems = append(problems, "http_timeout must not be negative")
	}
	problems = append(problems, checkSource("vocabulary", c.Vocabulary)...)
	if len(c.Stopwords) == 0 {
		problems = append(problems, "at least one stopwords source is required")
	}
	seen := make(map[string]bool, len(c.Stopwords))
	for i, s := range c.Stopwords {
		problems = append(problems, checkSource(fmt.Sprintf("stopwords[%d]", i), s)...)
		if seen[s.Name] || s.Name == c.Vocabulary.Name {
			problems = append(problems, fmt.Sprintf("stopwords[%d]: duplicate name %q", i, s.Name))
		}
		seen[s.Name] = true
	}
	if c.Reports.CSV == "" {
		problems = append(problems, "reports.csv is required")
	}
	if c.Reports.Markdown == "" {
		problems = append(problems, "reports.markdown is required")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", internalerr.ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

func checkSource(field string, s Source) []string {
	var problems []string
	if s.Name == "" {
		problems = append(problems, field+".name is required")
	} else if s.Name != filepath.Base(s.Name) || s.Name == "." || s.Name == ".." {
		problems = append(problems, fmt.Sprintf("%s.name %q must be a plain file name", field, s.Name))
	}
	if s.URL == "" {
		problems = append(problems, field+".url is required")
	}
	return problems
}

// StopwordSources converts the configured references for the stoplist
// repository.
func (c Config) StopwordSources() []stoplist.Source {
	out := make([]stoplist.Source, len(c.Stopwords))
	for i, s := range c.Stopwords {
		out[i] = stoplist.Source{Name: s.Name, URL: s.URL}
	}
	return out
}
