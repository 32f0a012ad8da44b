package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"conspectus/internal/domain"
)

type Config struct {
	Token        string  `env:"TOKEN,required,notEmpty"`
	AllowedUsers []int64 `env:"ALLOWED_USERS"`
	DBPath       string  `env:"DB_PATH"        envDefault:"conspectus.sqlite"`
	DataDir      string  `env:"DATA_DIR"       envDefault:"data"`
	OpenAIAPIKey string  `env:"OPENAI_API_KEY"`
	OllamaURL    string  `env:"OLLAMA_URL"     envDefault:"http://localhost:11434"`
	DefaultModel string  `env:"DEFAULT_MODEL"  envDefault:"gemma3:12b"`
	MetricsAddr  string  `env:"METRICS_ADDR"`
	SourcesPath  string  `env:"SOURCES_PATH"`
}

func LoadConfig() Config {
	var cfg Config
	env.Must(cfg, env.Parse(&cfg))
	return cfg
}

// SourceConfig describes one supported source. The built-in set covers
// habr, github and infostart; a YAML file may add domain aliases or
// override feed URLs without touching call sites.
type SourceConfig struct {
	Name    string   `yaml:"name"`
	Domains []string `yaml:"domains"`
	FeedURL string   `yaml:"feed_url"`
}

type sourcesFile struct {
	Sources []SourceConfig `yaml:"sources"`
}

// DefaultSources mirrors the fixed domain mapping of the router.
func DefaultSources() []SourceConfig {
	return []SourceConfig{
		{
			Name:    string(domain.SourceHabr),
			Domains: []string{"habr.com"},
			FeedURL: "https://habr.com/ru/rss/articles/",
		},
		{
			Name:    string(domain.SourceGitHub),
			Domains: []string{"github.com"},
		},
		{
			Name:    string(domain.SourceInfostart),
			Domains: []string{"infostart.ru"},
			FeedURL: "https://infostart.ru/journal/rss/",
		},
	}
}

// LoadSources reads the optional YAML override. An empty path returns the
// built-in set.
func LoadSources(path string) ([]SourceConfig, error) {
	if path == "" {
		return DefaultSources(), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sources file: %w", err)
	}

	var f sourcesFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse sources file: %w", err)
	}

	if len(f.Sources) == 0 {
		return DefaultSources(), nil
	}

	for _, s := range f.Sources {
		if _, err := domain.ParseSource(s.Name); err != nil {
			return nil, fmt.Errorf("validate sources file: %w", err)
		}
		if len(s.Domains) == 0 {
			return nil, fmt.Errorf("source %s has no domains", s.Name)
		}
	}

	return f.Sources, nil
}
