package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the readmission assistant.
type Config struct {
	Source     SourceConfig     `yaml:"source"`
	Index      IndexConfig      `yaml:"index"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Retrieve   RetrieveConfig   `yaml:"retrieve"`
	Generation GenerationConfig `yaml:"generation"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// SourceConfig describes the document that gets ingested.
type SourceConfig struct {
	Path    string `yaml:"path"`
	Name    string `yaml:"name"`     // Human-readable source label
	DocType string `yaml:"doc_type"` // Document type tag
}

// IndexConfig holds chunking and index storage configuration.
type IndexConfig struct {
	Dir          string   `yaml:"dir"`
	ChunkSize    int      `yaml:"chunk_size"`
	ChunkOverlap int      `yaml:"chunk_overlap"`
	Separators   []string `yaml:"separators"`
	BatchSize    int      `yaml:"batch_size"`
}

// EmbeddingConfig holds embedding configuration.
type EmbeddingConfig struct {
	Provider    string  `yaml:"provider"` // "openai", "local"
	Model       string  `yaml:"model"`    // e.g., "text-embedding-3-large"
	APIKeyEnv   string  `yaml:"api_key_env"`
	BaseURL     string  `yaml:"base_url"`
	Dimension   int     `yaml:"dimension"` // Only used by the local provider
	TimeoutSecs int     `yaml:"timeout_secs"`
	RateLimit   float64 `yaml:"requests_per_second"` // 0 = unthrottled
}

// RetrieveConfig holds retrieval configuration.
type RetrieveConfig struct {
	TopK               int     `yaml:"top_k"`
	MinScore           float64 `yaml:"min_score"`       // Filter results below this score (0 = disabled)
	HistoryQueries     int     `yaml:"history_queries"` // Prior user questions folded into the search query
	AllowModelMismatch bool    `yaml:"allow_model_mismatch"`
	CacheSize          int     `yaml:"cache_size"` // Cached query results per session (0 = disabled)
}

// GenerationConfig holds answer generation configuration.
type GenerationConfig struct {
	Provider     string  `yaml:"provider"` // "openai", "gemini"
	Model        string  `yaml:"model"`
	APIKeyEnv    string  `yaml:"api_key_env"`
	BaseURL      string  `yaml:"base_url"`
	Temperature  float64 `yaml:"temperature"`
	MaxTokens    int     `yaml:"max_tokens"`
	HistoryTurns int     `yaml:"history_turns"`
	TimeoutSecs  int     `yaml:"timeout_secs"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultSeparators are tried coarsest first when splitting text.
var DefaultSeparators = []string{"\n\n", "\n", ". ", " ", ""}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Source: SourceConfig{
			Path:    filepath.Join("knowledge-base", "contracts", "Version1.0_Hospital-Wide_Readmission_Measure_Methodology_Report_7.25.12.pdf"),
			Name:    "CMS Hospital-Wide Readmission Measure",
			DocType: "cms_readmission",
		},
		Index: IndexConfig{
			Dir:          "vector_db_readmissions",
			ChunkSize:    1000,
			ChunkOverlap: 200,
			Separators:   append([]string(nil), DefaultSeparators...),
			BatchSize:    100,
		},
		Embedding: EmbeddingConfig{
			Provider:    "openai",
			Model:       "text-embedding-3-large",
			APIKeyEnv:   "OPENAI_API_KEY",
			Dimension:   512,
			TimeoutSecs: 60,
		},
		Retrieve: RetrieveConfig{
			TopK:           5,
			HistoryQueries: 1,
			CacheSize:      100,
		},
		Generation: GenerationConfig{
			Provider:     "openai",
			Model:        "gpt-4o-mini",
			APIKeyEnv:    "OPENAI_API_KEY",
			Temperature:  0.1,
			MaxTokens:    1024,
			HistoryTurns: 10,
			TimeoutSecs:  120,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if len(cfg.Index.Separators) == 0 {
		cfg.Index.Separators = append([]string(nil), DefaultSeparators...)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for cmsrag.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "cmsrag.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".cmsrag", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Source.Path == "" {
		return fmt.Errorf("source.path is required")
	}
	if c.Index.Dir == "" {
		return fmt.Errorf("index.dir is required")
	}
	if c.Index.ChunkSize <= 0 {
		return fmt.Errorf("index.chunk_size must be positive, got %d", c.Index.ChunkSize)
	}
	if c.Index.ChunkOverlap < 0 || c.Index.ChunkOverlap >= c.Index.ChunkSize {
		return fmt.Errorf("index.chunk_overlap must be in [0, %d), got %d", c.Index.ChunkSize, c.Index.ChunkOverlap)
	}
	if c.Retrieve.TopK <= 0 {
		return fmt.Errorf("retrieve.top_k must be positive, got %d", c.Retrieve.TopK)
	}
	if c.Retrieve.CacheSize < 0 {
		return fmt.Errorf("retrieve.cache_size must not be negative, got %d", c.Retrieve.CacheSize)
	}
	if c.Embedding.Model == "" && c.Embedding.Provider != "local" {
		return fmt.Errorf("embedding.model is required")
	}
	return nil
}

// ResolvePath makes a configured path absolute relative to dir.
func ResolvePath(dir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}
