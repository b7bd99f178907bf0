package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the support assistant.
type Config struct {
	Index     IndexConfig     `yaml:"index"`
	Store     StoreConfig     `yaml:"store"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Retrieve  RetrieveConfig  `yaml:"retrieve"`
	LLM       LLMConfig       `yaml:"llm"`
	Session   SessionConfig   `yaml:"session"`
	Tickets   TicketsConfig   `yaml:"tickets"`
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// IndexConfig controls document discovery and chunking.
type IndexConfig struct {
	DataFolder   string   `yaml:"data_folder"`
	Includes     []string `yaml:"includes"`
	Excludes     []string `yaml:"excludes"`
	ChunkSize    int      `yaml:"chunk_size"`    // characters
	ChunkOverlap int      `yaml:"chunk_overlap"` // characters
	Collection   string   `yaml:"collection"`
}

// StoreConfig selects the vector store backend.
type StoreConfig struct {
	Backend     string `yaml:"backend"` // "bolt", "memory", "postgres"
	Path        string `yaml:"path"`
	DatabaseURL string `yaml:"database_url"`
}

// EmbeddingConfig holds embedding configuration.
type EmbeddingConfig struct {
	Provider  string `yaml:"provider"` // "hashing", "openai", "ollama"
	Model     string `yaml:"model"`
	APIKeyEnv string `yaml:"api_key_env"` // Environment variable for API key
	BaseURL   string `yaml:"base_url"`
	Dimension int    `yaml:"dimension"` // hashing provider only
	BatchSize int    `yaml:"batch_size"`
}

// RetrieveConfig holds retrieval configuration.
type RetrieveConfig struct {
	TopK            int     `yaml:"top_k"`
	CacheSize       int     `yaml:"cache_size"` // 0 disables the query cache
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
	MMRLambda       float64 `yaml:"mmr_lambda"`
	DedupJaccard    float64 `yaml:"dedup_jaccard"`
}

// LLMConfig describes the OpenAI-compatible chat endpoint.
type LLMConfig struct {
	BaseURL        string  `yaml:"base_url"`
	Model          string  `yaml:"model"`
	APIKeyEnv      string  `yaml:"api_key_env"`
	Temperature    float64 `yaml:"temperature"`
	MaxTokens      int     `yaml:"max_tokens"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`

	// APIKey is resolved from APIKeyEnv at load time and never written out.
	APIKey string `yaml:"-"`
}

type SessionConfig struct {
	MaxHistory     int `yaml:"max_history"` // turns, evicted in pairs
	TimeoutMinutes int `yaml:"timeout_minutes"`
}

type TicketsConfig struct {
	Backend string `yaml:"backend"` // "memory", "sqlite"
	Path    string `yaml:"path"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	File    string `yaml:"file"`
	Console bool   `yaml:"console"`
	JSON    bool   `yaml:"json"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Index: IndexConfig{
			DataFolder:   "./data",
			Includes:     []string{"**/*.{txt,md,pdf}"},
			Excludes:     []string{"**/.*", "**/.*/**"},
			ChunkSize:    1000,
			ChunkOverlap: 200,
			Collection:   "customer_support_kb",
		},
		Store: StoreConfig{
			Backend: "bolt",
			Path:    "./kb_index/index.db",
		},
		Embedding: EmbeddingConfig{
			Provider:  "hashing",
			Model:     "text-embedding-3-small",
			APIKeyEnv: "OPENAI_API_KEY",
			Dimension: 512,
			BatchSize: 64,
		},
		Retrieve: RetrieveConfig{
			TopK:            5,
			CacheSize:       100,
			CacheTTLSeconds: 300,
			MMRLambda:       0.7,
			DedupJaccard:    0.8,
		},
		LLM: LLMConfig{
			BaseURL:        "https://api.groq.com/openai/v1",
			Model:          "openai/gpt-oss-120b",
			APIKeyEnv:      "GROQ_API_KEY",
			Temperature:    0,
			MaxTokens:      1024,
			TimeoutSeconds: 30,
		},
		Session: SessionConfig{
			MaxHistory:     50,
			TimeoutMinutes: 30,
		},
		Tickets: TicketsConfig{
			Backend: "memory",
			Path:    "./kb_index/tickets.db",
		},
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8000,
		},
		Logging: LoggingConfig{
			Level:   "info",
			File:    "logs/supportagent.log",
			Console: true,
		},
	}
}

// Load loads configuration from a YAML file and applies environment
// overrides. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	cfg.ApplyEnv()
	return cfg, nil
}

// LoadFromDir loads support.yaml or .support/config.yaml from dir, after
// reading dir/.env into the environment if present.
func LoadFromDir(dir string) (*Config, error) {
	envPath := filepath.Join(dir, ".env")
	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			return nil, fmt.Errorf("load %s: %w", envPath, err)
		}
	}

	for _, path := range []string{
		filepath.Join(dir, "support.yaml"),
		filepath.Join(dir, ".support", "config.yaml"),
	} {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}

	cfg := DefaultConfig()
	cfg.ApplyEnv()
	return cfg, nil
}

// ApplyEnv overrides settings from the environment. Existing variables win
// over the YAML file.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("GROQ_MODEL"); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv("DATA_FOLDER"); v != "" {
		c.Index.DataFolder = v
	}
	if v := os.Getenv("KB_INDEX_PATH"); v != "" {
		c.Store.Path = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Store.DatabaseURL = v
	}
	if v := os.Getenv("API_HOST"); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv("API_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if c.LLM.APIKeyEnv != "" {
		c.LLM.APIKey = os.Getenv(c.LLM.APIKeyEnv)
	}
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Index.ChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("index.chunk_size must be positive, got %d", c.Index.ChunkSize))
	}
	if c.Index.ChunkOverlap < 0 || c.Index.ChunkOverlap >= c.Index.ChunkSize {
		errs = append(errs, fmt.Errorf("index.chunk_overlap must be in [0, chunk_size), got %d", c.Index.ChunkOverlap))
	}
	if strings.TrimSpace(c.Index.Collection) == "" {
		errs = append(errs, errors.New("index.collection must not be empty"))
	}
	if c.Retrieve.TopK <= 0 {
		errs = append(errs, fmt.Errorf("retrieve.top_k must be positive, got %d", c.Retrieve.TopK))
	}
	if c.Retrieve.MMRLambda < 0 || c.Retrieve.MMRLambda > 1 {
		errs = append(errs, fmt.Errorf("retrieve.mmr_lambda must be in [0, 1], got %g", c.Retrieve.MMRLambda))
	}
	if c.Session.MaxHistory < 2 {
		errs = append(errs, fmt.Errorf("session.max_history must hold at least one exchange, got %d", c.Session.MaxHistory))
	}
	if c.LLM.TimeoutSeconds <= 0 {
		errs = append(errs, fmt.Errorf("llm.timeout_seconds must be positive, got %d", c.LLM.TimeoutSeconds))
	}

	switch c.Store.Backend {
	case "bolt", "memory":
	case "postgres":
		if c.Store.DatabaseURL == "" {
			errs = append(errs, errors.New("store.database_url is required for the postgres backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store.backend %q", c.Store.Backend))
	}

	switch c.Embedding.Provider {
	case "hashing", "openai", "ollama":
	default:
		errs = append(errs, fmt.Errorf("unknown embedding.provider %q", c.Embedding.Provider))
	}

	switch c.Tickets.Backend {
	case "memory", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("unknown tickets.backend %q", c.Tickets.Backend))
	}

	return errors.Join(errs...)
}

// MaxPairs is the number of user/assistant exchanges kept per session.
func (c *Config) MaxPairs() int {
	return c.Session.MaxHistory / 2
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
