package sociograph

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mvidoni/sociograph/llm"
)

// Config holds all configuration for the sociograph engine.
type Config struct {
	// Chunking
	ChunkSize    int    `json:"chunk_size" yaml:"chunk_size"`       // words per chunk (default 900)
	ChunkMethod  string `json:"chunk_method" yaml:"chunk_method"`   // word, sentence, char
	ChunkOverlap int    `json:"chunk_overlap" yaml:"chunk_overlap"` // units carried between chunks

	// Verb normalization
	NormalizeVerbs      bool    `json:"normalize_verbs" yaml:"normalize_verbs"`
	SimilarityThreshold float64 `json:"similarity_threshold" yaml:"similarity_threshold"` // cosine cutoff (default 0.3)

	// Validation
	FuzzyThreshold    int  `json:"fuzzy_threshold" yaml:"fuzzy_threshold"` // token-sort ratio 0-100 (default 60)
	RequireActorMatch bool `json:"require_actor_match" yaml:"require_actor_match"`
	FilterGeneric     bool `json:"filter_generic" yaml:"filter_generic"`

	// Enrichment
	EnrichNER   bool `json:"enrich_ner" yaml:"enrich_ner"`     // tag named entities on accepted triplets
	PromptHints bool `json:"prompt_hints" yaml:"prompt_hints"` // inject detected actor mentions into prompts

	// Extraction limits
	MaxTriplets int `json:"max_triplets" yaml:"max_triplets"` // 0 = unlimited

	// Community label attached to triplets on the API surface.
	Community string `json:"community" yaml:"community"`

	// CatalogPath points at a JSON actor catalog. Empty uses the embedded
	// default catalog.
	CatalogPath string `json:"catalog_path" yaml:"catalog_path"`

	// Persistence. When Persist is false no database is opened.
	Persist bool `json:"persist" yaml:"persist"`

	// DBPath is the full path to the SQLite database file.
	// If empty, defaults to ~/.sociograph/<DBName>.db
	DBPath string `json:"db_path" yaml:"db_path"`

	// DBName is the name for the database (used when DBPath is empty).
	DBName string `json:"db_name" yaml:"db_name"`

	// StorageDir controls where the database is created when DBPath
	// is not explicitly set. Options: "home" (default) uses ~/.sociograph/,
	// "local" uses the current working directory.
	StorageDir string `json:"storage_dir" yaml:"storage_dir"`

	// LLM providers
	Chat      llm.Config `json:"chat" yaml:"chat"`
	Embedding llm.Config `json:"embedding" yaml:"embedding"`

	// Embedding dimensions (must match model)
	EmbeddingDim int `json:"embedding_dim" yaml:"embedding_dim"`

	// Scraping
	Scrape ScrapeConfig `json:"scrape" yaml:"scrape"`
}

// ScrapeConfig configures the URL fetcher.
type ScrapeConfig struct {
	UserAgent       string  `json:"user_agent" yaml:"user_agent"`
	TimeoutSeconds  int     `json:"timeout_seconds" yaml:"timeout_seconds"`
	CacheTTLSeconds int     `json:"cache_ttl_seconds" yaml:"cache_ttl_seconds"`
	RatePerSecond   float64 `json:"rate_per_second" yaml:"rate_per_second"` // per-domain request rate
	RespectRobots   bool    `json:"respect_robots" yaml:"respect_robots"`
}

// DefaultConfig returns a Config with sensible defaults for local inference.
// Database is stored in ~/.sociograph/sociograph.db when persistence is on.
func DefaultConfig() Config {
	return Config{
		ChunkSize:           900,
		ChunkMethod:         "word",
		ChunkOverlap:        0,
		NormalizeVerbs:      true,
		SimilarityThreshold: 0.3,
		FuzzyThreshold:      60,
		RequireActorMatch:   true,
		FilterGeneric:       true,
		EnrichNER:           true,
		PromptHints:         true,
		Community:           "EIT Community",
		DBName:              "sociograph",
		StorageDir:          "home",
		Chat: llm.Config{
			Provider: "ollama",
			Model:    "llama3.1:8b",
			BaseURL:  "http://localhost:11434",
		},
		Embedding: llm.Config{
			Provider: "ollama",
			Model:    "nomic-embed-text",
			BaseURL:  "http://localhost:11434",
		},
		EmbeddingDim: 768,
		Scrape: ScrapeConfig{
			UserAgent:       "Mozilla/5.0 (Windows NT 10.0; Win64; x64)",
			TimeoutSeconds:  10,
			CacheTTLSeconds: 900,
			RatePerSecond:   1,
			RespectRobots:   true,
		},
	}
}

// Validate reports the first invalid configuration value.
func (c *Config) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk_size must be positive, got %d", ErrInvalidConfig, c.ChunkSize)
	}
	switch c.ChunkMethod {
	case "word", "sentence", "char":
	default:
		return fmt.Errorf("%w: chunk_method %q", ErrInvalidConfig, c.ChunkMethod)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("%w: chunk_overlap %d out of range [0,%d)", ErrInvalidConfig, c.ChunkOverlap, c.ChunkSize)
	}
	if c.SimilarityThreshold < -1 || c.SimilarityThreshold > 1 {
		return fmt.Errorf("%w: similarity_threshold %.2f outside [-1,1]", ErrInvalidConfig, c.SimilarityThreshold)
	}
	if c.FuzzyThreshold < 0 || c.FuzzyThreshold > 100 {
		return fmt.Errorf("%w: fuzzy_threshold %d outside [0,100]", ErrInvalidConfig, c.FuzzyThreshold)
	}
	if c.MaxTriplets < 0 {
		return fmt.Errorf("%w: max_triplets must not be negative", ErrInvalidConfig)
	}
	return nil
}

// LoadConfig reads a config file on top of DefaultConfig. The format is
// chosen by extension: .yaml/.yml use YAML, anything else JSON.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	default:
		err = json.Unmarshal(data, &cfg)
	}
	if err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// resolveDBPath computes the final database path from config fields.
func (c *Config) resolveDBPath() string {
	if c.DBPath != "" {
		return c.DBPath
	}

	name := c.DBName
	if name == "" {
		name = "sociograph"
	}

	switch c.StorageDir {
	case "local", "cwd":
		return name + ".db"
	default: // "home" or empty
		home, err := os.UserHomeDir()
		if err != nil {
			return name + ".db" // fallback to cwd
		}
		dir := filepath.Join(home, ".sociograph")
		return filepath.Join(dir, name+".db")
	}
}
