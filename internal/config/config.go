// Package config defines codii's configuration schema and loading. There is
// no process-global configuration instance: a Config value is built once by
// the CLI entrypoint and threaded explicitly into app.New and every
// subcomponent that needs it.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the complete codii configuration.
type Config struct {
	// BaseDir is the root storage directory. Defaults to ~/.codii.
	BaseDir string `yaml:"base_dir"`

	Scan      ScanConfig      `yaml:"scan"`
	Chunking  ChunkingConfig  `yaml:"chunking"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Search    SearchConfig    `yaml:"search"`
	Registry  RegistryConfig  `yaml:"registry"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ScanConfig controls directory walking and file selection.
type ScanConfig struct {
	Extensions       []string `yaml:"extensions"`
	IgnorePatterns   []string `yaml:"ignore_patterns"`
	RespectGitignore bool     `yaml:"respect_gitignore"`
}

// ChunkingConfig controls the syntax chunker and its line-window fallback.
type ChunkingConfig struct {
	MaxChunkSize int `yaml:"max_chunk_size"`
	MinChunkSize int `yaml:"min_chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
}

// EmbeddingConfig controls batching for the abstract Embedder capability.
type EmbeddingConfig struct {
	BatchSize int `yaml:"batch_size"`
}

// SearchConfig controls the hybrid retriever and ANN index construction.
type SearchConfig struct {
	HNSWM              int     `yaml:"hnsw_m"`
	HNSWEfConstruction int     `yaml:"hnsw_ef_construction"`
	HNSWEfSearch       int     `yaml:"hnsw_ef_search"`
	MaxSearchLimit     int     `yaml:"max_search_limit"`
	BM25Weight         float64 `yaml:"bm25_weight"`
	VectorWeight       float64 `yaml:"vector_weight"`
	RerankEnabled      bool    `yaml:"rerank_enabled"`
	RerankCandidates   int     `yaml:"rerank_candidates"`
	RerankThreshold    float64 `yaml:"rerank_threshold"`
	KRRF               int     `yaml:"k_rrf"`
	MinTermLength      int     `yaml:"min_term_length"`
}

// RegistryConfig controls the snapshot registry's stale-indexing watchdog.
type RegistryConfig struct {
	WatchdogThresholdMinutes int `yaml:"watchdog_threshold_minutes"`
}

// LoggingConfig controls log level and destination.
type LoggingConfig struct {
	Level         string `yaml:"level"`
	FilePath      string `yaml:"file_path"`
	WriteToStderr bool   `yaml:"write_to_stderr"`
}

// Default returns the configuration with every tunable set to its
// documented default.
func Default() *Config {
	home, err := os.UserHomeDir()
	baseDir := filepath.Join(os.TempDir(), ".codii")
	if err == nil {
		baseDir = filepath.Join(home, ".codii")
	}

	return &Config{
		BaseDir: baseDir,
		Scan: ScanConfig{
			Extensions: []string{
				".py", ".js", ".jsx", ".ts", ".tsx", ".go", ".rs", ".java",
				".c", ".cpp", ".cc", ".cxx", ".h", ".hpp", ".hxx",
				".json", ".yaml", ".yml", ".toml", ".md", ".rst", ".txt",
				".sh", ".bash", ".zsh", ".sql", ".proto",
				".html", ".css", ".scss", ".less",
			},
			IgnorePatterns: []string{
				".git/", "__pycache__/", "node_modules/", ".venv/", "venv/",
				"dist/", "build/", "target/",
			},
			RespectGitignore: true,
		},
		Chunking: ChunkingConfig{
			MaxChunkSize: 1500,
			MinChunkSize: 100,
			ChunkOverlap: 200,
		},
		Embedding: EmbeddingConfig{
			BatchSize: 32,
		},
		Search: SearchConfig{
			HNSWM:              16,
			HNSWEfConstruction: 200,
			HNSWEfSearch:       100,
			MaxSearchLimit:     50,
			BM25Weight:         0.5,
			VectorWeight:       0.5,
			RerankEnabled:      true,
			RerankCandidates:   20,
			RerankThreshold:    0.5,
			KRRF:               60,
			MinTermLength:      2,
		},
		Registry: RegistryConfig{
			WatchdogThresholdMinutes: 30,
		},
		Logging: LoggingConfig{
			Level:         "info",
			WriteToStderr: true,
		},
	}
}

// Load builds a Config from defaults, a YAML file at path (if it exists),
// and environment variable overrides, in that order.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.mergeYAML(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) mergeYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

// applyEnvOverrides lets CODII_* environment variables override the loaded
// configuration's tunables.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("CODII_BASE_DIR"); v != "" {
		c.BaseDir = v
	}
	if v, ok := getFloat("CODII_BM25_WEIGHT"); ok {
		c.Search.BM25Weight = v
	}
	if v, ok := getFloat("CODII_VECTOR_WEIGHT"); ok {
		c.Search.VectorWeight = v
	}
	if v, ok := getInt("CODII_RRF_CONSTANT"); ok {
		c.Search.KRRF = v
	}
	if v, ok := getInt("CODII_MAX_SEARCH_LIMIT"); ok {
		c.Search.MaxSearchLimit = v
	}
	if v, ok := getBool("CODII_RERANK_ENABLED"); ok {
		c.Search.RerankEnabled = v
	}
	if v := os.Getenv("CODII_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

func getFloat(name string) (float64, bool) {
	v := os.Getenv(name)
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func getInt(name string) (int, bool) {
	v := os.Getenv(name)
	if v == "" {
		return 0, false
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return i, true
}

func getBool(name string) (bool, bool) {
	v := os.Getenv(name)
	if v == "" {
		return false, false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, false
	}
	return b, true
}

// Validate rejects a configuration whose values could not possibly satisfy
// the engine's invariants.
func (c *Config) Validate() error {
	if c.BaseDir == "" {
		return fmt.Errorf("base_dir must not be empty")
	}
	if c.Chunking.MinChunkSize <= 0 || c.Chunking.MaxChunkSize <= 0 {
		return fmt.Errorf("chunk sizes must be positive")
	}
	if c.Chunking.MinChunkSize > c.Chunking.MaxChunkSize {
		return fmt.Errorf("min_chunk_size must not exceed max_chunk_size")
	}
	if c.Search.BM25Weight < 0 || c.Search.VectorWeight < 0 {
		return fmt.Errorf("search weights must be non-negative")
	}
	if c.Search.KRRF <= 0 {
		return fmt.Errorf("k_rrf must be positive")
	}
	if c.Embedding.BatchSize <= 0 {
		return fmt.Errorf("embedding batch_size must be positive")
	}
	return nil
}

// WriteYAML persists the configuration to path for inspection or seeding a
// user override file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config file %s: %w", path, err)
	}
	return nil
}
