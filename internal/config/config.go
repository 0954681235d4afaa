// Package config provides configuration management for ideagen.
//
// Settings are resolved in priority order: explicit CLI flags (applied by
// the caller), IDEA_GEN_* environment variables, the YAML settings file,
// and finally built-in defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values for settings not supplied by file or environment.
const (
	DefaultOllamaBaseURL    = "http://localhost:11434"
	DefaultModelSummarizer  = "idea-summarizer:latest"
	DefaultModelGrouper     = "idea-grouper:latest"
	DefaultLLMTimeoutSecs   = 120
	DefaultLLMMaxRetries    = 3
	DefaultGitHubPerPage    = 100
	DefaultGitHubMaxRetries = 3
	DefaultMaxTextLength    = 20000
	DefaultSummarizeTokens  = 4000
	DefaultMaxBatchSize     = 20
	DefaultMaxBatchChars    = 50000
	DefaultTopIdeasCount    = 10
)

// Default ranking weights. They sum to 1.0 so composite scores stay in [0,1].
const (
	DefaultWeightNovelty      = 0.25
	DefaultWeightFeasibility  = 0.25
	DefaultWeightDesirability = 0.30
	DefaultWeightAttention    = 0.20
)

// Config holds all ideagen settings.
type Config struct {
	GitHubRepo       string `yaml:"github_repo"`
	GitHubToken      string `yaml:"github_token"`
	GitHubPerPage    int    `yaml:"github_per_page"`
	GitHubMaxRetries int    `yaml:"github_max_retries"`
	GitHubIssueLimit int    `yaml:"github_issue_limit"`

	OllamaBaseURL   string `yaml:"ollama_base_url"`
	ModelSummarizer string `yaml:"model_summarizer"`
	ModelGrouper    string `yaml:"model_grouper"`
	LLMTimeoutSecs  int    `yaml:"llm_timeout_secs"`
	LLMMaxRetries   int    `yaml:"llm_max_retries"`

	MaxTextLength      int  `yaml:"max_text_length"`
	NoiseFilterEnabled bool `yaml:"noise_filter_enabled"`
	SummarizeMaxTokens int  `yaml:"summarize_max_tokens"`
	MaxBatchSize       int  `yaml:"max_batch_size"`
	MaxBatchChars      int  `yaml:"max_batch_chars"`

	WeightNovelty      float64 `yaml:"weight_novelty"`
	WeightFeasibility  float64 `yaml:"weight_feasibility"`
	WeightDesirability float64 `yaml:"weight_desirability"`
	WeightAttention    float64 `yaml:"weight_attention"`
	TopIdeasCount      int     `yaml:"top_ideas_count"`

	DataDir   string `yaml:"data_dir"`
	OutputDir string `yaml:"output_dir"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		GitHubPerPage:      DefaultGitHubPerPage,
		GitHubMaxRetries:   DefaultGitHubMaxRetries,
		OllamaBaseURL:      DefaultOllamaBaseURL,
		ModelSummarizer:    DefaultModelSummarizer,
		ModelGrouper:       DefaultModelGrouper,
		LLMTimeoutSecs:     DefaultLLMTimeoutSecs,
		LLMMaxRetries:      DefaultLLMMaxRetries,
		MaxTextLength:      DefaultMaxTextLength,
		NoiseFilterEnabled: true,
		SummarizeMaxTokens: DefaultSummarizeTokens,
		MaxBatchSize:       DefaultMaxBatchSize,
		MaxBatchChars:      DefaultMaxBatchChars,
		WeightNovelty:      DefaultWeightNovelty,
		WeightFeasibility:  DefaultWeightFeasibility,
		WeightDesirability: DefaultWeightDesirability,
		WeightAttention:    DefaultWeightAttention,
		TopIdeasCount:      DefaultTopIdeasCount,
		DataDir:            "data",
		OutputDir:          "output",
	}
}

// Load reads configuration from the given settings file (if it exists)
// and applies IDEA_GEN_* environment overrides on top of defaults.
// An empty path means "no settings file".
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read settings file: %w", err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse settings file %s: %w", path, err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides config fields from IDEA_GEN_* environment variables.
func applyEnv(cfg *Config) {
	envString("IDEA_GEN_GITHUB_REPO", &cfg.GitHubRepo)
	envString("IDEA_GEN_GITHUB_TOKEN", &cfg.GitHubToken)
	envString("IDEA_GEN_OLLAMA_BASE_URL", &cfg.OllamaBaseURL)
	envString("IDEA_GEN_MODEL_SUMMARIZER", &cfg.ModelSummarizer)
	envString("IDEA_GEN_MODEL_GROUPER", &cfg.ModelGrouper)
	envString("IDEA_GEN_DATA_DIR", &cfg.DataDir)
	envString("IDEA_GEN_OUTPUT_DIR", &cfg.OutputDir)
	envInt("IDEA_GEN_GITHUB_ISSUE_LIMIT", &cfg.GitHubIssueLimit)
	envInt("IDEA_GEN_MAX_BATCH_SIZE", &cfg.MaxBatchSize)
	envInt("IDEA_GEN_MAX_BATCH_CHARS", &cfg.MaxBatchChars)
	envInt("IDEA_GEN_SUMMARIZE_MAX_TOKENS", &cfg.SummarizeMaxTokens)

	// GITHUB_TOKEN without prefix is honored for parity with gh tooling.
	if cfg.GitHubToken == "" {
		cfg.GitHubToken = os.Getenv("GITHUB_TOKEN")
	}
}

func envString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return
	}
	*dst = n
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if c.GitHubRepo != "" && !strings.Contains(c.GitHubRepo, "/") {
		return fmt.Errorf("github_repo %q must be in owner/repo format", c.GitHubRepo)
	}
	if c.MaxBatchSize < 1 {
		return fmt.Errorf("max_batch_size must be >= 1, got %d", c.MaxBatchSize)
	}
	if c.MaxBatchChars < 1 {
		return fmt.Errorf("max_batch_chars must be >= 1, got %d", c.MaxBatchChars)
	}
	if c.SummarizeMaxTokens < 1 {
		return fmt.Errorf("summarize_max_tokens must be >= 1, got %d", c.SummarizeMaxTokens)
	}
	for name, w := range map[string]float64{
		"weight_novelty":      c.WeightNovelty,
		"weight_feasibility":  c.WeightFeasibility,
		"weight_desirability": c.WeightDesirability,
		"weight_attention":    c.WeightAttention,
	} {
		if w < 0.0 || w > 1.0 {
			return fmt.Errorf("%s %.2f out of range [0,1]", name, w)
		}
	}
	return nil
}

// LLMTimeout returns the per-request LLM timeout as a duration.
func (c *Config) LLMTimeout() time.Duration {
	return time.Duration(c.LLMTimeoutSecs) * time.Second
}

// SplitRepo splits GitHubRepo into owner and name.
func (c *Config) SplitRepo() (owner, repo string, err error) {
	parts := strings.SplitN(c.GitHubRepo, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repository %q, expected owner/repo", c.GitHubRepo)
	}
	return parts[0], parts[1], nil
}

// CachePath returns the path of the summary cache database.
func (c *Config) CachePath() string {
	return filepath.Join(c.DataDir, "summaries.db")
}

// ReportsDir returns the directory where reports are written.
func (c *Config) ReportsDir() string {
	return filepath.Join(c.OutputDir, "reports")
}

// EnsureDirectories creates the data, output, and reports directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.DataDir, c.OutputDir, c.ReportsDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}
