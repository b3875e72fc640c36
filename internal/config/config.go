// Package config handles configuration loading for arbiter.
// It supports XDG config paths, project-level overrides, and
// environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/arbiterhq/arbiter/pkg/models"
)

// Config holds all configuration for arbiter.
type Config struct {
	Providers  ProvidersConfig  `mapstructure:"providers"`
	Run        RunConfig        `mapstructure:"run"`
	Scoring    ScoringConfig    `mapstructure:"scoring"`
	Stats      StatsConfig      `mapstructure:"stats"`
	Experience ExperienceConfig `mapstructure:"experience"`
}

// ProvidersConfig holds per-backend credentials and settings.
type ProvidersConfig struct {
	Anthropic AnthropicConfig `mapstructure:"anthropic"`
	OpenAI    OpenAIConfig    `mapstructure:"openai"`
	Google    GoogleConfig    `mapstructure:"google"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	APIKey        string `mapstructure:"api_key"`
	UseAWSBedrock bool   `mapstructure:"use_aws_bedrock"`
	AWSRegion     string `mapstructure:"aws_region"`
	AWSProfile    string `mapstructure:"aws_profile"`
}

// OpenAIConfig holds OpenAI API settings.
type OpenAIConfig struct {
	APIKey string `mapstructure:"api_key"`
}

// GoogleConfig holds Gemini API settings.
type GoogleConfig struct {
	APIKey string `mapstructure:"api_key"`
}

// RunConfig holds scheduler and retry settings.
type RunConfig struct {
	MaxConcurrency  int           `mapstructure:"max_concurrency"`
	RetryLimit      int           `mapstructure:"retry_limit"`
	Backoff         time.Duration `mapstructure:"backoff"`
	NodeDeadline    time.Duration `mapstructure:"node_deadline"`
	OverallDeadline time.Duration `mapstructure:"overall_deadline"`
}

// ScoringConfig holds score weights and the optional quality expression.
type ScoringConfig struct {
	Quality float64 `mapstructure:"quality"`
	Latency float64 `mapstructure:"latency"`
	Cost    float64 `mapstructure:"cost"`
	// QualityExpr is an optional expression replacing the built-in
	// quality heuristic.
	QualityExpr string `mapstructure:"quality_expr"`
}

// Weights converts the scoring config to score weights.
func (s ScoringConfig) Weights() models.Weights {
	if s.Quality == 0 && s.Latency == 0 && s.Cost == 0 {
		return models.DefaultWeights()
	}
	return models.Weights{Quality: s.Quality, Latency: s.Latency, Cost: s.Cost}
}

// StatsConfig holds the stats collaborator endpoint.
type StatsConfig struct {
	// Endpoint is the HTTP endpoint competition records are posted to.
	// Empty disables emission.
	Endpoint string `mapstructure:"endpoint"`
}

// ExperienceConfig holds the experience store location.
type ExperienceConfig struct {
	// DBPath overrides the default experience database path.
	DBPath string `mapstructure:"db_path"`
}

// Load loads configuration from XDG paths, project overrides, and
// environment variables. Precedence (highest to lowest):
// 1. Environment variables (ANTHROPIC_API_KEY, OPENAI_API_KEY, GEMINI_API_KEY)
// 2. Project config (.arbiter.yaml in current directory or a parent)
// 3. User config (~/.config/arbiter/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(getUserConfigDir())

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	if projectConfig := findProjectConfig(); projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	v.AutomaticEnv()
	v.BindEnv("providers.anthropic.api_key", "ANTHROPIC_API_KEY")
	v.BindEnv("providers.openai.api_key", "OPENAI_API_KEY")
	v.BindEnv("providers.google.api_key", "GEMINI_API_KEY")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.expandKeys()
	return cfg, nil
}

// LoadFromPath loads configuration from a specific path (for testing).
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.expandKeys()
	return cfg, nil
}

// expandKeys expands ${VAR} references in credential fields.
func (c *Config) expandKeys() {
	c.Providers.Anthropic.APIKey = os.ExpandEnv(c.Providers.Anthropic.APIKey)
	c.Providers.OpenAI.APIKey = os.ExpandEnv(c.Providers.OpenAI.APIKey)
	c.Providers.Google.APIKey = os.ExpandEnv(c.Providers.Google.APIKey)
}

// Save writes the current configuration to the user config file.
func Save(cfg *Config) error {
	userConfigDir := getUserConfigDir()
	if err := os.MkdirAll(userConfigDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(filepath.Join(userConfigDir, "config.yaml"))

	v.Set("providers.anthropic.api_key", cfg.Providers.Anthropic.APIKey)
	v.Set("providers.anthropic.use_aws_bedrock", cfg.Providers.Anthropic.UseAWSBedrock)
	v.Set("providers.anthropic.aws_region", cfg.Providers.Anthropic.AWSRegion)
	v.Set("providers.anthropic.aws_profile", cfg.Providers.Anthropic.AWSProfile)
	v.Set("providers.openai.api_key", cfg.Providers.OpenAI.APIKey)
	v.Set("providers.google.api_key", cfg.Providers.Google.APIKey)
	v.Set("run.max_concurrency", cfg.Run.MaxConcurrency)
	v.Set("run.retry_limit", cfg.Run.RetryLimit)
	v.Set("run.backoff", cfg.Run.Backoff.String())
	v.Set("run.node_deadline", cfg.Run.NodeDeadline.String())
	v.Set("run.overall_deadline", cfg.Run.OverallDeadline.String())
	v.Set("scoring.quality", cfg.Scoring.Quality)
	v.Set("scoring.latency", cfg.Scoring.Latency)
	v.Set("scoring.cost", cfg.Scoring.Cost)
	v.Set("scoring.quality_expr", cfg.Scoring.QualityExpr)
	v.Set("stats.endpoint", cfg.Stats.Endpoint)
	v.Set("experience.db_path", cfg.Experience.DBPath)

	return v.WriteConfig()
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the path to the project config file if
// one exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("providers.anthropic.api_key", "")
	v.SetDefault("providers.anthropic.use_aws_bedrock", false)
	v.SetDefault("providers.openai.api_key", "")
	v.SetDefault("providers.google.api_key", "")

	v.SetDefault("run.max_concurrency", 3)
	v.SetDefault("run.retry_limit", 2)
	v.SetDefault("run.backoff", "500ms")
	v.SetDefault("run.node_deadline", "60s")
	v.SetDefault("run.overall_deadline", "0s")

	v.SetDefault("scoring.quality", 0.5)
	v.SetDefault("scoring.latency", 0.3)
	v.SetDefault("scoring.cost", 0.2)
	v.SetDefault("scoring.quality_expr", "")

	v.SetDefault("stats.endpoint", "")
	v.SetDefault("experience.db_path", "")
}

// getUserConfigDir returns the XDG config directory for arbiter.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "arbiter")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "arbiter")
	}
	return filepath.Join(home, ".config", "arbiter")
}

// findProjectConfig searches for .arbiter.yaml in the current
// directory and its parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ".arbiter.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}
	return ""
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Run: RunConfig{
			MaxConcurrency: 3,
			RetryLimit:     2,
			Backoff:        500 * time.Millisecond,
			NodeDeadline:   60 * time.Second,
		},
		Scoring: ScoringConfig{
			Quality: 0.5,
			Latency: 0.3,
			Cost:    0.2,
		},
	}
}
