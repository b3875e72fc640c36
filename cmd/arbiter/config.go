package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/arbiterhq/arbiter/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Manage configuration",
	Long: `View or modify arbiter configuration.

Without arguments, displays current configuration.
With one argument (key), displays the value for that key.
With two arguments (key value), sets the configuration value.

Configuration is stored at ~/.config/arbiter/config.yaml
Project-specific overrides can be placed in .arbiter.yaml`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		switch len(args) {
		case 0:
			displayAllConfig(cfg)
			return nil
		case 1:
			return displayConfigKey(cfg, args[0])
		default:
			return setConfigKey(cfg, args[0], args[1])
		}
	},
}

func displayAllConfig(cfg *config.Config) {
	fmt.Printf("providers.anthropic.api_key: %s (%s)\n",
		config.MaskAPIKey(cfg.Providers.Anthropic.APIKey), config.AnthropicKeySource(cfg))
	fmt.Printf("providers.anthropic.use_aws_bedrock: %t\n", cfg.Providers.Anthropic.UseAWSBedrock)
	fmt.Printf("providers.openai.api_key: %s (%s)\n",
		config.MaskAPIKey(cfg.Providers.OpenAI.APIKey), config.OpenAIKeySource(cfg))
	fmt.Printf("providers.google.api_key: %s (%s)\n",
		config.MaskAPIKey(cfg.Providers.Google.APIKey), config.GoogleKeySource(cfg))
	fmt.Printf("run.max_concurrency: %d\n", cfg.Run.MaxConcurrency)
	fmt.Printf("run.retry_limit: %d\n", cfg.Run.RetryLimit)
	fmt.Printf("run.backoff: %s\n", cfg.Run.Backoff)
	fmt.Printf("run.node_deadline: %s\n", cfg.Run.NodeDeadline)
	fmt.Printf("run.overall_deadline: %s\n", cfg.Run.OverallDeadline)
	fmt.Printf("scoring.quality: %g\n", cfg.Scoring.Quality)
	fmt.Printf("scoring.latency: %g\n", cfg.Scoring.Latency)
	fmt.Printf("scoring.cost: %g\n", cfg.Scoring.Cost)
	fmt.Printf("scoring.quality_expr: %s\n", orNotSet(cfg.Scoring.QualityExpr))
	fmt.Printf("stats.endpoint: %s\n", orNotSet(cfg.Stats.Endpoint))
	fmt.Printf("experience.db_path: %s\n", orNotSet(cfg.Experience.DBPath))
}

func orNotSet(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}

func displayConfigKey(cfg *config.Config, key string) error {
	value, err := getConfigValue(cfg, key)
	if err != nil {
		return err
	}
	fmt.Println(value)
	return nil
}

func setConfigKey(cfg *config.Config, key, value string) error {
	if err := setConfigValue(cfg, key, value); err != nil {
		return err
	}
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	fmt.Fprintf(os.Stderr, "set %s\n", key)
	return nil
}

func getConfigValue(cfg *config.Config, key string) (string, error) {
	switch key {
	case "providers.anthropic.api_key":
		return config.MaskAPIKey(cfg.Providers.Anthropic.APIKey), nil
	case "providers.openai.api_key":
		return config.MaskAPIKey(cfg.Providers.OpenAI.APIKey), nil
	case "providers.google.api_key":
		return config.MaskAPIKey(cfg.Providers.Google.APIKey), nil
	case "run.max_concurrency":
		return strconv.Itoa(cfg.Run.MaxConcurrency), nil
	case "run.retry_limit":
		return strconv.Itoa(cfg.Run.RetryLimit), nil
	case "run.backoff":
		return cfg.Run.Backoff.String(), nil
	case "run.node_deadline":
		return cfg.Run.NodeDeadline.String(), nil
	case "run.overall_deadline":
		return cfg.Run.OverallDeadline.String(), nil
	case "scoring.quality":
		return strconv.FormatFloat(cfg.Scoring.Quality, 'g', -1, 64), nil
	case "scoring.latency":
		return strconv.FormatFloat(cfg.Scoring.Latency, 'g', -1, 64), nil
	case "scoring.cost":
		return strconv.FormatFloat(cfg.Scoring.Cost, 'g', -1, 64), nil
	case "scoring.quality_expr":
		return cfg.Scoring.QualityExpr, nil
	case "stats.endpoint":
		return cfg.Stats.Endpoint, nil
	case "experience.db_path":
		return cfg.Experience.DBPath, nil
	default:
		return "", fmt.Errorf("unknown config key: %s", key)
	}
}

func setConfigValue(cfg *config.Config, key, value string) error {
	switch key {
	case "providers.anthropic.api_key":
		cfg.Providers.Anthropic.APIKey = value
	case "providers.openai.api_key":
		cfg.Providers.OpenAI.APIKey = value
	case "providers.google.api_key":
		cfg.Providers.Google.APIKey = value
	case "run.max_concurrency":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer for %s: %q", key, value)
		}
		cfg.Run.MaxConcurrency = n
	case "run.retry_limit":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer for %s: %q", key, value)
		}
		cfg.Run.RetryLimit = n
	case "run.backoff", "run.node_deadline", "run.overall_deadline":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration for %s: %q", key, value)
		}
		switch key {
		case "run.backoff":
			cfg.Run.Backoff = d
		case "run.node_deadline":
			cfg.Run.NodeDeadline = d
		case "run.overall_deadline":
			cfg.Run.OverallDeadline = d
		}
	case "scoring.quality", "scoring.latency", "scoring.cost":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid number for %s: %q", key, value)
		}
		switch key {
		case "scoring.quality":
			cfg.Scoring.Quality = f
		case "scoring.latency":
			cfg.Scoring.Latency = f
		case "scoring.cost":
			cfg.Scoring.Cost = f
		}
	case "scoring.quality_expr":
		cfg.Scoring.QualityExpr = value
	case "stats.endpoint":
		cfg.Stats.Endpoint = value
	case "experience.db_path":
		cfg.Experience.DBPath = value
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}
