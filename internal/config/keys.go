// Package config provides API key management utilities.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrNoAPIKey is returned when no API key is configured for a provider.
var ErrNoAPIKey = errors.New("no API key configured")

// GetAnthropicKey returns the Anthropic API key, checking the
// environment first, then the config file. Not required when Bedrock
// is enabled.
func GetAnthropicKey(cfg *Config) (string, error) {
	return keyFor("ANTHROPIC_API_KEY", configKey(cfg, func(c *Config) string {
		return c.Providers.Anthropic.APIKey
	}))
}

// GetOpenAIKey returns the OpenAI API key.
func GetOpenAIKey(cfg *Config) (string, error) {
	return keyFor("OPENAI_API_KEY", configKey(cfg, func(c *Config) string {
		return c.Providers.OpenAI.APIKey
	}))
}

// GetGoogleKey returns the Gemini API key. Both GEMINI_API_KEY and
// GOOGLE_API_KEY are recognized in the environment.
func GetGoogleKey(cfg *Config) (string, error) {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		return key, nil
	}
	return keyFor("GOOGLE_API_KEY", configKey(cfg, func(c *Config) string {
		return c.Providers.Google.APIKey
	}))
}

func configKey(cfg *Config, get func(*Config) string) string {
	if cfg == nil {
		return ""
	}
	return get(cfg)
}

func keyFor(envVar, configured string) (string, error) {
	if key := os.Getenv(envVar); key != "" {
		return key, nil
	}
	key := os.ExpandEnv(configured)
	if key != "" && !strings.HasPrefix(key, "${") {
		return key, nil
	}
	return "", fmt.Errorf("%w (set %s)", ErrNoAPIKey, envVar)
}

// MaskAPIKey returns a masked version of an API key for display.
func MaskAPIKey(key string) string {
	if key == "" {
		return "(not set)"
	}
	if len(key) <= 12 {
		return "***"
	}
	return key[:6] + "..." + key[len(key)-4:]
}

// KeySource represents where an API key was loaded from.
type KeySource string

const (
	KeySourceEnv    KeySource = "environment"
	KeySourceConfig KeySource = "config_file"
	KeySourceNone   KeySource = "none"
)

// AnthropicKeySource returns where the Anthropic key was sourced from.
func AnthropicKeySource(cfg *Config) KeySource {
	return sourceFor("ANTHROPIC_API_KEY", configKey(cfg, func(c *Config) string {
		return c.Providers.Anthropic.APIKey
	}))
}

// OpenAIKeySource returns where the OpenAI key was sourced from.
func OpenAIKeySource(cfg *Config) KeySource {
	return sourceFor("OPENAI_API_KEY", configKey(cfg, func(c *Config) string {
		return c.Providers.OpenAI.APIKey
	}))
}

// GoogleKeySource returns where the Gemini key was sourced from.
func GoogleKeySource(cfg *Config) KeySource {
	if os.Getenv("GEMINI_API_KEY") != "" {
		return KeySourceEnv
	}
	return sourceFor("GOOGLE_API_KEY", configKey(cfg, func(c *Config) string {
		return c.Providers.Google.APIKey
	}))
}

func sourceFor(envVar, configured string) KeySource {
	if os.Getenv(envVar) != "" {
		return KeySourceEnv
	}
	key := os.ExpandEnv(configured)
	if key != "" && !strings.HasPrefix(key, "${") {
		return KeySourceConfig
	}
	return KeySourceNone
}
