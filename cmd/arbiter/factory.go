package main

import (
	"fmt"

	"github.com/arbiterhq/arbiter/internal/adapter"
	"github.com/arbiterhq/arbiter/internal/config"
	"github.com/arbiterhq/arbiter/internal/dispatch"
	"github.com/arbiterhq/arbiter/internal/scoring"
	"github.com/arbiterhq/arbiter/internal/stats"
	"github.com/arbiterhq/arbiter/pkg/models"
)

// statsBufferSize bounds queued competition records awaiting emission.
const statsBufferSize = 64

// buildRegistry constructs the adapter registry from configured
// credentials. Backends without credentials are simply absent; the
// mock adapter is always available for dry runs.
func buildRegistry(cfg *config.Config) *adapter.Registry {
	registry := adapter.NewRegistry()
	registry.Register(adapter.NewMockAdapter())

	anthropicKey, anthropicErr := config.GetAnthropicKey(cfg)
	if anthropicErr == nil || cfg.Providers.Anthropic.UseAWSBedrock {
		a, err := adapter.NewAnthropicAdapter(adapter.AnthropicConfig{
			APIKey:        anthropicKey,
			UseAWSBedrock: cfg.Providers.Anthropic.UseAWSBedrock,
			AWSRegion:     cfg.Providers.Anthropic.AWSRegion,
			AWSProfile:    cfg.Providers.Anthropic.AWSProfile,
		})
		if err == nil {
			registry.Register(a)
		}
	}

	if key, err := config.GetOpenAIKey(cfg); err == nil {
		if a, err := adapter.NewOpenAIAdapter(key, 0); err == nil {
			registry.Register(a)
		}
	}

	if key, err := config.GetGoogleKey(cfg); err == nil {
		if a, err := adapter.NewGoogleAdapter(key); err == nil {
			registry.Register(a)
		}
	}

	return registry
}

// buildDispatcher wires the registry, scorer, and stats collector into
// a competition dispatcher.
func buildDispatcher(cfg *config.Config) (*dispatch.Dispatcher, error) {
	var quality scoring.QualityFunc
	if cfg.Scoring.QualityExpr != "" {
		q, err := scoring.NewExprQuality(cfg.Scoring.QualityExpr)
		if err != nil {
			return nil, fmt.Errorf("compiling scoring.quality_expr: %w", err)
		}
		quality = q
	}
	scorer := scoring.NewScorer(cfg.Scoring.Weights(), quality)

	var collector stats.Collector = stats.Nop{}
	if cfg.Stats.Endpoint != "" {
		collector = stats.NewHTTPCollector(cfg.Stats.Endpoint, statsBufferSize)
	}

	return dispatch.New(buildRegistry(cfg), scorer, collector), nil
}

// resolveCandidates loads the candidate manifest from the explicit
// flag path, or from the standard search locations.
func resolveCandidates(flagPath string) ([]*models.Candidate, error) {
	path := flagPath
	if path == "" {
		found, err := config.FindCandidatesManifest()
		if err != nil {
			return nil, fmt.Errorf("%w; declare candidates in .arbiter/candidates.yaml or pass --candidates", err)
		}
		path = found
	}
	return config.LoadCandidates(path)
}
