package adapter

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/bedrock"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/aws/aws-sdk-go-v2/config"

	"github.com/arbiterhq/arbiter/pkg/models"
)

// AnthropicConfig contains configuration for the Anthropic adapter.
type AnthropicConfig struct {
	// APIKey is the Anthropic API key. If empty, uses ANTHROPIC_API_KEY.
	APIKey string
	// UseAWSBedrock routes calls through AWS Bedrock instead of the direct API.
	UseAWSBedrock bool
	// AWSRegion is the AWS region for Bedrock (e.g. "us-west-2").
	AWSRegion string
	// AWSProfile is the optional AWS profile name to use.
	AWSProfile string
	// MaxTokens caps the response length. Zero uses a sensible default.
	MaxTokens int64
}

// AnthropicAdapter serves Claude models, directly or via AWS Bedrock.
type AnthropicAdapter struct {
	client    anthropic.Client
	maxTokens int64
}

// NewAnthropicAdapter creates an Anthropic adapter.
func NewAnthropicAdapter(cfg AnthropicConfig) (*AnthropicAdapter, error) {
	var opts []option.RequestOption

	if cfg.UseAWSBedrock {
		ctx := context.Background()

		var loadOpts []func(*config.LoadOptions) error
		if cfg.AWSRegion != "" {
			loadOpts = append(loadOpts, config.WithRegion(cfg.AWSRegion))
		}
		if cfg.AWSProfile != "" {
			loadOpts = append(loadOpts, config.WithSharedConfigProfile(cfg.AWSProfile))
		}

		opts = append(opts, bedrock.WithLoadDefaultConfig(ctx, loadOpts...))
	} else {
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("ANTHROPIC_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable is not set")
		}
		opts = append(opts, option.WithAPIKey(apiKey))
	}

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	return &AnthropicAdapter{
		client:    anthropic.NewClient(opts...),
		maxTokens: maxTokens,
	}, nil
}

// Name returns the adapter family identifier.
func (a *AnthropicAdapter) Name() string {
	return "anthropic"
}

// Generate sends a prompt to Claude and returns the response.
func (a *AnthropicAdapter) Generate(ctx context.Context, model string, prompt string) (*models.Response, error) {
	resp, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: a.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return nil, a.classify(err)
	}

	var content string
	for _, block := range resp.Content {
		if block.Type == "text" {
			content += block.Text
		}
	}
	if content == "" {
		return nil, NewCallError(models.FailureMalformed, fmt.Errorf("anthropic returned no text content"))
	}

	return &models.Response{
		Text:         content,
		InputTokens:  int(resp.Usage.InputTokens),
		OutputTokens: int(resp.Usage.OutputTokens),
	}, nil
}

func (a *AnthropicAdapter) classify(err error) error {
	var apierr *anthropic.Error
	if errors.As(err, &apierr) {
		return NewCallError(kindForStatus(apierr.StatusCode), err)
	}
	return NewCallError(Classify(err), err)
}
