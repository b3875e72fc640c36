package adapter

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/arbiterhq/arbiter/pkg/models"
)

// OpenAIAdapter serves OpenAI chat models.
type OpenAIAdapter struct {
	client    openai.Client
	maxTokens int64
}

// NewOpenAIAdapter creates an OpenAI adapter.
// If apiKey is empty, the OPENAI_API_KEY environment variable is used.
func NewOpenAIAdapter(apiKey string, maxTokens int64) (*OpenAIAdapter, error) {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable is not set")
	}
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	return &OpenAIAdapter{
		client:    openai.NewClient(option.WithAPIKey(apiKey)),
		maxTokens: maxTokens,
	}, nil
}

// Name returns the adapter family identifier.
func (a *OpenAIAdapter) Name() string {
	return "openai"
}

// Generate sends a prompt to an OpenAI model and returns the response.
func (a *OpenAIAdapter) Generate(ctx context.Context, model string, prompt string) (*models.Response, error) {
	resp, err := a.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		MaxCompletionTokens: openai.Int(a.maxTokens),
	})
	if err != nil {
		return nil, a.classify(err)
	}

	if len(resp.Choices) == 0 {
		return nil, NewCallError(models.FailureMalformed, fmt.Errorf("openai returned no choices"))
	}

	return &models.Response{
		Text:         resp.Choices[0].Message.Content,
		InputTokens:  int(resp.Usage.PromptTokens),
		OutputTokens: int(resp.Usage.CompletionTokens),
	}, nil
}

func (a *OpenAIAdapter) classify(err error) error {
	var apierr *openai.Error
	if errors.As(err, &apierr) {
		return NewCallError(kindForStatus(apierr.StatusCode), err)
	}
	return NewCallError(Classify(err), err)
}
