package adapter

import (
	"context"
	"errors"
	"fmt"
	"os"

	"google.golang.org/genai"

	"github.com/arbiterhq/arbiter/pkg/models"
)

// GoogleAdapter serves Gemini models through the GenAI API.
type GoogleAdapter struct {
	client *genai.Client
}

// NewGoogleAdapter creates a Google Gemini adapter.
// If apiKey is empty, the GEMINI_API_KEY environment variable is used.
func NewGoogleAdapter(apiKey string) (*GoogleAdapter, error) {
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable is not set")
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create google client: %w", err)
	}

	return &GoogleAdapter{client: client}, nil
}

// Name returns the adapter family identifier.
func (a *GoogleAdapter) Name() string {
	return "google"
}

// Generate sends a prompt to Gemini and returns the response.
func (a *GoogleAdapter) Generate(ctx context.Context, model string, prompt string) (*models.Response, error) {
	resp, err := a.client.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
	if err != nil {
		return nil, a.classify(err)
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return nil, NewCallError(models.FailureMalformed, fmt.Errorf("google returned no candidates"))
	}

	var content string
	if resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			if part.Text != "" {
				content += part.Text
			}
		}
	}
	if content == "" {
		return nil, NewCallError(models.FailureMalformed, fmt.Errorf("google returned empty content"))
	}

	out := &models.Response{Text: content}
	if resp.UsageMetadata != nil {
		out.InputTokens = int(resp.UsageMetadata.PromptTokenCount)
		out.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	return out, nil
}

func (a *GoogleAdapter) classify(err error) error {
	var apierr genai.APIError
	if errors.As(err, &apierr) {
		return NewCallError(kindForStatus(apierr.Code), err)
	}
	return NewCallError(Classify(err), err)
}
