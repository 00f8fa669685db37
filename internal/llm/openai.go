package llm

import (
	"context"
	"fmt"
	"math"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIOptions configures an OpenAIProvider.
type OpenAIOptions struct {
	APIKey       string
	Organization string
	// BaseURL overrides the API root, e.g. for a proxy. Empty uses api.openai.com.
	BaseURL string
	Model   string
}

// OpenAIProvider implements Provider using the OpenAI Completions API.
type OpenAIProvider struct {
	client *openai.Client
	model  string
}

// NewOpenAIProvider creates a new OpenAI provider.
func NewOpenAIProvider(opts OpenAIOptions) *OpenAIProvider {
	cfg := openai.DefaultConfig(opts.APIKey)
	cfg.OrgID = opts.Organization
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	return &OpenAIProvider{
		client: openai.NewClientWithConfig(cfg),
		model:  opts.Model,
	}
}

func (p *OpenAIProvider) Name() string {
	return "openai"
}

func (p *OpenAIProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}

	apiReq := openai.CompletionRequest{
		Model:            model,
		Prompt:           req.Prompt,
		MaxTokens:        req.MaxTokens,
		Temperature:      wireFloat(req.Temperature),
		TopP:             wireFloat(req.TopP),
		FrequencyPenalty: float32(req.FrequencyPenalty),
		PresencePenalty:  float32(req.PresencePenalty),
	}

	resp, err := p.client.CreateCompletion(ctx, apiReq)
	if err != nil {
		return nil, fmt.Errorf("openai completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai completion %s: no choices: %w", resp.ID, ErrMalformedResponse)
	}
	if resp.Usage == nil {
		return nil, fmt.Errorf("openai completion %s: no usage: %w", resp.ID, ErrMalformedResponse)
	}

	return &CompletionResponse{
		ID:               resp.ID,
		Text:             resp.Choices[0].Text,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
		Model:            resp.Model,
		FinishReason:     resp.Choices[0].FinishReason,
	}, nil
}

// wireFloat converts a sampling parameter for the request body. go-openai
// drops zero values (omitempty), which the API reads as its own default,
// so zero is sent as the smallest positive float32 instead.
func wireFloat(v float64) float32 {
	if v == 0 {
		return math.SmallestNonzeroFloat32
	}
	return float32(v)
}
