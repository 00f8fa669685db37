package llm

import "errors"

// ErrMalformedResponse is returned when the provider answered but the
// payload does not carry the fields a completion needs.
var ErrMalformedResponse = errors.New("malformed provider response")

// CompletionRequest contains the parameters for a text completion request.
type CompletionRequest struct {
	Model            string
	Prompt           string
	MaxTokens        int
	Temperature      float64
	TopP             float64
	FrequencyPenalty float64
	PresencePenalty  float64
}

// CompletionResponse contains the result of a text completion request.
type CompletionResponse struct {
	ID               string
	Text             string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	Model            string
	FinishReason     string
}
