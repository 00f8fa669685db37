package completion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/ziadkadry99/line-relay/internal/llm"
)

// stubProvider records requests and returns a fixed response or error.
type stubProvider struct {
	mu    sync.Mutex
	calls []llm.CompletionRequest
	resp  *llm.CompletionResponse
	err   error
	block bool
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	s.mu.Lock()
	s.calls = append(s.calls, req)
	s.mu.Unlock()
	if s.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.resp, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(p llm.Provider, timeout time.Duration) *Client {
	return NewClient(p, Options{
		Model:           "gpt-3.5-turbo-instruct",
		FallbackMessage: "fallback text",
		Timeout:         timeout,
		Logger:          quietLogger(),
	})
}

func TestGenerateReplySendsFixedSampling(t *testing.T) {
	p := &stubProvider{resp: &llm.CompletionResponse{ID: "cmpl-1", Text: "ok", TotalTokens: 3}}
	c := newTestClient(p, 0)

	c.GenerateReply(context.Background(), "What is LINE?")

	if len(p.calls) != 1 {
		t.Fatalf("expected exactly 1 provider call, got %d", len(p.calls))
	}
	req := p.calls[0]
	if req.Temperature != 0 {
		t.Errorf("temperature = %v, want 0", req.Temperature)
	}
	if req.TopP != 1 {
		t.Errorf("top_p = %v, want 1", req.TopP)
	}
	if req.FrequencyPenalty != 0 || req.PresencePenalty != 0 {
		t.Errorf("penalties = %v/%v, want 0/0", req.FrequencyPenalty, req.PresencePenalty)
	}
	if req.MaxTokens != 200 {
		t.Errorf("max_tokens = %d, want 200", req.MaxTokens)
	}
	if req.Model != "gpt-3.5-turbo-instruct" {
		t.Errorf("model = %q", req.Model)
	}
	if req.Prompt != "What is LINE?" {
		t.Errorf("prompt must be passed verbatim, got %q", req.Prompt)
	}
}

func TestGenerateReplySuccess(t *testing.T) {
	p := &stubProvider{resp: &llm.CompletionResponse{ID: "cmpl-42", Text: "\n\n  Hello!  \n", TotalTokens: 17}}
	c := newTestClient(p, 0)

	res := c.GenerateReply(context.Background(), "hi")

	if res.ID != "cmpl-42" {
		t.Errorf("expected id cmpl-42, got %q", res.ID)
	}
	if res.Reply != "Hello!" {
		t.Errorf("expected trimmed reply, got %q", res.Reply)
	}
	if res.TokensUsed != 17 {
		t.Errorf("expected 17 tokens, got %d", res.TokensUsed)
	}
	if res.Degraded() {
		t.Error("successful result should not be degraded")
	}
}

func TestGenerateReplyFallbackOnError(t *testing.T) {
	errs := []error{
		errors.New("dial tcp: connection refused"),
		fmt.Errorf("openai completion: %w", errors.New("401 invalid_api_key")),
		fmt.Errorf("openai completion cmpl-x: no choices: %w", llm.ErrMalformedResponse),
	}
	for _, providerErr := range errs {
		p := &stubProvider{err: providerErr}
		c := newTestClient(p, 0)

		res := c.GenerateReply(context.Background(), "hi")

		if res.Reply != "fallback text" {
			t.Errorf("%v: expected fallback reply, got %q", providerErr, res.Reply)
		}
		if res.Reply == "" {
			t.Errorf("%v: fallback reply must not be empty", providerErr)
		}
		if res.ID != "" || res.TokensUsed != 0 {
			t.Errorf("%v: expected no id and zero tokens, got %+v", providerErr, res)
		}
		if !res.Degraded() {
			t.Errorf("%v: fallback result should be degraded", providerErr)
		}
	}
}

func TestGenerateReplyTimeout(t *testing.T) {
	p := &stubProvider{block: true}
	c := newTestClient(p, 20*time.Millisecond)

	done := make(chan Result, 1)
	go func() { done <- c.GenerateReply(context.Background(), "hi") }()

	select {
	case res := <-done:
		if !res.Degraded() || res.Reply != "fallback text" {
			t.Errorf("expected fallback after timeout, got %+v", res)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("GenerateReply did not honour the timeout")
	}
}

func TestGenerateReplyCancelledContext(t *testing.T) {
	p := &stubProvider{block: true}
	c := newTestClient(p, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := c.GenerateReply(ctx, "hi")
	if !res.Degraded() {
		t.Errorf("expected fallback for cancelled context, got %+v", res)
	}
}

func TestGenerateReplyBlankText(t *testing.T) {
	p := &stubProvider{resp: &llm.CompletionResponse{ID: "cmpl-blank", Text: " \n ", TotalTokens: 5}}
	c := newTestClient(p, 0)

	res := c.GenerateReply(context.Background(), "hi")
	if res.Reply != "fallback text" {
		t.Errorf("blank completion should be replaced by fallback, got %q", res.Reply)
	}
	if res.ID != "cmpl-blank" || res.TokensUsed != 5 {
		t.Errorf("blank completion should keep id and tokens, got %+v", res)
	}
	if !res.Degraded() {
		t.Error("blank completion carries the fallback message and must be degraded")
	}
}

func TestResultDegraded(t *testing.T) {
	tests := []struct {
		res  Result
		want bool
	}{
		{Result{Reply: "x", Fallback: true}, true},
		{Result{ID: "cmpl-1", Reply: "x", TokensUsed: 1, Fallback: true}, true},
		{Result{ID: "cmpl-1", Reply: "x", TokensUsed: 1}, false},
		{Result{ID: "cmpl-1", Reply: "x"}, false},
	}
	for _, tt := range tests {
		if got := tt.res.Degraded(); got != tt.want {
			t.Errorf("%+v.Degraded() = %v, want %v", tt.res, got, tt.want)
		}
	}
}
