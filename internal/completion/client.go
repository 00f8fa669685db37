// Package completion turns a prompt into a reply that is always safe to
// show in a conversation.
package completion

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/ziadkadry99/line-relay/internal/llm"
	"github.com/ziadkadry99/line-relay/internal/metrics"
)

// Sampling parameters sent with every request. Replies are greedy and short.
const (
	Temperature      = 0.0
	TopP             = 1.0
	FrequencyPenalty = 0.0
	PresencePenalty  = 0.0
	MaxTokens        = 200
)

// Result is the outcome of one completion call.
type Result struct {
	// ID is the provider's request id; empty when the provider failed.
	ID         string
	Reply      string
	TokensUsed int
	// Fallback is set when Reply is the configured fallback message,
	// including when the provider answered with blank text.
	Fallback bool
}

// Degraded reports whether r carries the fallback message rather than a
// provider reply.
func (r Result) Degraded() bool {
	return r.Fallback
}

// Options configures a Client.
type Options struct {
	Model           string
	FallbackMessage string
	// Timeout bounds a single provider call. Zero disables the bound.
	Timeout time.Duration
	Logger  *slog.Logger
}

// Client wraps a Provider and absorbs every provider failure into a
// fallback Result.
type Client struct {
	provider llm.Provider
	opts     Options
	logger   *slog.Logger
}

// NewClient creates a Client.
func NewClient(provider llm.Provider, opts Options) *Client {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		provider: provider,
		opts:     opts,
		logger:   logger.With("component", "completion", "provider", provider.Name()),
	}
}

// GenerateReply asks the provider to continue prompt. It never fails: on
// any error the configured fallback message is returned with no id and
// zero tokens.
func (c *Client) GenerateReply(ctx context.Context, prompt string) Result {
	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := c.provider.Complete(ctx, llm.CompletionRequest{
		Model:            c.opts.Model,
		Prompt:           prompt,
		MaxTokens:        MaxTokens,
		Temperature:      Temperature,
		TopP:             TopP,
		FrequencyPenalty: FrequencyPenalty,
		PresencePenalty:  PresencePenalty,
	})
	elapsed := time.Since(start)

	if err != nil {
		c.logger.Error("completion query failed", "error", err, "duration", elapsed)
		metrics.ObserveCompletion(elapsed.Seconds(), 0, true)
		return c.fallback()
	}

	c.logger.Debug("completion response",
		"id", resp.ID,
		"finish_reason", resp.FinishReason,
		"total_tokens", resp.TotalTokens,
		"duration", elapsed,
	)
	metrics.ObserveCompletion(elapsed.Seconds(), resp.TotalTokens, false)

	reply := strings.TrimSpace(resp.Text)
	if reply == "" {
		// The platform rejects empty text messages; keep the id and token
		// count so the call is still accounted for.
		c.logger.Warn("completion returned blank text", "id", resp.ID)
		return Result{
			ID:         resp.ID,
			Reply:      c.opts.FallbackMessage,
			TokensUsed: resp.TotalTokens,
			Fallback:   true,
		}
	}

	return Result{
		ID:         resp.ID,
		Reply:      reply,
		TokensUsed: resp.TotalTokens,
	}
}

func (c *Client) fallback() Result {
	return Result{Reply: c.opts.FallbackMessage, Fallback: true}
}
