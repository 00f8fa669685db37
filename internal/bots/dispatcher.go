package bots

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ziadkadry99/line-relay/internal/cache"
	"github.com/ziadkadry99/line-relay/internal/completion"
	"github.com/ziadkadry99/line-relay/internal/metrics"
	"github.com/ziadkadry99/line-relay/internal/usage"
)

// Generator produces a reply for a prompt. It never fails.
type Generator interface {
	GenerateReply(ctx context.Context, prompt string) completion.Result
}

// Replier delivers a reply to the platform.
type Replier interface {
	Reply(ctx context.Context, reply OutgoingReply) error
}

// UsageRecorder persists one usage ledger entry.
type UsageRecorder interface {
	Record(ctx context.Context, entry usage.Entry) error
}

// DispatcherOptions holds the optional collaborators of a Dispatcher.
type DispatcherOptions struct {
	Cache    cache.Cache
	CacheTTL time.Duration
	Usage    UsageRecorder
	Logger   *slog.Logger
}

// Dispatcher turns one inbound event into at most one completion call and
// at most one reply.
type Dispatcher struct {
	generator Generator
	replier   Replier
	cache     cache.Cache
	cacheTTL  time.Duration
	usage     UsageRecorder
	logger    *slog.Logger
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(generator Generator, replier Replier, opts DispatcherOptions) *Dispatcher {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		generator: generator,
		replier:   replier,
		cache:     opts.Cache,
		cacheTTL:  opts.CacheTTL,
		usage:     opts.Usage,
		logger:    logger.With("component", "dispatcher"),
	}
}

// Handle answers ev. Events other than non-blank text messages are
// ignored. The only errors returned come from delivering the reply or
// from ctx being cancelled before delivery.
func (d *Dispatcher) Handle(ctx context.Context, ev InboundEvent) error {
	if !ev.Processable() {
		d.logger.Debug("skipping event", "event_id", ev.ID, "type", ev.Type, "message_type", ev.MessageType)
		metrics.ObserveEvent(metrics.EventSkipped)
		return nil
	}

	key := cache.Key(ev.Text)
	entry := usage.Entry{ConversationID: ev.ConversationID}
	text, hit := d.lookup(ctx, key)

	if hit {
		entry.Source = usage.SourceCache
	} else {
		res := d.generator.GenerateReply(ctx, ev.Text)
		text = res.Reply
		entry.RequestID = res.ID
		entry.TokensUsed = res.TokensUsed
		// Fallback text is never cached, even when the provider spent tokens.
		if res.Degraded() {
			entry.Source = usage.SourceFallback
		} else {
			entry.Source = usage.SourceCompletion
			d.store(ctx, key, text)
		}
	}

	if d.usage != nil {
		// Tokens were spent whether or not the reply goes out.
		if err := d.usage.Record(context.WithoutCancel(ctx), entry); err != nil {
			d.logger.Warn("recording usage failed", "event_id", ev.ID, "error", err)
		}
	}

	if err := ctx.Err(); err != nil {
		metrics.ObserveEvent(metrics.EventFailed)
		return fmt.Errorf("event %s abandoned: %w", ev.ID, err)
	}

	err := d.replier.Reply(ctx, OutgoingReply{
		ConversationID: ev.ConversationID,
		ReplyToken:     ev.ReplyToken,
		Text:           text,
	})
	if err != nil {
		metrics.ObserveEvent(metrics.EventFailed)
		return fmt.Errorf("replying to %s: %w", ev.ConversationID, err)
	}

	if hit {
		metrics.ObserveEvent(metrics.EventCacheHit)
	} else {
		metrics.ObserveEvent(metrics.EventReplied)
	}
	d.logger.Debug("replied", "event_id", ev.ID, "conversation_id", ev.ConversationID, "source", entry.Source)
	return nil
}

func (d *Dispatcher) lookup(ctx context.Context, key string) (string, bool) {
	if d.cache == nil {
		return "", false
	}
	text, ok, err := d.cache.Get(ctx, key)
	if err != nil {
		d.logger.Warn("cache lookup failed", "error", err)
		return "", false
	}
	return text, ok
}

func (d *Dispatcher) store(ctx context.Context, key, text string) {
	if d.cache == nil {
		return
	}
	if err := d.cache.Set(ctx, key, text, d.cacheTTL); err != nil {
		d.logger.Warn("cache write failed", "error", err)
	}
}
