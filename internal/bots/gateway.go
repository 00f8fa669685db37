package bots

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// EventHandler handles a single inbound event.
type EventHandler interface {
	Handle(ctx context.Context, ev InboundEvent) error
}

// Gateway fans a webhook batch out to an EventHandler.
type Gateway struct {
	handler EventHandler
}

// NewGateway creates a new Gateway with the given event handler.
func NewGateway(handler EventHandler) *Gateway {
	return &Gateway{handler: handler}
}

// ProcessBatch handles every event concurrently and waits for all of them.
// The first failure cancels the context passed to the remaining handlers
// and is the error returned. Replies already delivered are not undone.
func (g *Gateway) ProcessBatch(ctx context.Context, events []InboundEvent) error {
	group, gctx := errgroup.WithContext(ctx)
	for _, ev := range events {
		group.Go(func() error {
			return g.handler.Handle(gctx, ev)
		})
	}
	return group.Wait()
}
