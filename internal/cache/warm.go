package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Seed is a prompt with a fixed reply.
type Seed struct {
	Prompt string
	Reply  string
}

// SeedSource lists the replies the cache is warmed with.
type SeedSource interface {
	Seeds(ctx context.Context) ([]Seed, error)
}

// Warm loads every seed into c without expiry and returns how many were
// stored. Callers run it in its own goroutine at startup: serving does not
// wait for it, so requests that arrive early may miss seeded entries.
func Warm(ctx context.Context, c Cache, src SeedSource, logger *slog.Logger) (int, error) {
	start := time.Now()
	seeds, err := src.Seeds(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing cache seeds: %w", err)
	}

	stored := 0
	for _, s := range seeds {
		if err := ctx.Err(); err != nil {
			return stored, err
		}
		if err := c.Set(ctx, Key(s.Prompt), s.Reply, 0); err != nil {
			return stored, fmt.Errorf("seeding %q: %w", s.Prompt, err)
		}
		stored++
	}

	if logger != nil {
		logger.Info("cache warmed", "entries", stored, "duration", time.Since(start))
	}
	return stored, nil
}
