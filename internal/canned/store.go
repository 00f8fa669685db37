package canned

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ziadkadry99/line-relay/internal/cache"
	"github.com/ziadkadry99/line-relay/internal/db"
)

// ErrNotFound is returned when no canned reply exists for a prompt.
var ErrNotFound = errors.New("canned reply not found")

// Store provides CRUD operations for canned replies.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Upsert creates or replaces the reply for a prompt.
func (s *Store) Upsert(ctx context.Context, prompt, reply string) error {
	prompt = cache.Normalize(prompt)
	if prompt == "" || strings.TrimSpace(reply) == "" {
		return fmt.Errorf("prompt and reply are required")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO canned_replies (prompt, reply) VALUES (?, ?)
		ON CONFLICT(prompt) DO UPDATE SET reply = excluded.reply, updated_at = datetime('now')`,
		prompt, reply,
	)
	if err != nil {
		return fmt.Errorf("upserting canned reply: %w", err)
	}
	return nil
}

// Get returns the canned reply for prompt.
func (s *Store) Get(ctx context.Context, prompt string) (*Reply, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT prompt, reply, created_at, updated_at FROM canned_replies WHERE prompt = ?`,
		cache.Normalize(prompt),
	)
	r, err := scanReply(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting canned reply: %w", err)
	}
	return r, nil
}

// List returns all canned replies ordered by prompt.
func (s *Store) List(ctx context.Context) ([]Reply, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT prompt, reply, created_at, updated_at FROM canned_replies ORDER BY prompt`)
	if err != nil {
		return nil, fmt.Errorf("listing canned replies: %w", err)
	}
	defer rows.Close()

	var replies []Reply
	for rows.Next() {
		r, err := scanReply(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning canned reply: %w", err)
		}
		replies = append(replies, *r)
	}
	return replies, rows.Err()
}

// Delete removes the reply for prompt.
func (s *Store) Delete(ctx context.Context, prompt string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM canned_replies WHERE prompt = ?`, cache.Normalize(prompt))
	if err != nil {
		return fmt.Errorf("deleting canned reply: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Seeds implements cache.SeedSource.
func (s *Store) Seeds(ctx context.Context) ([]cache.Seed, error) {
	replies, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	seeds := make([]cache.Seed, 0, len(replies))
	for _, r := range replies {
		seeds = append(seeds, cache.Seed{Prompt: r.Prompt, Reply: r.Reply})
	}
	return seeds, nil
}

// scanner is implemented by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanReply(sc scanner) (*Reply, error) {
	var (
		r                  Reply
		created, updated string
	)
	if err := sc.Scan(&r.Prompt, &r.Reply, &created, &updated); err != nil {
		return nil, err
	}
	r.CreatedAt = parseTime(created)
	r.UpdatedAt = parseTime(updated)
	return &r, nil
}

func parseTime(s string) time.Time {
	for _, layout := range []string{time.DateTime, time.RFC3339, time.RFC3339Nano} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
