// Package usage keeps a ledger of every reply sent and the tokens it cost.
package usage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ziadkadry99/line-relay/internal/db"
)

// Store reads and writes the completion_usage table.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Record inserts entry. If entry.ID is empty a UUID is generated.
func (s *Store) Record(ctx context.Context, entry Entry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	switch entry.Source {
	case SourceCompletion, SourceFallback, SourceCache:
	default:
		return fmt.Errorf("unknown usage source %q", entry.Source)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO completion_usage (id, request_id, conversation_id, source, tokens_used)
		VALUES (?, ?, ?, ?, ?)`,
		entry.ID, entry.RequestID, entry.ConversationID, string(entry.Source), entry.TokensUsed,
	)
	if err != nil {
		return fmt.Errorf("inserting usage entry: %w", err)
	}
	return nil
}

// Summary aggregates entries created at or after since. A zero since
// covers the whole ledger.
func (s *Store) Summary(ctx context.Context, since time.Time) (*Summary, error) {
	query := `SELECT source, COUNT(*), COALESCE(SUM(tokens_used), 0) FROM completion_usage`
	var args []any
	if !since.IsZero() {
		query += ` WHERE created_at >= ?`
		args = append(args, since.UTC().Format(time.DateTime))
	}
	query += ` GROUP BY source`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("summarizing usage: %w", err)
	}
	defer rows.Close()

	sum := &Summary{BySource: make(map[Source]int)}
	for rows.Next() {
		var (
			source        string
			count, tokens int
		)
		if err := rows.Scan(&source, &count, &tokens); err != nil {
			return nil, fmt.Errorf("scanning usage summary: %w", err)
		}
		sum.BySource[Source(source)] = count
		sum.Requests += count
		sum.TotalTokens += tokens
	}
	return sum, rows.Err()
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, request_id, conversation_id, source, tokens_used, created_at
		FROM completion_usage
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing usage: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e       Entry
			source  string
			created string
		)
		if err := rows.Scan(&e.ID, &e.RequestID, &e.ConversationID, &source, &e.TokensUsed, &created); err != nil {
			return nil, fmt.Errorf("scanning usage entry: %w", err)
		}
		e.Source = Source(source)
		e.CreatedAt = parseTime(created)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func parseTime(s string) time.Time {
	for _, layout := range []string{time.DateTime, time.RFC3339, time.RFC3339Nano} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
