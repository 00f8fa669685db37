package usage

import "time"

// Source identifies where a reply came from.
type Source string

const (
	SourceCompletion Source = "completion"
	SourceFallback   Source = "fallback"
	SourceCache      Source = "cache"
)

// Entry is one reply recorded in the usage ledger.
type Entry struct {
	ID             string    `json:"id"`
	RequestID      string    `json:"request_id,omitempty"`
	ConversationID string    `json:"conversation_id,omitempty"`
	Source         Source    `json:"source"`
	TokensUsed     int       `json:"tokens_used"`
	CreatedAt      time.Time `json:"created_at"`
}

// Summary aggregates the ledger.
type Summary struct {
	Requests    int            `json:"requests"`
	TotalTokens int            `json:"total_tokens"`
	BySource    map[Source]int `json:"by_source"`
}
