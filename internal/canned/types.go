package canned

import "time"

// Reply is a fixed answer for a prompt. Prompts are stored normalized
// (trimmed, lower-cased) so each row maps to exactly one cache key.
type Reply struct {
	Prompt    string    `json:"prompt"`
	Reply     string    `json:"reply"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
