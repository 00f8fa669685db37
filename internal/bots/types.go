package bots

import "strings"

// Event and message types the relay acts on.
const (
	EventTypeMessage   = "message"
	MessageTypeText    = "text"
	SourceTypeUser     = "user"
	SourceTypeGroup    = "group"
	SourceTypeRoom     = "room"
	signatureHeader    = "X-Line-Signature"
	maxWebhookBodySize = 1 << 20
)

// InboundEvent is one event from a webhook delivery, flattened to what
// the dispatcher needs.
type InboundEvent struct {
	ID          string
	Type        string
	MessageType string
	// ConversationID is the group, room or user the event came from,
	// whichever is most specific.
	ConversationID string
	UserID         string
	ReplyToken     string
	Text           string
	Timestamp      int64 // milliseconds since epoch
}

// Processable reports whether the event is a non-blank text message.
func (e InboundEvent) Processable() bool {
	return e.Type == EventTypeMessage &&
		e.MessageType == MessageTypeText &&
		strings.TrimSpace(e.Text) != ""
}

// OutgoingReply is a reply addressed to a conversation.
type OutgoingReply struct {
	ConversationID string
	// ReplyToken is used when present; otherwise the reply is pushed to
	// ConversationID.
	ReplyToken string
	Text       string
}
