package bots

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"

	"github.com/ziadkadry99/line-relay/internal/metrics"
)

// LineHandler handles LINE Messaging API webhook deliveries.
type LineHandler struct {
	gateway       *Gateway
	channelSecret string
	logger        *slog.Logger
}

// NewLineHandler creates a new LINE webhook handler. An empty
// channelSecret disables signature verification.
func NewLineHandler(gateway *Gateway, channelSecret string, logger *slog.Logger) *LineHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &LineHandler{
		gateway:       gateway,
		channelSecret: channelSecret,
		logger:        logger.With("component", "line_webhook"),
	}
}

// lineEnvelope is the top-level webhook body. Events stays raw so the
// handler can tell a missing or non-array field from an empty batch.
type lineEnvelope struct {
	Destination string          `json:"destination"`
	Events      json.RawMessage `json:"events"`
}

type lineEvent struct {
	Type            string               `json:"type"`
	WebhookEventID  string               `json:"webhookEventId"`
	ReplyToken      string               `json:"replyToken"`
	Timestamp       int64                `json:"timestamp"`
	Source          lineSource           `json:"source"`
	Message         *lineMessage         `json:"message"`
	DeliveryContext *lineDeliveryContext `json:"deliveryContext"`
}

type lineSource struct {
	Type    string `json:"type"`
	UserID  string `json:"userId"`
	GroupID string `json:"groupId"`
	RoomID  string `json:"roomId"`
}

type lineMessage struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Text string `json:"text"`
}

type lineDeliveryContext struct {
	IsRedelivery bool `json:"isRedelivery"`
}

// HandleWebhook verifies and parses a delivery, dispatches every event and
// responds only after all of them have settled.
func (h *LineHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBodySize))
	if err != nil {
		h.logger.Warn("reading webhook body failed", "error", err)
		metrics.ObserveRejectedBatch()
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if h.channelSecret != "" && !webhook.ValidateSignature(h.channelSecret, r.Header.Get(signatureHeader), body) {
		h.logger.Warn("webhook signature mismatch")
		metrics.ObserveRejectedBatch()
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	events, err := parseLineEvents(body)
	if err != nil {
		h.logger.Error("malformed webhook payload", "error", err)
		metrics.ObserveRejectedBatch()
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	h.logger.Info("webhook received", "events", len(events))

	err = h.gateway.ProcessBatch(r.Context(), events)
	metrics.ObserveBatch(len(events), err == nil)
	if err != nil {
		h.logger.Error("webhook batch failed", "events", len(events), "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// parseLineEvents decodes a webhook body. The events field must be
// present and must be an array.
func parseLineEvents(body []byte) ([]InboundEvent, error) {
	var env lineEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decoding webhook body: %w", err)
	}
	raw := bytes.TrimSpace(env.Events)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, fmt.Errorf("events is not an array")
	}

	var decoded []lineEvent
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("decoding events: %w", err)
	}

	events := make([]InboundEvent, 0, len(decoded))
	for _, e := range decoded {
		events = append(events, e.toInbound())
	}
	return events, nil
}

func (e lineEvent) toInbound() InboundEvent {
	ev := InboundEvent{
		ID:             e.WebhookEventID,
		Type:           e.Type,
		ConversationID: e.Source.conversationID(),
		UserID:         e.Source.UserID,
		ReplyToken:     e.ReplyToken,
		Timestamp:      e.Timestamp,
	}
	if e.Message != nil {
		ev.MessageType = e.Message.Type
		ev.Text = e.Message.Text
	}
	// Reply tokens of redelivered events have already expired.
	if e.DeliveryContext != nil && e.DeliveryContext.IsRedelivery {
		ev.ReplyToken = ""
	}
	return ev
}

func (s lineSource) conversationID() string {
	switch {
	case s.GroupID != "":
		return s.GroupID
	case s.RoomID != "":
		return s.RoomID
	default:
		return s.UserID
	}
}
