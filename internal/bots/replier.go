package bots

import (
	"context"
	"errors"
	"fmt"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
)

// LineReplier sends replies through the LINE Messaging API.
type LineReplier struct {
	api *messaging_api.MessagingApiAPI
}

// NewLineReplier creates a LineReplier. A non-empty endpoint overrides the
// API base URL.
func NewLineReplier(channelToken, endpoint string) (*LineReplier, error) {
	var opts []messaging_api.MessagingApiAPIOption
	if endpoint != "" {
		opts = append(opts, messaging_api.WithEndpoint(endpoint))
	}
	api, err := messaging_api.NewMessagingApiAPI(channelToken, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating messaging api client: %w", err)
	}
	return &LineReplier{api: api}, nil
}

// Reply answers with the reply token when there is one and pushes to the
// conversation otherwise.
func (l *LineReplier) Reply(ctx context.Context, reply OutgoingReply) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	messages := []messaging_api.MessageInterface{
		messaging_api.TextMessage{Text: reply.Text},
	}

	if reply.ReplyToken != "" {
		if _, err := l.api.ReplyMessage(&messaging_api.ReplyMessageRequest{
			ReplyToken: reply.ReplyToken,
			Messages:   messages,
		}); err != nil {
			return fmt.Errorf("reply message: %w", err)
		}
		return nil
	}

	if reply.ConversationID == "" {
		return errors.New("reply has neither a reply token nor a conversation id")
	}
	if _, err := l.api.PushMessage(&messaging_api.PushMessageRequest{
		To:       reply.ConversationID,
		Messages: messages,
	}, ""); err != nil {
		return fmt.Errorf("push message: %w", err)
	}
	return nil
}
