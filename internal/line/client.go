package line

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
)

const (
	DefaultEndpoint = "https://api.line.me"
	DefaultTimeout  = 10 * time.Second
)

var ErrEmptyRecipient = errors.New("line: empty recipient")

// Client sends push and reply messages through the messaging API SDK with a
// bounded per-call timeout. Calls are never retried.
type Client struct {
	accessToken string
	options     []messaging_api.MessagingApiAPIOption
}

func NewClient(endpoint, accessToken string, timeout time.Duration) (*Client, error) {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Client{
		accessToken: accessToken,
		options: []messaging_api.MessagingApiAPIOption{
			messaging_api.WithEndpoint(endpoint),
			messaging_api.WithHTTPClient(&http.Client{Timeout: timeout}),
		},
	}
	if _, err := c.api(context.Background()); err != nil {
		return nil, fmt.Errorf("line: %w", err)
	}
	return c, nil
}

func (c *Client) Push(ctx context.Context, to string, messages ...Message) error {
	if to == "" {
		return ErrEmptyRecipient
	}
	sdkMessages, err := toSDKMessages(messages)
	if err != nil {
		return err
	}
	api, err := c.api(ctx)
	if err != nil {
		return err
	}
	_, err = api.PushMessage(&messaging_api.PushMessageRequest{To: to, Messages: sdkMessages}, "")
	return err
}

func (c *Client) Reply(ctx context.Context, replyToken string, messages ...Message) error {
	if replyToken == "" {
		return ErrEmptyRecipient
	}
	sdkMessages, err := toSDKMessages(messages)
	if err != nil {
		return err
	}
	api, err := c.api(ctx)
	if err != nil {
		return err
	}
	_, err = api.ReplyMessage(&messaging_api.ReplyMessageRequest{ReplyToken: replyToken, Messages: sdkMessages})
	return err
}

// api builds a per-call SDK client so the request context is never shared
// between concurrent calls.
func (c *Client) api(ctx context.Context) (*messaging_api.MessagingApiAPI, error) {
	api, err := messaging_api.NewMessagingApiAPI(c.accessToken, c.options...)
	if err != nil {
		return nil, err
	}
	return api.WithContext(ctx), nil
}

func toSDKMessages(messages []Message) ([]messaging_api.MessageInterface, error) {
	out := make([]messaging_api.MessageInterface, 0, len(messages))
	for _, m := range messages {
		switch m.Type {
		case "text":
			out = append(out, &messaging_api.TextMessage{Text: m.Text})
		case "flex":
			raw, err := json.Marshal(m.Contents)
			if err != nil {
				return nil, err
			}
			contents, err := messaging_api.UnmarshalFlexContainer(raw)
			if err != nil {
				return nil, fmt.Errorf("line: flex contents: %w", err)
			}
			out = append(out, &messaging_api.FlexMessage{AltText: m.AltText, Contents: contents})
		default:
			return nil, fmt.Errorf("line: unsupported message type %q", m.Type)
		}
	}
	return out, nil
}
