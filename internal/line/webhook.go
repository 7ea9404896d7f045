package line

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"
)

const SignatureHeader = "X-Line-Signature"

var ErrInvalidSignature = webhook.ErrInvalidSignature

// Event is the part of an inbound webhook event the service acts on.
type Event struct {
	Type       string
	ReplyToken string
	UserID     string
	Text       string
	text       bool
}

// IsText reports whether the event carries a text message that can be answered.
func (e Event) IsText() bool {
	return e.text && e.ReplyToken != ""
}

// ParseRequest reads a webhook request. When channelSecret is set the body must
// carry a valid signature. The body is either the platform envelope
// {"events": [...]} or a bare JSON array of events.
func ParseRequest(channelSecret string, r *http.Request) ([]Event, error) {
	defer r.Body.Close()
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}

	if channelSecret != "" && !webhook.ValidateSignature(channelSecret, r.Header.Get(SignatureHeader), body) {
		return nil, ErrInvalidSignature
	}
	return ParseEvents(body)
}

func ParseEvents(body []byte) ([]Event, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		trimmed = append(append([]byte(`{"events":`), trimmed...), '}')
	}

	var cb webhook.CallbackRequest
	if err := json.Unmarshal(trimmed, &cb); err != nil {
		return nil, err
	}

	events := make([]Event, 0, len(cb.Events))
	for _, ev := range cb.Events {
		events = append(events, fromSDKEvent(ev))
	}
	return events, nil
}

func fromSDKEvent(ev webhook.EventInterface) Event {
	out := Event{Type: ev.GetType()}
	e, ok := ev.(webhook.MessageEvent)
	if !ok {
		return out
	}
	out.ReplyToken = e.ReplyToken
	if src, ok := e.Source.(webhook.UserSource); ok {
		out.UserID = src.UserId
	}
	if msg, ok := e.Message.(webhook.TextMessageContent); ok {
		out.Text = msg.Text
		out.text = true
	}
	return out
}
