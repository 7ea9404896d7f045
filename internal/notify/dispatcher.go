package notify

import (
	"context"
	"fmt"

	"github.com/drink-orders/internal/line"
	"github.com/drink-orders/internal/logger"
	"github.com/drink-orders/internal/model"
	"go.uber.org/zap"
)

// Messenger delivers messages to the chat platform. *line.Client satisfies it.
type Messenger interface {
	Push(ctx context.Context, to string, messages ...line.Message) error
	Reply(ctx context.Context, replyToken string, messages ...line.Message) error
}

type Dispatcher struct {
	messenger Messenger
}

func NewDispatcher(messenger Messenger) *Dispatcher {
	return &Dispatcher{messenger: messenger}
}

// NotifyCreated sends the order confirmation to the ordering user.
// Errors wrap model.ErrNotification.
func (d *Dispatcher) NotifyCreated(ctx context.Context, order *model.Order) error {
	return d.push(ctx, order.UserID, CreatedMessage(order))
}

func (d *Dispatcher) NotifyStatusChanged(ctx context.Context, order *model.Order, status string) error {
	return d.push(ctx, order.UserID, StatusMessage(order, status))
}

func (d *Dispatcher) ReplyToInboundMessage(ctx context.Context, replyToken, text string) error {
	if err := d.messenger.Reply(ctx, replyToken, line.TextMessage(ReplyText(text))); err != nil {
		return fmt.Errorf("%w: reply: %w", model.ErrNotification, err)
	}
	return nil
}

func (d *Dispatcher) push(ctx context.Context, to string, msg line.Message) error {
	log := logger.FromContext(ctx)

	if err := d.messenger.Push(ctx, to, msg); err != nil {
		log.Error("line: push failed", zap.String("user_id", to), zap.String("message_type", msg.Type), zap.Error(err))
		return fmt.Errorf("%w: push to %s: %w", model.ErrNotification, to, err)
	}

	log.Debug("line: message pushed", zap.String("user_id", to), zap.String("message_type", msg.Type))
	return nil
}
