package events

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// OrderStatusUpdater applies a status change. The returned outcome names how
// far it got; err is non-nil only when the status was not written.
type OrderStatusUpdater interface {
	UpdateOrderStatus(ctx context.Context, id string, status string) (outcome string, err error)
}

// StatusUpdate is published by the kitchen display on OrderStatusUpdateChannel.
type StatusUpdate struct {
	OrderID string `json:"orderId"`
	Status  string `json:"status"`
}

type Consumer struct {
	client  *redis.Client
	updater OrderStatusUpdater
	log     *zap.Logger
}

func NewConsumer(client *redis.Client, updater OrderStatusUpdater, log *zap.Logger) *Consumer {
	return &Consumer{client: client, updater: updater, log: log}
}

// Subscribe blocks until ctx is cancelled.
func (c *Consumer) Subscribe(ctx context.Context, channel string) {
	sub := c.client.Subscribe(ctx, channel)
	defer sub.Close()
	ch := sub.Channel()

	c.log.Info("subscribed to channel", zap.String("channel", channel))

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			c.log.Debug("message received", zap.String("channel", msg.Channel), zap.String("payload", msg.Payload))
			if err := c.handleStatusUpdate(ctx, msg.Payload); err != nil {
				c.log.Error("failed to apply status update", zap.String("channel", msg.Channel), zap.Error(err))
			}
		}
	}
}

func (c *Consumer) handleStatusUpdate(ctx context.Context, payload string) error {
	var update StatusUpdate
	if err := json.Unmarshal([]byte(payload), &update); err != nil {
		return err
	}
	if update.OrderID == "" || update.Status == "" {
		return errors.New("status update requires orderId and status")
	}

	outcome, err := c.updater.UpdateOrderStatus(ctx, update.OrderID, update.Status)
	if err != nil {
		return err
	}
	c.log.Info("order status updated from kitchen display",
		zap.String("order_id", update.OrderID), zap.String("status", update.Status), zap.String("outcome", outcome))
	return nil
}
