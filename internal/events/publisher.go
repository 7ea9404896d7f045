package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/drink-orders/internal/model"
	"github.com/redis/go-redis/v9"
)

const (
	OrderCreatedChannel       = "order.created"
	OrderStatusChangedChannel = "order.status_changed"
	OrderStatusUpdateChannel  = "order.status_update"
)

// OrderEvent is the body of every message on the order channels. Type is also
// the Redis channel and the AMQP routing key.
type OrderEvent struct {
	Type       string       `json:"type"`
	OrderID    string       `json:"orderId"`
	Status     string       `json:"status"`
	Order      *model.Order `json:"order"`
	OccurredAt time.Time    `json:"occurredAt"`
}

func NewOrderEvent(eventType string, order *model.Order) OrderEvent {
	return OrderEvent{
		Type:       eventType,
		OrderID:    order.ID,
		Status:     order.Status,
		Order:      order,
		OccurredAt: time.Now().UTC(),
	}
}

type Publisher interface {
	Publish(ctx context.Context, event OrderEvent) error
}

type RedisPublisher struct {
	client *redis.Client
}

func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

func (p *RedisPublisher) Publish(ctx context.Context, event OrderEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.client.Publish(ctx, event.Type, data).Err()
}
