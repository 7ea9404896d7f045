package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/drink-orders/internal/model"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

type published struct {
	exchange, key string
	msg           amqp.Publishing
}

type mockChannel struct {
	mu         sync.Mutex
	declared   []string
	published  []published
	declareErr error
}

func (m *mockChannel) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error {
	if m.declareErr != nil {
		return m.declareErr
	}
	m.declared = append(m.declared, name+":"+kind)
	return nil
}

func (m *mockChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, published{exchange: exchange, key: key, msg: msg})
	return nil
}

func TestAMQPPublisher(t *testing.T) {
	ch := &mockChannel{}
	pub, err := NewAMQPPublisher(ch, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ch.declared) != 1 || ch.declared[0] != "orders:topic" {
		t.Errorf("expected orders topic exchange, got %v", ch.declared)
	}

	order := &model.Order{ID: "o1", UserID: "u1", Drink: "latte", Status: model.StatusPending}
	if err := pub.Publish(context.Background(), NewOrderEvent(OrderCreatedChannel, order)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(ch.published) != 1 {
		t.Fatalf("expected 1 message, got %d", len(ch.published))
	}
	p := ch.published[0]
	if p.exchange != "orders" || p.key != OrderCreatedChannel {
		t.Errorf("unexpected routing %s/%s", p.exchange, p.key)
	}
	if p.msg.DeliveryMode != amqp.Persistent || p.msg.MessageId != "o1" {
		t.Errorf("unexpected publishing %+v", p.msg)
	}
	var body OrderEvent
	if err := json.Unmarshal(p.msg.Body, &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Type != OrderCreatedChannel || body.OrderID != "o1" || body.Status != model.StatusPending {
		t.Errorf("unexpected event %+v", body)
	}
	if body.OccurredAt.IsZero() || body.Order == nil || body.Order.Drink != "latte" {
		t.Errorf("expected occurredAt and order snapshot, got %s", p.msg.Body)
	}
}

func TestAMQPPublisherDeclareError(t *testing.T) {
	ch := &mockChannel{declareErr: errors.New("access refused")}
	if _, err := NewAMQPPublisher(ch, "orders"); err == nil {
		t.Error("expected declare error")
	}
}

type mockUpdater struct {
	calls   [][2]string
	outcome string
	err     error
}

func (m *mockUpdater) UpdateOrderStatus(ctx context.Context, id string, status string) (string, error) {
	m.calls = append(m.calls, [2]string{id, status})
	return m.outcome, m.err
}

func TestHandleStatusUpdate(t *testing.T) {
	updater := &mockUpdater{}
	c := NewConsumer(nil, updater, zap.NewNop())

	if err := c.handleStatusUpdate(context.Background(), `{"orderId":"o1","status":"done"}`); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(updater.calls) != 1 || updater.calls[0] != [2]string{"o1", "done"} {
		t.Errorf("unexpected calls: %v", updater.calls)
	}

	if err := c.handleStatusUpdate(context.Background(), `{"orderId":"o1"}`); err == nil {
		t.Error("expected error for missing status")
	}
	if err := c.handleStatusUpdate(context.Background(), `not json`); err == nil {
		t.Error("expected error for malformed payload")
	}

	updater.outcome = "updated_notification_failed"
	if err := c.handleStatusUpdate(context.Background(), `{"orderId":"o1","status":"cancelled"}`); err != nil {
		t.Errorf("written status with undelivered notification must not fail, got %v", err)
	}

	updater.err = errors.New("boom")
	if err := c.handleStatusUpdate(context.Background(), `{"orderId":"o1","status":"done"}`); err == nil {
		t.Error("expected updater error to propagate")
	}
}
