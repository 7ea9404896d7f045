package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/drink-orders/internal/events"
	"github.com/drink-orders/internal/logger"
	"github.com/drink-orders/internal/model"
	"github.com/drink-orders/internal/repo"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Notifier interface {
	NotifyCreated(ctx context.Context, order *model.Order) error
	NotifyStatusChanged(ctx context.Context, order *model.Order, status string) error
}

// Outcome reports how far an order operation got. The store write and the
// notification are separate steps; a failed notification never undoes the write.
type Outcome int

const (
	Created Outcome = iota
	CreatedNotificationFailed
	Updated
	UpdatedNotificationFailed
)

func (o Outcome) String() string {
	switch o {
	case Created:
		return "created"
	case CreatedNotificationFailed:
		return "created_notification_failed"
	case Updated:
		return "updated"
	case UpdatedNotificationFailed:
		return "updated_notification_failed"
	default:
		return "unknown"
	}
}

type Result struct {
	Order     *model.Order
	Outcome   Outcome
	NotifyErr error
}

func (r *Result) Notified() bool {
	return r.NotifyErr == nil
}

type OrderService struct {
	repo      repo.OrderRepository
	notifier  Notifier
	publisher events.Publisher
}

// NewOrderService wires the store and dispatcher. publisher may be nil.
func NewOrderService(repo repo.OrderRepository, notifier Notifier, publisher events.Publisher) *OrderService {
	return &OrderService{repo: repo, notifier: notifier, publisher: publisher}
}

type PlaceOrderRequest struct {
	UserID string `json:"userId" binding:"required"`
	Name   string `json:"name" binding:"required"`
	Drink  string `json:"drink" binding:"required"`
	Note   string `json:"note"`
}

func (r PlaceOrderRequest) Validate() error {
	var missing []string
	if strings.TrimSpace(r.UserID) == "" {
		missing = append(missing, "userId")
	}
	if strings.TrimSpace(r.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(r.Drink) == "" {
		missing = append(missing, "drink")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", model.ErrValidation, strings.Join(missing, ", "))
	}
	return nil
}

// UpdateStatusRequest.UserID is accepted for compatibility with older kiosk
// clients; notifications always go to the stored order's user.
type UpdateStatusRequest struct {
	OrderID string `json:"orderId" binding:"required"`
	Status  string `json:"status" binding:"required"`
	UserID  string `json:"userId"`
}

func (r UpdateStatusRequest) Validate() error {
	if strings.TrimSpace(r.OrderID) == "" {
		return fmt.Errorf("%w: missing orderId", model.ErrValidation)
	}
	if strings.TrimSpace(r.Status) == "" {
		return fmt.Errorf("%w: missing status", model.ErrValidation)
	}
	return nil
}

// PlaceOrder persists a pending order and sends the confirmation. A non-nil
// error means nothing was stored; a notification failure is reported in the
// Result only.
func (s *OrderService) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*Result, error) {
	log := logger.FromContext(ctx)

	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	order := &model.Order{
		ID:        uuid.New().String(),
		UserID:    req.UserID,
		Name:      req.Name,
		Drink:     req.Drink,
		Note:      req.Note,
		Status:    model.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, order); err != nil {
		log.Error("postgres: failed to create order", zap.Error(err))
		return nil, err
	}
	log.Info("order created", zap.String("order_id", order.ID), zap.String("user_id", order.UserID))

	s.publish(ctx, events.NewOrderEvent(events.OrderCreatedChannel, order))

	result := &Result{Order: order, Outcome: Created}
	if err := s.notifier.NotifyCreated(ctx, order); err != nil {
		log.Warn("order saved but confirmation not delivered", zap.String("order_id", order.ID), zap.Error(err))
		result.Outcome = CreatedNotificationFailed
		result.NotifyErr = err
	}
	return result, nil
}

// UpdateStatus overwrites the order's status with any value and notifies the
// customer, including when the status is unchanged.
func (s *OrderService) UpdateStatus(ctx context.Context, req UpdateStatusRequest) (*Result, error) {
	log := logger.FromContext(ctx)

	if err := req.Validate(); err != nil {
		return nil, err
	}

	order, err := s.repo.UpdateStatus(ctx, req.OrderID, req.Status)
	if err != nil {
		log.Error("postgres: failed to update order status", zap.String("order_id", req.OrderID), zap.Error(err))
		return nil, err
	}
	log.Info("order status updated", zap.String("order_id", order.ID), zap.String("status", req.Status))

	if req.UserID != "" && req.UserID != order.UserID {
		log.Warn("update request user does not match order owner",
			zap.String("order_id", order.ID), zap.String("request_user_id", req.UserID))
	}

	s.publish(ctx, events.NewOrderEvent(events.OrderStatusChangedChannel, order))

	result := &Result{Order: order, Outcome: Updated}
	if err := s.notifier.NotifyStatusChanged(ctx, order, req.Status); err != nil {
		log.Warn("status saved but notification not delivered", zap.String("order_id", order.ID), zap.Error(err))
		result.Outcome = UpdatedNotificationFailed
		result.NotifyErr = err
	}
	return result, nil
}

// UpdateOrderStatus satisfies events.OrderStatusUpdater. Only a failed store
// write is an error; an undelivered notification is logged by UpdateStatus and
// reported through the returned Outcome.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, id string, status string) (string, error) {
	result, err := s.UpdateStatus(ctx, UpdateStatusRequest{OrderID: id, Status: status})
	if err != nil {
		return "", err
	}
	return result.Outcome.String(), nil
}

func (s *OrderService) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *OrderService) GetOrders(ctx context.Context) ([]model.Order, error) {
	return s.repo.GetAll(ctx)
}

func (s *OrderService) publish(ctx context.Context, event events.OrderEvent) {
	if s.publisher == nil {
		return
	}
	log := logger.FromContext(ctx)
	if err := s.publisher.Publish(ctx, event); err != nil {
		log.Error("failed to publish event", zap.String("channel", event.Type), zap.Error(err))
		return
	}
	log.Info("event published", zap.String("channel", event.Type), zap.String("order_id", event.OrderID))
}
