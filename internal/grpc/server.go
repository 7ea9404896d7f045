package grpc

import (
	"context"
	"errors"
	"time"

	"github.com/drink-orders/internal/logger"
	"github.com/drink-orders/internal/model"
	"github.com/drink-orders/internal/service"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

type Server struct {
	orderService *service.OrderService
	log          *zap.Logger
}

func NewServer(orderService *service.OrderService, log *zap.Logger) *Server {
	return &Server{
		orderService: orderService,
		log:          log,
	}
}

func (s *Server) CreateOrder(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	ctx, log := s.setupContext(ctx)

	result, err := s.orderService.PlaceOrder(ctx, service.PlaceOrderRequest{
		UserID: stringField(req, "userId"),
		Name:   stringField(req, "name"),
		Drink:  stringField(req, "drink"),
		Note:   stringField(req, "note"),
	})
	if err != nil {
		log.Error("failed to create order", zap.Error(err))
		return nil, toStatus(err, "failed to create order")
	}

	log.Info("order created via gRPC", zap.String("order_id", result.Order.ID), zap.String("outcome", result.Outcome.String()))
	return resultToProto(result)
}

func (s *Server) GetOrder(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	ctx, log := s.setupContext(ctx)
	id := stringField(req, "orderId")

	order, err := s.orderService.GetOrder(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			log.Warn("order not found", zap.String("order_id", id))
		} else {
			log.Error("failed to get order", zap.String("order_id", id), zap.Error(err))
		}
		return nil, toStatus(err, "failed to get order")
	}

	return structpb.NewStruct(map[string]any{"order": orderToMap(order)})
}

func (s *Server) ListOrders(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	ctx, log := s.setupContext(ctx)

	orders, err := s.orderService.GetOrders(ctx)
	if err != nil {
		log.Error("failed to list orders", zap.Error(err))
		return nil, toStatus(err, "failed to list orders")
	}

	items := make([]any, len(orders))
	for i := range orders {
		items[i] = orderToMap(&orders[i])
	}

	return structpb.NewStruct(map[string]any{"orders": items})
}

func (s *Server) UpdateOrderStatus(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	ctx, log := s.setupContext(ctx)
	id := stringField(req, "orderId")

	result, err := s.orderService.UpdateStatus(ctx, service.UpdateStatusRequest{
		OrderID: id,
		Status:  stringField(req, "status"),
		UserID:  stringField(req, "userId"),
	})
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			log.Warn("order not found", zap.String("order_id", id))
		} else {
			log.Error("failed to update order status", zap.String("order_id", id), zap.Error(err))
		}
		return nil, toStatus(err, "failed to update order status")
	}

	log.Info("order status updated via gRPC", zap.String("order_id", id), zap.String("outcome", result.Outcome.String()))
	return resultToProto(result)
}

func (s *Server) setupContext(ctx context.Context) (context.Context, *zap.Logger) {
	requestID := metadataValue(ctx, "x-request-id")
	if requestID == "" {
		requestID = uuid.New().String()
	}
	log := s.log.With(zap.String("request_id", requestID))
	return logger.WithContext(ctx, log), log
}

func metadataValue(ctx context.Context, key string) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	if values := md.Get(key); len(values) > 0 {
		return values[0]
	}
	return ""
}

func toStatus(err error, msg string) error {
	switch {
	case errors.Is(err, model.ErrValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, model.ErrNotFound):
		return status.Error(codes.NotFound, "order not found")
	default:
		return status.Error(codes.Internal, msg)
	}
}

func stringField(s *structpb.Struct, key string) string {
	if s == nil {
		return ""
	}
	return s.GetFields()[key].GetStringValue()
}

// resultToProto reports a failed notification as a successful call with
// notified=false, since the order write already happened.
func resultToProto(result *service.Result) (*structpb.Struct, error) {
	fields := map[string]any{
		"order":    orderToMap(result.Order),
		"outcome":  result.Outcome.String(),
		"notified": result.Notified(),
	}
	if result.NotifyErr != nil {
		fields["notificationError"] = result.NotifyErr.Error()
	}
	return structpb.NewStruct(fields)
}

func orderToMap(o *model.Order) map[string]any {
	return map[string]any{
		"id":        o.ID,
		"userId":    o.UserID,
		"name":      o.Name,
		"drink":     o.Drink,
		"note":      o.Note,
		"status":    o.Status,
		"createdAt": o.CreatedAt.Format(time.RFC3339),
		"updatedAt": o.UpdatedAt.Format(time.RFC3339),
	}
}
