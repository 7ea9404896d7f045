package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/drink-orders/internal/line"
	"github.com/drink-orders/internal/logger"
	"github.com/drink-orders/internal/model"
	"github.com/drink-orders/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Replier interface {
	ReplyToInboundMessage(ctx context.Context, replyToken, text string) error
}

type Handler struct {
	orderService  *service.OrderService
	replier       Replier
	channelSecret string
	allowedOrigin string
}

// NewHandler builds the HTTP handlers. An empty channelSecret disables webhook
// signature checks; an empty allowedOrigin closes the order listing routes.
func NewHandler(orderService *service.OrderService, replier Replier, channelSecret, allowedOrigin string) *Handler {
	return &Handler{
		orderService:  orderService,
		replier:       replier,
		channelSecret: channelSecret,
		allowedOrigin: allowedOrigin,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.POST("/order", h.PlaceOrder)
	r.POST("/update-order", h.UpdateOrder)
	r.POST("/webhook", h.Webhook)

	staff := r.Group("/orders", RequireOrigin(h.allowedOrigin))
	staff.GET("", h.GetOrders)
	staff.GET("/:id", h.GetOrder)
}

func (h *Handler) PlaceOrder(c *gin.Context) {
	var req service.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.orderService.PlaceOrder(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	if !result.Notified() {
		c.Error(result.NotifyErr)
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   result.NotifyErr.Error(),
			"message": "Order saved but notification failed",
			"orderId": result.Order.ID,
			"outcome": result.Outcome.String(),
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Order received",
		"orderId": result.Order.ID,
		"outcome": result.Outcome.String(),
	})
}

func (h *Handler) UpdateOrder(c *gin.Context) {
	var req service.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.orderService.UpdateStatus(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	if !result.Notified() {
		c.Error(result.NotifyErr)
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   result.NotifyErr.Error(),
			"message": "Order updated but notification failed",
			"orderId": result.Order.ID,
			"outcome": result.Outcome.String(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order updated",
		"order":   result.Order,
		"outcome": result.Outcome.String(),
	})
}

func (h *Handler) Webhook(c *gin.Context) {
	log := logger.FromContext(c.Request.Context())

	events, err := line.ParseRequest(h.channelSecret, c.Request)
	if errors.Is(err, line.ErrInvalidSignature) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var errs []error
	for _, event := range events {
		if !event.IsText() {
			log.Debug("webhook: skipping event", zap.String("type", event.Type))
			continue
		}
		if err := h.replier.ReplyToInboundMessage(c.Request.Context(), event.ReplyToken, event.Text); err != nil {
			log.Error("webhook: reply failed", zap.String("user_id", event.UserID), zap.Error(err))
			errs = append(errs, err)
		}
	}

	if err := errors.Join(errs...); err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.String(http.StatusOK, "OK")
}

func (h *Handler) GetOrder(c *gin.Context) {
	order, err := h.orderService.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

func (h *Handler) GetOrders(c *gin.Context) {
	orders, err := h.orderService.GetOrders(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	if orders == nil {
		orders = []model.Order{}
	}

	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

func writeError(c *gin.Context, err error) {
	c.Error(err)

	switch {
	case errors.Is(err, model.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, model.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
