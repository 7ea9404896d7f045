package repo

import (
	"context"

	"github.com/drink-orders/internal/model"
)

// OrderRepository is the durable order store. Implementations return
// model.ErrNotFound for unknown ids and wrap everything else in model.ErrStorage.
type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	GetByID(ctx context.Context, id string) (*model.Order, error)
	GetAll(ctx context.Context) ([]model.Order, error)
	UpdateStatus(ctx context.Context, id string, status string) (*model.Order, error)
}
