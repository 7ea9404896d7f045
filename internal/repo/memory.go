package repo

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/drink-orders/internal/model"
)

// MemoryOrderRepository keeps orders in process memory. Used for local runs
// with STORE_DRIVER=memory and by tests.
type MemoryOrderRepository struct {
	mu     sync.RWMutex
	orders map[string]model.Order
}

func NewMemoryOrderRepository() *MemoryOrderRepository {
	return &MemoryOrderRepository{orders: make(map[string]model.Order)}
}

func (m *MemoryOrderRepository) Create(ctx context.Context, order *model.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[order.ID]; ok {
		return fmt.Errorf("%w: duplicate order id %s", model.ErrStorage, order.ID)
	}
	m.orders[order.ID] = *order
	return nil
}

func (m *MemoryOrderRepository) GetByID(ctx context.Context, id string) (*model.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	order, ok := m.orders[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &order, nil
}

func (m *MemoryOrderRepository) GetAll(ctx context.Context) ([]model.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]model.Order, 0, len(m.orders))
	for _, o := range m.orders {
		result = append(result, o)
	}
	return result, nil
}

func (m *MemoryOrderRepository) UpdateStatus(ctx context.Context, id string, status string) (*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	order.Status = status
	order.UpdatedAt = time.Now().UTC()
	m.orders[id] = order
	return &order, nil
}
