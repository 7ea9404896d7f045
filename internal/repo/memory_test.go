package repo

import (
	"context"
	"errors"
	"testing"

	"github.com/drink-orders/internal/model"
)

func TestMemoryRepository(t *testing.T) {
	repo := NewMemoryOrderRepository()
	ctx := context.Background()

	order := &model.Order{ID: "o1", UserID: "u1", Name: "Ann", Drink: "latte", Status: model.StatusPending}
	if err := repo.Create(ctx, order); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := repo.Create(ctx, order); !errors.Is(err, model.ErrStorage) {
		t.Errorf("expected ErrStorage on duplicate id, got %v", err)
	}

	updated, err := repo.UpdateStatus(ctx, "o1", "done")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != "done" || updated.Name != "Ann" {
		t.Errorf("unexpected order: %+v", updated)
	}

	// returned records are copies
	updated.Status = "mutated"
	got, err := repo.GetByID(ctx, "o1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != "done" {
		t.Errorf("expected stored status done, got %s", got.Status)
	}

	if _, err := repo.UpdateStatus(ctx, "missing", "done"); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	all, _ := repo.GetAll(ctx)
	if len(all) != 1 {
		t.Errorf("expected 1 order, got %d", len(all))
	}
}
