package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/drink-orders/internal/model"
	"github.com/lib/pq"
)

const orderColumns = `id, user_id, name, drink, note, status, created_at, updated_at`

type PostgresOrderRepository struct {
	db *sql.DB
}

func NewPostgresOrderRepository(db *sql.DB) *PostgresOrderRepository {
	return &PostgresOrderRepository{db: db}
}

func (r *PostgresOrderRepository) Create(ctx context.Context, order *model.Order) error {
	query := `INSERT INTO orders (` + orderColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.db.ExecContext(ctx, query,
		order.ID, order.UserID, order.Name, order.Drink, order.Note,
		order.Status, order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("%w: insert order: %w", model.ErrStorage, err)
	}
	return nil
}

func (r *PostgresOrderRepository) GetByID(ctx context.Context, id string) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	order, err := scanOrder(row)
	if err != nil {
		return nil, mapError("select order", err)
	}
	return order, nil
}

func (r *PostgresOrderRepository) GetAll(ctx context.Context) ([]model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: list orders: %w", model.ErrStorage, err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan order: %w", model.ErrStorage, err)
		}
		orders = append(orders, *order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list orders: %w", model.ErrStorage, err)
	}
	return orders, nil
}

// UpdateStatus writes the status in a single statement; an unknown id matches
// no row, so nothing is written.
func (r *PostgresOrderRepository) UpdateStatus(ctx context.Context, id string, status string) (*model.Order, error) {
	query := `UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3 RETURNING ` + orderColumns
	row := r.db.QueryRowContext(ctx, query, status, time.Now().UTC(), id)

	order, err := scanOrder(row)
	if err != nil {
		return nil, mapError("update order status", err)
	}
	return order, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOrder(s scanner) (*model.Order, error) {
	var order model.Order
	err := s.Scan(
		&order.ID, &order.UserID, &order.Name, &order.Drink, &order.Note,
		&order.Status, &order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func mapError(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return model.ErrNotFound
	}
	// a malformed uuid can never name a stored order
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Name() == "invalid_text_representation" {
		return model.ErrNotFound
	}
	return fmt.Errorf("%w: %s: %w", model.ErrStorage, op, err)
}
