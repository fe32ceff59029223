package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/renatoquispe/cinema-storefront-platform/internal/models"
	"github.com/renatoquispe/cinema-storefront-platform/internal/utils"
)

type OrderRepository interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	ListOrdersByEmail(ctx context.Context, email string) ([]*models.Order, error)
}

type orderRepository struct {
	DB *sql.DB
}

func NewOrderRepository(db *sql.DB) OrderRepository {
	return &orderRepository{DB: db}
}

func (r *orderRepository) CreateOrder(ctx context.Context, order *models.Order) error {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	linesJSON, err := json.Marshal(order.Lines)
	if err != nil {
		return fmt.Errorf("failed to marshal order lines: %w", err)
	}

	query := `
		INSERT INTO orders (id, user_email, user_name, lines, total, operation_date, transaction_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		RETURNING created_at
	`

	err = r.DB.QueryRowContext(dbCtx, query,
		order.ID, order.UserEmail, order.UserName, linesJSON, order.Total,
		order.Payment.OperationDate, order.Payment.TransactionID).
		Scan(&order.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	return nil
}

// ListOrdersByEmail returns the purchase history, newest first. Timestamps
// come back normalized to UTC so callers see one consistent instant
// representation regardless of the session time zone.
func (r *orderRepository) ListOrdersByEmail(ctx context.Context, email string) ([]*models.Order, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		SELECT id, user_email, user_name, lines, total, operation_date, transaction_id, created_at
		FROM orders
		WHERE user_email = $1
		ORDER BY created_at DESC
	`

	rows, err := r.DB.QueryContext(dbCtx, query, email)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	defer rows.Close()

	var orders []*models.Order

	for rows.Next() {

		order := &models.Order{}

		var linesJSON []byte

		err := rows.Scan(&order.ID, &order.UserEmail, &order.UserName, &linesJSON, &order.Total,
			&order.Payment.OperationDate, &order.Payment.TransactionID, &order.CreatedAt)

		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}

		if err := json.Unmarshal(linesJSON, &order.Lines); err != nil {
			return nil, fmt.Errorf("failed to unmarshal order lines: %w", err)
		}

		order.CreatedAt = order.CreatedAt.UTC()

		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return orders, nil
}
