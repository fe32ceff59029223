package service

import (
	"context"

	"github.com/renatoquispe/cinema-storefront-platform/internal/errors"
	"github.com/renatoquispe/cinema-storefront-platform/internal/models"
	repository "github.com/renatoquispe/cinema-storefront-platform/internal/repositories"
)

type OrderService interface {
	ListOrdersByEmail(ctx context.Context, email string) ([]*models.Order, error)
}

type orderService struct {
	repo repository.OrderRepository
}

func NewOrderService(repo repository.OrderRepository) OrderService {
	return &orderService{repo: repo}
}

// ListOrdersByEmail implements OrderService. Orders come back newest first.
func (s *orderService) ListOrdersByEmail(ctx context.Context, email string) ([]*models.Order, error) {

	orders, err := s.repo.ListOrdersByEmail(ctx, email)
	if err != nil {
		return nil, errors.DatabaseError("Failed to fetch orders").WithError(err)
	}

	return orders, nil
}
