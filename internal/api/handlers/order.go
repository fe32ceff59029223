package handlers

import (
	"log/slog"
	"net/http"

	"github.com/renatoquispe/cinema-storefront-platform/internal/api/middleware"
	"github.com/renatoquispe/cinema-storefront-platform/internal/errors"
	"github.com/renatoquispe/cinema-storefront-platform/internal/models"
	service "github.com/renatoquispe/cinema-storefront-platform/internal/services"
	"github.com/renatoquispe/cinema-storefront-platform/internal/utils/response"
)

type OrderHandler struct {
	orderService service.OrderService
}

func NewOrderHandler(orderService service.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// ListOrders returns the caller's purchase history, newest first.
func (h *OrderHandler) ListOrders() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		claims, ok := middleware.ClaimsFromContext(r.Context())
		if !ok {
			slog.Warn("Unauthorized order access attempt")
			response.Error(w, errors.UnauthorizedError("Authentication required"))

			return
		}

		orders, err := h.orderService.ListOrdersByEmail(r.Context(), claims.Email)
		if err != nil {
			slog.Error("Failed to list orders",
				slog.String("userId", claims.UserID.String()),
				slog.String("error", err.Error()))
			response.Error(w, err)

			return
		}

		response.Success(w, http.StatusOK, models.OrderHistoryResponse{
			Orders: orders,
			Total:  len(orders),
		})
	}
}
