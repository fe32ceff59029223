package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/renatoquispe/cinema-storefront-platform/internal/api/middleware"
	"github.com/renatoquispe/cinema-storefront-platform/internal/errors"
	"github.com/renatoquispe/cinema-storefront-platform/internal/models"
	service "github.com/renatoquispe/cinema-storefront-platform/internal/services"
	"github.com/renatoquispe/cinema-storefront-platform/internal/utils"
	"github.com/renatoquispe/cinema-storefront-platform/internal/utils/response"
	"github.com/renatoquispe/cinema-storefront-platform/internal/validation"
)

type CheckoutHandler struct {
	checkoutService service.CheckoutService
	validator       *validator.Validate
}

func NewCheckoutHandler(checkoutService service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{
		checkoutService: checkoutService,
		validator:       validation.New(),
	}
}

// Checkout validates the card form and runs one payment attempt. Validation
// failures never reach the gateway.
func (h *CheckoutHandler) Checkout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		claims, ok := middleware.ClaimsFromContext(r.Context())
		if !ok {
			slog.Warn("Unauthorized checkout attempt")
			response.Error(w, errors.UnauthorizedError("Authentication required"))

			return
		}

		var req models.CheckoutRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		result, err := h.checkoutService.Checkout(r.Context(), claims, &req)
		if err != nil {
			slog.Error("Checkout failed",
				slog.String("userId", claims.UserID.String()),
				slog.String("error", err.Error()))
			response.Error(w, err)

			return
		}

		slog.Info("Checkout approved",
			slog.String("userId", claims.UserID.String()),
			slog.String("transactionId", result.Payment.TransactionID))
		response.Success(w, http.StatusOK, result)
	}
}
