package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/renatoquispe/cinema-storefront-platform/internal/api/middleware"
	"github.com/renatoquispe/cinema-storefront-platform/internal/errors"
	"github.com/renatoquispe/cinema-storefront-platform/internal/models"
	service "github.com/renatoquispe/cinema-storefront-platform/internal/services"
	"github.com/renatoquispe/cinema-storefront-platform/internal/utils"
	"github.com/renatoquispe/cinema-storefront-platform/internal/utils/response"
)

type CartHandler struct {
	cartService service.CartService
	validator   *validator.Validate
}

func NewCartHandler(cartService service.CartService) *CartHandler {
	return &CartHandler{cartService: cartService, validator: validator.New()}
}

func (h *CartHandler) GetCart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		claims, ok := middleware.ClaimsFromContext(r.Context())
		if !ok {
			slog.Warn("Unauthorized cart access attempt")
			response.Error(w, errors.UnauthorizedError("Authentication required"))

			return
		}

		cart, err := h.cartService.GetCart(r.Context(), claims.UserID)
		if err != nil {
			slog.Error("Failed to load cart",
				slog.String("userId", claims.UserID.String()),
				slog.String("error", err.Error()))
			response.Error(w, err)

			return
		}

		response.Success(w, http.StatusOK, cart)
	}
}

func (h *CartHandler) AddItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		claims, ok := middleware.ClaimsFromContext(r.Context())
		if !ok {
			slog.Warn("Unauthorized cart access attempt")
			response.Error(w, errors.UnauthorizedError("Authentication required"))

			return
		}

		var req models.AddItemRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		cart, err := h.cartService.AddItem(r.Context(), claims.UserID, req.ProductID)
		if err != nil {
			slog.Error("Failed to add cart item",
				slog.String("userId", claims.UserID.String()),
				slog.String("productId", req.ProductID.String()),
				slog.String("error", err.Error()))
			response.Error(w, err)

			return
		}

		response.Success(w, http.StatusOK, cart)
	}
}

// RemoveItem removes one unit by default; ?all=true drops the whole line.
func (h *CartHandler) RemoveItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		claims, ok := middleware.ClaimsFromContext(r.Context())
		if !ok {
			slog.Warn("Unauthorized cart access attempt")
			response.Error(w, errors.UnauthorizedError("Authentication required"))

			return
		}

		productID, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			response.Error(w, errors.BadRequestError("Invalid product ID"))

			return
		}

		var cart *models.Cart

		if r.URL.Query().Get("all") == "true" {
			cart, err = h.cartService.RemoveAll(r.Context(), claims.UserID, productID)
		} else {
			cart, err = h.cartService.RemoveOne(r.Context(), claims.UserID, productID)
		}

		if err != nil {
			slog.Error("Failed to remove cart item",
				slog.String("userId", claims.UserID.String()),
				slog.String("productId", productID.String()),
				slog.String("error", err.Error()))
			response.Error(w, err)

			return
		}

		response.Success(w, http.StatusOK, cart)
	}
}

func (h *CartHandler) ClearCart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		claims, ok := middleware.ClaimsFromContext(r.Context())
		if !ok {
			slog.Warn("Unauthorized cart access attempt")
			response.Error(w, errors.UnauthorizedError("Authentication required"))

			return
		}

		if err := h.cartService.ClearCart(r.Context(), claims.UserID); err != nil {
			slog.Error("Failed to clear cart",
				slog.String("userId", claims.UserID.String()),
				slog.String("error", err.Error()))
			response.Error(w, err)

			return
		}

		response.Success(w, http.StatusOK, map[string]bool{"cleared": true})
	}
}
