package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/renatoquispe/cinema-storefront-platform/internal/errors"
	"github.com/renatoquispe/cinema-storefront-platform/internal/models"
	service "github.com/renatoquispe/cinema-storefront-platform/internal/services"
	"github.com/renatoquispe/cinema-storefront-platform/internal/utils"
	"github.com/renatoquispe/cinema-storefront-platform/internal/utils/response"
)

type CatalogHandler struct {
	catalogService service.CatalogService
	validator      *validator.Validate
}

func NewCatalogHandler(catalogService service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService, validator: validator.New()}
}

// ListPremieres is public: the storefront landing page shows it before login.
func (h *CatalogHandler) ListPremieres() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		premieres, err := h.catalogService.ListPremieres(r.Context())
		if err != nil {
			slog.Error("Failed to list premieres", slog.String("error", err.Error()))
			response.Error(w, err)

			return
		}

		response.Success(w, http.StatusOK, premieres)
	}
}

func (h *CatalogHandler) ListProducts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		products, err := h.catalogService.ListProducts(r.Context())
		if err != nil {
			slog.Error("Failed to list products", slog.String("error", err.Error()))
			response.Error(w, err)

			return
		}

		response.Success(w, http.StatusOK, products)
	}
}

func (h *CatalogHandler) GetProduct() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		id, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			response.Error(w, errors.BadRequestError("Invalid product ID"))

			return
		}

		product, err := h.catalogService.GetProduct(r.Context(), id)
		if err != nil {
			response.Error(w, err)

			return
		}

		response.Success(w, http.StatusOK, product)
	}
}

func (h *CatalogHandler) CreateProduct() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		var req models.CreateProductRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		product, err := h.catalogService.CreateProduct(r.Context(), &req)
		if err != nil {
			slog.Error("Failed to create product", slog.String("error", err.Error()))
			response.Error(w, err)

			return
		}

		slog.Info("Product created", slog.String("productId", product.ID.String()))
		response.Success(w, http.StatusCreated, product)
	}
}

func (h *CatalogHandler) CreatePremiere() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		var req models.CreatePremiereRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		premiere, err := h.catalogService.CreatePremiere(r.Context(), &req)
		if err != nil {
			slog.Error("Failed to create premiere", slog.String("error", err.Error()))
			response.Error(w, err)

			return
		}

		slog.Info("Premiere created", slog.String("premiereId", premiere.ID.String()))
		response.Success(w, http.StatusCreated, premiere)
	}
}
