package handlers

import (
	"log/slog"
	"net/http"

	"github.com/renatoquispe/cinema-storefront-platform/internal/errors"
	"github.com/renatoquispe/cinema-storefront-platform/internal/models"
	service "github.com/renatoquispe/cinema-storefront-platform/internal/services"
	"github.com/renatoquispe/cinema-storefront-platform/internal/utils"
	"github.com/renatoquispe/cinema-storefront-platform/internal/utils/response"
)

// CompleteHandler receives finished-transaction reports from the checkout
// flow. Registered with a POST method pattern, so any other method gets a
// 405 from the router.
type CompleteHandler struct {
	completionService service.CompletionService
}

func NewCompleteHandler(completionService service.CompletionService) *CompleteHandler {
	return &CompleteHandler{completionService: completionService}
}

func (h *CompleteHandler) Complete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		var req models.CompletionRequest
		if err := utils.DecodeJSONBody(r, &req); err != nil {
			response.Error(w, errors.BadRequestError("Invalid request body").WithError(err))

			return
		}

		result, err := h.completionService.RecordCompletion(r.Context(), &req)
		if err != nil {
			slog.Warn("Completion rejected", slog.String("error", err.Error()))
			response.Error(w, err)

			return
		}

		response.WriteJson(w, http.StatusOK, result)
	}
}
