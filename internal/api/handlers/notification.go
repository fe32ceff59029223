package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/renatoquispe/cinema-storefront-platform/internal/api/middleware"
	"github.com/renatoquispe/cinema-storefront-platform/internal/errors"
	service "github.com/renatoquispe/cinema-storefront-platform/internal/services"
	"github.com/renatoquispe/cinema-storefront-platform/internal/utils/response"
)

type NotificationHandler struct {
	notificationService service.NotificationService
}

func NewNotificationHandler(notificationService service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// ListNotifications shows the caller's own notifications (confirmation
// emails, mostly).
func (h *NotificationHandler) ListNotifications() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		claims, ok := middleware.ClaimsFromContext(r.Context())
		if !ok {
			slog.Warn("Unauthorized notification access attempt")
			response.Error(w, errors.UnauthorizedError("Authentication required"))

			return
		}

		page, err := strconv.Atoi(r.URL.Query().Get("page"))
		if err != nil || page < 1 {
			page = 1
		}

		pageSize, err := strconv.Atoi(r.URL.Query().Get("pageSize"))
		if err != nil || pageSize < 1 || pageSize > 100 {
			pageSize = 10
		}

		notifications, err := h.notificationService.ListNotifications(r.Context(), claims.Email, page, pageSize)
		if err != nil {
			slog.Error("Failed to list notifications",
				slog.String("userId", claims.UserID.String()),
				slog.String("error", err.Error()))
			response.Error(w, errors.DatabaseError("Failed to fetch notifications").WithError(err))

			return
		}

		response.Success(w, http.StatusOK, map[string]any{
			"notifications": notifications,
			"total":         len(notifications),
			"page":          page,
			"pageSize":      pageSize,
		})
	}
}
