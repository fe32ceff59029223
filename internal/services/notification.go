package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/renatoquispe/cinema-storefront-platform/internal/models"
	repository "github.com/renatoquispe/cinema-storefront-platform/internal/repositories"
	"github.com/renatoquispe/cinema-storefront-platform/pkg/sendgrid"
)

type NotificationService interface {
	SendEmail(ctx context.Context, req *models.EmailNotificationRequest) (*models.NotificationResponse, error)
	ListNotifications(ctx context.Context, recipient string, page, size int) ([]*models.Notification, error)
}

type notificationService struct {
	repo         repository.NotificationRepository
	emailService sendgrid.EmailService
}

func NewNotificationService(repo repository.NotificationRepository, emailService sendgrid.EmailService) NotificationService {
	return &notificationService{repo: repo, emailService: emailService}
}

// SendEmail implements NotificationService. The notification row is written
// first so a delivery failure still leaves a trace.
func (n *notificationService) SendEmail(ctx context.Context, req *models.EmailNotificationRequest) (*models.NotificationResponse, error) {

	var metadataJSON json.RawMessage

	if req.Metadata != nil {

		metadataBytes, err := json.Marshal(req.Metadata)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal metadata: %w", err)
		}

		metadataJSON = metadataBytes
	}

	notification := &models.Notification{
		ID:        uuid.New(),
		Type:      models.NotificationTypeEmail,
		Recipient: req.To,
		Subject:   req.Subject,
		Content:   req.Content,
		Status:    models.StatusPending,
		Metadata:  metadataJSON,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	if err := n.repo.CreateNotification(ctx, notification); err != nil {
		return nil, fmt.Errorf("failed to create notification record: %w", err)
	}

	if err := n.emailService.Send(ctx, req); err != nil {

		notification.Status = models.StatusFailed

		if statusErr := n.repo.UpdateNotificationStatus(ctx, notification.ID, models.StatusFailed); statusErr != nil {
			slog.Error("Failed to mark notification as failed",
				slog.String("notificationId", notification.ID.String()),
				slog.String("error", statusErr.Error()))
		}

		return nil, fmt.Errorf("failed to send email: %w", err)
	}

	notification.Status = models.StatusSent

	if err := n.repo.UpdateNotificationStatus(ctx, notification.ID, models.StatusSent); err != nil {
		slog.Error("Failed to mark notification as sent",
			slog.String("notificationId", notification.ID.String()),
			slog.String("error", err.Error()))
	}

	return &models.NotificationResponse{
		Notification: notification,
		Message:      "Email sent successfully.",
	}, nil
}

// ListNotifications implements NotificationService.
func (n *notificationService) ListNotifications(ctx context.Context, recipient string, page, size int) ([]*models.Notification, error) {
	return n.repo.ListNotifications(ctx, recipient, page, size)
}
