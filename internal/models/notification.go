package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type NotificationType string

type NotificationStatus string

const (
	NotificationTypeEmail NotificationType = "email"

	StatusPending NotificationStatus = "pending"
	StatusSent    NotificationStatus = "sent"
	StatusFailed  NotificationStatus = "failed"
)

type Notification struct {
	ID        uuid.UUID          `json:"id"`
	Type      NotificationType   `json:"type"`
	Recipient string             `json:"recipient"`
	Subject   string             `json:"subject"`
	Content   string             `json:"content"`
	Status    NotificationStatus `json:"status"`
	Metadata  json.RawMessage    `json:"metadata,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

type EmailNotificationRequest struct {
	To          string         `json:"to" validate:"required,email"`
	Subject     string         `json:"subject" validate:"required"`
	Content     string         `json:"content" validate:"required"`
	HTMLContent string         `json:"html_content,omitempty"`
	CC          []string       `json:"cc,omitempty" validate:"omitempty,dive,email"`
	BCC         []string       `json:"bcc,omitempty" validate:"omitempty,dive,email"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

type NotificationResponse struct {
	Notification *Notification `json:"notification"`
	Message      string        `json:"message"`
}
