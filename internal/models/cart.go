package models

import (
	"time"

	"github.com/google/uuid"
)

// CartLine is one product plus a quantity. A cart never holds two lines for
// the same product and never persists a line at quantity zero.
type CartLine struct {
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	UnitPrice float64   `json:"unit_price"`
	Quantity  int       `json:"quantity"`
}

// Cart keeps lines in insertion order. Total is always recomputed together
// with a line mutation; it is never updated independently.
type Cart struct {
	UserID    uuid.UUID  `json:"user_id"`
	Lines     []CartLine `json:"lines"`
	Total     float64    `json:"total"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type AddItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
}
