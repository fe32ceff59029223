package models

import (
	"time"

	"github.com/google/uuid"
)

// Order is the snapshot written once per successful checkout. It is never
// mutated afterwards.
type Order struct {
	ID        uuid.UUID     `json:"id"`
	UserEmail string        `json:"user_email"`
	UserName  string        `json:"user_name"`
	Lines     []CartLine    `json:"lines"`
	Total     float64       `json:"total"`
	Payment   PaymentResult `json:"payment"`
	CreatedAt time.Time     `json:"created_at"`
}

type OrderHistoryResponse struct {
	Orders []*Order `json:"orders"`
	Total  int      `json:"total"`
}
