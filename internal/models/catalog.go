package models

import (
	"time"

	"github.com/google/uuid"
)

// Premiere is a movie currently showing. Catalog entries are created by
// back-office tooling and are read-only for the storefront.
type Premiere struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	ImageURL    string    `json:"image_url"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// Product is a candy-store (concession) item.
type Product struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	UnitPrice   float64   `json:"unit_price"`
	CreatedAt   time.Time `json:"created_at"`
}

type CreateProductRequest struct {
	Name        string  `json:"name" validate:"required,min=2,max=120"`
	Description string  `json:"description" validate:"max=2000"`
	UnitPrice   float64 `json:"unit_price" validate:"required,gte=0"`
}

type CreatePremiereRequest struct {
	Title       string `json:"title" validate:"required,min=1,max=200"`
	ImageURL    string `json:"image_url" validate:"omitempty,url"`
	Description string `json:"description" validate:"max=2000"`
}
