package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/renatoquispe/cinema-storefront-platform/internal/errors"
	"github.com/renatoquispe/cinema-storefront-platform/internal/models"
	repository "github.com/renatoquispe/cinema-storefront-platform/internal/repositories"
)

// CartStore is the single session-scoped cart store. Catalog and checkout
// views both go through one instance, so a mutation from either side is
// immediately visible to the other.
type CartStore interface {
	GetCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	SaveCart(ctx context.Context, cart *models.Cart) error
	DeleteCart(ctx context.Context, userID uuid.UUID) error
}

type CartService interface {
	GetCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	AddItem(ctx context.Context, userID, productID uuid.UUID) (*models.Cart, error)
	RemoveOne(ctx context.Context, userID, productID uuid.UUID) (*models.Cart, error)
	RemoveAll(ctx context.Context, userID, productID uuid.UUID) (*models.Cart, error)
	ClearCart(ctx context.Context, userID uuid.UUID) error
}

type cartService struct {
	store   CartStore
	catalog repository.CatalogRepository
}

func NewCartService(store CartStore, catalog repository.CatalogRepository) CartService {
	return &cartService{store: store, catalog: catalog}
}

// GetCart implements CartService.
func (s *cartService) GetCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {

	cart, err := s.store.GetCart(ctx, userID)
	if err != nil {
		return nil, errors.ThirdPartyError("Failed to load cart").WithError(err)
	}

	return cart, nil
}

// AddItem increments the line for the product, or appends a new line with
// quantity one. The line order is insertion order.
func (s *cartService) AddItem(ctx context.Context, userID, productID uuid.UUID) (*models.Cart, error) {

	cart, err := s.store.GetCart(ctx, userID)
	if err != nil {
		return nil, errors.ThirdPartyError("Failed to load cart").WithError(err)
	}

	if i := findLine(cart.Lines, productID); i >= 0 {
		cart.Lines[i].Quantity++
	} else {

		product, err := s.catalog.GetProductByID(ctx, productID)
		if err != nil {
			return nil, errors.NotFoundError("Product not found").WithError(err)
		}

		cart.Lines = append(cart.Lines, models.CartLine{
			ProductID: product.ID,
			Name:      product.Name,
			UnitPrice: product.UnitPrice,
			Quantity:  1,
		})
	}

	return s.save(ctx, cart)
}

// RemoveOne decrements the line quantity, removing the line entirely when it
// reaches zero. A missing line is a no-op.
func (s *cartService) RemoveOne(ctx context.Context, userID, productID uuid.UUID) (*models.Cart, error) {

	cart, err := s.store.GetCart(ctx, userID)
	if err != nil {
		return nil, errors.ThirdPartyError("Failed to load cart").WithError(err)
	}

	i := findLine(cart.Lines, productID)
	if i < 0 {
		return cart, nil
	}

	if cart.Lines[i].Quantity > 1 {
		cart.Lines[i].Quantity--
	} else {
		cart.Lines = append(cart.Lines[:i], cart.Lines[i+1:]...)
	}

	return s.save(ctx, cart)
}

// RemoveAll drops the line regardless of quantity.
func (s *cartService) RemoveAll(ctx context.Context, userID, productID uuid.UUID) (*models.Cart, error) {

	cart, err := s.store.GetCart(ctx, userID)
	if err != nil {
		return nil, errors.ThirdPartyError("Failed to load cart").WithError(err)
	}

	i := findLine(cart.Lines, productID)
	if i < 0 {
		return cart, nil
	}

	cart.Lines = append(cart.Lines[:i], cart.Lines[i+1:]...)

	return s.save(ctx, cart)
}

// ClearCart implements CartService.
func (s *cartService) ClearCart(ctx context.Context, userID uuid.UUID) error {

	if err := s.store.DeleteCart(ctx, userID); err != nil {
		return errors.ThirdPartyError("Failed to clear cart").WithError(err)
	}

	return nil
}

// save recomputes the total from the lines and persists the cart in one
// step, so no stored state ever carries a drifted total.
func (s *cartService) save(ctx context.Context, cart *models.Cart) (*models.Cart, error) {

	cart.Total = calculateTotal(cart.Lines)
	cart.UpdatedAt = time.Now()

	if err := s.store.SaveCart(ctx, cart); err != nil {
		return nil, errors.ThirdPartyError("Failed to update cart").WithError(err)
	}

	return cart, nil
}

func findLine(lines []models.CartLine, productID uuid.UUID) int {
	for i, line := range lines {
		if line.ProductID == productID {
			return i
		}
	}

	return -1
}

func calculateTotal(lines []models.CartLine) float64 {

	var total float64

	for _, line := range lines {
		total += line.UnitPrice * float64(line.Quantity)
	}

	return total
}
