package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	appErrors "github.com/renatoquispe/cinema-storefront-platform/internal/errors"
	"github.com/renatoquispe/cinema-storefront-platform/internal/models"
	"github.com/renatoquispe/cinema-storefront-platform/internal/repositories/mocks"
	service "github.com/renatoquispe/cinema-storefront-platform/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupCartTest() (*mocks.CartStore, *mocks.CatalogRepository, service.CartService) {
	store := new(mocks.CartStore)
	catalog := new(mocks.CatalogRepository)

	return store, catalog, service.NewCartService(store, catalog)
}

func emptyCart(userID uuid.UUID) *models.Cart {
	return &models.Cart{UserID: userID, Lines: []models.CartLine{}, Total: 0}
}

func TestAddItem(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	popcorn := &models.Product{ID: uuid.New(), Name: "Popcorn Grande", UnitPrice: 10.00}

	t.Run("Success - New Line At Quantity One", func(t *testing.T) {
		store, catalog, cartService := setupCartTest()

		store.On("GetCart", ctx, userID).Return(emptyCart(userID), nil).Once()
		catalog.On("GetProductByID", ctx, popcorn.ID).Return(popcorn, nil).Once()
		store.On("SaveCart", ctx, mock.AnythingOfType("*models.Cart")).Return(nil).Once()

		cart, err := cartService.AddItem(ctx, userID, popcorn.ID)

		require.NoError(t, err)
		require.Len(t, cart.Lines, 1)
		assert.Equal(t, popcorn.ID, cart.Lines[0].ProductID)
		assert.Equal(t, "Popcorn Grande", cart.Lines[0].Name)
		assert.Equal(t, 1, cart.Lines[0].Quantity)
		assert.InDelta(t, 10.00, cart.Total, 0.0001)
		store.AssertExpectations(t)
		catalog.AssertExpectations(t)
	})

	t.Run("Success - Existing Line Incremented", func(t *testing.T) {
		store, catalog, cartService := setupCartTest()

		existing := &models.Cart{
			UserID: userID,
			Lines:  []models.CartLine{{ProductID: popcorn.ID, Name: popcorn.Name, UnitPrice: 10.00, Quantity: 2}},
			Total:  20.00,
		}

		store.On("GetCart", ctx, userID).Return(existing, nil).Once()
		store.On("SaveCart", ctx, mock.AnythingOfType("*models.Cart")).Return(nil).Once()

		cart, err := cartService.AddItem(ctx, userID, popcorn.ID)

		require.NoError(t, err)
		require.Len(t, cart.Lines, 1)
		assert.Equal(t, 3, cart.Lines[0].Quantity)
		assert.InDelta(t, 30.00, cart.Total, 0.0001)
		catalog.AssertNotCalled(t, "GetProductByID")
		store.AssertExpectations(t)
	})

	t.Run("Success - Lines Keep Insertion Order", func(t *testing.T) {
		store, catalog, cartService := setupCartTest()

		soda := &models.Product{ID: uuid.New(), Name: "Gaseosa", UnitPrice: 6.50}
		existing := &models.Cart{
			UserID: userID,
			Lines:  []models.CartLine{{ProductID: popcorn.ID, Name: popcorn.Name, UnitPrice: 10.00, Quantity: 1}},
			Total:  10.00,
		}

		store.On("GetCart", ctx, userID).Return(existing, nil).Once()
		catalog.On("GetProductByID", ctx, soda.ID).Return(soda, nil).Once()
		store.On("SaveCart", ctx, mock.AnythingOfType("*models.Cart")).Return(nil).Once()

		cart, err := cartService.AddItem(ctx, userID, soda.ID)

		require.NoError(t, err)
		require.Len(t, cart.Lines, 2)
		assert.Equal(t, popcorn.ID, cart.Lines[0].ProductID)
		assert.Equal(t, soda.ID, cart.Lines[1].ProductID)
		assert.InDelta(t, 16.50, cart.Total, 0.0001)
	})

	t.Run("Failure - Unknown Product", func(t *testing.T) {
		store, catalog, cartService := setupCartTest()

		unknownID := uuid.New()
		store.On("GetCart", ctx, userID).Return(emptyCart(userID), nil).Once()
		catalog.On("GetProductByID", ctx, unknownID).Return(nil, errors.New("no rows")).Once()

		cart, err := cartService.AddItem(ctx, userID, unknownID)

		require.Error(t, err)
		assert.Nil(t, cart)

		var appErr *appErrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, appErrors.ErrCodeNotFound, appErr.Code)
		store.AssertNotCalled(t, "SaveCart")
	})

	t.Run("Failure - Store Unavailable", func(t *testing.T) {
		store, _, cartService := setupCartTest()

		store.On("GetCart", ctx, userID).Return(nil, errors.New("redis down")).Once()

		cart, err := cartService.AddItem(ctx, userID, popcorn.ID)

		require.Error(t, err)
		assert.Nil(t, cart)
	})
}

func TestRemoveOne(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	productID := uuid.New()

	t.Run("Success - Quantity Decremented", func(t *testing.T) {
		store, _, cartService := setupCartTest()

		existing := &models.Cart{
			UserID: userID,
			Lines:  []models.CartLine{{ProductID: productID, Name: "Entrada 2D", UnitPrice: 15.00, Quantity: 3}},
			Total:  45.00,
		}

		store.On("GetCart", ctx, userID).Return(existing, nil).Once()
		store.On("SaveCart", ctx, mock.AnythingOfType("*models.Cart")).Return(nil).Once()

		cart, err := cartService.RemoveOne(ctx, userID, productID)

		require.NoError(t, err)
		require.Len(t, cart.Lines, 1)
		assert.Equal(t, 2, cart.Lines[0].Quantity)
		assert.InDelta(t, 30.00, cart.Total, 0.0001)
	})

	t.Run("Success - Last Unit Removes Line", func(t *testing.T) {
		store, _, cartService := setupCartTest()

		existing := &models.Cart{
			UserID: userID,
			Lines:  []models.CartLine{{ProductID: productID, Name: "Entrada 2D", UnitPrice: 15.00, Quantity: 1}},
			Total:  15.00,
		}

		store.On("GetCart", ctx, userID).Return(existing, nil).Once()
		store.On("SaveCart", ctx, mock.AnythingOfType("*models.Cart")).Return(nil).Once()

		cart, err := cartService.RemoveOne(ctx, userID, productID)

		require.NoError(t, err)
		assert.Empty(t, cart.Lines)
		assert.Zero(t, cart.Total)
	})

	t.Run("Success - Missing Line Is A NoOp", func(t *testing.T) {
		store, _, cartService := setupCartTest()

		store.On("GetCart", ctx, userID).Return(emptyCart(userID), nil).Once()

		cart, err := cartService.RemoveOne(ctx, userID, productID)

		require.NoError(t, err)
		assert.Empty(t, cart.Lines)
		store.AssertNotCalled(t, "SaveCart")
	})
}

func TestRemoveAll(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	ticketID := uuid.New()
	candyID := uuid.New()

	t.Run("Success - Whole Line Dropped", func(t *testing.T) {
		store, _, cartService := setupCartTest()

		existing := &models.Cart{
			UserID: userID,
			Lines: []models.CartLine{
				{ProductID: ticketID, Name: "Entrada 3D", UnitPrice: 22.00, Quantity: 4},
				{ProductID: candyID, Name: "Chocolate", UnitPrice: 5.00, Quantity: 2},
			},
			Total: 98.00,
		}

		store.On("GetCart", ctx, userID).Return(existing, nil).Once()
		store.On("SaveCart", ctx, mock.AnythingOfType("*models.Cart")).Return(nil).Once()

		cart, err := cartService.RemoveAll(ctx, userID, ticketID)

		require.NoError(t, err)
		require.Len(t, cart.Lines, 1)
		assert.Equal(t, candyID, cart.Lines[0].ProductID)
		assert.InDelta(t, 10.00, cart.Total, 0.0001)
	})
}

func TestClearCart(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("Success", func(t *testing.T) {
		store, _, cartService := setupCartTest()

		store.On("DeleteCart", ctx, userID).Return(nil).Once()

		require.NoError(t, cartService.ClearCart(ctx, userID))
		store.AssertExpectations(t)
	})

	t.Run("Failure - Store Error", func(t *testing.T) {
		store, _, cartService := setupCartTest()

		store.On("DeleteCart", ctx, userID).Return(errors.New("redis down")).Once()

		err := cartService.ClearCart(ctx, userID)

		require.Error(t, err)

		var appErr *appErrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, appErrors.ErrCodeThirdPartyError, appErr.Code)
	})
}

// The stored total must always equal the recomputed sum of the lines, no
// matter the sequence of mutations.
func TestTotalNeverDrifts(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	ticket := &models.Product{ID: uuid.New(), Name: "Entrada 2D", UnitPrice: 15.50}
	combo := &models.Product{ID: uuid.New(), Name: "Combo Duo", UnitPrice: 28.90}

	store := new(mocks.CartStore)
	catalog := new(mocks.CatalogRepository)
	cartService := service.NewCartService(store, catalog)

	// A stateful in-memory store backed by the mock expectations.
	state := emptyCart(userID)
	store.On("GetCart", ctx, userID).Return(state, nil)
	store.On("SaveCart", ctx, mock.AnythingOfType("*models.Cart")).Return(nil)
	catalog.On("GetProductByID", ctx, ticket.ID).Return(ticket, nil)
	catalog.On("GetProductByID", ctx, combo.ID).Return(combo, nil)

	steps := []func() (*models.Cart, error){
		func() (*models.Cart, error) { return cartService.AddItem(ctx, userID, ticket.ID) },
		func() (*models.Cart, error) { return cartService.AddItem(ctx, userID, ticket.ID) },
		func() (*models.Cart, error) { return cartService.AddItem(ctx, userID, combo.ID) },
		func() (*models.Cart, error) { return cartService.RemoveOne(ctx, userID, ticket.ID) },
		func() (*models.Cart, error) { return cartService.AddItem(ctx, userID, combo.ID) },
		func() (*models.Cart, error) { return cartService.RemoveAll(ctx, userID, combo.ID) },
	}

	for i, step := range steps {
		cart, err := step()
		require.NoError(t, err, "step %d", i)

		var want float64
		for _, line := range cart.Lines {
			want += line.UnitPrice * float64(line.Quantity)
		}

		assert.InDelta(t, want, cart.Total, 0.0001, "step %d", i)
	}

	// After the full sequence only one ticket line remains.
	final, err := cartService.GetCart(ctx, userID)
	require.NoError(t, err)
	require.Len(t, final.Lines, 1)
	assert.Equal(t, ticket.ID, final.Lines[0].ProductID)
	assert.Equal(t, 1, final.Lines[0].Quantity)
	assert.InDelta(t, 15.50, final.Total, 0.0001)
}
