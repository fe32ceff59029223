package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	appErrors "github.com/renatoquispe/cinema-storefront-platform/internal/errors"
	"github.com/renatoquispe/cinema-storefront-platform/internal/models"
	repoMocks "github.com/renatoquispe/cinema-storefront-platform/internal/repositories/mocks"
	service "github.com/renatoquispe/cinema-storefront-platform/internal/services"
	svcMocks "github.com/renatoquispe/cinema-storefront-platform/internal/services/mocks"
	"github.com/renatoquispe/cinema-storefront-platform/pkg/payu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type gatewayMock struct {
	mock.Mock
}

func (m *gatewayMock) SubmitPayment(ctx context.Context, attempt *payu.Attempt, req *payu.PaymentRequest) (*payu.PaymentResult, error) {
	args := m.Called(ctx, attempt, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*payu.PaymentResult), args.Error(1)
}

type notifierMock struct {
	mock.Mock
}

func (m *notifierMock) CompleteTransaction(ctx context.Context, req *models.CompletionRequest) (*models.CompletionResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.CompletionResponse), args.Error(1)
}

type checkoutFixture struct {
	carts         *svcMocks.CartService
	orders        *repoMocks.OrderRepository
	gateway       *gatewayMock
	notifier      *notifierMock
	notifications *svcMocks.NotificationService
	service       service.CheckoutService
}

func setupCheckoutTest() *checkoutFixture {
	f := &checkoutFixture{
		carts:         new(svcMocks.CartService),
		orders:        new(repoMocks.OrderRepository),
		gateway:       new(gatewayMock),
		notifier:      new(notifierMock),
		notifications: new(svcMocks.NotificationService),
	}

	f.service = service.NewCheckoutService(f.carts, f.orders, f.gateway, f.notifier, f.notifications)

	return f
}

func checkoutRequest(amount float64) *models.CheckoutRequest {
	return &models.CheckoutRequest{
		CardNumber:     "4111111111111111",
		CardExpiry:     "12/30",
		CVV:            "123",
		Email:          "buyer@example.com",
		FullName:       "Juan Perez",
		Amount:         amount,
		DocumentType:   models.DocumentTypeDNI,
		DocumentNumber: "12345678",
	}
}

func cartWith(userID uuid.UUID, unitPrice float64, quantity int) *models.Cart {
	return &models.Cart{
		UserID: userID,
		Lines: []models.CartLine{
			{ProductID: uuid.New(), Name: "Entrada 2D", UnitPrice: unitPrice, Quantity: quantity},
		},
		Total: unitPrice * float64(quantity),
	}
}

func TestCheckout(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	claims := &models.Claims{UserID: userID, Email: "buyer@example.com"}

	approval := &payu.PaymentResult{
		OperationDate: "2025-06-15T15:30:00Z",
		TransactionID: "txn-abc",
	}

	t.Run("Success - Approved Payment", func(t *testing.T) {
		f := setupCheckoutTest()
		cart := cartWith(userID, 10.00, 2)

		f.carts.On("GetCart", ctx, userID).Return(cart, nil).Once()
		f.gateway.On("SubmitPayment", ctx, mock.AnythingOfType("*payu.Attempt"), mock.AnythingOfType("*payu.PaymentRequest")).
			Return(approval, nil).Once()
		f.notifier.On("CompleteTransaction", ctx, mock.AnythingOfType("*models.CompletionRequest")).
			Return(&models.CompletionResponse{CodigoRespuesta: "0"}, nil).Once()
		f.carts.On("ClearCart", ctx, userID).Return(nil).Once()

		recorded := make(chan *models.Order, 1)
		f.orders.On("CreateOrder", mock.Anything, mock.AnythingOfType("*models.Order")).
			Run(func(args mock.Arguments) { recorded <- args.Get(1).(*models.Order) }).
			Return(nil).Once()

		emailed := make(chan struct{}, 1)
		f.notifications.On("SendEmail", mock.Anything, mock.AnythingOfType("*models.EmailNotificationRequest")).
			Run(func(mock.Arguments) { emailed <- struct{}{} }).
			Return(&models.NotificationResponse{}, nil).Once()

		resp, err := f.service.Checkout(ctx, claims, checkoutRequest(20.00))

		require.NoError(t, err)
		require.NotNil(t, resp)
		require.NotNil(t, resp.Payment)
		assert.Equal(t, "txn-abc", resp.Payment.TransactionID)
		assert.Equal(t, "2025-06-15T15:30:00Z", resp.Payment.OperationDate)
		assert.NotEmpty(t, resp.OrderID)

		// The charged amount is the cart total, not the client-sent figure.
		gatewayReq := f.gateway.Calls[0].Arguments.Get(2).(*payu.PaymentRequest)
		assert.InDelta(t, 20.00, gatewayReq.Amount, 0.0001)

		// The completion report carries the payment identity.
		completion := f.notifier.Calls[0].Arguments.Get(1).(*models.CompletionRequest)
		assert.Equal(t, "txn-abc", completion.TransactionID)
		assert.Equal(t, "Juan Perez", completion.Nombres)
		assert.Equal(t, "12345678", completion.DocumentNumber)

		// The order snapshot is written off the request path.
		select {
		case order := <-recorded:
			assert.Equal(t, resp.OrderID, order.ID.String())
			assert.Equal(t, cart.Lines, order.Lines)
			assert.InDelta(t, 20.00, order.Total, 0.0001)
			assert.Equal(t, "txn-abc", order.Payment.TransactionID)
		case <-time.After(2 * time.Second):
			t.Fatal("order was never recorded")
		}

		select {
		case <-emailed:
		case <-time.After(2 * time.Second):
			t.Fatal("confirmation email was never sent")
		}

		f.carts.AssertExpectations(t)
		f.gateway.AssertExpectations(t)
		f.notifier.AssertExpectations(t)
	})

	t.Run("Success - Confirmation Email Runs On A Live Context", func(t *testing.T) {
		f := setupCheckoutTest()

		f.carts.On("GetCart", ctx, userID).Return(cartWith(userID, 10.00, 2), nil).Once()
		f.gateway.On("SubmitPayment", ctx, mock.Anything, mock.Anything).Return(approval, nil).Once()
		f.notifier.On("CompleteTransaction", ctx, mock.Anything).
			Return(&models.CompletionResponse{CodigoRespuesta: "0"}, nil).Once()
		f.carts.On("ClearCart", ctx, userID).Return(nil).Once()
		f.orders.On("CreateOrder", mock.Anything, mock.Anything).Return(nil).Once()

		// The detached context must not be cancelled by the time the email
		// goes out; the order write finishing is not the end of its life.
		emailCtxErr := make(chan error, 1)
		f.notifications.On("SendEmail", mock.Anything, mock.AnythingOfType("*models.EmailNotificationRequest")).
			Run(func(args mock.Arguments) { emailCtxErr <- args.Get(0).(context.Context).Err() }).
			Return(&models.NotificationResponse{}, nil).Once()

		_, err := f.service.Checkout(ctx, claims, checkoutRequest(20.00))
		require.NoError(t, err)

		select {
		case ctxErr := <-emailCtxErr:
			require.NoError(t, ctxErr)
		case <-time.After(2 * time.Second):
			t.Fatal("confirmation email was never sent")
		}
	})

	t.Run("Failure - Empty Cart", func(t *testing.T) {
		f := setupCheckoutTest()

		f.carts.On("GetCart", ctx, userID).
			Return(&models.Cart{UserID: userID, Lines: []models.CartLine{}}, nil).Once()

		resp, err := f.service.Checkout(ctx, claims, checkoutRequest(20.00))

		require.Error(t, err)
		assert.Nil(t, resp)

		var appErr *appErrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, appErrors.ErrCodeBadRequest, appErr.Code)
		f.gateway.AssertNotCalled(t, "SubmitPayment")
	})

	t.Run("Failure - Amount Mismatch", func(t *testing.T) {
		f := setupCheckoutTest()

		f.carts.On("GetCart", ctx, userID).Return(cartWith(userID, 10.00, 2), nil).Once()

		resp, err := f.service.Checkout(ctx, claims, checkoutRequest(19.00))

		require.Error(t, err)
		assert.Nil(t, resp)

		var appErr *appErrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, appErrors.ErrCodeValidation, appErr.Code)
		f.gateway.AssertNotCalled(t, "SubmitPayment")
	})

	t.Run("Failure - Gateway Decline", func(t *testing.T) {
		f := setupCheckoutTest()

		f.carts.On("GetCart", ctx, userID).Return(cartWith(userID, 10.00, 2), nil).Once()
		f.gateway.On("SubmitPayment", ctx, mock.Anything, mock.Anything).
			Return(nil, &payu.DeclinedError{Code: "SUCCESS", State: "DECLINED", ResponseCode: "ANTIFRAUD_REJECTED"}).Once()

		resp, err := f.service.Checkout(ctx, claims, checkoutRequest(20.00))

		require.Error(t, err)
		assert.Nil(t, resp)

		var appErr *appErrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, appErrors.ErrCodeGatewayDeclined, appErr.Code)

		// A decline leaves everything in place: no completion report, no
		// order, the cart survives for a retry.
		f.notifier.AssertNotCalled(t, "CompleteTransaction")
		f.orders.AssertNotCalled(t, "CreateOrder")
		f.carts.AssertNotCalled(t, "ClearCart")
	})

	t.Run("Failure - Gateway Unreachable", func(t *testing.T) {
		f := setupCheckoutTest()

		f.carts.On("GetCart", ctx, userID).Return(cartWith(userID, 10.00, 2), nil).Once()
		f.gateway.On("SubmitPayment", ctx, mock.Anything, mock.Anything).
			Return(nil, errors.New("dial tcp: connection refused")).Once()

		resp, err := f.service.Checkout(ctx, claims, checkoutRequest(20.00))

		require.Error(t, err)
		assert.Nil(t, resp)

		var appErr *appErrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, appErrors.ErrCodeGatewayTransport, appErr.Code)
	})

	t.Run("Success - Completion Failure Does Not Fail Checkout", func(t *testing.T) {
		f := setupCheckoutTest()

		f.carts.On("GetCart", ctx, userID).Return(cartWith(userID, 10.00, 2), nil).Once()
		f.gateway.On("SubmitPayment", ctx, mock.Anything, mock.Anything).Return(approval, nil).Once()
		f.notifier.On("CompleteTransaction", ctx, mock.Anything).
			Return(nil, errors.New("completion endpoint down")).Once()
		f.carts.On("ClearCart", ctx, userID).Return(nil).Once()
		f.orders.On("CreateOrder", mock.Anything, mock.Anything).Return(nil).Maybe()
		f.notifications.On("SendEmail", mock.Anything, mock.Anything).Return(&models.NotificationResponse{}, nil).Maybe()

		resp, err := f.service.Checkout(ctx, claims, checkoutRequest(20.00))

		require.NoError(t, err)
		assert.Equal(t, "txn-abc", resp.Payment.TransactionID)
	})

	t.Run("Success - Cart Clear Failure Does Not Fail Checkout", func(t *testing.T) {
		f := setupCheckoutTest()

		f.carts.On("GetCart", ctx, userID).Return(cartWith(userID, 10.00, 2), nil).Once()
		f.gateway.On("SubmitPayment", ctx, mock.Anything, mock.Anything).Return(approval, nil).Once()
		f.notifier.On("CompleteTransaction", ctx, mock.Anything).
			Return(&models.CompletionResponse{CodigoRespuesta: "0"}, nil).Once()
		f.carts.On("ClearCart", ctx, userID).Return(appErrors.ThirdPartyError("redis down")).Once()
		f.orders.On("CreateOrder", mock.Anything, mock.Anything).Return(nil).Maybe()
		f.notifications.On("SendEmail", mock.Anything, mock.Anything).Return(&models.NotificationResponse{}, nil).Maybe()

		resp, err := f.service.Checkout(ctx, claims, checkoutRequest(20.00))

		require.NoError(t, err)
		require.NotNil(t, resp.Payment)
	})

	t.Run("Success - Fresh Reference Code Per Attempt", func(t *testing.T) {
		f := setupCheckoutTest()

		f.carts.On("GetCart", ctx, userID).Return(cartWith(userID, 10.00, 2), nil).Twice()
		f.gateway.On("SubmitPayment", ctx, mock.Anything, mock.Anything).
			Return(nil, &payu.DeclinedError{State: "DECLINED"}).Twice()

		_, err := f.service.Checkout(ctx, claims, checkoutRequest(20.00))
		require.Error(t, err)

		_, err = f.service.Checkout(ctx, claims, checkoutRequest(20.00))
		require.Error(t, err)

		first := f.gateway.Calls[0].Arguments.Get(1).(*payu.Attempt)
		second := f.gateway.Calls[1].Arguments.Get(1).(*payu.Attempt)
		assert.NotEqual(t, first.ReferenceCode, second.ReferenceCode)
	})

	t.Run("Success - Order Persistence Failure Only Logs", func(t *testing.T) {
		f := setupCheckoutTest()

		failed := make(chan struct{}, 1)

		f.carts.On("GetCart", ctx, userID).Return(cartWith(userID, 10.00, 2), nil).Once()
		f.gateway.On("SubmitPayment", ctx, mock.Anything, mock.Anything).Return(approval, nil).Once()
		f.notifier.On("CompleteTransaction", ctx, mock.Anything).
			Return(&models.CompletionResponse{CodigoRespuesta: "0"}, nil).Once()
		f.carts.On("ClearCart", ctx, userID).Return(nil).Once()
		f.orders.On("CreateOrder", mock.Anything, mock.Anything).
			Run(func(mock.Arguments) { failed <- struct{}{} }).
			Return(errors.New("pq: connection reset")).Once()

		resp, err := f.service.Checkout(ctx, claims, checkoutRequest(20.00))

		require.NoError(t, err)
		require.NotNil(t, resp.Payment)

		select {
		case <-failed:
		case <-time.After(2 * time.Second):
			t.Fatal("order write never attempted")
		}

		// No confirmation email when the order write fails.
		time.Sleep(50 * time.Millisecond)
		f.notifications.AssertNotCalled(t, "SendEmail")
	})
}

func TestRecordCompletion(t *testing.T) {
	ctx := context.Background()
	completionService := service.NewCompletionService()

	t.Run("Success", func(t *testing.T) {
		resp, err := completionService.RecordCompletion(ctx, &models.CompletionRequest{
			Email:          "buyer@example.com",
			Nombres:        "Juan Perez",
			DocumentNumber: "12345678",
			OperationDate:  "2025-06-15T15:30:00Z",
			TransactionID:  "txn-abc",
		})

		require.NoError(t, err)
		assert.Equal(t, "0", resp.CodigoRespuesta)
	})

	t.Run("Success - Resend Is Idempotent", func(t *testing.T) {
		req := &models.CompletionRequest{Email: "buyer@example.com", TransactionID: "txn-abc"}

		first, err := completionService.RecordCompletion(ctx, req)
		require.NoError(t, err)

		second, err := completionService.RecordCompletion(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, first.CodigoRespuesta, second.CodigoRespuesta)
	})

	t.Run("Failure - Missing Transaction ID", func(t *testing.T) {
		_, err := completionService.RecordCompletion(ctx, &models.CompletionRequest{Email: "buyer@example.com"})

		var appErr *appErrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, appErrors.ErrCodeBadRequest, appErr.Code)
	})

	t.Run("Failure - Missing Email", func(t *testing.T) {
		_, err := completionService.RecordCompletion(ctx, &models.CompletionRequest{TransactionID: "txn-abc"})

		require.Error(t, err)
	})
}
