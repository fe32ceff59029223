package service

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	appErrors "github.com/renatoquispe/cinema-storefront-platform/internal/errors"
	"github.com/renatoquispe/cinema-storefront-platform/internal/metrics"
	"github.com/renatoquispe/cinema-storefront-platform/internal/models"
	repository "github.com/renatoquispe/cinema-storefront-platform/internal/repositories"
	"github.com/renatoquispe/cinema-storefront-platform/pkg/merchant"
	"github.com/renatoquispe/cinema-storefront-platform/pkg/payu"
)

type CheckoutService interface {
	Checkout(ctx context.Context, claims *models.Claims, req *models.CheckoutRequest) (*models.CheckoutResponse, error)
}

type checkoutService struct {
	carts         CartService
	orders        repository.OrderRepository
	gateway       payu.Client
	notifier      merchant.Notifier
	notifications NotificationService
}

func NewCheckoutService(carts CartService, orders repository.OrderRepository, gateway payu.Client, notifier merchant.Notifier, notifications NotificationService) CheckoutService {
	return &checkoutService{
		carts:         carts,
		orders:        orders,
		gateway:       gateway,
		notifier:      notifier,
		notifications: notifications,
	}
}

// Checkout runs one payment attempt: submit to the gateway, notify the
// merchant endpoint, record the order (detached) and clear the cart. The
// sequence is strictly ordered except the order write, which is
// fire-and-forget relative to the user-visible confirmation.
func (s *checkoutService) Checkout(ctx context.Context, claims *models.Claims, req *models.CheckoutRequest) (*models.CheckoutResponse, error) {

	cart, err := s.carts.GetCart(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}

	if len(cart.Lines) == 0 {
		return nil, appErrors.BadRequestError("Cart is empty")
	}

	// The submitted amount must equal the cart total at submission time.
	if math.Abs(req.Amount-cart.Total) > 0.005 {
		return nil, appErrors.ValidationError("Amount does not match the cart total")
	}

	// Every attempt gets a fresh reference code; codes are never reused
	// across resubmissions.
	attempt := payu.NewAttempt()

	slog.Info("Submitting payment",
		slog.String("referenceCode", attempt.ReferenceCode),
		slog.String("userId", claims.UserID.String()))

	result, err := s.gateway.SubmitPayment(ctx, attempt, &payu.PaymentRequest{
		CardNumber:     req.CardNumber,
		CardExpiry:     req.CardExpiry,
		CVV:            req.CVV,
		Email:          req.Email,
		FullName:       req.FullName,
		Amount:         cart.Total,
		DocumentNumber: req.DocumentNumber,
		DocumentType:   string(req.DocumentType),
	})

	if err != nil {

		var declined *payu.DeclinedError
		if errors.As(err, &declined) {
			metrics.RecordPaymentAttempt("declined")

			return nil, appErrors.DeclineError("Card declined, verify your data").
				WithDetail(declined.Message).
				WithError(err)
		}

		metrics.RecordPaymentAttempt("failed")

		return nil, appErrors.TransportError("Could not process the payment, try again").WithError(err)
	}

	metrics.RecordPaymentAttempt("approved")

	payment := models.PaymentResult{
		OperationDate: result.OperationDate,
		TransactionID: result.TransactionID,
	}

	// Bookkeeping from here on: the money has moved, failures are logged
	// and never roll the payment back.
	s.notifyCompletion(ctx, req, &payment)

	order := &models.Order{
		ID:        uuid.New(),
		UserEmail: req.Email,
		UserName:  req.FullName,
		Lines:     cart.Lines,
		Total:     cart.Total,
		Payment:   payment,
	}

	s.recordOrderDetached(ctx, order)

	if err := s.carts.ClearCart(ctx, claims.UserID); err != nil {
		slog.Warn("Failed to clear cart after checkout",
			slog.String("userId", claims.UserID.String()),
			slog.String("error", err.Error()))
	}

	return &models.CheckoutResponse{
		OrderID: order.ID.String(),
		Payment: &payment,
		Message: "Payment approved",
	}, nil
}

func (s *checkoutService) notifyCompletion(ctx context.Context, req *models.CheckoutRequest, payment *models.PaymentResult) {

	_, err := s.notifier.CompleteTransaction(ctx, &models.CompletionRequest{
		Email:          req.Email,
		Nombres:        req.FullName,
		DocumentNumber: req.DocumentNumber,
		OperationDate:  payment.OperationDate,
		TransactionID:  payment.TransactionID,
	})

	if err != nil {
		bookkeepingErr := appErrors.BookkeepingError("Completion notification failed").WithError(err)
		slog.Error("Completion notification failed",
			slog.String("transactionId", payment.TransactionID),
			slog.String("error", bookkeepingErr.Err.Error()))
	}
}

// recordOrderDetached persists the order snapshot off the request path. The
// error channel is drained by a companion goroutine that only logs: the
// user-visible confirmation does not wait for, or depend on, persistence.
func (s *checkoutService) recordOrderDetached(ctx context.Context, order *models.Order) {

	errCh := make(chan error, 1)

	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 15*time.Second)

	go func() {
		errCh <- s.orders.CreateOrder(recordCtx, order)
	}()

	// The draining goroutine owns the context: it must stay live through the
	// confirmation email, not just the order write.
	go func() {
		defer cancel()

		if err := <-errCh; err != nil {
			bookkeepingErr := appErrors.BookkeepingError("Order persistence failed").WithError(err)
			slog.Error("Order persistence failed",
				slog.String("orderId", order.ID.String()),
				slog.String("transactionId", order.Payment.TransactionID),
				slog.String("error", bookkeepingErr.Err.Error()))

			return
		}

		s.sendConfirmationEmail(recordCtx, order)
	}()
}

func (s *checkoutService) sendConfirmationEmail(ctx context.Context, order *models.Order) {

	if s.notifications == nil {
		return
	}

	_, err := s.notifications.SendEmail(ctx, &models.EmailNotificationRequest{
		To:      order.UserEmail,
		Subject: "Tu compra en CineStore",
		Content: "Gracias por tu compra. Transacción: " + order.Payment.TransactionID,
		Metadata: map[string]any{
			"order_id":       order.ID.String(),
			"transaction_id": order.Payment.TransactionID,
		},
	})

	if err != nil {
		slog.Error("Confirmation email failed",
			slog.String("orderId", order.ID.String()),
			slog.String("error", err.Error()))
	}
}
