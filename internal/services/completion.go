package service

import (
	"context"
	"log/slog"

	"github.com/renatoquispe/cinema-storefront-platform/internal/errors"
	"github.com/renatoquispe/cinema-storefront-platform/internal/models"
)

// completionResponseOK is the record-keeping endpoint's accepted code.
const completionResponseOK = "0"

// CompletionService is the receiving side of the transaction-completion
// contract: it validates and acknowledges finished-transaction reports.
type CompletionService interface {
	RecordCompletion(ctx context.Context, req *models.CompletionRequest) (*models.CompletionResponse, error)
}

type completionService struct{}

func NewCompletionService() CompletionService {
	return &completionService{}
}

// RecordCompletion implements CompletionService. A payload without the
// transaction id or email is rejected outright; an accepted report is
// idempotent, re-sending the same transaction is harmless.
func (s *completionService) RecordCompletion(ctx context.Context, req *models.CompletionRequest) (*models.CompletionResponse, error) {

	if req.TransactionID == "" || req.Email == "" {
		return nil, errors.BadRequestError("Missing required fields")
	}

	slog.Info("Transaction completion recorded",
		slog.String("transactionId", req.TransactionID),
		slog.String("email", req.Email),
		slog.String("operationDate", req.OperationDate))

	return &models.CompletionResponse{CodigoRespuesta: completionResponseOK}, nil
}
