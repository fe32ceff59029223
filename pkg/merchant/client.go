package merchant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/renatoquispe/cinema-storefront-platform/internal/models"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// ErrMissingFields means the completion payload lacked the transaction id or
// the payer email. The call is rejected before any network attempt.
var ErrMissingFields = errors.New("completion payload missing transaction id or email")

// Notifier reports a finished transaction to the chain's record-keeping
// endpoint. It is bookkeeping: a failure here never rolls back the payment.
type Notifier interface {
	CompleteTransaction(ctx context.Context, req *models.CompletionRequest) (*models.CompletionResponse, error)
}

type notifier struct {
	completeURL string
	httpClient  *http.Client
}

func NewNotifier(completeURL string) Notifier {
	return &notifier{
		completeURL: completeURL,
		httpClient: &http.Client{
			Timeout:   10 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// CompleteTransaction implements Notifier. It fails closed: a payload
// without the required fields is a validation error, not a network one.
func (n *notifier) CompleteTransaction(ctx context.Context, req *models.CompletionRequest) (*models.CompletionResponse, error) {

	if req.TransactionID == "" || req.Email == "" {
		return nil, ErrMissingFields
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode completion payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, n.completeURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build completion request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("completion endpoint unreachable: %w", err)
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("completion endpoint returned status %d", resp.StatusCode)
	}

	var completion models.CompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return nil, fmt.Errorf("malformed completion response: %w", err)
	}

	return &completion, nil
}
