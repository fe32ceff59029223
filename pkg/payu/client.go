package payu

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Gateway sentinels. The outer code and the inner transaction state must
// BOTH match for a payment to be accepted.
const (
	codeSuccess   = "SUCCESS"
	stateApproved = "APPROVED"

	// errProviderUnavailable is the error code the sandbox returns when the
	// payment network simulation is switched off. See sandbox.go for the
	// conditions under which it may be converted into a synthetic approval.
	errProviderUnavailable = "PAYMENT_NETWORK_NO_CONNECTION"
)

type Config struct {
	BaseURL    string
	APIKey     string
	APILogin   string
	MerchantID string
	AccountID  string
	Test       bool
}

// PaymentRequest carries an already-validated card form. CardExpiry is MM/YY
// as entered; the client reformats it to the gateway's YYYY/MM.
type PaymentRequest struct {
	CardNumber     string
	CardExpiry     string
	CVV            string
	Email          string
	FullName       string
	Amount         float64
	DocumentNumber string
	DocumentType   string
}

// PaymentResult is produced only for a gateway-confirmed approval.
type PaymentResult struct {
	OperationDate string
	TransactionID string
}

// Client defines the methods any payment gateway client must implement.
type Client interface {
	SubmitPayment(ctx context.Context, attempt *Attempt, req *PaymentRequest) (*PaymentResult, error)
}

type payuClient struct {
	cfg        Config
	httpClient *http.Client
}

func NewClient(cfg Config) Client {
	return &payuClient{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout:   30 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// SubmitPayment is a single synchronous call: no retry is performed here, a
// resubmission is a new attempt with a new reference code.
func (c *payuClient) SubmitPayment(ctx context.Context, attempt *Attempt, req *PaymentRequest) (*PaymentResult, error) {

	if err := attempt.begin(); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(c.buildRequest(attempt, req))
	if err != nil {
		attempt.State = StateFailed

		return nil, fmt.Errorf("failed to encode gateway request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(payload))
	if err != nil {
		attempt.State = StateFailed

		return nil, fmt.Errorf("failed to build gateway request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json; charset=utf-8")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		attempt.State = StateFailed

		return nil, fmt.Errorf("gateway unreachable: %w", err)
	}

	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		attempt.State = StateFailed

		return nil, fmt.Errorf("failed to read gateway response: %w", err)
	}

	gwResp, err := parseResponse(body)
	if err != nil {
		attempt.State = StateFailed

		return nil, fmt.Errorf("unreadable gateway response: %w", err)
	}

	return c.decide(attempt, gwResp)
}

// decide applies the acceptance rule: outer code SUCCESS and inner state
// APPROVED. Everything else is a decline, except the gated sandbox bypass.
func (c *payuClient) decide(attempt *Attempt, gwResp *gatewayResponse) (*PaymentResult, error) {

	if gwResp.Code != codeSuccess || gwResp.State != stateApproved {

		if c.sandboxApproval(gwResp) {
			attempt.State = StateApproved

			return &PaymentResult{
				OperationDate: time.Now().UTC().Format(time.RFC3339),
				TransactionID: "sandbox-" + attempt.ReferenceCode,
			}, nil
		}

		attempt.State = StateDeclined

		return nil, &DeclinedError{
			Code:         gwResp.Code,
			State:        gwResp.State,
			ResponseCode: gwResp.ResponseCode,
			Message:      gwResp.Error,
		}
	}

	attempt.State = StateApproved

	operationDate := gwResp.OperationDate
	if operationDate == "" {
		operationDate = time.Now().UTC().Format(time.RFC3339)
	}

	return &PaymentResult{
		OperationDate: operationDate,
		TransactionID: gwResp.TransactionID,
	}, nil
}

// sandboxApproval is true only when the runtime test flag, the compile-time
// sandbox tag AND the specific provider-inactive error code line up.
func (c *payuClient) sandboxApproval(gwResp *gatewayResponse) bool {
	return c.cfg.Test && sandboxBypassEnabled && gwResp.ResponseCode == errProviderUnavailable
}

// DeclinedError is an explicit rejection by the gateway, as opposed to a
// transport failure reaching it.
type DeclinedError struct {
	Code         string
	State        string
	ResponseCode string
	Message      string
}

func (e *DeclinedError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("payment declined: %s", e.Message)
	}

	return fmt.Sprintf("payment declined: code=%s state=%s responseCode=%s", e.Code, e.State, e.ResponseCode)
}
