//go:build paysandbox

package payu_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/renatoquispe/cinema-storefront-platform/pkg/payu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Run with: go test -tags paysandbox ./pkg/payu

func providerUnavailableServer(t *testing.T) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"code": "SUCCESS",
			"transactionResponse": {
				"state": "ERROR",
				"responseCode": "PAYMENT_NETWORK_NO_CONNECTION"
			}
		}`))
	}))
}

func TestSandboxBypass(t *testing.T) {
	t.Run("Success - Provider Unavailable Becomes A Synthetic Approval", func(t *testing.T) {
		server := providerUnavailableServer(t)
		defer server.Close()

		cfg := testConfig(server.URL)
		cfg.Test = true

		client := payu.NewClient(cfg)
		attempt := payu.NewAttempt()

		result, err := client.SubmitPayment(context.Background(), attempt, testPaymentRequest())

		require.NoError(t, err)
		require.NotNil(t, result)
		assert.Equal(t, payu.StateApproved, attempt.State)
		assert.Equal(t, "sandbox-"+attempt.ReferenceCode, result.TransactionID)
		assert.NotEmpty(t, result.OperationDate)
	})

	t.Run("Failure - Bypass Still Requires The Runtime Test Flag", func(t *testing.T) {
		server := providerUnavailableServer(t)
		defer server.Close()

		cfg := testConfig(server.URL)
		cfg.Test = false

		client := payu.NewClient(cfg)
		attempt := payu.NewAttempt()

		result, err := client.SubmitPayment(context.Background(), attempt, testPaymentRequest())

		require.Error(t, err)
		assert.Nil(t, result)

		var declined *payu.DeclinedError
		require.ErrorAs(t, err, &declined)
		assert.Equal(t, payu.StateDeclined, attempt.State)
	})

	t.Run("Failure - Other Decline Codes Are Not Bypassed", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{
				"code": "SUCCESS",
				"transactionResponse": {
					"state": "DECLINED",
					"responseCode": "ANTIFRAUD_REJECTED"
				}
			}`))
		}))
		defer server.Close()

		cfg := testConfig(server.URL)
		cfg.Test = true

		client := payu.NewClient(cfg)
		attempt := payu.NewAttempt()

		result, err := client.SubmitPayment(context.Background(), attempt, testPaymentRequest())

		require.Error(t, err)
		assert.Nil(t, result)

		var declined *payu.DeclinedError
		require.ErrorAs(t, err, &declined)
		assert.Equal(t, "ANTIFRAUD_REJECTED", declined.ResponseCode)
	})
}
