package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ticketbay/marketplace/internal/core/domain"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Client) {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv, NewClient(Config{BaseURL: srv.URL, APIKey: "sk_test"})
}

// Amounts must cross the wire in minor units: 123.45 becomes 12345.
func TestCreatePaymentIntent_SendsMinorUnits(t *testing.T) {
	var got map[string]any
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/payment_intents", r.URL.Path)
		assert.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(map[string]string{"id": "pi_1", "client_secret": "sec"})
	})

	intent, err := c.CreatePaymentIntent(context.Background(),
		decimal.RequireFromString("123.45"), "usd", "cus_1",
		map[string]string{"transaction_id": "txn_1"})

	require.NoError(t, err)
	assert.Equal(t, "pi_1", intent.ID)
	assert.Equal(t, "sec", intent.ClientSecret)
	assert.Equal(t, float64(12345), got["amount"])
	assert.Equal(t, "usd", got["currency"])
	assert.Equal(t, "cus_1", got["customer"])
}

// A zero refund amount means a full refund: the amount field is omitted so
// the gateway refunds the whole charge.
func TestCreateRefund_OmitsAmountWhenZero(t *testing.T) {
	var got map[string]any
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(map[string]string{"id": "re_1"})
	})

	refund, err := c.CreateRefund(context.Background(), "pi_1", decimal.Zero, "requested_by_customer")

	require.NoError(t, err)
	assert.Equal(t, "re_1", refund.ID)
	_, hasAmount := got["amount"]
	assert.False(t, hasAmount)
	assert.Equal(t, "pi_1", got["payment_intent"])
}

func TestCreateTransfer(t *testing.T) {
	var got map[string]any
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/transfers", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(map[string]string{"id": "tr_1"})
	})

	transfer, err := c.CreateTransfer(context.Background(),
		decimal.RequireFromString("95.00"), "acct_1", nil)

	require.NoError(t, err)
	assert.Equal(t, "tr_1", transfer.ID)
	assert.Equal(t, float64(9500), got["amount"])
	assert.Equal(t, "acct_1", got["destination"])
}

func TestClient_Non2xxIsExternalServiceError(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"card_declined"}`, http.StatusPaymentRequired)
	})

	_, err := c.CreateCustomer(context.Background(), "buyer@example.com")
	assert.ErrorIs(t, err, domain.ErrExternalService)
}

// Five consecutive failures open the breaker; the sixth call is rejected
// without reaching the server.
func TestClient_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	calls := 0
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := c.CreateCustomer(ctx, "buyer@example.com")
		assert.ErrorIs(t, err, domain.ErrExternalService)
	}
	assert.Equal(t, 5, calls)

	_, err := c.CreateCustomer(ctx, "buyer@example.com")
	assert.ErrorIs(t, err, domain.ErrExternalService)
	assert.Equal(t, 5, calls)
}
