package gateway

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ticketbay/marketplace/internal/core/domain"
)

const testSecret = "whsec_test"

func signedHeader(secret string, ts int64, payload []byte) string {
	return fmt.Sprintf("t=%d,v1=%s", ts, ComputeSignature(secret, ts, payload))
}

func testClient() *Client {
	return NewClient(Config{WebhookSecret: testSecret})
}

func TestConstructWebhookEvent_Valid(t *testing.T) {
	payload := []byte(`{
		"id": "evt_1",
		"type": "payment_intent.succeeded",
		"data": {"object": {
			"id": "pi_1",
			"amount": 10000,
			"metadata": {"transaction_id": "abc"}
		}}
	}`)

	event, err := testClient().ConstructWebhookEvent(payload, signedHeader(testSecret, time.Now().Unix(), payload))

	assert.NoError(t, err)
	if assert.NotNil(t, event) {
		assert.Equal(t, "evt_1", event.ID)
		assert.Equal(t, domain.EventPaymentSucceeded, event.Type)
		assert.Equal(t, "pi_1", event.ObjectID)
		assert.Equal(t, "100", event.Amount.String())
		assert.Equal(t, "abc", event.Metadata["transaction_id"])
	}
}

func TestConstructWebhookEvent_TamperedPayload(t *testing.T) {
	payload := []byte(`{"id":"evt_1","type":"payment_intent.succeeded"}`)
	header := signedHeader(testSecret, time.Now().Unix(), payload)

	tampered := []byte(`{"id":"evt_1","type":"payment_intent.succeeded","data":{"object":{"amount":1}}}`)
	_, err := testClient().ConstructWebhookEvent(tampered, header)
	assert.ErrorIs(t, err, domain.ErrInvalidSignature)
}

func TestConstructWebhookEvent_WrongSecret(t *testing.T) {
	payload := []byte(`{"id":"evt_1","type":"payment_intent.succeeded"}`)
	header := signedHeader("whsec_other", time.Now().Unix(), payload)

	_, err := testClient().ConstructWebhookEvent(payload, header)
	assert.ErrorIs(t, err, domain.ErrInvalidSignature)
}

func TestConstructWebhookEvent_StaleTimestamp(t *testing.T) {
	payload := []byte(`{"id":"evt_1","type":"payment_intent.succeeded"}`)
	stale := time.Now().Add(-10 * time.Minute).Unix()

	_, err := testClient().ConstructWebhookEvent(payload, signedHeader(testSecret, stale, payload))
	assert.ErrorIs(t, err, domain.ErrInvalidSignature)
}

func TestConstructWebhookEvent_MalformedHeader(t *testing.T) {
	payload := []byte(`{"id":"evt_1","type":"x"}`)

	for _, header := range []string{"", "v1=deadbeef", "t=123", "t=abc,v1=deadbeef"} {
		_, err := testClient().ConstructWebhookEvent(payload, header)
		assert.ErrorIs(t, err, domain.ErrInvalidSignature, "header %q", header)
	}
}

func TestConstructWebhookEvent_MissingIDOrType(t *testing.T) {
	payload := []byte(`{"id":"evt_1"}`)

	_, err := testClient().ConstructWebhookEvent(payload, signedHeader(testSecret, time.Now().Unix(), payload))
	assert.ErrorIs(t, err, domain.ErrInvalidSignature)
}

func TestConstructWebhookEvent_NotJSON(t *testing.T) {
	payload := []byte("this is not json")

	_, err := testClient().ConstructWebhookEvent(payload, signedHeader(testSecret, time.Now().Unix(), payload))
	assert.ErrorIs(t, err, domain.ErrInvalidSignature)
}
