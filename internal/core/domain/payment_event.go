package domain

import "github.com/shopspring/decimal"

// Gateway webhook event types the reconciler understands. Anything else is
// logged and ignored.
const (
	EventPaymentSucceeded   = "payment_intent.succeeded"
	EventPaymentFailed      = "payment_intent.payment_failed"
	EventPaymentCanceled    = "payment_intent.canceled"
	EventRefundCreated      = "refund.created"
	EventTransferCreated    = "transfer.created"
	EventAccountUpdated     = "account.updated"
	EventSetupIntentSucceed = "setup_intent.succeeded"
)

// PaymentEvent is an authenticated webhook notification from the gateway,
// already converted out of minor currency units.
type PaymentEvent struct {
	ID       string
	Type     string
	ObjectID string
	Amount   decimal.Decimal
	Metadata map[string]string
}

// TransactionID returns the local transaction id embedded in the event's
// object metadata, or "" when absent.
func (e *PaymentEvent) TransactionID() string {
	return e.Metadata["transaction_id"]
}
