package ports

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/ticketbay/marketplace/internal/core/domain"
)

type PaymentIntent struct {
	ID           string
	ClientSecret string
}

type Refund struct {
	ID string
}

type Transfer struct {
	ID string
}

// PaymentGateway wraps the external payment processor. Amounts cross this
// boundary as decimals; the adapter converts to and from minor currency
// units on the wire. Every method must observe ctx deadlines and surface
// failures wrapped in domain.ErrExternalService.
type PaymentGateway interface {
	CreateCustomer(ctx context.Context, email string) (string, error)
	CreatePaymentIntent(ctx context.Context, amount decimal.Decimal, currency, customerRef string, metadata map[string]string) (*PaymentIntent, error)
	// CreateRefund refunds amount against the intent; a zero amount means a
	// full refund.
	CreateRefund(ctx context.Context, intentRef string, amount decimal.Decimal, reason string) (*Refund, error)
	CreateConnectedAccount(ctx context.Context, email string) (string, error)
	CreateAccountLink(ctx context.Context, accountRef, refreshURL, returnURL string) (string, error)
	CreateTransfer(ctx context.Context, amount decimal.Decimal, destinationRef string, metadata map[string]string) (*Transfer, error)
	// ConstructWebhookEvent verifies the signature header against the raw
	// payload and parses the event. It returns domain.ErrInvalidSignature
	// when verification fails; no state may be mutated in that case.
	ConstructWebhookEvent(payload []byte, sigHeader string) (*domain.PaymentEvent, error)
}

// Notifier delivers fire-and-forget user notifications. Delivery failures
// are the adapter's problem; correctness of the ledger never depends on it.
type Notifier interface {
	Notify(ctx context.Context, userID string, kind string, payload map[string]any)
}
