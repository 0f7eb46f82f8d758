package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionStatus string

const (
	TransactionPending    TransactionStatus = "PENDING"
	TransactionProcessing TransactionStatus = "PROCESSING"
	TransactionCompleted  TransactionStatus = "COMPLETED"
	TransactionFailed     TransactionStatus = "FAILED"
	TransactionRefunded   TransactionStatus = "REFUNDED"
	TransactionDisputed   TransactionStatus = "DISPUTED"
)

// Transaction is the permanent financial record created when an offer and a
// listing are matched. It is never deleted; money movement is tracked by
// one-directional status transitions.
type Transaction struct {
	ID        uuid.UUID
	BuyerID   uuid.UUID
	SellerID  uuid.UUID
	OfferID   uuid.UUID
	ListingID uuid.UUID
	EventID   uuid.UUID

	GrossAmount decimal.Decimal
	PlatformFee decimal.Decimal
	SellerNet   decimal.Decimal

	Status           TransactionStatus
	PaymentIntentRef string
	RefundRef        string
	TransferRef      string

	PaidAt             *time.Time
	RefundAmount       decimal.Decimal
	RefundedAt         *time.Time
	TicketsDelivered   bool
	TicketsDeliveredAt *time.Time
	SellerPaidOut      bool
	SellerPaidOutAt    *time.Time

	DisputeReason string
	Notes         string
	CreatedAt     time.Time
}

var allowedTransitions = map[TransactionStatus][]TransactionStatus{
	TransactionPending:    {TransactionProcessing},
	TransactionProcessing: {TransactionCompleted, TransactionFailed},
	TransactionCompleted:  {TransactionDisputed, TransactionRefunded},
	TransactionDisputed:   {TransactionCompleted, TransactionRefunded},
}

// CanTransitionTo reports whether moving from the transaction's current
// status to next is a legal state-machine edge. FAILED and REFUNDED are
// terminal.
func (t *Transaction) CanTransitionTo(next TransactionStatus) bool {
	for _, s := range allowedTransitions[t.Status] {
		if s == next {
			return true
		}
	}
	return false
}

func (t *Transaction) IsRefundable() bool {
	return t.Status == TransactionCompleted || t.Status == TransactionDisputed
}
