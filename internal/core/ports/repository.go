package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/ticketbay/marketplace/internal/core/domain"
)

type OfferRepository interface {
	GetByID(ctx context.Context, offerID uuid.UUID) (*domain.Offer, error)
	Create(ctx context.Context, offer *domain.Offer) error
	// Cancel flips ACTIVE -> CANCELLED for the owning buyer only.
	Cancel(ctx context.Context, offerID, buyerID uuid.UUID) error
	// ExpireDue flips every ACTIVE offer whose expiry has passed to EXPIRED
	// and returns how many rows changed.
	ExpireDue(ctx context.Context, now time.Time) (int64, error)
}

type ListingRepository interface {
	GetByID(ctx context.Context, listingID uuid.UUID) (*domain.Listing, error)
	Create(ctx context.Context, listing *domain.Listing) error
}

// AcceptOfferParams carries everything the atomic offer-acceptance unit of
// work needs. FeeRate is the configured platform rate.
type AcceptOfferParams struct {
	OfferID   uuid.UUID
	ListingID uuid.UUID
	SellerID  uuid.UUID
	FeeRate   decimal.Decimal
	Now       time.Time
}

// MatchRepository executes offer acceptance as a single serializable unit:
// lock offer and listing, validate, flip both statuses, insert the PENDING
// transaction. Competing acceptances resolve to exactly one winner.
type MatchRepository interface {
	AcceptOffer(ctx context.Context, p AcceptOfferParams) (*domain.Transaction, error)
}

// TransactionRepository owns the transaction state machine. Every Mark*
// method is a compare-and-swap guarded on the current status and returns
// domain.ErrInvalidTransition when the guard does not hold, so concurrent or
// redelivered mutations are safe to attempt.
type TransactionRepository interface {
	GetByID(ctx context.Context, txnID uuid.UUID) (*domain.Transaction, error)
	// MarkProcessing: PENDING -> PROCESSING, records the payment intent ref.
	MarkProcessing(ctx context.Context, txnID uuid.UUID, intentRef string) error
	// MarkCompleted: PROCESSING -> COMPLETED, sets paidAt.
	MarkCompleted(ctx context.Context, txnID uuid.UUID, paidAt time.Time) error
	// MarkFailed: PROCESSING -> FAILED and, in the same database
	// transaction, releases the listing back to AVAILABLE.
	MarkFailed(ctx context.Context, txnID uuid.UUID) error
	// MarkDisputed: COMPLETED -> DISPUTED with the buyer's reason.
	MarkDisputed(ctx context.Context, txnID uuid.UUID, reason string) error
	// ResolveDispute: DISPUTED -> COMPLETED with a resolution note.
	ResolveDispute(ctx context.Context, txnID uuid.UUID, note string) error
	// MarkRefunded: COMPLETED or DISPUTED -> REFUNDED.
	MarkRefunded(ctx context.Context, txnID uuid.UUID, amount decimal.Decimal, refundRef string, refundedAt time.Time) error
	// ClaimPayout flips sellerPaidOut on a COMPLETED transaction before any
	// money moves; the seller_paid_out = FALSE guard lets exactly one of two
	// concurrent payout attempts through. Returns ErrAlreadyPaidOut when the
	// claim is already held.
	ClaimPayout(ctx context.Context, txnID uuid.UUID) error
	// RecordPayout stores the transfer ref and timestamp on a claimed payout.
	RecordPayout(ctx context.Context, txnID uuid.UUID, transferRef string, paidOutAt time.Time) error
	// ReleasePayoutClaim undoes a claim whose transfer never happened; a
	// claim with a recorded transfer is left untouched.
	ReleasePayoutClaim(ctx context.Context, txnID uuid.UUID) error
	// MarkPaidOut records a payout observed from the outside (a transfer
	// webhook); guarded on seller_paid_out = FALSE like ClaimPayout.
	MarkPaidOut(ctx context.Context, txnID uuid.UUID, transferRef string, paidOutAt time.Time) error
	// MarkTicketsDelivered records ticket handover on a COMPLETED transaction.
	MarkTicketsDelivered(ctx context.Context, txnID uuid.UUID, deliveredAt time.Time) error
}

type UserRepository interface {
	GetByID(ctx context.Context, userID uuid.UUID) (*domain.User, error)
	SetGatewayCustomerRef(ctx context.Context, userID uuid.UUID, ref string) error
	SetConnectedAccountRef(ctx context.Context, userID uuid.UUID, ref string) error
}
