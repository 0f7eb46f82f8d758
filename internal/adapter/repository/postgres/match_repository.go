package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ticketbay/marketplace/internal/core/domain"
	"github.com/ticketbay/marketplace/internal/core/ports"
)

// MatchRepository runs offer acceptance as one serializable unit of work.
// Both rows are locked with SELECT ... FOR UPDATE before any check, always
// offer first then listing, so two racing acceptances of the same pair
// queue up instead of deadlocking and the loser re-validates against the
// winner's committed state.
type MatchRepository struct {
	db *sql.DB
}

func NewMatchRepository(db *sql.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

func (r *MatchRepository) AcceptOffer(ctx context.Context, p ports.AcceptOfferParams) (*domain.Transaction, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	offer, err := lockOffer(ctx, tx, p.OfferID)
	if err != nil {
		return nil, err
	}
	listing, err := lockListing(ctx, tx, p.ListingID)
	if err != nil {
		return nil, err
	}

	switch {
	case !p.Now.Before(offer.ExpiresAt) && offer.Status == domain.OfferActive:
		return nil, domain.ErrOfferExpired
	case offer.Status != domain.OfferActive:
		return nil, domain.ErrOfferNotActive
	case listing.SellerID != p.SellerID:
		return nil, domain.ErrListingUnauthorized
	case listing.Status != domain.ListingAvailable:
		return nil, domain.ErrListingNotAvailable
	case offer.EventID != listing.EventID:
		return nil, domain.ErrEventMismatch
	case listing.Quantity < offer.Quantity:
		return nil, domain.ErrInsufficientQuantity
	}

	result, err := tx.ExecContext(ctx, `
	UPDATE offers
	SET status = $1, accepted_at = $2, accepted_by = $3
	WHERE id = $4 AND status = $5
	`, domain.OfferAccepted, p.Now, p.SellerID, offer.ID, domain.OfferActive)
	if err != nil {
		return nil, fmt.Errorf("failed to accept offer: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, domain.ErrOfferNotActive
	}

	result, err = tx.ExecContext(ctx, `
	UPDATE listings
	SET status = $1
	WHERE id = $2 AND status = $3
	`, domain.ListingSold, listing.ID, domain.ListingAvailable)
	if err != nil {
		return nil, fmt.Errorf("failed to mark listing sold: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, domain.ErrListingNotAvailable
	}

	gross := listing.UnitPrice.Mul(decimal.NewFromInt(int64(offer.Quantity)))
	fee, net := domain.ComputeFees(gross, p.FeeRate)

	txn := &domain.Transaction{
		ID:          uuid.New(),
		BuyerID:     offer.BuyerID,
		SellerID:    listing.SellerID,
		OfferID:     offer.ID,
		ListingID:   listing.ID,
		EventID:     offer.EventID,
		GrossAmount: gross,
		PlatformFee: fee,
		SellerNet:   net,
		Status:      domain.TransactionPending,
		CreatedAt:   p.Now,
	}

	_, err = tx.ExecContext(ctx, `
	INSERT INTO transactions (id, buyer_id, seller_id, offer_id, listing_id, event_id, gross_amount, platform_fee, seller_net, status, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, txn.ID, txn.BuyerID, txn.SellerID, txn.OfferID, txn.ListingID, txn.EventID,
		txn.GrossAmount, txn.PlatformFee, txn.SellerNet, txn.Status, txn.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert transaction: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit offer acceptance: %w", err)
	}
	return txn, nil
}

func lockOffer(ctx context.Context, tx *sql.Tx, offerID uuid.UUID) (*domain.Offer, error) {
	query := `
	SELECT id, buyer_id, event_id, section_ids, max_price, quantity, message, status, created_at, expires_at, accepted_at, accepted_by
	FROM offers
	WHERE id = $1
	FOR UPDATE
	`
	offer, err := scanOffer(tx.QueryRowContext(ctx, query, offerID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrOfferNotFound
		}
		return nil, err
	}
	return offer, nil
}

func lockListing(ctx context.Context, tx *sql.Tx, listingID uuid.UUID) (*domain.Listing, error) {
	query := `
	SELECT id, seller_id, event_id, section_id, seats, unit_price, quantity, ticket_files, status, created_at
	FROM listings
	WHERE id = $1
	FOR UPDATE
	`
	listing, err := scanListing(tx.QueryRowContext(ctx, query, listingID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrListingNotFound
		}
		return nil, err
	}
	return listing, nil
}
