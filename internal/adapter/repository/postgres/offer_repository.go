package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/ticketbay/marketplace/internal/core/domain"
)

type OfferRepository struct {
	db *sql.DB
}

func NewOfferRepository(db *sql.DB) *OfferRepository {
	return &OfferRepository{db: db}
}

func (r *OfferRepository) GetByID(ctx context.Context, offerID uuid.UUID) (*domain.Offer, error) {
	query := `
	SELECT id, buyer_id, event_id, section_ids, max_price, quantity, message, status, created_at, expires_at, accepted_at, accepted_by
	FROM offers
	WHERE id = $1
	`

	offer, err := scanOffer(r.db.QueryRowContext(ctx, query, offerID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrOfferNotFound
		}
		return nil, err
	}
	return offer, nil
}

func (r *OfferRepository) Create(ctx context.Context, offer *domain.Offer) error {
	query := `
	INSERT INTO offers (id, buyer_id, event_id, section_ids, max_price, quantity, message, status, created_at, expires_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.ExecContext(ctx, query,
		offer.ID,
		offer.BuyerID,
		offer.EventID,
		pq.Array(offer.SectionIDs),
		offer.MaxPrice,
		offer.Quantity,
		offer.Message,
		offer.Status,
		offer.CreatedAt,
		offer.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert offer: %w", err)
	}
	return nil
}

// Cancel is a guarded update: only the owning buyer can cancel, and only
// while the offer is still ACTIVE. Zero rows affected is resolved into the
// precise business error afterwards.
func (r *OfferRepository) Cancel(ctx context.Context, offerID, buyerID uuid.UUID) error {
	query := `
	UPDATE offers
	SET status = $1
	WHERE id = $2 AND buyer_id = $3 AND status = $4
	`

	result, err := r.db.ExecContext(ctx, query, domain.OfferCancelled, offerID, buyerID, domain.OfferActive)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		offer, err := r.GetByID(ctx, offerID)
		if err != nil {
			return err
		}
		if offer.BuyerID != buyerID {
			return domain.ErrNotAuthorized
		}
		return domain.ErrOfferNotActive
	}
	return nil
}

func (r *OfferRepository) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	query := `
	UPDATE offers
	SET status = $1
	WHERE status = $2 AND expires_at < $3
	`

	result, err := r.db.ExecContext(ctx, query, domain.OfferExpired, domain.OfferActive, now)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOffer(row rowScanner) (*domain.Offer, error) {
	var offer domain.Offer
	var sections pq.StringArray
	var acceptedAt sql.NullTime
	var acceptedBy sql.NullString

	err := row.Scan(
		&offer.ID,
		&offer.BuyerID,
		&offer.EventID,
		&sections,
		&offer.MaxPrice,
		&offer.Quantity,
		&offer.Message,
		&offer.Status,
		&offer.CreatedAt,
		&offer.ExpiresAt,
		&acceptedAt,
		&acceptedBy,
	)
	if err != nil {
		return nil, err
	}

	offer.SectionIDs = sections
	if acceptedAt.Valid {
		offer.AcceptedAt = &acceptedAt.Time
	}
	if acceptedBy.Valid && acceptedBy.String != "" {
		uid, err := uuid.Parse(acceptedBy.String)
		if err == nil {
			offer.AcceptedBy = &uid
		}
	}
	return &offer, nil
}
