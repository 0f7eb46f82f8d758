package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/ticketbay/marketplace/internal/core/domain"
)

type ListingRepository struct {
	db *sql.DB
}

func NewListingRepository(db *sql.DB) *ListingRepository {
	return &ListingRepository{db: db}
}

func (r *ListingRepository) GetByID(ctx context.Context, listingID uuid.UUID) (*domain.Listing, error) {
	query := `
	SELECT id, seller_id, event_id, section_id, seats, unit_price, quantity, ticket_files, status, created_at
	FROM listings
	WHERE id = $1
	`

	listing, err := scanListing(r.db.QueryRowContext(ctx, query, listingID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrListingNotFound
		}
		return nil, err
	}
	return listing, nil
}

func (r *ListingRepository) Create(ctx context.Context, listing *domain.Listing) error {
	query := `
	INSERT INTO listings (id, seller_id, event_id, section_id, seats, unit_price, quantity, ticket_files, status, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.ExecContext(ctx, query,
		listing.ID,
		listing.SellerID,
		listing.EventID,
		listing.SectionID,
		pq.Array(listing.Seats),
		listing.UnitPrice,
		listing.Quantity,
		pq.Array(listing.TicketFiles),
		listing.Status,
		listing.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert listing: %w", err)
	}
	return nil
}

func scanListing(row rowScanner) (*domain.Listing, error) {
	var listing domain.Listing
	var seats, files pq.StringArray

	err := row.Scan(
		&listing.ID,
		&listing.SellerID,
		&listing.EventID,
		&listing.SectionID,
		&seats,
		&listing.UnitPrice,
		&listing.Quantity,
		&files,
		&listing.Status,
		&listing.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	listing.Seats = seats
	listing.TicketFiles = files
	return &listing, nil
}
