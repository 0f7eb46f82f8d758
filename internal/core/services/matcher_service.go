package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/ticketbay/marketplace/internal/core/domain"
	"github.com/ticketbay/marketplace/internal/core/ports"
	"github.com/ticketbay/marketplace/internal/platform/monitoring"
)

type AcceptOfferRequest struct {
	OfferID   string `json:"offer_id"`
	ListingID string `json:"listing_id"`
	SellerID  string `json:"seller_id"`
}

type AcceptOfferResponse struct {
	TransactionID string `json:"transaction_id"`
	GrossAmount   string `json:"gross_amount"`
	PlatformFee   string `json:"platform_fee"`
	SellerNet     string `json:"seller_net"`
	Status        string `json:"status"`
}

type CreateOfferRequest struct {
	BuyerID    string   `json:"buyer_id"`
	EventID    string   `json:"event_id"`
	SectionIDs []string `json:"section_ids"`
	MaxPrice   string   `json:"max_price"`
	Quantity   int      `json:"quantity"`
	Message    string   `json:"message"`
	ExpiresAt  string   `json:"expires_at"`
}

type CreateListingRequest struct {
	SellerID    string   `json:"seller_id"`
	EventID     string   `json:"event_id"`
	SectionID   string   `json:"section_id"`
	Seats       []string `json:"seats"`
	UnitPrice   string   `json:"unit_price"`
	TicketFiles []string `json:"ticket_files"`
}

// MatcherService validates and executes offer acceptance, and owns the thin
// offer/listing lifecycle around it.
type MatcherService struct {
	offers   ports.OfferRepository
	listings ports.ListingRepository
	match    ports.MatchRepository
	notifier ports.Notifier
	redis    *redis.Client
	feeRate  decimal.Decimal
}

func NewMatcherService(
	offers ports.OfferRepository,
	listings ports.ListingRepository,
	match ports.MatchRepository,
	notifier ports.Notifier,
	redisClient *redis.Client,
	feeRate decimal.Decimal,
) *MatcherService {
	return &MatcherService{
		offers:   offers,
		listings: listings,
		match:    match,
		notifier: notifier,
		redis:    redisClient,
		feeRate:  feeRate,
	}
}

// AcceptOffer flips offer -> ACCEPTED and listing -> SOLD and creates the
// PENDING transaction, all in one atomic unit of work. Exactly one of two
// racing acceptances can win; the loser gets a conflict error from the
// store's row guards.
func (s *MatcherService) AcceptOffer(ctx context.Context, req AcceptOfferRequest) (*AcceptOfferResponse, error) {
	offerID, err := uuid.Parse(req.OfferID)
	if err != nil {
		return nil, errors.New("invalid offer id")
	}
	listingID, err := uuid.Parse(req.ListingID)
	if err != nil {
		return nil, errors.New("invalid listing id")
	}
	sellerID, err := uuid.Parse(req.SellerID)
	if err != nil {
		return nil, errors.New("invalid seller id")
	}

	txn, err := s.match.AcceptOffer(ctx, ports.AcceptOfferParams{
		OfferID:   offerID,
		ListingID: listingID,
		SellerID:  sellerID,
		FeeRate:   s.feeRate,
		Now:       time.Now(),
	})
	if err != nil {
		monitoring.TrackOfferAccept("rejected")
		return nil, err
	}
	monitoring.TrackOfferAccept("accepted")

	s.invalidateListings(ctx, txn.EventID)

	s.notifier.Notify(ctx, txn.BuyerID.String(), "offer_accepted", map[string]any{
		"transaction_id": txn.ID.String(),
		"gross_amount":   txn.GrossAmount.String(),
	})

	return &AcceptOfferResponse{
		TransactionID: txn.ID.String(),
		GrossAmount:   txn.GrossAmount.String(),
		PlatformFee:   txn.PlatformFee.String(),
		SellerNet:     txn.SellerNet.String(),
		Status:        string(txn.Status),
	}, nil
}

func (s *MatcherService) CreateOffer(ctx context.Context, req CreateOfferRequest) (*domain.Offer, error) {
	buyerID, err := uuid.Parse(req.BuyerID)
	if err != nil {
		return nil, errors.New("invalid buyer id")
	}
	eventID, err := uuid.Parse(req.EventID)
	if err != nil {
		return nil, errors.New("invalid event id")
	}
	maxPrice, err := decimal.NewFromString(req.MaxPrice)
	if err != nil || maxPrice.IsNegative() {
		return nil, errors.New("invalid max price")
	}
	if req.Quantity <= 0 {
		return nil, errors.New("quantity must be positive")
	}
	expiresAt, err := time.Parse(time.RFC3339, req.ExpiresAt)
	if err != nil || !expiresAt.After(time.Now()) {
		return nil, errors.New("expiry must be a future RFC3339 timestamp")
	}

	offer := &domain.Offer{
		ID:         uuid.New(),
		BuyerID:    buyerID,
		EventID:    eventID,
		SectionIDs: req.SectionIDs,
		MaxPrice:   maxPrice,
		Quantity:   req.Quantity,
		Message:    req.Message,
		Status:     domain.OfferActive,
		CreatedAt:  time.Now(),
		ExpiresAt:  expiresAt,
	}

	if err := s.offers.Create(ctx, offer); err != nil {
		return nil, fmt.Errorf("failed to create offer: %w", err)
	}
	return offer, nil
}

func (s *MatcherService) GetOffer(ctx context.Context, offerID uuid.UUID) (*domain.Offer, error) {
	return s.offers.GetByID(ctx, offerID)
}

// CancelOffer is owner-only; the store guard rejects non-ACTIVE offers.
func (s *MatcherService) CancelOffer(ctx context.Context, offerID, buyerID uuid.UUID) error {
	return s.offers.Cancel(ctx, offerID, buyerID)
}

func (s *MatcherService) CreateListing(ctx context.Context, req CreateListingRequest) (*domain.Listing, error) {
	sellerID, err := uuid.Parse(req.SellerID)
	if err != nil {
		return nil, errors.New("invalid seller id")
	}
	eventID, err := uuid.Parse(req.EventID)
	if err != nil {
		return nil, errors.New("invalid event id")
	}
	unitPrice, err := decimal.NewFromString(req.UnitPrice)
	if err != nil || !unitPrice.IsPositive() {
		return nil, errors.New("invalid unit price")
	}
	if len(req.Seats) == 0 {
		return nil, errors.New("no seats provided")
	}

	listing := &domain.Listing{
		ID:          uuid.New(),
		SellerID:    sellerID,
		EventID:     eventID,
		SectionID:   req.SectionID,
		Seats:       req.Seats,
		UnitPrice:   unitPrice,
		Quantity:    len(req.Seats),
		TicketFiles: req.TicketFiles,
		Status:      domain.ListingAvailable,
		CreatedAt:   time.Now(),
	}

	if err := s.listings.Create(ctx, listing); err != nil {
		return nil, fmt.Errorf("failed to create listing: %w", err)
	}

	s.invalidateListings(ctx, eventID)
	return listing, nil
}

func (s *MatcherService) GetListing(ctx context.Context, listingID uuid.UUID) (*domain.Listing, error) {
	return s.listings.GetByID(ctx, listingID)
}

func (s *MatcherService) invalidateListings(ctx context.Context, eventID uuid.UUID) {
	cacheKey := fmt.Sprintf("listings:%s", eventID.String())
	if err := s.redis.Del(ctx, cacheKey).Err(); err != nil {
		log.Printf("Failed to invalidate listing cache for event %s: %v", eventID, err)
	}
}

// RunExpirySweeper periodically flips ACTIVE offers past their expiry to
// EXPIRED so they can no longer be accepted.
func (s *MatcherService) RunExpirySweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Printf("Offer expiry sweeper started (every %s)", interval)

	for {
		select {
		case <-ctx.Done():
			log.Println("Offer expiry sweeper stopped.")
			return
		case <-ticker.C:
			n, err := s.offers.ExpireDue(ctx, time.Now())
			if err != nil {
				log.Printf("Error expiring offers: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("Expired %d offers.", n)
			}
		}
	}
}
