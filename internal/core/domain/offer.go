package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OfferStatus string

const (
	OfferActive    OfferStatus = "ACTIVE"
	OfferAccepted  OfferStatus = "ACCEPTED"
	OfferExpired   OfferStatus = "EXPIRED"
	OfferCancelled OfferStatus = "CANCELLED"
)

// Offer is a buyer's conditional bid for tickets in one or more sections
// of an event, at or below MaxPrice per ticket.
type Offer struct {
	ID         uuid.UUID
	BuyerID    uuid.UUID
	EventID    uuid.UUID
	SectionIDs []string
	MaxPrice   decimal.Decimal
	Quantity   int
	Message    string
	Status     OfferStatus
	CreatedAt  time.Time
	ExpiresAt  time.Time
	AcceptedAt *time.Time
	AcceptedBy *uuid.UUID
}

func (o *Offer) IsAcceptable(now time.Time) bool {
	return o.Status == OfferActive && now.Before(o.ExpiresAt)
}
