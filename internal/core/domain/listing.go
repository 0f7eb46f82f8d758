package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ListingStatus string

const (
	ListingAvailable ListingStatus = "AVAILABLE"
	ListingReserved  ListingStatus = "RESERVED"
	ListingSold      ListingStatus = "SOLD"
)

// Listing is a seller's advertised inventory of tickets for one event section.
type Listing struct {
	ID          uuid.UUID
	SellerID    uuid.UUID
	EventID     uuid.UUID
	SectionID   string
	Seats       []string
	UnitPrice   decimal.Decimal
	Quantity    int
	TicketFiles []string
	Status      ListingStatus
	CreatedAt   time.Time
}

func (l *Listing) IsAvailable() bool {
	return l.Status == ListingAvailable
}
