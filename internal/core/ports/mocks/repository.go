// Hand-maintained testify mocks for the ports package, mockery-style.
package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/ticketbay/marketplace/internal/core/domain"
	"github.com/ticketbay/marketplace/internal/core/ports"
)

type testingT interface {
	mock.TestingT
	Cleanup(func())
}

type OfferRepository struct{ mock.Mock }

func NewOfferRepository(t testingT) *OfferRepository {
	m := &OfferRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *OfferRepository) GetByID(ctx context.Context, offerID uuid.UUID) (*domain.Offer, error) {
	args := m.Called(ctx, offerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Offer), args.Error(1)
}

func (m *OfferRepository) Create(ctx context.Context, offer *domain.Offer) error {
	return m.Called(ctx, offer).Error(0)
}

func (m *OfferRepository) Cancel(ctx context.Context, offerID, buyerID uuid.UUID) error {
	return m.Called(ctx, offerID, buyerID).Error(0)
}

func (m *OfferRepository) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

type ListingRepository struct{ mock.Mock }

func NewListingRepository(t testingT) *ListingRepository {
	m := &ListingRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *ListingRepository) GetByID(ctx context.Context, listingID uuid.UUID) (*domain.Listing, error) {
	args := m.Called(ctx, listingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Listing), args.Error(1)
}

func (m *ListingRepository) Create(ctx context.Context, listing *domain.Listing) error {
	return m.Called(ctx, listing).Error(0)
}

type MatchRepository struct{ mock.Mock }

func NewMatchRepository(t testingT) *MatchRepository {
	m := &MatchRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MatchRepository) AcceptOffer(ctx context.Context, p ports.AcceptOfferParams) (*domain.Transaction, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

type TransactionRepository struct{ mock.Mock }

func NewTransactionRepository(t testingT) *TransactionRepository {
	m := &TransactionRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *TransactionRepository) GetByID(ctx context.Context, txnID uuid.UUID) (*domain.Transaction, error) {
	args := m.Called(ctx, txnID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *TransactionRepository) MarkProcessing(ctx context.Context, txnID uuid.UUID, intentRef string) error {
	return m.Called(ctx, txnID, intentRef).Error(0)
}

func (m *TransactionRepository) MarkCompleted(ctx context.Context, txnID uuid.UUID, paidAt time.Time) error {
	return m.Called(ctx, txnID, paidAt).Error(0)
}

func (m *TransactionRepository) MarkFailed(ctx context.Context, txnID uuid.UUID) error {
	return m.Called(ctx, txnID).Error(0)
}

func (m *TransactionRepository) MarkDisputed(ctx context.Context, txnID uuid.UUID, reason string) error {
	return m.Called(ctx, txnID, reason).Error(0)
}

func (m *TransactionRepository) ResolveDispute(ctx context.Context, txnID uuid.UUID, note string) error {
	return m.Called(ctx, txnID, note).Error(0)
}

func (m *TransactionRepository) MarkRefunded(ctx context.Context, txnID uuid.UUID, amount decimal.Decimal, refundRef string, refundedAt time.Time) error {
	return m.Called(ctx, txnID, amount, refundRef, refundedAt).Error(0)
}

func (m *TransactionRepository) ClaimPayout(ctx context.Context, txnID uuid.UUID) error {
	return m.Called(ctx, txnID).Error(0)
}

func (m *TransactionRepository) RecordPayout(ctx context.Context, txnID uuid.UUID, transferRef string, paidOutAt time.Time) error {
	return m.Called(ctx, txnID, transferRef, paidOutAt).Error(0)
}

func (m *TransactionRepository) ReleasePayoutClaim(ctx context.Context, txnID uuid.UUID) error {
	return m.Called(ctx, txnID).Error(0)
}

func (m *TransactionRepository) MarkPaidOut(ctx context.Context, txnID uuid.UUID, transferRef string, paidOutAt time.Time) error {
	return m.Called(ctx, txnID, transferRef, paidOutAt).Error(0)
}

func (m *TransactionRepository) MarkTicketsDelivered(ctx context.Context, txnID uuid.UUID, deliveredAt time.Time) error {
	return m.Called(ctx, txnID, deliveredAt).Error(0)
}

type UserRepository struct{ mock.Mock }

func NewUserRepository(t testingT) *UserRepository {
	m := &UserRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *UserRepository) GetByID(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *UserRepository) SetGatewayCustomerRef(ctx context.Context, userID uuid.UUID, ref string) error {
	return m.Called(ctx, userID, ref).Error(0)
}

func (m *UserRepository) SetConnectedAccountRef(ctx context.Context, userID uuid.UUID, ref string) error {
	return m.Called(ctx, userID, ref).Error(0)
}
