package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ticketbay/marketplace/internal/core/domain"
	"github.com/ticketbay/marketplace/internal/core/ports"
)

type acceptFixture struct {
	offerID   uuid.UUID
	listingID uuid.UUID
	buyerID   uuid.UUID
	sellerID  uuid.UUID
	eventID   uuid.UUID
	now       time.Time
}

func newAcceptFixture() acceptFixture {
	return acceptFixture{
		offerID:   uuid.New(),
		listingID: uuid.New(),
		buyerID:   uuid.New(),
		sellerID:  uuid.New(),
		eventID:   uuid.New(),
		now:       time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (f acceptFixture) params() ports.AcceptOfferParams {
	return ports.AcceptOfferParams{
		OfferID:   f.offerID,
		ListingID: f.listingID,
		SellerID:  f.sellerID,
		FeeRate:   decimal.RequireFromString("0.05"),
		Now:       f.now,
	}
}

func (f acceptFixture) offerRow(expiresAt time.Time) *sqlmock.Rows {
	cols := []string{
		"id", "buyer_id", "event_id", "section_ids", "max_price", "quantity",
		"message", "status", "created_at", "expires_at", "accepted_at", "accepted_by",
	}
	return sqlmock.NewRows(cols).AddRow(
		f.offerID.String(), f.buyerID.String(), f.eventID.String(), "{GA}", "120.00", 2,
		"", string(domain.OfferActive), f.now.Add(-time.Hour), expiresAt, nil, nil,
	)
}

func (f acceptFixture) listingRow() *sqlmock.Rows {
	cols := []string{
		"id", "seller_id", "event_id", "section_id", "seats", "unit_price",
		"quantity", "ticket_files", "status", "created_at",
	}
	return sqlmock.NewRows(cols).AddRow(
		f.listingID.String(), f.sellerID.String(), f.eventID.String(), "GA", "{A1,A2}", "120.00",
		2, "{}", string(domain.ListingAvailable), f.now.Add(-2*time.Hour),
	)
}

func newMatchRepo(t *testing.T) (*MatchRepository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewMatchRepository(db), mock
}

func TestAcceptOffer_CreatesPendingTransaction(t *testing.T) {
	repo, mock := newMatchRepo(t)
	f := newAcceptFixture()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM offers").
		WithArgs(f.offerID).
		WillReturnRows(f.offerRow(f.now.Add(time.Hour)))
	mock.ExpectQuery("FROM listings").
		WithArgs(f.listingID).
		WillReturnRows(f.listingRow())
	mock.ExpectExec("UPDATE offers").
		WithArgs(domain.OfferAccepted, f.now, f.sellerID, f.offerID, domain.OfferActive).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE listings").
		WithArgs(domain.ListingSold, f.listingID, domain.ListingAvailable).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO transactions").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	txn, err := repo.AcceptOffer(context.Background(), f.params())
	require.NoError(t, err)

	gross := decimal.RequireFromString("240.00")
	fee, net := domain.ComputeFees(gross, decimal.RequireFromString("0.05"))
	assert.True(t, txn.GrossAmount.Equal(gross))
	assert.True(t, txn.PlatformFee.Equal(fee))
	assert.True(t, txn.SellerNet.Equal(net))
	assert.Equal(t, domain.TransactionPending, txn.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// An offer is expired from its expiry instant onward, not one tick after.
func TestAcceptOffer_ExpiredAtExactInstant(t *testing.T) {
	repo, mock := newMatchRepo(t)
	f := newAcceptFixture()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM offers").
		WithArgs(f.offerID).
		WillReturnRows(f.offerRow(f.now))
	mock.ExpectQuery("FROM listings").
		WithArgs(f.listingID).
		WillReturnRows(f.listingRow())
	mock.ExpectRollback()

	_, err := repo.AcceptOffer(context.Background(), f.params())
	assert.ErrorIs(t, err, domain.ErrOfferExpired)
	assert.NoError(t, mock.ExpectationsWereMet())
}
