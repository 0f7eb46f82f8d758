package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ticketbay/marketplace/internal/core/domain"
)

// TransactionRepository persists the transaction ledger. Every transition is
// a single guarded UPDATE keyed on the current status, so two concurrent
// writers (or a redelivered webhook) can both attempt the same transition
// and exactly one succeeds; the other observes ErrInvalidTransition.
type TransactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

const transactionColumns = `
	id, buyer_id, seller_id, offer_id, listing_id, event_id,
	gross_amount, platform_fee, seller_net, status,
	payment_intent_ref, refund_ref, transfer_ref,
	paid_at, refund_amount, refunded_at,
	tickets_delivered, tickets_delivered_at,
	seller_paid_out, seller_paid_out_at,
	dispute_reason, notes, created_at
`

func (r *TransactionRepository) GetByID(ctx context.Context, txnID uuid.UUID) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`

	txn, err := scanTransaction(r.db.QueryRowContext(ctx, query, txnID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}
	return txn, nil
}

func (r *TransactionRepository) MarkProcessing(ctx context.Context, txnID uuid.UUID, intentRef string) error {
	query := `
	UPDATE transactions
	SET status = $1, payment_intent_ref = $2
	WHERE id = $3 AND status = $4
	`
	return r.guardedExec(ctx, txnID, query, domain.TransactionProcessing, intentRef, txnID, domain.TransactionPending)
}

func (r *TransactionRepository) MarkCompleted(ctx context.Context, txnID uuid.UUID, paidAt time.Time) error {
	query := `
	UPDATE transactions
	SET status = $1, paid_at = $2
	WHERE id = $3 AND status = $4
	`
	return r.guardedExec(ctx, txnID, query, domain.TransactionCompleted, paidAt, txnID, domain.TransactionProcessing)
}

// MarkFailed flips PROCESSING -> FAILED and releases the listing back to
// AVAILABLE in the same database transaction, so a failed payment can never
// leave the listing stuck in SOLD.
func (r *TransactionRepository) MarkFailed(ctx context.Context, txnID uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
	UPDATE transactions
	SET status = $1
	WHERE id = $2 AND status = $3
	`, domain.TransactionFailed, txnID, domain.TransactionProcessing)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return r.resolveGuardFailure(ctx, txnID)
	}

	_, err = tx.ExecContext(ctx, `
	UPDATE listings
	SET status = $1
	WHERE id = (SELECT listing_id FROM transactions WHERE id = $2) AND status = $3
	`, domain.ListingAvailable, txnID, domain.ListingSold)
	if err != nil {
		return fmt.Errorf("failed to release listing: %w", err)
	}

	// The offer stays ACCEPTED. Whether a failed payment should reopen the
	// buyer's offer is a pending product decision.

	return tx.Commit()
}

func (r *TransactionRepository) MarkDisputed(ctx context.Context, txnID uuid.UUID, reason string) error {
	query := `
	UPDATE transactions
	SET status = $1, dispute_reason = $2
	WHERE id = $3 AND status = $4
	`
	return r.guardedExec(ctx, txnID, query, domain.TransactionDisputed, reason, txnID, domain.TransactionCompleted)
}

func (r *TransactionRepository) ResolveDispute(ctx context.Context, txnID uuid.UUID, note string) error {
	query := `
	UPDATE transactions
	SET status = $1, notes = $2
	WHERE id = $3 AND status = $4
	`
	return r.guardedExec(ctx, txnID, query, domain.TransactionCompleted, note, txnID, domain.TransactionDisputed)
}

func (r *TransactionRepository) MarkRefunded(ctx context.Context, txnID uuid.UUID, amount decimal.Decimal, refundRef string, refundedAt time.Time) error {
	query := `
	UPDATE transactions
	SET status = $1, refund_amount = $2, refund_ref = $3, refunded_at = $4
	WHERE id = $5 AND status IN ($6, $7)
	`
	return r.guardedExec(ctx, txnID, query,
		domain.TransactionRefunded, amount, refundRef, refundedAt,
		txnID, domain.TransactionCompleted, domain.TransactionDisputed)
}

// ClaimPayout takes the payout claim before any money moves. The
// seller_paid_out = FALSE guard admits exactly one claimant; everyone else
// learns why the claim failed.
func (r *TransactionRepository) ClaimPayout(ctx context.Context, txnID uuid.UUID) error {
	query := `
	UPDATE transactions
	SET seller_paid_out = TRUE
	WHERE id = $1 AND status = $2 AND seller_paid_out = FALSE
	`
	result, err := r.db.ExecContext(ctx, query, txnID, domain.TransactionCompleted)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		txn, err := r.GetByID(ctx, txnID)
		if err != nil {
			return err
		}
		if txn.SellerPaidOut {
			return domain.ErrAlreadyPaidOut
		}
		return domain.ErrTransactionNotCompleted
	}
	return nil
}

// RecordPayout stores the transfer reference on a claimed payout.
func (r *TransactionRepository) RecordPayout(ctx context.Context, txnID uuid.UUID, transferRef string, paidOutAt time.Time) error {
	query := `
	UPDATE transactions
	SET transfer_ref = $1, seller_paid_out_at = $2
	WHERE id = $3 AND seller_paid_out = TRUE
	`
	return r.guardedExec(ctx, txnID, query, transferRef, paidOutAt, txnID)
}

// ReleasePayoutClaim gives the claim back after a failed transfer. The
// transfer_ref IS NULL guard keeps a recorded payout untouched.
func (r *TransactionRepository) ReleasePayoutClaim(ctx context.Context, txnID uuid.UUID) error {
	query := `
	UPDATE transactions
	SET seller_paid_out = FALSE
	WHERE id = $1 AND seller_paid_out = TRUE AND transfer_ref IS NULL
	`
	_, err := r.db.ExecContext(ctx, query, txnID)
	return err
}

// MarkPaidOut records a payout the gateway reported via webhook; the
// seller_paid_out = FALSE guard rejects it when a claim is already held.
func (r *TransactionRepository) MarkPaidOut(ctx context.Context, txnID uuid.UUID, transferRef string, paidOutAt time.Time) error {
	query := `
	UPDATE transactions
	SET seller_paid_out = TRUE, seller_paid_out_at = $1, transfer_ref = $2
	WHERE id = $3 AND status = $4 AND seller_paid_out = FALSE
	`
	return r.guardedExec(ctx, txnID, query, paidOutAt, transferRef, txnID, domain.TransactionCompleted)
}

func (r *TransactionRepository) MarkTicketsDelivered(ctx context.Context, txnID uuid.UUID, deliveredAt time.Time) error {
	query := `
	UPDATE transactions
	SET tickets_delivered = TRUE, tickets_delivered_at = $1
	WHERE id = $2 AND status = $3 AND tickets_delivered = FALSE
	`
	return r.guardedExec(ctx, txnID, query, deliveredAt, txnID, domain.TransactionCompleted)
}

// guardedExec runs a status-guarded UPDATE and resolves zero affected rows
// into ErrTransactionNotFound or ErrInvalidTransition.
func (r *TransactionRepository) guardedExec(ctx context.Context, txnID uuid.UUID, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return r.resolveGuardFailure(ctx, txnID)
	}
	return nil
}

func (r *TransactionRepository) resolveGuardFailure(ctx context.Context, txnID uuid.UUID) error {
	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM transactions WHERE id = $1)`, txnID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return domain.ErrTransactionNotFound
	}
	return domain.ErrInvalidTransition
}

func scanTransaction(row rowScanner) (*domain.Transaction, error) {
	var txn domain.Transaction
	var intentRef, refundRef, transferRef, disputeReason, notes sql.NullString
	var paidAt, refundedAt, deliveredAt, paidOutAt sql.NullTime

	err := row.Scan(
		&txn.ID,
		&txn.BuyerID,
		&txn.SellerID,
		&txn.OfferID,
		&txn.ListingID,
		&txn.EventID,
		&txn.GrossAmount,
		&txn.PlatformFee,
		&txn.SellerNet,
		&txn.Status,
		&intentRef,
		&refundRef,
		&transferRef,
		&paidAt,
		&txn.RefundAmount,
		&refundedAt,
		&txn.TicketsDelivered,
		&deliveredAt,
		&txn.SellerPaidOut,
		&paidOutAt,
		&disputeReason,
		&notes,
		&txn.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	txn.PaymentIntentRef = intentRef.String
	txn.RefundRef = refundRef.String
	txn.TransferRef = transferRef.String
	txn.DisputeReason = disputeReason.String
	txn.Notes = notes.String
	if paidAt.Valid {
		txn.PaidAt = &paidAt.Time
	}
	if refundedAt.Valid {
		txn.RefundedAt = &refundedAt.Time
	}
	if deliveredAt.Valid {
		txn.TicketsDeliveredAt = &deliveredAt.Time
	}
	if paidOutAt.Valid {
		txn.SellerPaidOutAt = &paidOutAt.Time
	}
	return &txn, nil
}
