package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ticketbay/marketplace/internal/core/domain"
	"github.com/ticketbay/marketplace/internal/core/ports"
	"github.com/ticketbay/marketplace/internal/platform/monitoring"
)

// LedgerService drives the transaction state machine and every money
// movement against the payment gateway: intent creation, payout, refund and
// dispute resolution. All preconditions are validated before any external
// call so a rejected operation never leaves a gateway side effect behind.
type LedgerService struct {
	txns     ports.TransactionRepository
	users    ports.UserRepository
	gateway  ports.PaymentGateway
	notifier ports.Notifier
	currency string
}

func NewLedgerService(
	txns ports.TransactionRepository,
	users ports.UserRepository,
	gateway ports.PaymentGateway,
	notifier ports.Notifier,
	currency string,
) *LedgerService {
	return &LedgerService{
		txns:     txns,
		users:    users,
		gateway:  gateway,
		notifier: notifier,
		currency: currency,
	}
}

type PaymentIntentResponse struct {
	TransactionID string `json:"transaction_id"`
	IntentRef     string `json:"intent_ref"`
	ClientSecret  string `json:"client_secret"`
	Status        string `json:"status"`
}

// CreatePaymentIntent moves PENDING -> PROCESSING. The gateway call happens
// outside any store transaction; if it times out the transaction stays
// PENDING and the buyer can safely retry.
func (s *LedgerService) CreatePaymentIntent(ctx context.Context, txnID, buyerID uuid.UUID) (*PaymentIntentResponse, error) {
	txn, err := s.txns.GetByID(ctx, txnID)
	if err != nil {
		return nil, err
	}
	if txn.BuyerID != buyerID {
		return nil, domain.ErrNotAuthorized
	}
	if txn.Status != domain.TransactionPending {
		return nil, domain.ErrInvalidTransition
	}

	buyer, err := s.users.GetByID(ctx, txn.BuyerID)
	if err != nil {
		return nil, err
	}
	customerRef := buyer.GatewayCustomerRef
	if customerRef == "" {
		customerRef, err = s.gateway.CreateCustomer(ctx, buyer.Email)
		if err != nil {
			return nil, err
		}
		if err := s.users.SetGatewayCustomerRef(ctx, buyer.ID, customerRef); err != nil {
			return nil, fmt.Errorf("failed to store customer ref: %w", err)
		}
	}

	intent, err := s.gateway.CreatePaymentIntent(ctx, txn.GrossAmount, s.currency, customerRef, map[string]string{
		"transaction_id": txn.ID.String(),
	})
	if err != nil {
		return nil, err
	}

	if err := s.txns.MarkProcessing(ctx, txn.ID, intent.ID); err != nil {
		return nil, err
	}
	monitoring.TrackTransition(string(domain.TransactionProcessing))

	return &PaymentIntentResponse{
		TransactionID: txn.ID.String(),
		IntentRef:     intent.ID,
		ClientSecret:  intent.ClientSecret,
		Status:        string(domain.TransactionProcessing),
	}, nil
}

// ProcessSellerPayout transfers the seller's net proceeds to their connected
// account. The payout claim is taken with a guarded flip BEFORE the transfer
// call, so of two concurrent invocations only one ever reaches the gateway;
// the loser stops at ClaimPayout. A failed transfer releases the claim.
func (s *LedgerService) ProcessSellerPayout(ctx context.Context, txnID uuid.UUID) error {
	txn, err := s.txns.GetByID(ctx, txnID)
	if err != nil {
		return err
	}
	if txn.Status != domain.TransactionCompleted {
		return domain.ErrTransactionNotCompleted
	}
	if txn.SellerPaidOut {
		return domain.ErrAlreadyPaidOut
	}

	seller, err := s.users.GetByID(ctx, txn.SellerID)
	if err != nil {
		return err
	}
	if seller.ConnectedAccountRef == "" {
		return domain.ErrSellerAccountMissing
	}

	if err := s.txns.ClaimPayout(ctx, txn.ID); err != nil {
		return err
	}

	transfer, err := s.gateway.CreateTransfer(ctx, txn.SellerNet, seller.ConnectedAccountRef, map[string]string{
		"transaction_id": txn.ID.String(),
	})
	if err != nil {
		if relErr := s.txns.ReleasePayoutClaim(ctx, txn.ID); relErr != nil {
			log.Printf("Failed to release payout claim on transaction %s: %v", txn.ID, relErr)
		}
		return err
	}

	if err := s.txns.RecordPayout(ctx, txn.ID, transfer.ID, time.Now()); err != nil {
		// The transfer went through but the record did not stick; surface the
		// transfer ref so reconciliation can find it.
		return fmt.Errorf("transfer %s created but payout not recorded: %w", transfer.ID, err)
	}

	s.notifier.Notify(ctx, txn.SellerID.String(), "seller_paid_out", map[string]any{
		"transaction_id": txn.ID.String(),
		"amount":         txn.SellerNet.String(),
	})
	return nil
}

// RequestRefund lets the buyer of a COMPLETED transaction open a dispute.
func (s *LedgerService) RequestRefund(ctx context.Context, txnID, buyerID uuid.UUID, reason string) error {
	txn, err := s.txns.GetByID(ctx, txnID)
	if err != nil {
		return err
	}
	if txn.BuyerID != buyerID {
		return domain.ErrNotAuthorized
	}
	if txn.Status != domain.TransactionCompleted {
		return domain.ErrInvalidTransition
	}

	if err := s.txns.MarkDisputed(ctx, txn.ID, reason); err != nil {
		return err
	}
	monitoring.TrackTransition(string(domain.TransactionDisputed))
	return nil
}

// ProcessRefund issues a gateway refund and then marks the transaction
// REFUNDED. The local mutation happens strictly after the external call
// succeeds; a nil amount means a full refund of the gross amount.
func (s *LedgerService) ProcessRefund(ctx context.Context, txnID uuid.UUID, amount *decimal.Decimal, reason string) error {
	txn, err := s.txns.GetByID(ctx, txnID)
	if err != nil {
		return err
	}
	if !txn.IsRefundable() {
		return domain.ErrInvalidTransition
	}
	if txn.PaymentIntentRef == "" {
		return domain.ErrMissingPaymentIntent
	}

	refundAmount := txn.GrossAmount
	if amount != nil {
		if amount.IsNegative() || amount.GreaterThan(txn.GrossAmount) {
			return domain.ErrInvalidRefundAmount
		}
		refundAmount = *amount
	}

	refund, err := s.gateway.CreateRefund(ctx, txn.PaymentIntentRef, refundAmount, reason)
	if err != nil {
		return err
	}

	if err := s.txns.MarkRefunded(ctx, txn.ID, refundAmount, refund.ID, time.Now()); err != nil {
		return fmt.Errorf("refund %s created but not recorded: %w", refund.ID, err)
	}
	monitoring.TrackTransition(string(domain.TransactionRefunded))

	s.notifier.Notify(ctx, txn.BuyerID.String(), "refund_issued", map[string]any{
		"transaction_id": txn.ID.String(),
		"amount":         refundAmount.String(),
	})
	return nil
}

// ResolveDispute closes a dispute: with a refund amount it routes through
// the refund path, otherwise the transaction returns to COMPLETED with the
// resolution recorded.
func (s *LedgerService) ResolveDispute(ctx context.Context, txnID uuid.UUID, resolution string, refundAmount *decimal.Decimal) error {
	if refundAmount != nil {
		return s.ProcessRefund(ctx, txnID, refundAmount, resolution)
	}

	if err := s.txns.ResolveDispute(ctx, txnID, resolution); err != nil {
		return err
	}
	monitoring.TrackTransition(string(domain.TransactionCompleted))
	return nil
}

// MarkTicketsDelivered records handover of the tickets on a COMPLETED
// transaction; the seller is the only permitted actor.
func (s *LedgerService) MarkTicketsDelivered(ctx context.Context, txnID, sellerID uuid.UUID) error {
	txn, err := s.txns.GetByID(ctx, txnID)
	if err != nil {
		return err
	}
	if txn.SellerID != sellerID {
		return domain.ErrNotAuthorized
	}
	return s.txns.MarkTicketsDelivered(ctx, txn.ID, time.Now())
}

type OnboardSellerResponse struct {
	AccountRef    string `json:"account_ref"`
	OnboardingURL string `json:"onboarding_url"`
}

// OnboardSeller creates (or reuses) the seller's connected account and
// returns a fresh onboarding link.
func (s *LedgerService) OnboardSeller(ctx context.Context, sellerID uuid.UUID, refreshURL, returnURL string) (*OnboardSellerResponse, error) {
	seller, err := s.users.GetByID(ctx, sellerID)
	if err != nil {
		return nil, err
	}

	accountRef := seller.ConnectedAccountRef
	if accountRef == "" {
		accountRef, err = s.gateway.CreateConnectedAccount(ctx, seller.Email)
		if err != nil {
			return nil, err
		}
		if err := s.users.SetConnectedAccountRef(ctx, seller.ID, accountRef); err != nil {
			return nil, fmt.Errorf("failed to store account ref: %w", err)
		}
	}

	linkURL, err := s.gateway.CreateAccountLink(ctx, accountRef, refreshURL, returnURL)
	if err != nil {
		return nil, err
	}

	return &OnboardSellerResponse{AccountRef: accountRef, OnboardingURL: linkURL}, nil
}

func (s *LedgerService) GetTransaction(ctx context.Context, txnID uuid.UUID) (*domain.Transaction, error) {
	return s.txns.GetByID(ctx, txnID)
}
