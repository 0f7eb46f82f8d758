package services_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/ticketbay/marketplace/internal/core/domain"
	"github.com/ticketbay/marketplace/internal/core/ports"
	"github.com/ticketbay/marketplace/internal/core/ports/mocks"
	"github.com/ticketbay/marketplace/internal/core/services"
)

func newLedger(t *testing.T) (*services.LedgerService, *mocks.TransactionRepository, *mocks.UserRepository, *mocks.PaymentGateway, *mocks.Notifier) {
	txns := mocks.NewTransactionRepository(t)
	users := mocks.NewUserRepository(t)
	gateway := mocks.NewPaymentGateway(t)
	notifier := mocks.NewNotifier(t)

	svc := services.NewLedgerService(txns, users, gateway, notifier, "usd")
	return svc, txns, users, gateway, notifier
}

func pendingTransaction() *domain.Transaction {
	return &domain.Transaction{
		ID:          uuid.New(),
		BuyerID:     uuid.New(),
		SellerID:    uuid.New(),
		OfferID:     uuid.New(),
		ListingID:   uuid.New(),
		EventID:     uuid.New(),
		GrossAmount: decimal.RequireFromString("100.00"),
		PlatformFee: decimal.RequireFromString("5.00"),
		SellerNet:   decimal.RequireFromString("95.00"),
		Status:      domain.TransactionPending,
	}
}

func completedTransaction() *domain.Transaction {
	txn := pendingTransaction()
	txn.Status = domain.TransactionCompleted
	txn.PaymentIntentRef = "pi_123"
	return txn
}

func TestCreatePaymentIntent_Success(t *testing.T) {
	svc, txns, users, gateway, _ := newLedger(t)
	ctx := context.Background()
	txn := pendingTransaction()

	txns.On("GetByID", ctx, txn.ID).Return(txn, nil)
	users.On("GetByID", ctx, txn.BuyerID).Return(&domain.User{
		ID:                 txn.BuyerID,
		Email:              "buyer@example.com",
		GatewayCustomerRef: "cus_42",
	}, nil)
	gateway.On("CreatePaymentIntent", ctx, txn.GrossAmount, "usd", "cus_42", map[string]string{
		"transaction_id": txn.ID.String(),
	}).Return(&ports.PaymentIntent{ID: "pi_123", ClientSecret: "pi_123_secret"}, nil)
	txns.On("MarkProcessing", ctx, txn.ID, "pi_123").Return(nil)

	resp, err := svc.CreatePaymentIntent(ctx, txn.ID, txn.BuyerID)

	assert.NoError(t, err)
	if assert.NotNil(t, resp) {
		assert.Equal(t, "pi_123", resp.IntentRef)
		assert.Equal(t, "pi_123_secret", resp.ClientSecret)
		assert.Equal(t, "PROCESSING", resp.Status)
	}
}

func TestCreatePaymentIntent_CreatesCustomerLazily(t *testing.T) {
	svc, txns, users, gateway, _ := newLedger(t)
	ctx := context.Background()
	txn := pendingTransaction()

	txns.On("GetByID", ctx, txn.ID).Return(txn, nil)
	users.On("GetByID", ctx, txn.BuyerID).Return(&domain.User{
		ID:    txn.BuyerID,
		Email: "buyer@example.com",
	}, nil)
	gateway.On("CreateCustomer", ctx, "buyer@example.com").Return("cus_new", nil)
	users.On("SetGatewayCustomerRef", ctx, txn.BuyerID, "cus_new").Return(nil)
	gateway.On("CreatePaymentIntent", ctx, txn.GrossAmount, "usd", "cus_new", mock.Anything).
		Return(&ports.PaymentIntent{ID: "pi_9", ClientSecret: "sec"}, nil)
	txns.On("MarkProcessing", ctx, txn.ID, "pi_9").Return(nil)

	_, err := svc.CreatePaymentIntent(ctx, txn.ID, txn.BuyerID)
	assert.NoError(t, err)
}

func TestCreatePaymentIntent_WrongBuyer(t *testing.T) {
	svc, txns, _, _, _ := newLedger(t)
	ctx := context.Background()
	txn := pendingTransaction()

	txns.On("GetByID", ctx, txn.ID).Return(txn, nil)

	_, err := svc.CreatePaymentIntent(ctx, txn.ID, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)
}

func TestCreatePaymentIntent_NotPending(t *testing.T) {
	svc, txns, _, _, _ := newLedger(t)
	ctx := context.Background()
	txn := completedTransaction()

	txns.On("GetByID", ctx, txn.ID).Return(txn, nil)

	_, err := svc.CreatePaymentIntent(ctx, txn.ID, txn.BuyerID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

// A gateway failure must leave the transaction PENDING so the buyer can
// retry: MarkProcessing is never reached.
func TestCreatePaymentIntent_GatewayFailureLeavesPending(t *testing.T) {
	svc, txns, users, gateway, _ := newLedger(t)
	ctx := context.Background()
	txn := pendingTransaction()

	txns.On("GetByID", ctx, txn.ID).Return(txn, nil)
	users.On("GetByID", ctx, txn.BuyerID).Return(&domain.User{
		ID:                 txn.BuyerID,
		GatewayCustomerRef: "cus_42",
	}, nil)
	gateway.On("CreatePaymentIntent", ctx, txn.GrossAmount, "usd", "cus_42", mock.Anything).
		Return(nil, domain.ErrExternalService)

	_, err := svc.CreatePaymentIntent(ctx, txn.ID, txn.BuyerID)
	assert.ErrorIs(t, err, domain.ErrExternalService)
	txns.AssertNotCalled(t, "MarkProcessing", mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessSellerPayout_Success(t *testing.T) {
	svc, txns, users, gateway, notifier := newLedger(t)
	ctx := context.Background()
	txn := completedTransaction()

	txns.On("GetByID", ctx, txn.ID).Return(txn, nil)
	users.On("GetByID", ctx, txn.SellerID).Return(&domain.User{
		ID:                  txn.SellerID,
		ConnectedAccountRef: "acct_7",
	}, nil)
	txns.On("ClaimPayout", ctx, txn.ID).Return(nil)
	gateway.On("CreateTransfer", ctx, txn.SellerNet, "acct_7", map[string]string{
		"transaction_id": txn.ID.String(),
	}).Return(&ports.Transfer{ID: "tr_1"}, nil)
	txns.On("RecordPayout", ctx, txn.ID, "tr_1", mock.Anything).Return(nil)
	notifier.On("Notify", ctx, txn.SellerID.String(), "seller_paid_out", mock.Anything).Return()

	assert.NoError(t, svc.ProcessSellerPayout(ctx, txn.ID))
}

// Two concurrent payout attempts (the eager webhook payout racing the
// explicit endpoint) must execute exactly one transfer: the claim decides
// the race before any money moves.
func TestProcessSellerPayout_ConcurrentAttemptsTransferOnce(t *testing.T) {
	svc, txns, users, gateway, notifier := newLedger(t)
	ctx := context.Background()
	txn := completedTransaction()

	txns.On("GetByID", ctx, txn.ID).Return(txn, nil).Twice()
	users.On("GetByID", ctx, txn.SellerID).Return(&domain.User{
		ID:                  txn.SellerID,
		ConnectedAccountRef: "acct_7",
	}, nil).Twice()
	txns.On("ClaimPayout", ctx, txn.ID).Return(nil).Once()
	txns.On("ClaimPayout", ctx, txn.ID).Return(domain.ErrAlreadyPaidOut).Once()
	gateway.On("CreateTransfer", ctx, txn.SellerNet, "acct_7", mock.Anything).
		Return(&ports.Transfer{ID: "tr_1"}, nil).Once()
	txns.On("RecordPayout", ctx, txn.ID, "tr_1", mock.Anything).Return(nil).Once()
	notifier.On("Notify", ctx, txn.SellerID.String(), "seller_paid_out", mock.Anything).Return().Once()

	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			results <- svc.ProcessSellerPayout(ctx, txn.ID)
		}()
	}

	var wins, losses int
	for i := 0; i < 2; i++ {
		if err := <-results; err == nil {
			wins++
		} else {
			assert.ErrorIs(t, err, domain.ErrAlreadyPaidOut)
			losses++
		}
	}

	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, losses)
	gateway.AssertNumberOfCalls(t, "CreateTransfer", 1)
}

// A transfer failure must give the claim back so the payout can be retried.
func TestProcessSellerPayout_TransferFailureReleasesClaim(t *testing.T) {
	svc, txns, users, gateway, _ := newLedger(t)
	ctx := context.Background()
	txn := completedTransaction()

	txns.On("GetByID", ctx, txn.ID).Return(txn, nil)
	users.On("GetByID", ctx, txn.SellerID).Return(&domain.User{
		ID:                  txn.SellerID,
		ConnectedAccountRef: "acct_7",
	}, nil)
	txns.On("ClaimPayout", ctx, txn.ID).Return(nil)
	gateway.On("CreateTransfer", ctx, txn.SellerNet, "acct_7", mock.Anything).
		Return(nil, domain.ErrExternalService)
	txns.On("ReleasePayoutClaim", ctx, txn.ID).Return(nil)

	err := svc.ProcessSellerPayout(ctx, txn.ID)
	assert.ErrorIs(t, err, domain.ErrExternalService)
	txns.AssertNotCalled(t, "RecordPayout", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// A second payout attempt must be rejected before any gateway call.
func TestProcessSellerPayout_AlreadyPaidOut(t *testing.T) {
	svc, txns, _, gateway, _ := newLedger(t)
	ctx := context.Background()
	txn := completedTransaction()
	txn.SellerPaidOut = true

	txns.On("GetByID", ctx, txn.ID).Return(txn, nil)

	err := svc.ProcessSellerPayout(ctx, txn.ID)
	assert.ErrorIs(t, err, domain.ErrAlreadyPaidOut)
	gateway.AssertNotCalled(t, "CreateTransfer", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessSellerPayout_NotCompleted(t *testing.T) {
	svc, txns, _, gateway, _ := newLedger(t)
	ctx := context.Background()
	txn := pendingTransaction()

	txns.On("GetByID", ctx, txn.ID).Return(txn, nil)

	err := svc.ProcessSellerPayout(ctx, txn.ID)
	assert.ErrorIs(t, err, domain.ErrTransactionNotCompleted)
	gateway.AssertNotCalled(t, "CreateTransfer", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessSellerPayout_MissingAccount(t *testing.T) {
	svc, txns, users, gateway, _ := newLedger(t)
	ctx := context.Background()
	txn := completedTransaction()

	txns.On("GetByID", ctx, txn.ID).Return(txn, nil)
	users.On("GetByID", ctx, txn.SellerID).Return(&domain.User{ID: txn.SellerID}, nil)

	err := svc.ProcessSellerPayout(ctx, txn.ID)
	assert.ErrorIs(t, err, domain.ErrSellerAccountMissing)
	gateway.AssertNotCalled(t, "CreateTransfer", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRequestRefund_MarksDisputed(t *testing.T) {
	svc, txns, _, _, _ := newLedger(t)
	ctx := context.Background()
	txn := completedTransaction()

	txns.On("GetByID", ctx, txn.ID).Return(txn, nil)
	txns.On("MarkDisputed", ctx, txn.ID, "tickets never arrived").Return(nil)

	assert.NoError(t, svc.RequestRefund(ctx, txn.ID, txn.BuyerID, "tickets never arrived"))
}

func TestRequestRefund_WrongBuyer(t *testing.T) {
	svc, txns, _, _, _ := newLedger(t)
	ctx := context.Background()
	txn := completedTransaction()

	txns.On("GetByID", ctx, txn.ID).Return(txn, nil)

	err := svc.RequestRefund(ctx, txn.ID, uuid.New(), "nope")
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)
}

func TestRequestRefund_NotCompleted(t *testing.T) {
	svc, txns, _, _, _ := newLedger(t)
	ctx := context.Background()
	txn := pendingTransaction()

	txns.On("GetByID", ctx, txn.ID).Return(txn, nil)

	err := svc.RequestRefund(ctx, txn.ID, txn.BuyerID, "too early")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

// Nil amount means a full refund of the gross amount, and the local mark
// happens only after the gateway refund succeeded.
func TestProcessRefund_FullByDefault(t *testing.T) {
	svc, txns, _, gateway, notifier := newLedger(t)
	ctx := context.Background()
	txn := completedTransaction()

	txns.On("GetByID", ctx, txn.ID).Return(txn, nil)
	gateway.On("CreateRefund", ctx, "pi_123", txn.GrossAmount, "seller no-show").
		Return(&ports.Refund{ID: "re_1"}, nil)
	txns.On("MarkRefunded", ctx, txn.ID, txn.GrossAmount, "re_1", mock.Anything).Return(nil)
	notifier.On("Notify", ctx, txn.BuyerID.String(), "refund_issued", mock.Anything).Return()

	assert.NoError(t, svc.ProcessRefund(ctx, txn.ID, nil, "seller no-show"))
}

func TestProcessRefund_PartialAmount(t *testing.T) {
	svc, txns, _, gateway, notifier := newLedger(t)
	ctx := context.Background()
	txn := completedTransaction()
	txn.Status = domain.TransactionDisputed
	partial := decimal.RequireFromString("40.00")

	txns.On("GetByID", ctx, txn.ID).Return(txn, nil)
	gateway.On("CreateRefund", ctx, "pi_123", partial, "split the difference").
		Return(&ports.Refund{ID: "re_2"}, nil)
	txns.On("MarkRefunded", ctx, txn.ID, partial, "re_2", mock.Anything).Return(nil)
	notifier.On("Notify", ctx, txn.BuyerID.String(), "refund_issued", mock.Anything).Return()

	assert.NoError(t, svc.ProcessRefund(ctx, txn.ID, &partial, "split the difference"))
}

func TestProcessRefund_AmountOutOfRange(t *testing.T) {
	svc, txns, _, gateway, _ := newLedger(t)
	ctx := context.Background()
	txn := completedTransaction()
	tooMuch := decimal.RequireFromString("100.01")

	txns.On("GetByID", ctx, txn.ID).Return(txn, nil)

	err := svc.ProcessRefund(ctx, txn.ID, &tooMuch, "greedy")
	assert.ErrorIs(t, err, domain.ErrInvalidRefundAmount)
	gateway.AssertNotCalled(t, "CreateRefund", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessRefund_NotRefundable(t *testing.T) {
	svc, txns, _, gateway, _ := newLedger(t)
	ctx := context.Background()
	txn := pendingTransaction()

	txns.On("GetByID", ctx, txn.ID).Return(txn, nil)

	err := svc.ProcessRefund(ctx, txn.ID, nil, "not yet paid")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	gateway.AssertNotCalled(t, "CreateRefund", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessRefund_MissingIntentRef(t *testing.T) {
	svc, txns, _, _, _ := newLedger(t)
	ctx := context.Background()
	txn := completedTransaction()
	txn.PaymentIntentRef = ""

	txns.On("GetByID", ctx, txn.ID).Return(txn, nil)

	err := svc.ProcessRefund(ctx, txn.ID, nil, "")
	assert.ErrorIs(t, err, domain.ErrMissingPaymentIntent)
}

// If the gateway refund fails the transaction must stay untouched.
func TestProcessRefund_GatewayFailure(t *testing.T) {
	svc, txns, _, gateway, _ := newLedger(t)
	ctx := context.Background()
	txn := completedTransaction()

	txns.On("GetByID", ctx, txn.ID).Return(txn, nil)
	gateway.On("CreateRefund", ctx, "pi_123", txn.GrossAmount, "flaky").
		Return(nil, domain.ErrExternalService)

	err := svc.ProcessRefund(ctx, txn.ID, nil, "flaky")
	assert.ErrorIs(t, err, domain.ErrExternalService)
	txns.AssertNotCalled(t, "MarkRefunded", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestResolveDispute_InSellersFavor(t *testing.T) {
	svc, txns, _, _, _ := newLedger(t)
	ctx := context.Background()
	txnID := uuid.New()

	txns.On("ResolveDispute", ctx, txnID, "buyer withdrew the claim").Return(nil)

	assert.NoError(t, svc.ResolveDispute(ctx, txnID, "buyer withdrew the claim", nil))
}

func TestResolveDispute_WithRefund(t *testing.T) {
	svc, txns, _, gateway, notifier := newLedger(t)
	ctx := context.Background()
	txn := completedTransaction()
	txn.Status = domain.TransactionDisputed
	amount := decimal.RequireFromString("25.00")

	txns.On("GetByID", ctx, txn.ID).Return(txn, nil)
	gateway.On("CreateRefund", ctx, "pi_123", amount, "partial make-good").
		Return(&ports.Refund{ID: "re_3"}, nil)
	txns.On("MarkRefunded", ctx, txn.ID, amount, "re_3", mock.Anything).Return(nil)
	notifier.On("Notify", ctx, txn.BuyerID.String(), "refund_issued", mock.Anything).Return()

	assert.NoError(t, svc.ResolveDispute(ctx, txn.ID, "partial make-good", &amount))
}

func TestMarkTicketsDelivered_SellerOnly(t *testing.T) {
	svc, txns, _, _, _ := newLedger(t)
	ctx := context.Background()
	txn := completedTransaction()

	txns.On("GetByID", ctx, txn.ID).Return(txn, nil).Twice()
	txns.On("MarkTicketsDelivered", ctx, txn.ID, mock.Anything).Return(nil)

	assert.NoError(t, svc.MarkTicketsDelivered(ctx, txn.ID, txn.SellerID))

	err := svc.MarkTicketsDelivered(ctx, txn.ID, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)
}

func TestOnboardSeller_ReusesAccount(t *testing.T) {
	svc, _, users, gateway, _ := newLedger(t)
	ctx := context.Background()
	sellerID := uuid.New()

	users.On("GetByID", ctx, sellerID).Return(&domain.User{
		ID:                  sellerID,
		Email:               "seller@example.com",
		ConnectedAccountRef: "acct_7",
	}, nil)
	gateway.On("CreateAccountLink", ctx, "acct_7", "https://app/refresh", "https://app/return").
		Return("https://gateway/onboard/acct_7", nil)

	resp, err := svc.OnboardSeller(ctx, sellerID, "https://app/refresh", "https://app/return")

	assert.NoError(t, err)
	if assert.NotNil(t, resp) {
		assert.Equal(t, "acct_7", resp.AccountRef)
		assert.Equal(t, "https://gateway/onboard/acct_7", resp.OnboardingURL)
	}
	gateway.AssertNotCalled(t, "CreateConnectedAccount", mock.Anything, mock.Anything)
}

func TestOnboardSeller_CreatesAccount(t *testing.T) {
	svc, _, users, gateway, _ := newLedger(t)
	ctx := context.Background()
	sellerID := uuid.New()

	users.On("GetByID", ctx, sellerID).Return(&domain.User{
		ID:    sellerID,
		Email: "seller@example.com",
	}, nil)
	gateway.On("CreateConnectedAccount", ctx, "seller@example.com").Return("acct_new", nil)
	users.On("SetConnectedAccountRef", ctx, sellerID, "acct_new").Return(nil)
	gateway.On("CreateAccountLink", ctx, "acct_new", "https://app/refresh", "https://app/return").
		Return("https://gateway/onboard/acct_new", nil)

	resp, err := svc.OnboardSeller(ctx, sellerID, "https://app/refresh", "https://app/return")

	assert.NoError(t, err)
	assert.Equal(t, "acct_new", resp.AccountRef)
}
