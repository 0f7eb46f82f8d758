package services

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/ticketbay/marketplace/internal/core/domain"
	"github.com/ticketbay/marketplace/internal/core/ports"
	"github.com/ticketbay/marketplace/internal/platform/monitoring"
)

// How long a processed webhook event id is remembered for redelivery dedup.
const eventDedupTTL = 24 * time.Hour

type eventHandler func(ctx context.Context, event *domain.PaymentEvent) error

// WebhookService reconciles asynchronous gateway events into the ledger.
// Dispatch goes through a lookup table keyed by event type; every handler is
// independently fallible, independently logged, and safe to run twice for
// the same event id.
type WebhookService struct {
	gateway  ports.PaymentGateway
	txns     ports.TransactionRepository
	ledger   *LedgerService
	notifier ports.Notifier
	redis    *redis.Client
	handlers map[string]eventHandler
}

func NewWebhookService(
	gateway ports.PaymentGateway,
	txns ports.TransactionRepository,
	ledger *LedgerService,
	notifier ports.Notifier,
	redisClient *redis.Client,
) *WebhookService {
	s := &WebhookService{
		gateway:  gateway,
		txns:     txns,
		ledger:   ledger,
		notifier: notifier,
		redis:    redisClient,
	}
	s.handlers = map[string]eventHandler{
		domain.EventPaymentSucceeded:   s.handlePaymentSucceeded,
		domain.EventPaymentFailed:      s.handlePaymentFailed,
		domain.EventPaymentCanceled:    s.handlePaymentFailed,
		domain.EventRefundCreated:      s.handleRefundCreated,
		domain.EventTransferCreated:    s.handleTransferCreated,
		domain.EventAccountUpdated:     s.handleInformational,
		domain.EventSetupIntentSucceed: s.handleInformational,
	}
	return s
}

// Process authenticates and applies one webhook delivery. Only a signature
// or parse failure is returned as an error (the handler answers 400 and the
// sender must not retry); once the event is authenticated every downstream
// problem is logged and swallowed so the sender gets its acknowledgement and
// redelivery storms are avoided.
func (s *WebhookService) Process(ctx context.Context, payload []byte, sigHeader string) error {
	event, err := s.gateway.ConstructWebhookEvent(payload, sigHeader)
	if err != nil {
		monitoring.TrackWebhookEvent("unverified", "rejected")
		return err
	}

	dedupKey := "webhook:event:" + event.ID
	seen, err := s.redis.Exists(ctx, dedupKey).Result()
	if err != nil {
		// Dedup is an optimization; the status-guarded transitions below
		// keep redelivery safe without it.
		log.Printf("Webhook dedup check failed for event %s: %v", event.ID, err)
	} else if seen > 0 {
		log.Printf("Duplicate webhook event %s (%s), skipping", event.ID, event.Type)
		monitoring.TrackWebhookEvent(event.Type, "duplicate")
		return nil
	}

	handler, ok := s.handlers[event.Type]
	if !ok {
		log.Printf("Unhandled webhook event type %q (event %s)", event.Type, event.ID)
		monitoring.TrackWebhookEvent(event.Type, "unhandled")
		return nil
	}

	if err := handler(ctx, event); err != nil {
		// The dedup key is NOT written on failure, so a gateway redelivery
		// or an operator replay of this event id gets processed again.
		log.Printf("Error processing webhook event %s (%s): %v", event.ID, event.Type, err)
		monitoring.TrackWebhookEvent(event.Type, "error")
		return nil
	}

	if err := s.redis.Set(ctx, dedupKey, 1, eventDedupTTL).Err(); err != nil {
		log.Printf("Failed to record webhook event %s as processed: %v", event.ID, err)
	}
	monitoring.TrackWebhookEvent(event.Type, "ok")
	return nil
}

// lookupTransaction resolves the transaction id carried in the event
// metadata. A missing or unknown id is not an error: the event is logged
// and dropped, matching the tolerance required for foreign test traffic.
func (s *WebhookService) lookupTransaction(ctx context.Context, event *domain.PaymentEvent) (*domain.Transaction, bool, error) {
	raw := event.TransactionID()
	if raw == "" {
		log.Printf("Webhook event %s (%s) carries no transaction metadata, ignoring", event.ID, event.Type)
		return nil, false, nil
	}
	txnID, err := uuid.Parse(raw)
	if err != nil {
		log.Printf("Webhook event %s carries malformed transaction id %q, ignoring", event.ID, raw)
		return nil, false, nil
	}
	txn, err := s.txns.GetByID(ctx, txnID)
	if err != nil {
		if errors.Is(err, domain.ErrTransactionNotFound) {
			log.Printf("Webhook event %s references unknown transaction %s, ignoring", event.ID, txnID)
			return nil, false, nil
		}
		return nil, false, err
	}
	return txn, true, nil
}

func (s *WebhookService) handlePaymentSucceeded(ctx context.Context, event *domain.PaymentEvent) error {
	txn, ok, err := s.lookupTransaction(ctx, event)
	if err != nil || !ok {
		return err
	}

	if err := s.txns.MarkCompleted(ctx, txn.ID, time.Now()); err != nil {
		if errors.Is(err, domain.ErrInvalidTransition) && txn.Status == domain.TransactionCompleted {
			// Redelivered success for an already-completed transaction.
			log.Printf("Transaction %s already completed, event %s is a replay", txn.ID, event.ID)
			return nil
		}
		return err
	}
	monitoring.TrackTransition(string(domain.TransactionCompleted))

	s.notifier.Notify(ctx, txn.BuyerID.String(), "payment_succeeded", map[string]any{
		"transaction_id": txn.ID.String(),
	})
	s.notifier.Notify(ctx, txn.SellerID.String(), "ticket_sold", map[string]any{
		"transaction_id": txn.ID.String(),
		"net_amount":     txn.SellerNet.String(),
	})

	// Payout is attempted eagerly but its failure never fails the webhook:
	// the transfer can be re-run explicitly once the cause is fixed.
	if err := s.ledger.ProcessSellerPayout(ctx, txn.ID); err != nil {
		log.Printf("Payout after completion of transaction %s failed: %v", txn.ID, err)
	}
	return nil
}

func (s *WebhookService) handlePaymentFailed(ctx context.Context, event *domain.PaymentEvent) error {
	txn, ok, err := s.lookupTransaction(ctx, event)
	if err != nil || !ok {
		return err
	}

	if err := s.txns.MarkFailed(ctx, txn.ID); err != nil {
		if errors.Is(err, domain.ErrInvalidTransition) && txn.Status == domain.TransactionFailed {
			return nil
		}
		return err
	}
	monitoring.TrackTransition(string(domain.TransactionFailed))

	s.notifier.Notify(ctx, txn.BuyerID.String(), "payment_failed", map[string]any{
		"transaction_id": txn.ID.String(),
	})
	return nil
}

func (s *WebhookService) handleRefundCreated(ctx context.Context, event *domain.PaymentEvent) error {
	txn, ok, err := s.lookupTransaction(ctx, event)
	if err != nil || !ok {
		return err
	}

	amount := event.Amount
	if amount.IsZero() {
		amount = txn.GrossAmount
	}

	if err := s.txns.MarkRefunded(ctx, txn.ID, amount, event.ObjectID, time.Now()); err != nil {
		if errors.Is(err, domain.ErrInvalidTransition) && txn.Status == domain.TransactionRefunded {
			// Refund initiated locally through ProcessRefund; the ledger
			// already reflects it.
			return nil
		}
		return err
	}
	monitoring.TrackTransition(string(domain.TransactionRefunded))
	return nil
}

func (s *WebhookService) handleTransferCreated(ctx context.Context, event *domain.PaymentEvent) error {
	txn, ok, err := s.lookupTransaction(ctx, event)
	if err != nil || !ok {
		return err
	}

	if err := s.txns.MarkPaidOut(ctx, txn.ID, event.ObjectID, time.Now()); err != nil {
		if errors.Is(err, domain.ErrInvalidTransition) && txn.SellerPaidOut {
			return nil
		}
		return err
	}
	return nil
}

func (s *WebhookService) handleInformational(_ context.Context, event *domain.PaymentEvent) error {
	log.Printf("Informational webhook event %s (%s)", event.ID, event.Type)
	return nil
}
