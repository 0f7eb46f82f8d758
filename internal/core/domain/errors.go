package domain

import "errors"

// Business outcomes surfaced to callers as typed failures. Adapters wrap
// lower-level causes with %w so handlers can match with errors.Is.
var (
	ErrOfferNotFound        = errors.New("offer not found")
	ErrOfferExpired         = errors.New("offer has expired")
	ErrOfferNotActive       = errors.New("offer is not active")
	ErrListingNotFound      = errors.New("listing not found")
	ErrListingUnauthorized  = errors.New("listing is not owned by this seller")
	ErrListingNotAvailable  = errors.New("listing is not available")
	ErrEventMismatch        = errors.New("offer and listing target different events")
	ErrInsufficientQuantity = errors.New("listing quantity is below offer quantity")

	ErrTransactionNotFound     = errors.New("transaction not found")
	ErrInvalidTransition       = errors.New("transaction status does not permit this operation")
	ErrTransactionNotCompleted = errors.New("transaction is not completed")
	ErrSellerAccountMissing    = errors.New("seller has no connected payment account")
	ErrAlreadyPaidOut          = errors.New("seller has already been paid out")
	ErrMissingPaymentIntent    = errors.New("transaction has no payment intent reference")
	ErrInvalidRefundAmount     = errors.New("refund amount out of range")

	ErrUserNotFound  = errors.New("user not found")
	ErrNotAuthorized = errors.New("actor is not permitted to act on this entity")

	ErrExternalService  = errors.New("payment gateway request failed")
	ErrInvalidSignature = errors.New("webhook signature verification failed")
)
