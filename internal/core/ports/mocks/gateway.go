package mocks

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/ticketbay/marketplace/internal/core/domain"
	"github.com/ticketbay/marketplace/internal/core/ports"
)

type PaymentGateway struct{ mock.Mock }

func NewPaymentGateway(t testingT) *PaymentGateway {
	m := &PaymentGateway{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *PaymentGateway) CreateCustomer(ctx context.Context, email string) (string, error) {
	args := m.Called(ctx, email)
	return args.String(0), args.Error(1)
}

func (m *PaymentGateway) CreatePaymentIntent(ctx context.Context, amount decimal.Decimal, currency, customerRef string, metadata map[string]string) (*ports.PaymentIntent, error) {
	args := m.Called(ctx, amount, currency, customerRef, metadata)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.PaymentIntent), args.Error(1)
}

func (m *PaymentGateway) CreateRefund(ctx context.Context, intentRef string, amount decimal.Decimal, reason string) (*ports.Refund, error) {
	args := m.Called(ctx, intentRef, amount, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.Refund), args.Error(1)
}

func (m *PaymentGateway) CreateConnectedAccount(ctx context.Context, email string) (string, error) {
	args := m.Called(ctx, email)
	return args.String(0), args.Error(1)
}

func (m *PaymentGateway) CreateAccountLink(ctx context.Context, accountRef, refreshURL, returnURL string) (string, error) {
	args := m.Called(ctx, accountRef, refreshURL, returnURL)
	return args.String(0), args.Error(1)
}

func (m *PaymentGateway) CreateTransfer(ctx context.Context, amount decimal.Decimal, destinationRef string, metadata map[string]string) (*ports.Transfer, error) {
	args := m.Called(ctx, amount, destinationRef, metadata)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.Transfer), args.Error(1)
}

func (m *PaymentGateway) ConstructWebhookEvent(payload []byte, sigHeader string) (*domain.PaymentEvent, error) {
	args := m.Called(payload, sigHeader)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentEvent), args.Error(1)
}

type Notifier struct{ mock.Mock }

func NewNotifier(t testingT) *Notifier {
	m := &Notifier{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *Notifier) Notify(ctx context.Context, userID string, kind string, payload map[string]any) {
	m.Called(ctx, userID, kind, payload)
}
