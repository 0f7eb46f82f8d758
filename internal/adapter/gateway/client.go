// Package gateway implements the payment-processor adapter over its REST
// API. Amounts cross the wire in minor currency units; conversion happens
// here and nowhere else.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ticketbay/marketplace/internal/core/domain"
	"github.com/ticketbay/marketplace/internal/core/ports"
	"github.com/ticketbay/marketplace/internal/platform/breaker"
	"github.com/ticketbay/marketplace/internal/platform/monitoring"
)

type Config struct {
	BaseURL       string
	APIKey        string
	WebhookSecret string
	Timeout       time.Duration
}

type Client struct {
	baseURL       string
	apiKey        string
	webhookSecret string

	hc      *http.Client
	breaker *breaker.Breaker
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:       cfg.BaseURL,
		apiKey:        cfg.APIKey,
		webhookSecret: cfg.WebhookSecret,
		hc:            &http.Client{Timeout: timeout},
		breaker:       breaker.New(5, 30*time.Second),
	}
}

func (c *Client) CreateCustomer(ctx context.Context, email string) (string, error) {
	var out struct {
		ID string `json:"id"`
	}
	err := c.post(ctx, "create_customer", "/v1/customers", map[string]any{
		"email": email,
	}, &out)
	if err != nil {
		return "", err
	}
	return out.ID, nil
}

func (c *Client) CreatePaymentIntent(ctx context.Context, amount decimal.Decimal, currency, customerRef string, metadata map[string]string) (*ports.PaymentIntent, error) {
	var out struct {
		ID           string `json:"id"`
		ClientSecret string `json:"client_secret"`
	}
	err := c.post(ctx, "create_payment_intent", "/v1/payment_intents", map[string]any{
		"amount":   domain.ToMinorUnits(amount),
		"currency": currency,
		"customer": customerRef,
		"metadata": metadata,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &ports.PaymentIntent{ID: out.ID, ClientSecret: out.ClientSecret}, nil
}

func (c *Client) CreateRefund(ctx context.Context, intentRef string, amount decimal.Decimal, reason string) (*ports.Refund, error) {
	body := map[string]any{
		"payment_intent": intentRef,
		"reason":         reason,
	}
	if !amount.IsZero() {
		body["amount"] = domain.ToMinorUnits(amount)
	}

	var out struct {
		ID string `json:"id"`
	}
	if err := c.post(ctx, "create_refund", "/v1/refunds", body, &out); err != nil {
		return nil, err
	}
	return &ports.Refund{ID: out.ID}, nil
}

func (c *Client) CreateConnectedAccount(ctx context.Context, email string) (string, error) {
	var out struct {
		ID string `json:"id"`
	}
	err := c.post(ctx, "create_connected_account", "/v1/accounts", map[string]any{
		"type":  "express",
		"email": email,
	}, &out)
	if err != nil {
		return "", err
	}
	return out.ID, nil
}

func (c *Client) CreateAccountLink(ctx context.Context, accountRef, refreshURL, returnURL string) (string, error) {
	var out struct {
		URL string `json:"url"`
	}
	err := c.post(ctx, "create_account_link", "/v1/account_links", map[string]any{
		"account":     accountRef,
		"refresh_url": refreshURL,
		"return_url":  returnURL,
		"type":        "account_onboarding",
	}, &out)
	if err != nil {
		return "", err
	}
	return out.URL, nil
}

func (c *Client) CreateTransfer(ctx context.Context, amount decimal.Decimal, destinationRef string, metadata map[string]string) (*ports.Transfer, error) {
	var out struct {
		ID string `json:"id"`
	}
	err := c.post(ctx, "create_transfer", "/v1/transfers", map[string]any{
		"amount":      domain.ToMinorUnits(amount),
		"destination": destinationRef,
		"metadata":    metadata,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &ports.Transfer{ID: out.ID}, nil
}

func (c *Client) post(ctx context.Context, operation, path string, body, out any) error {
	if err := c.breaker.Allow(); err != nil {
		monitoring.TrackGatewayCall(operation, "rejected", 0)
		return fmt.Errorf("%w: %v", domain.ErrExternalService, err)
	}

	start := time.Now()
	err := c.doPost(ctx, path, body, out)
	c.breaker.Record(err)

	status := "ok"
	if err != nil {
		status = "error"
	}
	monitoring.TrackGatewayCall(operation, status, time.Since(start))
	return err
}

func (c *Client) doPost(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrExternalService, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%w: %s returned %d: %s", domain.ErrExternalService, path, resp.StatusCode, msg)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decoding %s response: %v", domain.ErrExternalService, path, err)
	}
	return nil
}
