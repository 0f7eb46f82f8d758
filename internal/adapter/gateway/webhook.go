package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ticketbay/marketplace/internal/core/domain"
)

// Signed timestamps older or newer than this are rejected to blunt replay.
const signatureTolerance = 5 * time.Minute

type eventEnvelope struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID       string            `json:"id"`
			Amount   int64             `json:"amount"`
			Metadata map[string]string `json:"metadata"`
		} `json:"object"`
	} `json:"data"`
}

// ConstructWebhookEvent verifies the signature header and parses the event
// payload. The header format is "t=<unix>,v1=<hex hmac>", where the HMAC is
// SHA-256 over "<unix>.<payload>" keyed with the endpoint secret.
func (c *Client) ConstructWebhookEvent(payload []byte, sigHeader string) (*domain.PaymentEvent, error) {
	ts, sig, err := parseSignatureHeader(sigHeader)
	if err != nil {
		return nil, err
	}

	if d := time.Since(time.Unix(ts, 0)); d > signatureTolerance || d < -signatureTolerance {
		return nil, fmt.Errorf("%w: timestamp outside tolerance", domain.ErrInvalidSignature)
	}

	expected := ComputeSignature(c.webhookSecret, ts, payload)
	if !hmac.Equal([]byte(expected), []byte(sig)) {
		return nil, domain.ErrInvalidSignature
	}

	var env eventEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, fmt.Errorf("%w: malformed event payload: %v", domain.ErrInvalidSignature, err)
	}
	if env.ID == "" || env.Type == "" {
		return nil, fmt.Errorf("%w: event id or type missing", domain.ErrInvalidSignature)
	}

	metadata := env.Data.Object.Metadata
	if metadata == nil {
		metadata = map[string]string{}
	}

	return &domain.PaymentEvent{
		ID:       env.ID,
		Type:     env.Type,
		ObjectID: env.Data.Object.ID,
		Amount:   domain.FromMinorUnits(env.Data.Object.Amount),
		Metadata: metadata,
	}, nil
}

// ComputeSignature produces the hex HMAC the gateway puts in the v1 field.
// Exported so tests and local tooling can sign synthetic deliveries.
func ComputeSignature(secret string, ts int64, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", ts)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func parseSignatureHeader(header string) (ts int64, sig string, err error) {
	for _, part := range strings.Split(header, ",") {
		k, v, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch k {
		case "t":
			ts, err = strconv.ParseInt(v, 10, 64)
			if err != nil {
				return 0, "", fmt.Errorf("%w: bad timestamp", domain.ErrInvalidSignature)
			}
		case "v1":
			sig = v
		}
	}
	if ts == 0 || sig == "" {
		return 0, "", fmt.Errorf("%w: missing signature fields", domain.ErrInvalidSignature)
	}
	return ts, sig, nil
}
