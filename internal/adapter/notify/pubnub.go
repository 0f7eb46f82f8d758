// Package notify delivers fire-and-forget user notifications over PubNub.
// The ledger never depends on delivery; failures are only logged.
package notify

import (
	"context"
	"fmt"
	"log"

	pubnub "github.com/pubnub/go/v7"
)

type Config struct {
	PublishKey   string
	SubscribeKey string
	UserID       string
}

type PubNubNotifier struct {
	pn *pubnub.PubNub
}

func NewPubNubNotifier(cfg Config) *PubNubNotifier {
	pnCfg := pubnub.NewConfigWithUserId(pubnub.UserId(cfg.UserID))
	pnCfg.PublishKey = cfg.PublishKey
	pnCfg.SubscribeKey = cfg.SubscribeKey

	return &PubNubNotifier{pn: pubnub.NewPubNub(pnCfg)}
}

func (n *PubNubNotifier) Notify(_ context.Context, userID string, kind string, payload map[string]any) {
	message := map[string]any{"type": kind}
	for k, v := range payload {
		message[k] = v
	}

	channel := fmt.Sprintf("user-%s", userID)
	_, status, err := n.pn.Publish().
		Channel(channel).
		Message(message).
		Execute()
	if err != nil {
		log.Printf("Failed to publish %s notification to %s: %v", kind, channel, err)
		return
	}
	if status.Error != nil {
		log.Printf("PubNub rejected %s notification to %s (code %d): %v", kind, channel, status.StatusCode, status.Error)
	}
}

// NopNotifier is used when PubNub keys are not configured.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, string, string, map[string]any) {}
