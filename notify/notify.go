package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"firebase.google.com/go/messaging"

	"go-stormwatch/types"
)

// TokenSource lists the registered device tokens.
type TokenSource interface {
	Tokens(ctx context.Context) ([]string, error)
}

// Messenger is the slice of the FCM client the sender uses.
type Messenger interface {
	SendAll(ctx context.Context, messages []*messaging.Message) (*messaging.BatchResponse, error)
}

// Sender fans an official notification out to every registered device. The
// payload carries the bounds, phenomenon, and level as JSON strings so the
// mobile client can draw the affected area.
type Sender struct {
	tokens    TokenSource
	messenger Messenger
}

func NewSender(tokens TokenSource, messenger Messenger) *Sender {
	return &Sender{tokens: tokens, messenger: messenger}
}

// Send pushes the notification to all registered tokens. Delivery failures
// for individual devices are logged, not returned.
func (s *Sender) Send(ctx context.Context, n types.Notification) error {
	tokens, err := s.tokens.Tokens(ctx)
	if err != nil {
		return fmt.Errorf("load device tokens: %w", err)
	}
	if len(tokens) == 0 {
		log.Println("No device tokens registered, skipping notification fan-out")
		return nil
	}

	boundsJSON, err := json.Marshal(n.LocationBounds)
	if err != nil {
		return fmt.Errorf("encode location bounds: %w", err)
	}

	locationName := n.LocationName
	if locationName == "" {
		locationName = "Location Unknown"
	}

	data := map[string]string{
		"locationBounds":    string(boundsJSON),
		"weatherPhenomenon": string(n.Phenomenon),
		"criticalLevel":     n.CriticalLevel,
		"locationName":      locationName,
	}

	messages := make([]*messaging.Message, 0, len(tokens))
	for _, token := range tokens {
		messages = append(messages, &messaging.Message{
			Notification: &messaging.Notification{
				Title: string(n.Phenomenon),
				Body:  n.Message,
			},
			Token: token,
			Data:  data,
		})
	}

	resp, err := s.messenger.SendAll(ctx, messages)
	if err != nil {
		return fmt.Errorf("send notifications: %w", err)
	}
	log.Printf("%d of %d notification messages sent successfully", resp.SuccessCount, len(messages))
	return nil
}
