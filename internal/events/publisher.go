package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

// Round lifecycle event types.
const (
	TypeStarted     = "started"
	TypeSettled     = "settled"
	TypeClaimed     = "claimed"
	TypeOverwritten = "overwritten"
)

// RoundEvent is a round lifecycle notification for downstream
// consumers (dashboards, fraud monitoring, payout reconciliation).
// Subjects follow the pattern: fairdeck.rounds.{type}
type RoundEvent struct {
	Type      string      `json:"type"`
	RoundID   string      `json:"round_id"`
	Player    string      `json:"player"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// Publisher publishes round events to NATS JetStream. Publishing is
// best-effort: the game never blocks or fails on the event path.
type Publisher struct {
	js        jetstream.JetStream
	inputChan <-chan RoundEvent
}

func NewPublisher(js jetstream.JetStream, inputChan <-chan RoundEvent) *Publisher {
	return &Publisher{
		js:        js,
		inputChan: inputChan,
	}
}

// Run starts the publisher loop.
func (p *Publisher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case evt, ok := <-p.inputChan:
			if !ok {
				return nil
			}

			if err := p.publish(ctx, evt); err != nil {
				log.Printf("WARN: round event publish failed round=%s type=%s: %v",
					evt.RoundID, evt.Type, err)
				// Non-fatal: consumers can read the round archive directly
			}
		}
	}
}

func (p *Publisher) publish(ctx context.Context, evt RoundEvent) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal round event: %w", err)
	}

	subject := fmt.Sprintf("fairdeck.rounds.%s", evt.Type)
	_, err = p.js.Publish(ctx, subject, data)
	return err
}

// EnsureRoundStream creates the round events stream.
func EnsureRoundStream(ctx context.Context, js jetstream.JetStream) error {
	_, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      "FAIRDECK_ROUNDS",
		Subjects:  []string{"fairdeck.rounds.>"},
		Storage:   jetstream.FileStorage,
		Retention: jetstream.LimitsPolicy,
		MaxAge:    72 * time.Hour,
		Replicas:  1,
	})
	if err != nil {
		return fmt.Errorf("create round stream: %w", err)
	}
	log.Println("INFO: ensured round event stream FAIRDECK_ROUNDS")
	return nil
}
