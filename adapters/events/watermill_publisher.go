package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"

	"github.com/layer-3/captcha/core"
	"github.com/layer-3/captcha/ports"
)

// IssuedEvent announces a freshly issued challenge
type IssuedEvent struct {
	Token    string    `json:"token"`
	IssuedAt time.Time `json:"issued_at"`
}

// VerifiedEvent announces the outcome of an answer submission
type VerifiedEvent struct {
	Token      string    `json:"token"`
	Outcome    string    `json:"outcome"`
	VerifiedAt time.Time `json:"verified_at"`
}

// WatermillPublisher implements the EventPublisher interface using Watermill
type WatermillPublisher struct {
	publisher     message.Publisher
	issuedTopic   string
	verifiedTopic string
}

// NewWatermillPublisher creates a new Watermill publisher
func NewWatermillPublisher(publisher message.Publisher) ports.EventPublisher {
	return &WatermillPublisher{
		publisher:     publisher,
		issuedTopic:   "captcha.issued",
		verifiedTopic: "captcha.verified",
	}
}

// PublishIssued publishes a challenge-issued event
func (p *WatermillPublisher) PublishIssued(ctx context.Context, token string) error {
	event := IssuedEvent{
		Token:    token,
		IssuedAt: time.Now(),
	}

	return p.publish(p.issuedTopic, event)
}

// PublishVerified publishes a verification-outcome event
func (p *WatermillPublisher) PublishVerified(ctx context.Context, token string, outcome core.Outcome) error {
	event := VerifiedEvent{
		Token:      token,
		Outcome:    outcome.String(),
		VerifiedAt: time.Now(),
	}

	return p.publish(p.verifiedTopic, event)
}

func (p *WatermillPublisher) publish(topic string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(uuid.New().String(), payload)

	if err := p.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}
