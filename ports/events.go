package ports

import (
	"context"

	"github.com/layer-3/captcha/core"
)

// EventPublisher publishes challenge lifecycle events to notify other systems
type EventPublisher interface {
	PublishIssued(ctx context.Context, token string) error
	PublishVerified(ctx context.Context, token string, outcome core.Outcome) error
}
