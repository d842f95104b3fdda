package memory

import (
	"context"

	"github.com/baechuer/newslink/internal/application/auth"
	"github.com/baechuer/newslink/internal/logger"
)

// NoopPublisher logs user events instead of sending them anywhere.
type NoopPublisher struct{}

func NewNoopPublisher() *NoopPublisher { return &NoopPublisher{} }

func (p *NoopPublisher) PublishUserEvent(ctx context.Context, evt auth.UserEvent) error {
	logger.WithCtx(ctx).Info().
		Str("event", evt.Type).
		Str("user_id", evt.UserID).
		Str("actor_id", evt.ActorID).
		Msg("noop publisher: event dropped")
	return nil
}
