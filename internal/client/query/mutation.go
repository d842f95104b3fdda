package query

import (
	"context"
	"time"
)

// Mutation describes a write. It is never retried and never updates the
// cache optimistically.
type Mutation[In, Out any] struct {
	Run func(ctx context.Context, in In) (Out, error)
	// Invalidates lists key prefixes to mark stale after success.
	Invalidates []string
	// RefetchDelay postpones the invalidation.
	RefetchDelay time.Duration

	OnSuccess func(out Out, in In)
	OnError   func(err error, in In)
}

func Mutate[In, Out any](ctx context.Context, c *Client, m Mutation[In, Out], in In) (Out, error) {
	out, err := m.Run(ctx, in)
	if err != nil {
		if m.OnError != nil {
			m.OnError(err, in)
		}
		return out, err
	}

	c.invalidateAfter(m.RefetchDelay, m.Invalidates)
	if m.OnSuccess != nil {
		m.OnSuccess(out, in)
	}
	return out, nil
}
