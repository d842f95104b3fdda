package context

import (
	"context"

	"github.com/baechuer/newslink/internal/domain"
)

const sessionKey contextKey = "session"

type sessionState struct {
	sess *domain.Session
	err  error
}

// WithSession records the outcome of resolving the caller's session. A nil
// session with a nil error means the request is anonymous.
func WithSession(ctx context.Context, sess *domain.Session, err error) context.Context {
	return context.WithValue(ctx, sessionKey, sessionState{sess: sess, err: err})
}

// GetSession returns what WithSession stored. Both are nil when nothing did.
func GetSession(ctx context.Context) (*domain.Session, error) {
	if ctx == nil {
		return nil, nil
	}
	st, _ := ctx.Value(sessionKey).(sessionState)
	return st.sess, st.err
}
