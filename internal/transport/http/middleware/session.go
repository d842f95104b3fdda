package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/baechuer/newslink/internal/domain"
	"github.com/baechuer/newslink/internal/infrastructure/security"
	"github.com/baechuer/newslink/internal/logger"
	appCtx "github.com/baechuer/newslink/internal/pkg/context"
)

type SessionResolver interface {
	GetSession(ctx context.Context, token string) (*domain.Session, error)
}

type BearerVerifier interface {
	// Verify returns the session token wrapped by a bearer token.
	Verify(token string) (string, error)
}

// Session resolves the caller's session once per request and stores the
// outcome in the context. It never rejects a request itself; procedures and
// handlers decide whether a session is required.
//
// Authorization: Bearer wins over the cookie when both are present.
func Session(resolver SessionResolver, bearer BearerVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			token, err := SessionToken(r, bearer)
			if err != nil {
				next.ServeHTTP(w, r.WithContext(appCtx.WithSession(ctx, nil, err)))
				return
			}

			sess, err := resolver.GetSession(ctx, token)
			if err != nil {
				logger.WithCtx(ctx).Warn().Err(err).Msg("session lookup failed")
			}
			next.ServeHTTP(w, r.WithContext(appCtx.WithSession(ctx, sess, err)))
		})
	}
}

// SessionToken extracts the raw session token from the request, "" when there
// is none. A malformed or forged bearer token is token_invalid.
func SessionToken(r *http.Request, bearer BearerVerifier) (string, error) {
	if h := strings.TrimSpace(r.Header.Get("Authorization")); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			return "", domain.ErrTokenInvalid()
		}
		if bearer == nil {
			return "", domain.ErrTokenInvalid()
		}
		return bearer.Verify(strings.TrimSpace(parts[1]))
	}

	token, err := security.ReadSessionCookie(r)
	if err != nil {
		return "", nil
	}
	return token, nil
}
