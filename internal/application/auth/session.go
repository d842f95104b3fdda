package auth

import (
	"context"
	"strings"

	"github.com/baechuer/newslink/internal/domain"
)

// GetSession resolves a token to a live session. It returns (nil, nil) for an
// empty, unknown, expired or revoked token and for a missing or banned user.
// Only infrastructure failures come back as errors. The user row is read on
// every call so role and ban changes apply on the next request.
func (s *Service) GetSession(ctx context.Context, token string) (*domain.Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, nil
	}

	rec, err := s.sessions.Get(ctx, token)
	if err != nil {
		if domain.Is(err, "session_invalid") {
			return nil, nil
		}
		return nil, err
	}

	u, err := s.users.GetByID(ctx, rec.UserID)
	if err != nil {
		if domain.Is(err, "user_not_found") {
			_ = s.sessions.Revoke(ctx, token)
			return nil, nil
		}
		return nil, err
	}
	if u.IsBanned(s.now()) {
		return nil, nil
	}

	return &domain.Session{Token: rec.Token, User: u, ExpiresAt: rec.ExpiresAt}, nil
}

func (s *Service) RequireSession(ctx context.Context, token string) (domain.Session, error) {
	sess, err := s.GetSession(ctx, token)
	if err != nil {
		return domain.Session{}, err
	}
	if sess == nil {
		return domain.Session{}, domain.ErrUnauthenticated()
	}
	return *sess, nil
}

func (s *Service) RequireAdmin(ctx context.Context, token string) (domain.Session, error) {
	sess, err := s.RequireSession(ctx, token)
	if err != nil {
		return domain.Session{}, err
	}
	if !sess.User.IsAdmin() {
		return domain.Session{}, domain.ErrInsufficientRole(domain.RoleAdmin)
	}
	return sess, nil
}

// SignOut is idempotent.
func (s *Service) SignOut(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}
	return s.sessions.Revoke(ctx, token)
}

func (s *Service) openSession(ctx context.Context, u domain.User) (domain.Session, error) {
	rec, err := s.sessions.Create(ctx, u.ID, s.sessionTTL)
	if err != nil {
		return domain.Session{}, err
	}
	return domain.Session{Token: rec.Token, User: u, ExpiresAt: rec.ExpiresAt}, nil
}
