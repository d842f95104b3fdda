package auth

import (
	"context"

	"github.com/baechuer/newslink/internal/domain"
)

// SignIn checks credentials and opens a session. Unknown email and wrong
// password produce the same error.
func (s *Service) SignIn(ctx context.Context, email, password string) (domain.Session, error) {
	email = domain.NormalizeEmail(email)

	audit := s.auditor("auth.sign_in", map[string]string{"email": email})

	if email == "" {
		err := domain.ErrMissingField("email")
		audit("error", err, nil)
		return domain.Session{}, err
	}
	if password == "" {
		err := domain.ErrMissingField("password")
		audit("error", err, nil)
		return domain.Session{}, err
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if domain.Is(err, "user_not_found") {
			err = domain.ErrInvalidCredentials()
		}
		audit("error", err, nil)
		return domain.Session{}, err
	}

	if err := s.hasher.Compare(u.PasswordHash, password); err != nil {
		err := domain.ErrInvalidCredentials()
		audit("error", err, map[string]string{"user_id": u.ID})
		return domain.Session{}, err
	}

	if u.IsBanned(s.now()) {
		reason := ""
		if u.BanReason != nil {
			reason = *u.BanReason
		}
		err := domain.ErrUserBanned(reason)
		audit("error", err, map[string]string{"user_id": u.ID})
		return domain.Session{}, err
	}

	sess, err := s.openSession(ctx, u)
	if err != nil {
		audit("error", err, map[string]string{"user_id": u.ID})
		return domain.Session{}, err
	}

	audit("success", nil, map[string]string{"user_id": u.ID})
	return sess, nil
}
