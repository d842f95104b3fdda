package auth

import (
	"context"

	"github.com/google/uuid"

	"github.com/baechuer/newslink/internal/domain"
)

// SeedAdmin makes sure the configured bootstrap admin exists. An existing
// account with that email is promoted; its password is left alone.
func (s *Service) SeedAdmin(ctx context.Context, email, password, name string) (domain.User, error) {
	email = domain.NormalizeEmail(email)

	audit := s.auditor("auth.seed_admin", map[string]string{"email": email})

	if err := validateEmail(email); err != nil {
		audit("error", err, nil)
		return domain.User{}, err
	}

	existing, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.IsAdmin() {
			audit("noop", nil, map[string]string{"user_id": existing.ID})
			return existing, nil
		}
		u, err := s.users.SetRole(ctx, existing.ID, domain.RoleAdmin)
		if err != nil {
			audit("error", err, nil)
			return domain.User{}, err
		}
		audit("promoted", nil, map[string]string{"user_id": u.ID})
		return u, nil
	case !domain.Is(err, "user_not_found"):
		audit("error", err, nil)
		return domain.User{}, err
	}

	if err := validatePassword(password); err != nil {
		audit("error", err, nil)
		return domain.User{}, err
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		audit("error", err, nil)
		return domain.User{}, err
	}
	if name == "" {
		name = "Admin"
	}

	u, err := s.users.Create(ctx, domain.User{
		ID:            uuid.NewString(),
		Email:         email,
		Name:          name,
		EmailVerified: true,
		PasswordHash:  hash,
		Role:          domain.RoleAdmin,
	})
	if err != nil {
		audit("error", err, nil)
		return domain.User{}, err
	}

	audit("created", nil, map[string]string{"user_id": u.ID})
	return u, nil
}
