package auth

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/baechuer/newslink/internal/domain"
)

const (
	minPasswordLen = 8
	maxPasswordLen = 128
	// bcrypt refuses more than 72 bytes.
	maxPasswordBytes = 72
)

type SignUpInput struct {
	Email    string
	Password string
	Name     string
}

// SignUp creates a regular user and signs them in.
func (s *Service) SignUp(ctx context.Context, in SignUpInput) (domain.Session, error) {
	email := domain.NormalizeEmail(in.Email)
	name := strings.TrimSpace(in.Name)

	audit := s.auditor("auth.sign_up", map[string]string{"email": email})

	if err := validateEmail(email); err != nil {
		audit("error", err, nil)
		return domain.Session{}, err
	}
	if err := validatePassword(in.Password); err != nil {
		audit("error", err, nil)
		return domain.Session{}, err
	}
	if name == "" {
		err := domain.ErrMissingField("name")
		audit("error", err, nil)
		return domain.Session{}, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		audit("error", err, nil)
		return domain.Session{}, err
	}

	u, err := s.users.Create(ctx, domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		Role:         domain.RoleUser,
	})
	if err != nil {
		audit("error", err, nil)
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

func validateEmail(email string) error {
	if email == "" {
		return domain.ErrMissingField("email")
	}
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 || strings.ContainsAny(email, " \t\r\n") {
		return domain.ErrInvalidField("email", "invalid email address")
	}
	return nil
}

func validatePassword(pw string) error {
	if pw == "" {
		return domain.ErrMissingField("password")
	}
	n := utf8.RuneCountInString(pw)
	switch {
	case n < minPasswordLen:
		return domain.ErrWeakPassword("password must be at least 8 characters")
	case n > maxPasswordLen:
		return domain.ErrWeakPassword("password must be at most 128 characters")
	case len(pw) > maxPasswordBytes:
		return domain.ErrWeakPassword("password must be at most 72 bytes")
	}
	return nil
}
