package dto

import (
	"strings"
	"time"

	"github.com/baechuer/newslink/internal/domain"
)

type SignUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// Validate checks presence only; password strength and email shape are the
// service's call.
func (r *SignUpRequest) Validate() error {
	r.Email = strings.TrimSpace(r.Email)
	r.Name = strings.TrimSpace(r.Name)
	if r.Email == "" {
		return domain.ErrMissingField("email")
	}
	if r.Password == "" {
		return domain.ErrMissingField("password")
	}
	if r.Name == "" {
		return domain.ErrMissingField("name")
	}
	return nil
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *SignInRequest) Validate() error {
	r.Email = strings.TrimSpace(r.Email)
	if r.Email == "" {
		return domain.ErrMissingField("email")
	}
	if r.Password == "" {
		return domain.ErrMissingField("password")
	}
	return nil
}

// AuthData is returned by sign-up and sign-in. Token is the bearer token for
// clients that cannot keep cookies.
type AuthData struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      domain.User `json:"user"`
}

type SessionView struct {
	ExpiresAt time.Time `json:"expiresAt"`
}

// SessionData is the get-session payload; the endpoint returns null instead
// when there is no session.
type SessionData struct {
	Session SessionView `json:"session"`
	User    domain.User `json:"user"`
}

type SignOutData struct {
	Success bool `json:"success"`
}
