package domain

import (
	"strings"
	"time"
)

type User struct {
	ID            string     `json:"id"`
	Email         string     `json:"email"`
	Name          string     `json:"name"`
	EmailVerified bool       `json:"emailVerified"`
	Role          Role       `json:"role"`
	Banned        bool       `json:"banned"`
	BanReason     *string    `json:"banReason"`
	BanExpires    *time.Time `json:"banExpires"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`

	PasswordHash string `json:"-"`
}

// IsBanned treats a ban whose expiry has passed as lifted.
func (u User) IsBanned(now time.Time) bool {
	if !u.Banned {
		return false
	}
	return u.BanExpires == nil || now.Before(*u.BanExpires)
}

func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

// Ban is the ban state written by admin actions.
type Ban struct {
	Banned  bool
	Reason  *string
	Expires *time.Time
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
