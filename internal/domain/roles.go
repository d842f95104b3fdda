package domain

import (
	"encoding/json"
	"strings"
)

// Role is a closed set. Values outside it never reach the store.
type Role string

const (
	// RoleUser owns a private todo list.
	RoleUser Role = "user"
	// RoleAdmin can additionally list, promote, ban and unban users.
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

func (r Role) String() string { return string(r) }

// ParseRole accepts exactly "user" or "admin" (case-insensitive, trimmed).
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", ErrInvalidRole(s)
	}
	return r, nil
}

func (r *Role) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return ErrInvalidRole(string(b))
	}
	parsed, err := ParseRole(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
