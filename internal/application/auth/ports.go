package auth

import (
	"context"
	"time"

	"github.com/baechuer/newslink/internal/domain"
)

/*
UserRepo
--------
Persistence port for users.
*/
type UserRepo interface {
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	GetByID(ctx context.Context, id string) (domain.User, error)
	Create(ctx context.Context, u domain.User) (domain.User, error)

	List(ctx context.Context, limit, offset int) ([]domain.User, int, error)
	SetRole(ctx context.Context, userID string, role domain.Role) (domain.User, error)
	SetBan(ctx context.Context, userID string, ban domain.Ban) (domain.User, error)
	CountByRole(ctx context.Context, role domain.Role) (int, error)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash string, password string) error // nil if match
}

/*
SessionStore
------------
Opaque session tokens. Backed by Redis, or memory when Redis is absent.
Get returns session_invalid for unknown, expired and revoked tokens.
*/
type SessionRecord struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
}

type SessionStore interface {
	Create(ctx context.Context, userID string, ttl time.Duration) (SessionRecord, error)
	Get(ctx context.Context, token string) (SessionRecord, error)
	Revoke(ctx context.Context, token string) error
	RevokeAll(ctx context.Context, userID string) error
}

/*
EventPublisher
--------------
Fan-out notifications about admin actions. Delivery is best effort.
*/
type EventPublisher interface {
	PublishUserEvent(ctx context.Context, evt UserEvent) error
}

const (
	EventUserRoleChanged = "user.role_changed"
	EventUserBanned      = "user.banned"
	EventUserUnbanned    = "user.unbanned"
)

type UserEvent struct {
	Type       string     `json:"type"`
	UserID     string     `json:"user_id"`
	ActorID    string     `json:"actor_id"`
	Role       string     `json:"role,omitempty"`
	Reason     string     `json:"reason,omitempty"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	OccurredAt time.Time  `json:"occurred_at"`
}
