package auth

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/baechuer/newslink/internal/domain"
)

const (
	DefaultListLimit = 100
	MaxListLimit     = 500

	defaultBanReason = "No reason"
)

type ListUsersInput struct {
	Limit  int
	Offset int
}

type UserPage struct {
	Users  []domain.User `json:"users"`
	Total  int           `json:"total"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}

func (s *Service) ListUsers(ctx context.Context, actor domain.User, in ListUsersInput) (UserPage, error) {
	if err := requireAdminActor(actor); err != nil {
		return UserPage{}, err
	}
	if in.Offset < 0 {
		return UserPage{}, domain.ErrInvalidField("offset", "offset must be >= 0")
	}

	limit := in.Limit
	switch {
	case limit <= 0:
		limit = DefaultListLimit
	case limit > MaxListLimit:
		limit = MaxListLimit
	}

	users, total, err := s.users.List(ctx, limit, in.Offset)
	if err != nil {
		return UserPage{}, err
	}
	return UserPage{Users: users, Total: total, Limit: limit, Offset: in.Offset}, nil
}

// SetRole changes a user's role. The last remaining admin cannot be demoted.
func (s *Service) SetRole(ctx context.Context, actor domain.User, userID string, role domain.Role) (domain.User, error) {
	userID = strings.TrimSpace(userID)

	audit := s.auditor("admin.set_role", map[string]string{
		"actor_id":  actor.ID,
		"target_id": userID,
	})

	if err := requireAdminActor(actor); err != nil {
		audit("error", err, nil)
		return domain.User{}, err
	}
	if userID == "" {
		err := domain.ErrMissingField("userId")
		audit("error", err, nil)
		return domain.User{}, err
	}
	if !role.Valid() {
		err := domain.ErrInvalidRole(string(role))
		audit("error", err, nil)
		return domain.User{}, err
	}

	target, err := s.users.GetByID(ctx, userID)
	if err != nil {
		audit("error", err, nil)
		return domain.User{}, err
	}

	if target.IsAdmin() && role != domain.RoleAdmin {
		cnt, err := s.users.CountByRole(ctx, domain.RoleAdmin)
		if err != nil {
			audit("error", err, nil)
			return domain.User{}, err
		}
		if cnt <= 1 {
			err := domain.ErrLastAdminProtected()
			audit("error", err, nil)
			return domain.User{}, err
		}
	}

	updated, err := s.users.SetRole(ctx, userID, role)
	if err != nil {
		audit("error", err, nil)
		return domain.User{}, err
	}

	published := s.publish(ctx, UserEvent{
		Type:    EventUserRoleChanged,
		UserID:  userID,
		ActorID: actor.ID,
		Role:    string(role),
	})
	audit("success", nil, map[string]string{
		"old_role":        string(target.Role),
		"new_role":        string(role),
		"event_published": strconv.FormatBool(published),
	})
	return updated, nil
}

// BanUser bans a user and revokes all of their sessions. expiresIn <= 0
// means the ban does not expire.
func (s *Service) BanUser(ctx context.Context, actor domain.User, userID, reason string, expiresIn time.Duration) (domain.User, error) {
	userID = strings.TrimSpace(userID)
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = defaultBanReason
	}

	audit := s.auditor("admin.ban_user", map[string]string{
		"actor_id":  actor.ID,
		"target_id": userID,
	})

	if err := requireAdminActor(actor); err != nil {
		audit("error", err, nil)
		return domain.User{}, err
	}
	if userID == "" {
		err := domain.ErrMissingField("userId")
		audit("error", err, nil)
		return domain.User{}, err
	}
	if actor.ID == userID {
		err := domain.ErrCannotBanSelf()
		audit("error", err, nil)
		return domain.User{}, err
	}

	if _, err := s.users.GetByID(ctx, userID); err != nil {
		audit("error", err, nil)
		return domain.User{}, err
	}

	ban := domain.Ban{Banned: true, Reason: &reason}
	if expiresIn > 0 {
		exp := s.now().Add(expiresIn).UTC()
		ban.Expires = &exp
	}

	updated, err := s.users.SetBan(ctx, userID, ban)
	if err != nil {
		audit("error", err, nil)
		return domain.User{}, err
	}

	// GetSession re-checks the ban, so a failed revoke only leaves dead keys behind.
	revoked := s.sessions.RevokeAll(ctx, userID) == nil

	published := s.publish(ctx, UserEvent{
		Type:      EventUserBanned,
		UserID:    userID,
		ActorID:   actor.ID,
		Reason:    reason,
		ExpiresAt: ban.Expires,
	})
	audit("success", nil, map[string]string{
		"reason":           reason,
		"sessions_revoked": strconv.FormatBool(revoked),
		"event_published":  strconv.FormatBool(published),
	})
	return updated, nil
}

func (s *Service) UnbanUser(ctx context.Context, actor domain.User, userID string) (domain.User, error) {
	userID = strings.TrimSpace(userID)

	audit := s.auditor("admin.unban_user", map[string]string{
		"actor_id":  actor.ID,
		"target_id": userID,
	})

	if err := requireAdminActor(actor); err != nil {
		audit("error", err, nil)
		return domain.User{}, err
	}
	if userID == "" {
		err := domain.ErrMissingField("userId")
		audit("error", err, nil)
		return domain.User{}, err
	}

	updated, err := s.users.SetBan(ctx, userID, domain.Ban{})
	if err != nil {
		audit("error", err, nil)
		return domain.User{}, err
	}

	published := s.publish(ctx, UserEvent{
		Type:    EventUserUnbanned,
		UserID:  userID,
		ActorID: actor.ID,
	})
	audit("success", nil, map[string]string{"event_published": strconv.FormatBool(published)})
	return updated, nil
}

func requireAdminActor(actor domain.User) error {
	if actor.ID == "" {
		return domain.ErrUnauthenticated()
	}
	if !actor.IsAdmin() {
		return domain.ErrInsufficientRole(domain.RoleAdmin)
	}
	return nil
}

func (s *Service) publish(ctx context.Context, evt UserEvent) bool {
	if s.pub == nil {
		return false
	}
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = s.now().UTC()
	}
	return s.pub.PublishUserEvent(ctx, evt) == nil
}
