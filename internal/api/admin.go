package api

import (
	"context"
	"time"

	"github.com/baechuer/newslink/internal/application/auth"
	"github.com/baechuer/newslink/internal/domain"
)

func (h *handlers) listUsers(ctx context.Context, s domain.Session, in ListUsersInput) (auth.UserPage, error) {
	return h.admin.ListUsers(ctx, s.User, auth.ListUsersInput{Limit: in.Limit, Offset: in.Offset})
}

func (h *handlers) setRole(ctx context.Context, s domain.Session, in SetRoleInput) (domain.User, error) {
	return h.admin.SetRole(ctx, s.User, in.UserID, in.Role)
}

func (h *handlers) banUser(ctx context.Context, s domain.Session, in BanUserInput) (domain.User, error) {
	var expiresIn time.Duration
	if in.BanExpiresIn != nil {
		expiresIn = time.Duration(*in.BanExpiresIn) * time.Second
	}
	return h.admin.BanUser(ctx, s.User, in.UserID, in.BanReason, expiresIn)
}

func (h *handlers) unbanUser(ctx context.Context, s domain.Session, in UnbanUserInput) (domain.User, error) {
	return h.admin.UnbanUser(ctx, s.User, in.UserID)
}
