package surface

import (
	"context"
	"errors"

	"github.com/baechuer/newslink/internal/client/query"
	"github.com/baechuer/newslink/internal/client/rpcclient"
	"github.com/baechuer/newslink/internal/domain"
	"github.com/baechuer/newslink/internal/transport/http/dto"
)

const (
	KeyUsers = "users"

	usersPageLimit   = 100
	defaultBanReason = "Banned by admin"
)

var (
	ErrLoginRequired = errors.New("login required")
	ErrForbidden     = errors.New("admin role required")
)

type AdminAPI interface {
	ListUsers(ctx context.Context, in rpcclient.ListUsersInput) (rpcclient.UserPage, error)
	SetRole(ctx context.Context, userID string, role domain.Role) (domain.User, error)
	BanUser(ctx context.Context, in rpcclient.BanUserInput) (domain.User, error)
	UnbanUser(ctx context.Context, userID string) (domain.User, error)
}

// UserAdmin is the admin dashboard's user table.
type UserAdmin struct {
	api    AdminAPI
	cache  *query.Client
	notify Notifier
}

func NewUserAdmin(api AdminAPI, cache *query.Client, n Notifier) *UserAdmin {
	return &UserAdmin{api: api, cache: cache, notify: n}
}

func (a *UserAdmin) Users(ctx context.Context) (rpcclient.UserPage, error) {
	return query.Fetch(ctx, a.cache, KeyUsers, func(ctx context.Context) (rpcclient.UserPage, error) {
		return a.api.ListUsers(ctx, rpcclient.ListUsersInput{Limit: usersPageLimit})
	})
}

func (a *UserAdmin) SetRole(ctx context.Context, userID string, role domain.Role) error {
	_, err := query.Mutate(ctx, a.cache, query.Mutation[string, domain.User]{
		Run: func(ctx context.Context, id string) (domain.User, error) {
			return a.api.SetRole(ctx, id, role)
		},
		Invalidates: []string{KeyUsers},
		OnSuccess:   func(domain.User, string) { a.notify.Success("User role updated") },
		OnError:     func(err error, _ string) { a.notify.Error(messageOr(err, "Failed to update role")) },
	}, userID)
	return err
}

// Ban bans without expiry using the dashboard's fixed reason.
func (a *UserAdmin) Ban(ctx context.Context, userID string) error {
	_, err := query.Mutate(ctx, a.cache, query.Mutation[rpcclient.BanUserInput, domain.User]{
		Run:         a.api.BanUser,
		Invalidates: []string{KeyUsers},
		OnSuccess:   func(domain.User, rpcclient.BanUserInput) { a.notify.Success("User banned") },
		OnError: func(err error, _ rpcclient.BanUserInput) {
			a.notify.Error(messageOr(err, "Failed to ban user"))
		},
	}, rpcclient.BanUserInput{UserID: userID, BanReason: defaultBanReason})
	return err
}

func (a *UserAdmin) Unban(ctx context.Context, userID string) error {
	_, err := query.Mutate(ctx, a.cache, query.Mutation[string, domain.User]{
		Run:         a.api.UnbanUser,
		Invalidates: []string{KeyUsers},
		OnSuccess:   func(domain.User, string) { a.notify.Success("User unbanned") },
		OnError:     func(err error, _ string) { a.notify.Error(messageOr(err, "Failed to unban user")) },
	}, userID)
	return err
}

type SessionSource interface {
	GetSession(ctx context.Context) (*dto.SessionData, error)
}

// Guard gates screens on the current session.
type Guard struct {
	sessions SessionSource
	notify   Notifier
}

func NewGuard(sessions SessionSource, n Notifier) *Guard {
	return &Guard{sessions: sessions, notify: n}
}

// RequireSession gates the todo dashboard.
func (g *Guard) RequireSession(ctx context.Context) (*dto.SessionData, error) {
	sess, err := g.sessions.GetSession(ctx)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		g.notify.Warning("Please log in to access your dashboard.")
		return nil, ErrLoginRequired
	}
	return sess, nil
}

// RequireAdmin gates the user management screen.
func (g *Guard) RequireAdmin(ctx context.Context) (*dto.SessionData, error) {
	sess, err := g.sessions.GetSession(ctx)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		g.notify.Warning("Please log in to access the user management.")
		return nil, ErrLoginRequired
	}
	if !sess.User.IsAdmin() {
		g.notify.Error("You do not have permission to access this page.")
		return nil, ErrForbidden
	}
	return sess, nil
}
