package api

import (
	"context"
	"time"

	"github.com/baechuer/newslink/internal/application/auth"
	"github.com/baechuer/newslink/internal/domain"
	"github.com/baechuer/newslink/internal/rpc"
)

type TodoService interface {
	List(ctx context.Context, userID string) ([]domain.Todo, error)
	Create(ctx context.Context, userID, text string) (domain.Todo, error)
	Toggle(ctx context.Context, userID string, id int64, completed bool) (domain.MutationResult, error)
	Delete(ctx context.Context, userID string, id int64) (domain.MutationResult, error)
}

type AdminService interface {
	ListUsers(ctx context.Context, actor domain.User, in auth.ListUsersInput) (auth.UserPage, error)
	SetRole(ctx context.Context, actor domain.User, userID string, role domain.Role) (domain.User, error)
	BanUser(ctx context.Context, actor domain.User, userID, reason string, expiresIn time.Duration) (domain.User, error)
	UnbanUser(ctx context.Context, actor domain.User, userID string) (domain.User, error)
}

type Deps struct {
	Todos TodoService
	Admin AdminService
}

// NewRouter builds the application's procedure table.
func NewRouter(d Deps) (*rpc.Router, error) {
	h := &handlers{todos: d.Todos, admin: d.Admin}

	return rpc.New(
		rpc.Query(rpc.Public("healthCheck", h.healthCheck)),
		rpc.Query(rpc.Protected("privateData", h.privateData)),

		rpc.Query(rpc.Protected("todo/getAll", h.todoGetAll)),
		rpc.Mutation(rpc.Protected("todo/create", h.todoCreate)),
		rpc.Mutation(rpc.Protected("todo/toggle", h.todoToggle)),
		rpc.Mutation(rpc.Protected("todo/delete", h.todoDelete)),

		rpc.Query(rpc.Admin("admin/listUsers", h.listUsers)),
		rpc.Mutation(rpc.Admin("admin/setRole", h.setRole)),
		rpc.Mutation(rpc.Admin("admin/banUser", h.banUser)),
		rpc.Mutation(rpc.Admin("admin/unbanUser", h.unbanUser)),
	)
}

type handlers struct {
	todos TodoService
	admin AdminService
}
