package rpcclient

import (
	"context"

	"github.com/baechuer/newslink/internal/domain"
)

// Procedure paths served under /rpc.
const (
	ProcHealthCheck    = "healthCheck"
	ProcPrivateData    = "privateData"
	ProcTodoGetAll     = "todo.getAll"
	ProcTodoCreate     = "todo.create"
	ProcTodoToggle     = "todo.toggle"
	ProcTodoDelete     = "todo.delete"
	ProcAdminListUsers = "admin.listUsers"
	ProcAdminSetRole   = "admin.setRole"
	ProcAdminBanUser   = "admin.banUser"
	ProcAdminUnbanUser = "admin.unbanUser"
)

type PrivateData struct {
	Message string      `json:"message"`
	User    domain.User `json:"user"`
}

type UserPage struct {
	Users  []domain.User `json:"users"`
	Total  int           `json:"total"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}

type ListUsersInput struct {
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

type BanUserInput struct {
	UserID    string `json:"userId"`
	BanReason string `json:"banReason,omitempty"`
	// BanExpiresIn is in seconds; nil bans until lifted.
	BanExpiresIn *int64 `json:"banExpiresIn,omitempty"`
}

func (c *Client) HealthCheck(ctx context.Context) (string, error) {
	var out string
	err := c.Query(ctx, ProcHealthCheck, nil, &out)
	return out, err
}

func (c *Client) PrivateData(ctx context.Context) (PrivateData, error) {
	var out PrivateData
	err := c.Query(ctx, ProcPrivateData, nil, &out)
	return out, err
}

func (c *Client) Todos(ctx context.Context) ([]domain.Todo, error) {
	var out []domain.Todo
	err := c.Query(ctx, ProcTodoGetAll, nil, &out)
	return out, err
}

func (c *Client) CreateTodo(ctx context.Context, text string) (domain.Todo, error) {
	var out domain.Todo
	err := c.Mutate(ctx, ProcTodoCreate, map[string]string{"text": text}, &out)
	return out, err
}

func (c *Client) ToggleTodo(ctx context.Context, id int64, completed bool) (domain.MutationResult, error) {
	var out domain.MutationResult
	err := c.Mutate(ctx, ProcTodoToggle, map[string]any{"id": id, "completed": completed}, &out)
	return out, err
}

func (c *Client) DeleteTodo(ctx context.Context, id int64) (domain.MutationResult, error) {
	var out domain.MutationResult
	err := c.Mutate(ctx, ProcTodoDelete, map[string]int64{"id": id}, &out)
	return out, err
}

func (c *Client) ListUsers(ctx context.Context, in ListUsersInput) (UserPage, error) {
	var out UserPage
	err := c.Query(ctx, ProcAdminListUsers, in, &out)
	return out, err
}

func (c *Client) SetRole(ctx context.Context, userID string, role domain.Role) (domain.User, error) {
	var out domain.User
	err := c.Mutate(ctx, ProcAdminSetRole, map[string]string{"userId": userID, "role": string(role)}, &out)
	return out, err
}

func (c *Client) BanUser(ctx context.Context, in BanUserInput) (domain.User, error) {
	var out domain.User
	err := c.Mutate(ctx, ProcAdminBanUser, in, &out)
	return out, err
}

func (c *Client) UnbanUser(ctx context.Context, userID string) (domain.User, error) {
	var out domain.User
	err := c.Mutate(ctx, ProcAdminUnbanUser, map[string]string{"userId": userID}, &out)
	return out, err
}
