package api

import (
	"context"

	"github.com/baechuer/newslink/internal/domain"
	"github.com/baechuer/newslink/internal/rpc"
)

func (h *handlers) healthCheck(ctx context.Context, _ rpc.Empty) (string, error) {
	return "OK", nil
}

func (h *handlers) privateData(ctx context.Context, s domain.Session, _ rpc.Empty) (PrivateData, error) {
	return PrivateData{Message: "This is private", User: s.User}, nil
}

func (h *handlers) todoGetAll(ctx context.Context, s domain.Session, _ rpc.Empty) ([]domain.Todo, error) {
	return h.todos.List(ctx, s.User.ID)
}

func (h *handlers) todoCreate(ctx context.Context, s domain.Session, in CreateTodoInput) (domain.Todo, error) {
	return h.todos.Create(ctx, s.User.ID, in.Text)
}

func (h *handlers) todoToggle(ctx context.Context, s domain.Session, in ToggleTodoInput) (domain.MutationResult, error) {
	return h.todos.Toggle(ctx, s.User.ID, *in.ID, *in.Completed)
}

func (h *handlers) todoDelete(ctx context.Context, s domain.Session, in DeleteTodoInput) (domain.MutationResult, error) {
	return h.todos.Delete(ctx, s.User.ID, *in.ID)
}
