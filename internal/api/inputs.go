package api

import "github.com/baechuer/newslink/internal/domain"

type PrivateData struct {
	Message string      `json:"message"`
	User    domain.User `json:"user"`
}

type CreateTodoInput struct {
	Text string `json:"text" validate:"min=1"`
}

// Ids are pointers so that a present 0 passes validation and then matches
// no row, like any other id the caller does not own.
type ToggleTodoInput struct {
	ID        *int64 `json:"id" validate:"required"`
	Completed *bool  `json:"completed" validate:"required"`
}

type DeleteTodoInput struct {
	ID *int64 `json:"id" validate:"required"`
}

type ListUsersInput struct {
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty" validate:"gte=0"`
}

type SetRoleInput struct {
	UserID string      `json:"userId" validate:"required"`
	Role   domain.Role `json:"role" validate:"required"`
}

// BanUserInput: BanExpiresIn is in seconds; absent means permanent.
type BanUserInput struct {
	UserID       string `json:"userId" validate:"required"`
	BanReason    string `json:"banReason,omitempty" validate:"max=500"`
	BanExpiresIn *int64 `json:"banExpiresIn,omitempty" validate:"omitempty,gt=0"`
}

type UnbanUserInput struct {
	UserID string `json:"userId" validate:"required"`
}
