package domain

import (
	"time"
	"unicode/utf8"
)

type Todo struct {
	ID        int64      `json:"id"`
	Text      string     `json:"text"`
	Completed bool       `json:"completed"`
	UserID    string     `json:"userId"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	DeletedAt *time.Time `json:"deletedAt"`
}

// ValidateTodoText requires at least one character. Whitespace counts.
func ValidateTodoText(text string) error {
	if utf8.RuneCountInString(text) < 1 {
		return ErrValidation("text", "text must be at least 1 character")
	}
	return nil
}

// MutationResult is what toggle and delete report back. A target the caller
// does not own looks exactly like a missing one: zero rows.
type MutationResult struct {
	RowsAffected int64 `json:"rowsAffected"`
}
