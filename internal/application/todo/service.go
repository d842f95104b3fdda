package todo

import (
	"context"
	"strings"

	"github.com/baechuer/newslink/internal/domain"
)

// Repo is the persistence port. Every method is scoped to userID; a row
// owned by someone else is indistinguishable from a missing one.
type Repo interface {
	ListByUser(ctx context.Context, userID string) ([]domain.Todo, error)
	Create(ctx context.Context, userID, text string) (domain.Todo, error)
	SetCompleted(ctx context.Context, userID string, id int64, completed bool) (int64, error)
	Delete(ctx context.Context, userID string, id int64) (int64, error)
}

type Service struct {
	repo Repo
}

func NewService(repo Repo) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, userID string) ([]domain.Todo, error) {
	if err := requireOwner(userID); err != nil {
		return nil, err
	}
	return s.repo.ListByUser(ctx, userID)
}

// Create stores text as given. Only the empty string is rejected.
func (s *Service) Create(ctx context.Context, userID, text string) (domain.Todo, error) {
	if err := requireOwner(userID); err != nil {
		return domain.Todo{}, err
	}
	if err := domain.ValidateTodoText(text); err != nil {
		return domain.Todo{}, err
	}
	return s.repo.Create(ctx, userID, text)
}

func (s *Service) Toggle(ctx context.Context, userID string, id int64, completed bool) (domain.MutationResult, error) {
	if err := requireOwner(userID); err != nil {
		return domain.MutationResult{}, err
	}
	n, err := s.repo.SetCompleted(ctx, userID, id, completed)
	if err != nil {
		return domain.MutationResult{}, err
	}
	return domain.MutationResult{RowsAffected: n}, nil
}

func (s *Service) Delete(ctx context.Context, userID string, id int64) (domain.MutationResult, error) {
	if err := requireOwner(userID); err != nil {
		return domain.MutationResult{}, err
	}
	n, err := s.repo.Delete(ctx, userID, id)
	if err != nil {
		return domain.MutationResult{}, err
	}
	return domain.MutationResult{RowsAffected: n}, nil
}

func requireOwner(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return domain.ErrUnauthenticated()
	}
	return nil
}
