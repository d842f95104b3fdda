package sqldb

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/baechuer/newslink/internal/domain"
)

const todoColumns = `id, text, completed, user_id, created_at, updated_at, deleted_at`

// TodoRepo stores todos. Every statement filters on user_id, so a row owned
// by someone else behaves exactly like a missing row.
type TodoRepo struct {
	db *sql.DB
}

func NewTodoRepo(db *sql.DB) *TodoRepo {
	return &TodoRepo{db: db}
}

func scanTodo(s rowScanner) (domain.Todo, error) {
	var (
		t       domain.Todo
		deleted sql.NullTime
	)
	if err := s.Scan(&t.ID, &t.Text, &t.Completed, &t.UserID, &t.CreatedAt, &t.UpdatedAt, &deleted); err != nil {
		return domain.Todo{}, err
	}
	if deleted.Valid {
		d := deleted.Time
		t.DeletedAt = &d
	}
	return t, nil
}

func (r *TodoRepo) ListByUser(ctx context.Context, userID string) ([]domain.Todo, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, domain.ErrMissingField("user_id")
	}

	const q = `
SELECT ` + todoColumns + `
FROM todo
WHERE user_id = $1 AND deleted_at IS NULL
ORDER BY id`

	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, domain.ErrDBUnavailable(err)
	}
	defer rows.Close()

	todos := []domain.Todo{}
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return nil, domain.ErrDBUnavailable(err)
		}
		todos = append(todos, t)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrDBUnavailable(err)
	}
	return todos, nil
}

func (r *TodoRepo) Create(ctx context.Context, userID, text string) (domain.Todo, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return domain.Todo{}, domain.ErrMissingField("user_id")
	}
	if err := domain.ValidateTodoText(text); err != nil {
		return domain.Todo{}, err
	}

	const q = `
INSERT INTO todo (text, completed, user_id)
VALUES ($1, $2, $3)
RETURNING ` + todoColumns

	t, err := scanTodo(r.db.QueryRowContext(ctx, q, text, false, userID))
	if err != nil {
		return domain.Todo{}, domain.ErrDBUnavailable(err)
	}
	return t, nil
}

func (r *TodoRepo) SetCompleted(ctx context.Context, userID string, id int64, completed bool) (int64, error) {
	const q = `
UPDATE todo
SET completed = $1, updated_at = $2
WHERE id = $3 AND user_id = $4 AND deleted_at IS NULL`

	return r.exec(ctx, q, completed, time.Now().UTC(), id, userID)
}

// Delete is a hard delete. Rows already soft-deleted are left alone, the
// same as they are hidden from ListByUser and SetCompleted.
func (r *TodoRepo) Delete(ctx context.Context, userID string, id int64) (int64, error) {
	const q = `DELETE FROM todo WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL`

	return r.exec(ctx, q, id, userID)
}

func (r *TodoRepo) exec(ctx context.Context, q string, args ...any) (int64, error) {
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, domain.ErrDBUnavailable(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, domain.ErrDBUnavailable(err)
	}
	return n, nil
}
