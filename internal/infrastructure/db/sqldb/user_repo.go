package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/baechuer/newslink/internal/domain"
)

// UserRepo stores users in the "user" table. The SQL runs unchanged on
// Postgres and SQLite.
type UserRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return domain.User{}, domain.ErrMissingField("email")
	}

	const q = `SELECT ` + userColumns + ` FROM "user" WHERE email = $1 LIMIT 1`
	return r.getOne(ctx, q, email)
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (domain.User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.User{}, domain.ErrMissingField("id")
	}

	const q = `SELECT ` + userColumns + ` FROM "user" WHERE id = $1 LIMIT 1`
	return r.getOne(ctx, q, id)
}

func (r *UserRepo) Create(ctx context.Context, u domain.User) (domain.User, error) {
	u.Email = domain.NormalizeEmail(u.Email)
	if u.ID == "" {
		return domain.User{}, domain.ErrMissingField("id")
	}
	if u.Email == "" {
		return domain.User{}, domain.ErrMissingField("email")
	}
	if u.PasswordHash == "" {
		return domain.User{}, domain.ErrMissingField("password_hash")
	}
	if u.Role == "" {
		u.Role = domain.RoleUser
	}
	if !u.Role.Valid() {
		return domain.User{}, domain.ErrInvalidRole(string(u.Role))
	}

	const q = `
INSERT INTO "user" (id, name, email, email_verified, password_hash, role)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + userColumns

	ur, err := scanUser(r.db.QueryRowContext(ctx, q,
		u.ID, u.Name, u.Email, u.EmailVerified, u.PasswordHash, string(u.Role),
	))
	if err != nil {
		if isUniqueViolation(err) {
			return domain.User{}, domain.ErrEmailAlreadyExists()
		}
		return domain.User{}, domain.ErrDBUnavailable(err)
	}
	return toDomainUser(ur), nil
}

// List returns one page ordered by creation time plus the total user count.
func (r *UserRepo) List(ctx context.Context, limit, offset int) ([]domain.User, int, error) {
	const countQ = `SELECT COUNT(1) FROM "user"`
	var total int
	if err := r.db.QueryRowContext(ctx, countQ).Scan(&total); err != nil {
		return nil, 0, domain.ErrDBUnavailable(err)
	}

	const q = `SELECT ` + userColumns + ` FROM "user" ORDER BY created_at, id LIMIT $1 OFFSET $2`
	rows, err := r.db.QueryContext(ctx, q, limit, offset)
	if err != nil {
		return nil, 0, domain.ErrDBUnavailable(err)
	}
	defer rows.Close()

	users := make([]domain.User, 0, limit)
	for rows.Next() {
		ur, err := scanUser(rows)
		if err != nil {
			return nil, 0, domain.ErrDBUnavailable(err)
		}
		users = append(users, toDomainUser(ur))
	}
	if err := rows.Err(); err != nil {
		return nil, 0, domain.ErrDBUnavailable(err)
	}
	return users, total, nil
}

func (r *UserRepo) SetRole(ctx context.Context, id string, role domain.Role) (domain.User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.User{}, domain.ErrMissingField("user_id")
	}
	if !role.Valid() {
		return domain.User{}, domain.ErrInvalidRole(string(role))
	}

	const q = `
UPDATE "user"
SET role = $1, updated_at = CURRENT_TIMESTAMP
WHERE id = $2
RETURNING ` + userColumns
	return r.getOne(ctx, q, string(role), id)
}

func (r *UserRepo) SetBan(ctx context.Context, id string, ban domain.Ban) (domain.User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.User{}, domain.ErrMissingField("user_id")
	}

	const q = `
UPDATE "user"
SET banned = $1, ban_reason = $2, ban_expires = $3, updated_at = CURRENT_TIMESTAMP
WHERE id = $4
RETURNING ` + userColumns
	return r.getOne(ctx, q, ban.Banned, nullString(ban.Reason), nullTime(ban.Expires), id)
}

func (r *UserRepo) CountByRole(ctx context.Context, role domain.Role) (int, error) {
	if !role.Valid() {
		return 0, domain.ErrInvalidRole(string(role))
	}

	const q = `SELECT COUNT(1) FROM "user" WHERE role = $1`

	var n int
	if err := r.db.QueryRowContext(ctx, q, string(role)).Scan(&n); err != nil {
		return 0, domain.ErrDBUnavailable(err)
	}
	return n, nil
}

func (r *UserRepo) getOne(ctx context.Context, q string, args ...any) (domain.User, error) {
	ur, err := scanUser(r.db.QueryRowContext(ctx, q, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, domain.ErrUserNotFound()
		}
		return domain.User{}, domain.ErrDBUnavailable(err)
	}
	return toDomainUser(ur), nil
}
