package sqldb

import (
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/baechuer/newslink/internal/domain"
)

const userColumns = `id, name, email, email_verified, password_hash, role, banned, ban_reason, ban_expires, created_at, updated_at`

type userRow struct {
	ID            string
	Name          string
	Email         string
	EmailVerified bool
	PasswordHash  string
	Role          string
	Banned        bool
	BanReason     sql.NullString
	BanExpires    sql.NullTime
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(s rowScanner) (userRow, error) {
	var ur userRow
	err := s.Scan(
		&ur.ID,
		&ur.Name,
		&ur.Email,
		&ur.EmailVerified,
		&ur.PasswordHash,
		&ur.Role,
		&ur.Banned,
		&ur.BanReason,
		&ur.BanExpires,
		&ur.CreatedAt,
		&ur.UpdatedAt,
	)
	return ur, err
}

func toDomainUser(ur userRow) domain.User {
	u := domain.User{
		ID:            ur.ID,
		Name:          ur.Name,
		Email:         ur.Email,
		EmailVerified: ur.EmailVerified,
		PasswordHash:  ur.PasswordHash,
		Role:          domain.Role(ur.Role),
		Banned:        ur.Banned,
		CreatedAt:     ur.CreatedAt,
		UpdatedAt:     ur.UpdatedAt,
	}
	if ur.BanReason.Valid {
		reason := ur.BanReason.String
		u.BanReason = &reason
	}
	if ur.BanExpires.Valid {
		exp := ur.BanExpires.Time
		u.BanExpires = &exp
	}
	return u
}

// isUniqueViolation recognizes duplicate-key errors from both drivers.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
			liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func nullTime(p *time.Time) sql.NullTime {
	if p == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: p.UTC(), Valid: true}
}
