package sqldb

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/baechuer/newslink/internal/config"
	"github.com/baechuer/newslink/internal/domain"
)

func openSQLite(t *testing.T) *sql.DB {
	t.Helper()

	db, err := config.NewDB("sqlite", filepath.Join(t.TempDir(), "test.db"), false)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := Migrate(db, "sqlite"); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func mustCreateUser(t *testing.T, repo *UserRepo, email string, role domain.Role) domain.User {
	t.Helper()

	u, err := repo.Create(context.Background(), domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         "Test " + email,
		PasswordHash: "hash",
		Role:         role,
	})
	if err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return u
}

func requireDomainCode(t *testing.T, err error, code string) {
	t.Helper()

	if err == nil {
		t.Fatalf("expected error code %q, got nil", code)
	}
	if got := domain.CodeOf(err); got != code {
		t.Fatalf("expected code %q, got %q (err=%v)", code, got, err)
	}
}
