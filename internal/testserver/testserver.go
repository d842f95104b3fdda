// Package testserver boots the full HTTP stack on SQLite and in-memory
// sessions for client-side tests.
package testserver

import (
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/baechuer/newslink/internal/bootstrap"
	"github.com/baechuer/newslink/internal/config"
	"github.com/baechuer/newslink/internal/transport/http/router"
)

const (
	AdminEmail    = "admin@newslink.test"
	AdminPassword = "admin-password-123"
	WebOrigin     = "https://web.newslink.test"
)

// Start returns a running server with a seeded admin. It is closed when the
// test ends.
func Start(t testing.TB) *httptest.Server {
	t.Helper()

	cfg := &config.Config{
		Env:              "dev",
		HTTPReadTimeout:  5 * time.Second,
		HTTPWriteTimeout: 5 * time.Second,
		HTTPIdleTimeout:  5 * time.Second,
		DBDriver:         "sqlite",
		DBURL:            filepath.Join(t.TempDir(), "newslink.db"),
		DBMigrate:        true,
		AuthSecret:       strings.Repeat("k", 32),
		AuthIssuer:       "newslink-test",
		SessionTTL:       time.Hour,
		BcryptCost:       4,
		TrustedOrigins:   config.ParseOrigins(WebOrigin),
		AdminEmail:       AdminEmail,
		AdminPassword:    AdminPassword,
		AdminName:        "Admin",
	}

	srv, cleanup, err := bootstrap.NewServerWithDeps(bootstrap.Deps{
		LoadConfig: func() (*config.Config, error) { return cfg, nil },
		NewDB:      config.NewDB,
		NewRouter:  router.New,
	})
	if err != nil {
		t.Fatalf("boot server: %v", err)
	}

	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(func() {
		ts.Close()
		cleanup()
	})
	return ts
}
