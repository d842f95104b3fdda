package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baechuer/newslink/internal/client/surface"
	"github.com/baechuer/newslink/internal/testserver"
)

type cli struct {
	t       *testing.T
	server  string
	profile string
}

func newCLI(t *testing.T) *cli {
	ts := testserver.Start(t)
	return &cli{t: t, server: ts.URL, profile: filepath.Join(t.TempDir(), "profile.yaml")}
}

func (c *cli) run(args ...string) (string, string, error) {
	c.t.Helper()
	var stdout, stderr bytes.Buffer
	full := append([]string{"--profile", c.profile, "--server", c.server}, args...)
	err := run(context.Background(), full, &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func (c *cli) mustRun(args ...string) (string, string) {
	c.t.Helper()
	out, errOut, err := c.run(args...)
	require.NoError(c.t, err, "stderr: %s", errOut)
	return out, errOut
}

func TestCLI_Health(t *testing.T) {
	c := newCLI(t)
	out, _ := c.mustRun("health")
	assert.Contains(t, out, "OK")
}

func TestCLI_TodoWorkflowPersistsToken(t *testing.T) {
	c := newCLI(t)

	out, _ := c.mustRun("whoami")
	assert.Equal(t, "not signed in\n", out)

	_, errOut := c.mustRun("signup", "--email", "cli@example.com", "--password", "long-enough-pw")
	assert.Contains(t, errOut, "ok: Signed in as cli@example.com")

	prof, err := loadProfile(c.profile)
	require.NoError(t, err)
	assert.NotEmpty(t, prof.Token)
	assert.Equal(t, c.server, prof.Server)

	info, err := os.Stat(c.profile)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	out, _ = c.mustRun("whoami")
	assert.Contains(t, out, "cli@example.com")
	assert.Contains(t, out, "role=user")

	out, _ = c.mustRun("todos", "add", "buy", "milk")
	assert.Contains(t, out, "[ ]  buy milk")
	assert.Contains(t, out, "0/1 completed")

	id := strings.Fields(out)[0]
	out, _ = c.mustRun("todos", "toggle", id)
	assert.Contains(t, out, "[x]  buy milk")
	assert.Contains(t, out, "1/1 completed")

	out, _ = c.mustRun("todos", "toggle", id)
	assert.Contains(t, out, "0/1 completed")

	out, _ = c.mustRun("todos", "rm", id)
	assert.Equal(t, "0/0 completed\n", out)

	// blank text never reaches the server
	out, _ = c.mustRun("todos", "add", "  ")
	assert.Equal(t, "0/0 completed\n", out)

	_, errOut = c.mustRun("logout")
	assert.Contains(t, errOut, "ok: Signed out")

	prof, err = loadProfile(c.profile)
	require.NoError(t, err)
	assert.Empty(t, prof.Token)

	_, errOut, err = c.run("todos")
	assert.ErrorIs(t, err, surface.ErrLoginRequired)
	assert.Contains(t, errOut, "Please log in to access your dashboard.")
}

func TestCLI_UserAdministration(t *testing.T) {
	c := newCLI(t)

	c.mustRun("signup", "--email", "member@example.com", "--password", "long-enough-pw")
	_, errOut, err := c.run("users")
	assert.ErrorIs(t, err, surface.ErrForbidden)
	assert.Contains(t, errOut, "You do not have permission to access this page.")

	_, errOut = c.mustRun("login", "--email", testserver.AdminEmail, "--password", testserver.AdminPassword)
	assert.Contains(t, errOut, "Signed in as "+testserver.AdminEmail)

	out, _ := c.mustRun("users", "list")
	assert.Contains(t, out, "member@example.com")
	assert.Contains(t, out, "2 of 2 users")

	line := lineFor(t, out, "member@example.com")
	memberID := strings.Fields(line)[0]
	assert.Contains(t, line, " user ")

	out, errOut = c.mustRun("users", "role", memberID, "admin")
	assert.Contains(t, errOut, "ok: User role updated")
	assert.Contains(t, lineFor(t, out, "member@example.com"), " admin ")

	out, errOut = c.mustRun("users", "ban", memberID)
	assert.Contains(t, errOut, "ok: User banned")
	assert.Contains(t, out, "yes: Banned by admin")

	out, errOut = c.mustRun("users", "unban", memberID)
	assert.Contains(t, errOut, "ok: User unbanned")
	assert.NotContains(t, out, "Banned by admin")

	_, _, err = c.run("users", "role", memberID, "root")
	assert.Error(t, err)
}

func lineFor(t *testing.T, out, needle string) string {
	t.Helper()
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, needle) {
			return line
		}
	}
	t.Fatalf("%q not found in:\n%s", needle, out)
	return ""
}

func TestCLI_UsageErrors(t *testing.T) {
	t.Setenv("NEWSLINK_PASSWORD", "")
	c := newCLI(t)

	_, errOut, err := c.run()
	assert.ErrorIs(t, err, errUsage)
	assert.Contains(t, errOut, "Usage: newslink")

	_, _, err = c.run("frobnicate")
	assert.ErrorIs(t, err, errUsage)

	_, _, err = c.run("login", "--email", "x@example.com")
	assert.ErrorIs(t, err, errUsage)
}

func TestCLI_BadCredentials(t *testing.T) {
	c := newCLI(t)

	_, _, err := c.run("login", "--email", "nobody@example.com", "--password", "wrong-password")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid_credentials")
}

func TestProfile_ServerChangeDropsToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "profile.yaml")

	p, err := loadProfile(path)
	require.NoError(t, err)
	assert.Equal(t, defaultServer, p.Server)

	require.NoError(t, saveProfile(path, Profile{Server: "http://a.example", Token: "tok", Email: "a@example.com"}))

	var stdout, stderr bytes.Buffer
	// unreachable server; only the profile rewrite matters here
	_ = run(context.Background(), []string{"--profile", path, "--server", "http://127.0.0.1:1", "whoami"}, &stdout, &stderr)

	p, err = loadProfile(path)
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:1", p.Server)
	assert.Empty(t, p.Token)
	assert.Empty(t, p.Email)
}
