package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baechuer/newslink/internal/application/auth"
	"github.com/baechuer/newslink/internal/application/todo"
	"github.com/baechuer/newslink/internal/config"
	"github.com/baechuer/newslink/internal/domain"
	"github.com/baechuer/newslink/internal/infrastructure/db/sqldb"
	"github.com/baechuer/newslink/internal/infrastructure/memory"
	"github.com/baechuer/newslink/internal/infrastructure/security"
	appCtx "github.com/baechuer/newslink/internal/pkg/context"
	"github.com/baechuer/newslink/internal/rpc"
)

// countingTodos records whether any todo operation reached the store layer.
type countingTodos struct {
	TodoService
	calls int
}

func (c *countingTodos) List(ctx context.Context, userID string) ([]domain.Todo, error) {
	c.calls++
	return c.TodoService.List(ctx, userID)
}

func (c *countingTodos) Create(ctx context.Context, userID, text string) (domain.Todo, error) {
	c.calls++
	return c.TodoService.Create(ctx, userID, text)
}

func (c *countingTodos) Toggle(ctx context.Context, userID string, id int64, completed bool) (domain.MutationResult, error) {
	c.calls++
	return c.TodoService.Toggle(ctx, userID, id, completed)
}

func (c *countingTodos) Delete(ctx context.Context, userID string, id int64) (domain.MutationResult, error) {
	c.calls++
	return c.TodoService.Delete(ctx, userID, id)
}

type testApp struct {
	auth  *auth.Service
	todos *countingTodos
	rt    *rpc.Router
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	db, err := config.NewDB("sqlite", filepath.Join(t.TempDir(), "api.db"), false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, sqldb.Migrate(db, "sqlite"))

	authSvc := auth.NewService(
		sqldb.NewUserRepo(db),
		security.NewBcryptHasher(4),
		memory.NewSessionStore(),
		memory.NewNoopPublisher(),
		auth.Config{},
	)
	todos := &countingTodos{TodoService: todo.NewService(sqldb.NewTodoRepo(db))}

	rt, err := NewRouter(Deps{Todos: todos, Admin: authSvc})
	require.NoError(t, err)

	return &testApp{auth: authSvc, todos: todos, rt: rt}
}

type result struct {
	status int
	data   json.RawMessage
	code   string
}

// call resolves the token the way the session middleware does and POSTs to path.
func (a *testApp) call(t *testing.T, token, path string, input any) result {
	t.Helper()
	return a.send(t, http.MethodPost, token, path, input)
}

// get sends input in the query string, the way a browser link or image would.
func (a *testApp) get(t *testing.T, token, path string, input any) result {
	t.Helper()
	return a.send(t, http.MethodGet, token, path, input)
}

func (a *testApp) send(t *testing.T, method, token, path string, input any) result {
	t.Helper()

	var body []byte
	if input != nil {
		b, err := json.Marshal(input)
		require.NoError(t, err)
		body = b
	}

	var req *http.Request
	if method == http.MethodGet {
		target := "/rpc/" + path
		if body != nil {
			target += "?" + url.Values{"input": {string(body)}}.Encode()
		}
		req = httptest.NewRequest(http.MethodGet, target, nil)
	} else {
		req = httptest.NewRequest(method, "/rpc/"+path, bytes.NewReader(body))
	}
	sess, err := a.auth.GetSession(req.Context(), token)
	req = req.WithContext(appCtx.WithSession(req.Context(), sess, err))

	rr := httptest.NewRecorder()
	a.rt.ServeHTTP(rr, req)

	var env struct {
		Data  json.RawMessage `json:"data"`
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env), rr.Body.String())
	return result{status: rr.Code, data: env.Data, code: env.Error.Code}
}

func (a *testApp) signUp(t *testing.T, email string) domain.Session {
	t.Helper()
	sess, err := a.auth.SignUp(context.Background(), auth.SignUpInput{
		Email: email, Password: "correct-horse", Name: "Test",
	})
	require.NoError(t, err)
	return sess
}

func (a *testApp) signInAdmin(t *testing.T) domain.Session {
	t.Helper()
	ctx := context.Background()
	_, err := a.auth.SeedAdmin(ctx, "admin@example.com", "admin-password", "Admin")
	require.NoError(t, err)
	sess, err := a.auth.SignIn(ctx, "admin@example.com", "admin-password")
	require.NoError(t, err)
	return sess
}

func decode[T any](t *testing.T, r result) T {
	t.Helper()
	require.Equal(t, http.StatusOK, r.status, "code=%s", r.code)
	var v T
	require.NoError(t, json.Unmarshal(r.data, &v))
	return v
}

func TestHealthCheckAndPrivateData(t *testing.T) {
	app := newTestApp(t)

	assert.Equal(t, "OK", decode[string](t, app.call(t, "", "healthCheck", nil)))

	r := app.call(t, "", "privateData", nil)
	assert.Equal(t, http.StatusUnauthorized, r.status)
	assert.Equal(t, "unauthenticated", r.code)

	s := app.signUp(t, "p@example.com")
	pd := decode[PrivateData](t, app.call(t, s.Token, "privateData", nil))
	assert.Equal(t, "This is private", pd.Message)
	assert.Equal(t, "p@example.com", pd.User.Email)
}

func TestTodos_OwnershipIsolation(t *testing.T) {
	app := newTestApp(t)
	u1 := app.signUp(t, "u1@example.com")
	u2 := app.signUp(t, "u2@example.com")

	created := decode[domain.Todo](t, app.call(t, u1.Token, "todo/create", map[string]any{"text": "secret"}))

	assert.Empty(t, decode[[]domain.Todo](t, app.call(t, u2.Token, "todo/getAll", nil)))

	res := decode[domain.MutationResult](t, app.call(t, u2.Token, "todo/toggle", map[string]any{"id": created.ID, "completed": true}))
	assert.Equal(t, int64(0), res.RowsAffected)

	res = decode[domain.MutationResult](t, app.call(t, u2.Token, "todo/delete", map[string]any{"id": created.ID}))
	assert.Equal(t, int64(0), res.RowsAffected)

	mine := decode[[]domain.Todo](t, app.call(t, u1.Token, "todo/getAll", nil))
	require.Len(t, mine, 1)
	assert.False(t, mine[0].Completed)
}

func TestTodos_CreateValidation(t *testing.T) {
	app := newTestApp(t)
	s := app.signUp(t, "c@example.com")

	r := app.call(t, s.Token, "todo/create", map[string]any{"text": ""})
	assert.Equal(t, http.StatusBadRequest, r.status)
	assert.Equal(t, "validation_error", r.code)

	r = app.call(t, s.Token, "todo/create", nil)
	assert.Equal(t, "validation_error", r.code)

	td := decode[domain.Todo](t, app.call(t, s.Token, "todo/create", map[string]any{"text": "buy milk"}))
	assert.Equal(t, "buy milk", td.Text)
	assert.False(t, td.Completed)
	assert.Equal(t, s.User.ID, td.UserID)
}

func TestTodos_ToggleRoundTripAndDelete(t *testing.T) {
	app := newTestApp(t)
	s := app.signUp(t, "t@example.com")

	td := decode[domain.Todo](t, app.call(t, s.Token, "todo/create", map[string]any{"text": "walk dog"}))

	for _, want := range []bool{true, false} {
		res := decode[domain.MutationResult](t, app.call(t, s.Token, "todo/toggle", map[string]any{"id": td.ID, "completed": want}))
		assert.Equal(t, int64(1), res.RowsAffected)

		list := decode[[]domain.Todo](t, app.call(t, s.Token, "todo/getAll", nil))
		require.Len(t, list, 1)
		assert.Equal(t, want, list[0].Completed)
	}

	res := decode[domain.MutationResult](t, app.call(t, s.Token, "todo/delete", map[string]any{"id": td.ID}))
	assert.Equal(t, int64(1), res.RowsAffected)
	assert.Empty(t, decode[[]domain.Todo](t, app.call(t, s.Token, "todo/getAll", nil)))

	res = decode[domain.MutationResult](t, app.call(t, s.Token, "todo/delete", map[string]any{"id": td.ID}))
	assert.Equal(t, int64(0), res.RowsAffected)
}

func TestTodos_ZeroIDIsSilentNoOp(t *testing.T) {
	app := newTestApp(t)
	s := app.signUp(t, "zero@example.com")

	decode[domain.Todo](t, app.call(t, s.Token, "todo/create", map[string]any{"text": "keep"}))

	res := decode[domain.MutationResult](t, app.call(t, s.Token, "todo/toggle", map[string]any{"id": 0, "completed": true}))
	assert.Equal(t, int64(0), res.RowsAffected)

	res = decode[domain.MutationResult](t, app.call(t, s.Token, "todo/delete", map[string]any{"id": 0}))
	assert.Equal(t, int64(0), res.RowsAffected)

	// a missing id is still malformed input
	r := app.call(t, s.Token, "todo/delete", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, r.status)
	assert.Equal(t, "validation_error", r.code)

	list := decode[[]domain.Todo](t, app.call(t, s.Token, "todo/getAll", nil))
	require.Len(t, list, 1)
	assert.False(t, list[0].Completed)
}

func TestMutations_RefuseGet(t *testing.T) {
	app := newTestApp(t)
	admin := app.signInAdmin(t)
	s := app.signUp(t, "victim@example.com")

	td := decode[domain.Todo](t, app.call(t, s.Token, "todo/create", map[string]any{"text": "precious"}))
	before := app.todos.calls

	for _, tc := range []struct {
		token string
		path  string
		input any
	}{
		{s.Token, "todo/create", map[string]any{"text": "injected"}},
		{s.Token, "todo/toggle", map[string]any{"id": td.ID, "completed": true}},
		{s.Token, "todo/delete", map[string]any{"id": td.ID}},
		{admin.Token, "admin/setRole", map[string]any{"userId": s.User.ID, "role": "admin"}},
		{admin.Token, "admin/banUser", map[string]any{"userId": s.User.ID}},
		{admin.Token, "admin/unbanUser", map[string]any{"userId": s.User.ID}},
	} {
		r := app.get(t, tc.token, tc.path, tc.input)
		assert.Equal(t, http.StatusMethodNotAllowed, r.status, tc.path)
		assert.Equal(t, "method_not_allowed", r.code, tc.path)
	}
	assert.Equal(t, before, app.todos.calls)

	list := decode[[]domain.Todo](t, app.get(t, s.Token, "todo/getAll", nil))
	require.Len(t, list, 1)
	assert.Equal(t, "precious", list[0].Text)
	assert.False(t, list[0].Completed)

	page := decode[auth.UserPage](t, app.get(t, admin.Token, "admin/listUsers", map[string]any{"limit": 10}))
	for _, u := range page.Users {
		if u.ID == s.User.ID {
			assert.Equal(t, domain.RoleUser, u.Role)
			assert.False(t, u.Banned)
		}
	}

	assert.Equal(t, "OK", decode[string](t, app.get(t, "", "healthCheck", nil)))
}

func TestTodos_UnauthenticatedNeverReachesStore(t *testing.T) {
	app := newTestApp(t)

	for _, path := range []string{"todo/getAll", "todo/create", "todo/toggle", "todo/delete"} {
		r := app.call(t, "", path, map[string]any{"text": "x", "id": 1, "completed": true})
		assert.Equal(t, http.StatusUnauthorized, r.status, path)
		assert.Equal(t, "unauthenticated", r.code, path)

		r = app.call(t, "forged-token", path, map[string]any{"text": "x", "id": 1, "completed": true})
		assert.Equal(t, http.StatusUnauthorized, r.status, path)
	}
	assert.Zero(t, app.todos.calls)
}

func TestAdmin_NonAdminForbidden(t *testing.T) {
	app := newTestApp(t)
	s := app.signUp(t, "plain@example.com")

	cases := map[string]any{
		"admin/listUsers": nil,
		"admin/setRole":   map[string]any{"userId": s.User.ID, "role": "admin"},
		"admin/banUser":   map[string]any{"userId": s.User.ID},
		"admin/unbanUser": map[string]any{"userId": s.User.ID},
	}
	for path, in := range cases {
		r := app.call(t, s.Token, path, in)
		assert.Equal(t, http.StatusForbidden, r.status, path)
		assert.Equal(t, "insufficient_role", r.code, path)

		r = app.call(t, "", path, in)
		assert.Equal(t, http.StatusUnauthorized, r.status, path)
	}
}

func TestAdmin_SetRoleVisibleInListUsers(t *testing.T) {
	app := newTestApp(t)
	adm := app.signInAdmin(t)
	u := app.signUp(t, "promote@example.com")

	updated := decode[domain.User](t, app.call(t, adm.Token, "admin/setRole", map[string]any{"userId": u.User.ID, "role": "admin"}))
	assert.Equal(t, domain.RoleAdmin, updated.Role)

	page := decode[auth.UserPage](t, app.call(t, adm.Token, "admin/listUsers", map[string]any{}))
	assert.Equal(t, 2, page.Total)
	assert.Equal(t, auth.DefaultListLimit, page.Limit)

	var found bool
	for _, usr := range page.Users {
		if usr.ID == u.User.ID {
			found = true
			assert.Equal(t, domain.RoleAdmin, usr.Role)
		}
	}
	assert.True(t, found)

	// the promoted user can now use admin procedures
	r := app.call(t, u.Token, "admin/listUsers", nil)
	assert.Equal(t, http.StatusOK, r.status)
}

func TestAdmin_SetRoleRejectsUnknownRole(t *testing.T) {
	app := newTestApp(t)
	adm := app.signInAdmin(t)
	u := app.signUp(t, "r@example.com")

	r := app.call(t, adm.Token, "admin/setRole", map[string]any{"userId": u.User.ID, "role": "superuser"})
	assert.Equal(t, http.StatusBadRequest, r.status)
	assert.Equal(t, "invalid_role", r.code)

	r = app.call(t, adm.Token, "admin/setRole", map[string]any{"userId": "missing", "role": "user"})
	assert.Equal(t, http.StatusNotFound, r.status)
	assert.Equal(t, "user_not_found", r.code)
}

func TestAdmin_BanInvalidatesExistingSession(t *testing.T) {
	app := newTestApp(t)
	adm := app.signInAdmin(t)
	u := app.signUp(t, "ban@example.com")

	require.Equal(t, http.StatusOK, app.call(t, u.Token, "todo/getAll", nil).status)

	banned := decode[domain.User](t, app.call(t, adm.Token, "admin/banUser", map[string]any{"userId": u.User.ID, "banExpiresIn": 3600}))
	assert.True(t, banned.Banned)
	require.NotNil(t, banned.BanReason)
	assert.Equal(t, "No reason", *banned.BanReason)
	assert.NotNil(t, banned.BanExpires)

	r := app.call(t, u.Token, "todo/getAll", nil)
	assert.Equal(t, http.StatusUnauthorized, r.status)

	_, err := app.auth.SignIn(context.Background(), "ban@example.com", "correct-horse")
	assert.True(t, domain.Is(err, "user_banned"), "got %v", err)

	unbanned := decode[domain.User](t, app.call(t, adm.Token, "admin/unbanUser", map[string]any{"userId": u.User.ID}))
	assert.False(t, unbanned.Banned)

	fresh, err := app.auth.SignIn(context.Background(), "ban@example.com", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, app.call(t, fresh.Token, "todo/getAll", nil).status)
}

func TestAdmin_CannotBanSelf(t *testing.T) {
	app := newTestApp(t)
	adm := app.signInAdmin(t)

	r := app.call(t, adm.Token, "admin/banUser", map[string]any{"userId": adm.User.ID, "banReason": "oops"})
	assert.Equal(t, http.StatusForbidden, r.status)
	assert.Equal(t, "cannot_ban_self", r.code)
}
