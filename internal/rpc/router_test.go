package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baechuer/newslink/internal/domain"
	appCtx "github.com/baechuer/newslink/internal/pkg/context"
)

type createIn struct {
	Text string `json:"text" validate:"min=1"`
}

type toggleIn struct {
	ID        int64 `json:"id" validate:"required"`
	Completed *bool `json:"completed" validate:"required"`
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Meta    map[string]string `json:"meta"`
	} `json:"error"`
}

type harness struct {
	rt    *Router
	calls map[string]int
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{calls: map[string]int{}}

	rt, err := New(
		Public("ping", func(ctx context.Context, _ Empty) (string, error) {
			h.calls["ping"]++
			return "pong", nil
		}),
		Protected("todo/create", func(ctx context.Context, s domain.Session, in createIn) (map[string]string, error) {
			h.calls["todo/create"]++
			return map[string]string{"text": in.Text, "owner": s.User.ID}, nil
		}),
		Query(Protected("todo/find", func(ctx context.Context, s domain.Session, in createIn) (map[string]string, error) {
			h.calls["todo/find"]++
			return map[string]string{"text": in.Text, "owner": s.User.ID}, nil
		})),
		Protected("todo/toggle", func(ctx context.Context, s domain.Session, in toggleIn) (bool, error) {
			h.calls["todo/toggle"]++
			return *in.Completed, nil
		}),
		Admin("admin/whoami", func(ctx context.Context, s domain.Session, _ Empty) (string, error) {
			h.calls["admin/whoami"]++
			return s.User.ID, nil
		}),
		Protected("boom", func(ctx context.Context, s domain.Session, _ Empty) (string, error) {
			return "", errors.New("kaboom")
		}),
	)
	require.NoError(t, err)
	h.rt = rt
	return h
}

func (h *harness) do(t *testing.T, req *http.Request, sess *domain.Session, sessErr error) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	if sess != nil || sessErr != nil {
		req = req.WithContext(appCtx.WithSession(req.Context(), sess, sessErr))
	}
	rr := httptest.NewRecorder()
	h.rt.ServeHTTP(rr, req)

	var env envelope
	if rr.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env), rr.Body.String())
	}
	return rr, env
}

func post(path, body string) *http.Request {
	return httptest.NewRequest(http.MethodPost, "/rpc/"+path, strings.NewReader(body))
}

func userSession(role domain.Role) *domain.Session {
	return &domain.Session{Token: "tok", User: domain.User{ID: "u-" + string(role), Role: role}}
}

func TestRouter_PublicCallWithEmptyBody(t *testing.T) {
	h := newHarness(t)

	rr, env := h.do(t, post("ping", ""), nil, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `"pong"`, string(env.Data))
	assert.Equal(t, 1, h.calls["ping"])
}

func TestRouter_UnknownProcedure(t *testing.T) {
	h := newHarness(t)

	rr, env := h.do(t, post("nope/missing", "{}"), nil, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "procedure_not_found", env.Error.Code)
}

func TestRouter_ProtectedRejectsBeforeDecoding(t *testing.T) {
	h := newHarness(t)

	// garbage input must not be looked at without a session
	rr, env := h.do(t, post("todo/create", "{not json"), nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "unauthenticated", env.Error.Code)
	assert.Zero(t, h.calls["todo/create"])
}

func TestRouter_SessionStoreFailureSurfaces(t *testing.T) {
	h := newHarness(t)

	rr, env := h.do(t, post("todo/create", `{"text":"x"}`), nil, domain.ErrSessionStoreUnavailable(errors.New("redis down")))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "session_store_unavailable", env.Error.Code)
	assert.Zero(t, h.calls["todo/create"])

	// public procedures do not care
	rr, _ = h.do(t, post("ping", ""), nil, domain.ErrSessionStoreUnavailable(errors.New("redis down")))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRouter_AdminClass(t *testing.T) {
	h := newHarness(t)

	rr, env := h.do(t, post("admin/whoami", ""), nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr, env = h.do(t, post("admin/whoami", ""), userSession(domain.RoleUser), nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "insufficient_role", env.Error.Code)
	assert.Zero(t, h.calls["admin/whoami"])

	rr, env = h.do(t, post("admin/whoami", ""), userSession(domain.RoleAdmin), nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `"u-admin"`, string(env.Data))
}

func TestRouter_ValidationMessages(t *testing.T) {
	h := newHarness(t)
	sess := userSession(domain.RoleUser)

	rr, env := h.do(t, post("todo/create", `{"text":""}`), sess, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "validation_error", env.Error.Code)
	assert.Equal(t, "text", env.Error.Meta["field"])
	assert.Equal(t, "text must be at least 1 character in length", env.Error.Message)

	rr, env = h.do(t, post("todo/toggle", `{"id":3}`), sess, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "completed", env.Error.Meta["field"])
	assert.Equal(t, "completed is a required field", env.Error.Message)
	assert.Zero(t, h.calls["todo/toggle"])
}

func TestRouter_InvalidJSONAfterAuth(t *testing.T) {
	h := newHarness(t)

	rr, env := h.do(t, post("todo/create", `{"text":"a"}{}`), userSession(domain.RoleUser), nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "invalid_json", env.Error.Code)
}

func TestRouter_GetWithQueryInputAndDottedPath(t *testing.T) {
	h := newHarness(t)

	q := url.Values{"input": {`{"text":"buy milk"}`}}
	req := httptest.NewRequest(http.MethodGet, "/rpc/todo.find?"+q.Encode(), nil)
	rr, env := h.do(t, req, userSession(domain.RoleUser), nil)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.JSONEq(t, `{"text":"buy milk","owner":"u-user"}`, string(env.Data))

	// queries still answer POST
	rr, _ = h.do(t, post("todo/find", `{"text":"x"}`), userSession(domain.RoleUser), nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRouter_GetOnMutationIsRefused(t *testing.T) {
	h := newHarness(t)

	q := url.Values{"input": {`{"text":"buy milk"}`}}
	req := httptest.NewRequest(http.MethodGet, "/rpc/todo/create?"+q.Encode(), nil)
	rr, env := h.do(t, req, userSession(domain.RoleUser), nil)

	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	assert.Equal(t, "POST", rr.Header().Get("Allow"))
	require.NotNil(t, env.Error)
	assert.Equal(t, "method_not_allowed", env.Error.Code)
	assert.Zero(t, h.calls["todo/create"])

	// unknown paths are still NotFound, whatever the method
	rr, _ = h.do(t, httptest.NewRequest(http.MethodGet, "/rpc/nope", nil), nil, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRouter_NonDomainErrorIsInternal(t *testing.T) {
	h := newHarness(t)

	rr, env := h.do(t, post("boom", ""), userSession(domain.RoleUser), nil)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "internal_error", env.Error.Code)
	assert.NotContains(t, rr.Body.String(), "kaboom")
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	h := newHarness(t)

	rr, _ := h.do(t, httptest.NewRequest(http.MethodDelete, "/rpc/ping", nil), nil, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	assert.Equal(t, "GET, POST", rr.Header().Get("Allow"))
}

func TestRouter_CountsCalls(t *testing.T) {
	h := newHarness(t)

	before := testutil.ToFloat64(callsTotal.WithLabelValues("admin/whoami", "insufficient_role"))
	h.do(t, post("admin/whoami", ""), userSession(domain.RoleUser), nil)
	after := testutil.ToFloat64(callsTotal.WithLabelValues("admin/whoami", "insufficient_role"))
	assert.Equal(t, before+1, after)
}

func TestNew_RejectsBadRegistrations(t *testing.T) {
	ping := Public("ping", func(ctx context.Context, _ Empty) (string, error) { return "", nil })

	_, err := New(ping, ping)
	assert.Error(t, err)

	_, err = New(Public("", func(ctx context.Context, _ Empty) (string, error) { return "", nil }))
	assert.Error(t, err)

	rt, err := New(ping)
	require.NoError(t, err)
	assert.Equal(t, []string{"ping"}, rt.Procedures())
	assert.Equal(t, ClassPublic, ping.Class())
	assert.Equal(t, "ping", ping.Path())
	assert.Equal(t, KindMutation, ping.Kind())
	assert.Equal(t, KindQuery, Query(ping).Kind())
	assert.Equal(t, KindMutation, Mutation(Query(ping)).Kind())
	assert.Equal(t, "query", KindQuery.String())
}
