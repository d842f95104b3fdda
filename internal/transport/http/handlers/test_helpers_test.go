package http_handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/baechuer/newslink/internal/application/auth"
	"github.com/baechuer/newslink/internal/domain"
)

func mustJSONBody(t *testing.T, v any) io.Reader {
	t.Helper()

	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("json marshal: %v", err)
	}
	return bytes.NewReader(b)
}

// mustReadData decodes the {"data": ...} envelope into out.
func mustReadData(t *testing.T, r io.Reader, out any) {
	t.Helper()

	raw, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("decode envelope: %v; body=%s", err, raw)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		t.Fatalf("decode data: %v; body=%s", err, raw)
	}
}

func mustErrorCode(t *testing.T, r io.Reader) string {
	t.Helper()

	var env struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return env.Error.Code
}

func readCookie(res *http.Response, name string) *http.Cookie {
	for _, c := range res.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

type fakeAuth struct {
	sess domain.Session
	err  error

	signUpCalls  int
	signInCalls  int
	signOutCalls int
	gotSignUp    auth.SignUpInput
	gotEmail     string
	gotToken     string
}

func (f *fakeAuth) SignUp(ctx context.Context, in auth.SignUpInput) (domain.Session, error) {
	f.signUpCalls++
	f.gotSignUp = in
	return f.sess, f.err
}

func (f *fakeAuth) SignIn(ctx context.Context, email, password string) (domain.Session, error) {
	f.signInCalls++
	f.gotEmail = email
	return f.sess, f.err
}

func (f *fakeAuth) SignOut(ctx context.Context, token string) error {
	f.signOutCalls++
	f.gotToken = token
	return f.err
}

type fakePinger struct{ err error }

func (p fakePinger) PingContext(context.Context) error { return p.err }
