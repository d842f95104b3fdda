package security

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/baechuer/newslink/internal/domain"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestBearerSigner_RoundTrip(t *testing.T) {
	t.Parallel()

	s := NewBearerSigner(testSecret, "newslink")
	tok, err := s.Sign("sess-1", "u1", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("sign err: %v", err)
	}

	sid, err := s.Verify(tok)
	if err != nil {
		t.Fatalf("verify err: %v", err)
	}
	if sid != "sess-1" {
		t.Fatalf("expected sess-1, got %q", sid)
	}
}

func TestBearerSigner_RejectsBadTokens(t *testing.T) {
	t.Parallel()

	s := NewBearerSigner(testSecret, "newslink")

	expired, err := s.Sign("sess", "u1", time.Now().Add(-time.Minute))
	if err != nil {
		t.Fatalf("sign err: %v", err)
	}

	other := NewBearerSigner("ffffffffffffffffffffffffffffffff", "newslink")
	foreign, _ := other.Sign("sess", "u1", time.Now().Add(time.Hour))

	wrongIss := NewBearerSigner(testSecret, "someone-else")
	issTok, _ := wrongIss.Sign("sess", "u1", time.Now().Add(time.Hour))

	none, _ := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sid": "sess", "iss": "newslink", "exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)

	cases := map[string]string{
		"garbage":      "not-a-jwt",
		"expired":      expired,
		"wrong secret": foreign,
		"wrong issuer": issTok,
		"alg none":     none,
	}
	for name, tok := range cases {
		if _, err := s.Verify(tok); !domain.Is(err, "token_invalid") {
			t.Fatalf("%s: expected token_invalid, got %v", name, err)
		}
	}
}

func TestBearerSigner_EmptySession(t *testing.T) {
	t.Parallel()

	s := NewBearerSigner(testSecret, "newslink")
	if _, err := s.Sign(" ", "u1", time.Now().Add(time.Hour)); !domain.Is(err, "missing_field") {
		t.Fatalf("expected missing_field, got %v", err)
	}
}
