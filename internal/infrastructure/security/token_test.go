package security

import (
	"encoding/base64"
	"testing"
)

func TestNewOpaqueToken(t *testing.T) {
	t.Parallel()

	a, err := NewOpaqueToken(SessionTokenBytes)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	b, err := NewOpaqueToken(0)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if a == b {
		t.Fatalf("tokens should differ")
	}

	raw, err := base64.RawURLEncoding.DecodeString(a)
	if err != nil {
		t.Fatalf("token is not raw url base64: %v", err)
	}
	if len(raw) != SessionTokenBytes {
		t.Fatalf("expected %d bytes, got %d", SessionTokenBytes, len(raw))
	}
}
