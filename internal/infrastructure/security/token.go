package security

import (
	"crypto/rand"
	"encoding/base64"

	"github.com/baechuer/newslink/internal/domain"
)

// SessionTokenBytes gives 256 bits of entropy.
const SessionTokenBytes = 32

// NewOpaqueToken returns bytesLen random bytes as unpadded URL-safe base64.
func NewOpaqueToken(bytesLen int) (string, error) {
	if bytesLen <= 0 {
		bytesLen = SessionTokenBytes
	}
	b := make([]byte, bytesLen)
	if _, err := rand.Read(b); err != nil {
		return "", domain.ErrRandomFailed(err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
