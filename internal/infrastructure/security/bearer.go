package security

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/baechuer/newslink/internal/domain"
)

// BearerSigner wraps a session token in a signed JWT for clients that cannot
// keep cookies. The JWT only proves the token came from us; whether the
// session is still alive is decided by the session store.
type BearerSigner struct {
	secret []byte
	issuer string
	now    func() time.Time
}

func NewBearerSigner(secret, issuer string) *BearerSigner {
	return &BearerSigner{
		secret: []byte(secret),
		issuer: issuer,
		now:    time.Now,
	}
}

type bearerClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

func (s *BearerSigner) Sign(sessionToken, userID string, expiresAt time.Time) (string, error) {
	if strings.TrimSpace(sessionToken) == "" {
		return "", domain.ErrMissingField("session_token")
	}
	now := s.now()
	claims := bearerClaims{
		SessionID: sessionToken,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", domain.ErrTokenSignFailed(err)
	}
	return signed, nil
}

// Verify returns the wrapped session token.
func (s *BearerSigner) Verify(token string) (string, error) {
	claims := &bearerClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid || claims.SessionID == "" {
		return "", domain.ErrTokenInvalid()
	}
	return claims.SessionID, nil
}
