package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/baechuer/newslink/internal/application/auth"
	"github.com/baechuer/newslink/internal/domain"
	"github.com/baechuer/newslink/internal/infrastructure/security"
)

type sessionEntry struct {
	userID    string
	expiresAt time.Time
}

// SessionStore keeps sessions in process memory. Used when Redis is not
// configured or not reachable at startup.
type SessionStore struct {
	mu  sync.RWMutex
	now func() time.Time

	// token -> entry
	byToken map[string]sessionEntry
	// userID -> set(token)
	byUser map[string]map[string]struct{}
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		now:     time.Now,
		byToken: make(map[string]sessionEntry),
		byUser:  make(map[string]map[string]struct{}),
	}
}

func (s *SessionStore) Create(ctx context.Context, userID string, ttl time.Duration) (auth.SessionRecord, error) {
	if strings.TrimSpace(userID) == "" {
		return auth.SessionRecord{}, domain.ErrMissingField("user_id")
	}
	tok, err := security.NewOpaqueToken(security.SessionTokenBytes)
	if err != nil {
		return auth.SessionRecord{}, err
	}
	exp := s.now().Add(ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.byToken[tok] = sessionEntry{userID: userID, expiresAt: exp}
	if s.byUser[userID] == nil {
		s.byUser[userID] = make(map[string]struct{})
	}
	s.byUser[userID][tok] = struct{}{}

	return auth.SessionRecord{Token: tok, UserID: userID, ExpiresAt: exp}, nil
}

func (s *SessionStore) Get(ctx context.Context, token string) (auth.SessionRecord, error) {
	s.mu.RLock()
	e, ok := s.byToken[token]
	s.mu.RUnlock()

	if !ok {
		return auth.SessionRecord{}, domain.ErrSessionInvalid()
	}
	if !s.now().Before(e.expiresAt) {
		_ = s.Revoke(ctx, token)
		return auth.SessionRecord{}, domain.ErrSessionInvalid()
	}
	return auth.SessionRecord{Token: token, UserID: e.userID, ExpiresAt: e.expiresAt}, nil
}

func (s *SessionStore) Revoke(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.byToken[token]
	if !ok {
		return nil
	}
	delete(s.byToken, token)
	if set := s.byUser[e.userID]; set != nil {
		delete(set, token)
		if len(set) == 0 {
			delete(s.byUser, e.userID)
		}
	}
	return nil
}

func (s *SessionStore) RevokeAll(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for tok := range s.byUser[userID] {
		delete(s.byToken, tok)
	}
	delete(s.byUser, userID)
	return nil
}
