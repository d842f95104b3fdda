package auth

import (
	"time"
)

const defaultSessionTTL = 7 * 24 * time.Hour

type Service struct {
	users    UserRepo
	hasher   PasswordHasher
	sessions SessionStore
	pub      EventPublisher

	sessionTTL time.Duration
	now        func() time.Time
	audit      func(action string, fields map[string]string)
}

type Config struct {
	SessionTTL time.Duration
}

func NewService(
	users UserRepo,
	hasher PasswordHasher,
	sessions SessionStore,
	pub EventPublisher,
	cfg Config,
) *Service {
	ttl := cfg.SessionTTL
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &Service{
		users:      users,
		hasher:     hasher,
		sessions:   sessions,
		pub:        pub,
		sessionTTL: ttl,
		now:        time.Now,
		audit:      func(string, map[string]string) {},
	}
}

func (s *Service) WithAudit(fn func(action string, fields map[string]string)) *Service {
	if fn != nil {
		s.audit = fn
	}
	return s
}

func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

func (s *Service) SessionTTL() time.Duration { return s.sessionTTL }
