package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/baechuer/newslink/internal/application/auth"
	"github.com/baechuer/newslink/internal/domain"
	"github.com/baechuer/newslink/internal/infrastructure/security"
)

// SessionStore implements auth.SessionStore with per-user versioning:
//   - sess:<token>  -> "<uid>:<ver>:<expUnix>" with TTL
//   - sessver:<uid> -> <ver>
//
// RevokeAll increments sessver:<uid>; a session is valid only while its
// stored ver equals the current one.
type SessionStore struct {
	rdb *goredis.Client

	sessPrefix string
	verPrefix  string
	now        func() time.Time
}

func NewSessionStore(c *Client) *SessionStore {
	var rdb *goredis.Client
	if c != nil {
		rdb = c.rdb
	}
	return &SessionStore{
		rdb:        rdb,
		sessPrefix: "sess:",
		verPrefix:  "sessver:",
		now:        time.Now,
	}
}

var errNotConfigured = errors.New("redis session store not configured")

func (s *SessionStore) Create(ctx context.Context, userID string, ttl time.Duration) (auth.SessionRecord, error) {
	if strings.TrimSpace(userID) == "" {
		return auth.SessionRecord{}, domain.ErrMissingField("user_id")
	}
	if s.rdb == nil {
		return auth.SessionRecord{}, domain.ErrSessionStoreUnavailable(errNotConfigured)
	}
	if ttl <= 0 {
		return auth.SessionRecord{}, domain.ErrInvalidField("ttl", "ttl must be positive")
	}

	ver, err := s.currentVer(ctx, userID)
	if err != nil {
		return auth.SessionRecord{}, err
	}

	token, err := security.NewOpaqueToken(security.SessionTokenBytes)
	if err != nil {
		return auth.SessionRecord{}, err
	}

	// second precision so the stored value and the returned record agree
	exp := s.now().Add(ttl).Truncate(time.Second)
	val := fmt.Sprintf("%s:%d:%d", userID, ver, exp.Unix())
	if err := s.rdb.Set(ctx, s.sessPrefix+token, val, ttl).Err(); err != nil {
		return auth.SessionRecord{}, domain.ErrSessionStoreUnavailable(err)
	}

	return auth.SessionRecord{Token: token, UserID: userID, ExpiresAt: exp}, nil
}

func (s *SessionStore) Get(ctx context.Context, token string) (auth.SessionRecord, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return auth.SessionRecord{}, domain.ErrSessionInvalid()
	}
	if s.rdb == nil {
		return auth.SessionRecord{}, domain.ErrSessionStoreUnavailable(errNotConfigured)
	}

	val, err := s.rdb.Get(ctx, s.sessPrefix+token).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return auth.SessionRecord{}, domain.ErrSessionInvalid()
		}
		return auth.SessionRecord{}, domain.ErrSessionStoreUnavailable(err)
	}

	uid, ver, exp, err := parseSessionValue(val)
	if err != nil {
		return auth.SessionRecord{}, domain.ErrSessionInvalid()
	}
	if !s.now().Before(exp) {
		return auth.SessionRecord{}, domain.ErrSessionInvalid()
	}

	cur, err := s.currentVer(ctx, uid)
	if err != nil {
		return auth.SessionRecord{}, err
	}
	if ver != cur {
		return auth.SessionRecord{}, domain.ErrSessionInvalid()
	}

	return auth.SessionRecord{Token: token, UserID: uid, ExpiresAt: exp}, nil
}

func (s *SessionStore) Revoke(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}
	if s.rdb == nil {
		return domain.ErrSessionStoreUnavailable(errNotConfigured)
	}
	if err := s.rdb.Del(ctx, s.sessPrefix+token).Err(); err != nil {
		return domain.ErrSessionStoreUnavailable(err)
	}
	return nil
}

func (s *SessionStore) RevokeAll(ctx context.Context, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return domain.ErrMissingField("user_id")
	}
	if s.rdb == nil {
		return domain.ErrSessionStoreUnavailable(errNotConfigured)
	}
	if err := s.rdb.Incr(ctx, s.verPrefix+userID).Err(); err != nil {
		return domain.ErrSessionStoreUnavailable(err)
	}
	return nil
}

func (s *SessionStore) currentVer(ctx context.Context, userID string) (int64, error) {
	key := s.verPrefix + userID

	v, err := s.rdb.Get(ctx, key).Result()
	if err == nil {
		if n, perr := strconv.ParseInt(strings.TrimSpace(v), 10, 64); perr == nil {
			return n, nil
		}
	} else if !errors.Is(err, goredis.Nil) {
		return 0, domain.ErrSessionStoreUnavailable(err)
	}

	// SETNX keeps a concurrent RevokeAll from being overwritten.
	_ = s.rdb.SetNX(ctx, key, "0", 0).Err()
	return 0, nil
}

func parseSessionValue(v string) (uid string, ver int64, exp time.Time, err error) {
	parts := strings.Split(v, ":")
	if len(parts) != 3 {
		return "", 0, time.Time{}, fmt.Errorf("bad session value")
	}
	uid = strings.TrimSpace(parts[0])
	if uid == "" {
		return "", 0, time.Time{}, fmt.Errorf("empty uid")
	}
	if ver, err = strconv.ParseInt(parts[1], 10, 64); err != nil {
		return "", 0, time.Time{}, err
	}
	unix, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return "", 0, time.Time{}, err
	}
	return uid, ver, time.Unix(unix, 0), nil
}
