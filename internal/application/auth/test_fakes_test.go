package auth

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/baechuer/newslink/internal/domain"
)

type auditEntry struct {
	action string
	fields map[string]string
}

type auditLog struct {
	mu      sync.Mutex
	entries []auditEntry
}

func (a *auditLog) record(action string, fields map[string]string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, auditEntry{action: action, fields: fields})
}

func (a *auditLog) last(t *testing.T, action string) auditEntry {
	t.Helper()
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := len(a.entries) - 1; i >= 0; i-- {
		if a.entries[i].action == action {
			return a.entries[i]
		}
	}
	t.Fatalf("no audit entry for %q (have %d entries)", action, len(a.entries))
	return auditEntry{}
}

func requireAuditField(t *testing.T, e auditEntry, key, want string) {
	t.Helper()
	if got := e.fields[key]; got != want {
		t.Fatalf("audit %s: expected %s=%q, got %q (fields=%v)", e.action, key, want, got, e.fields)
	}
}

/*
Fakes for ports
*/

type fakeUserRepo struct {
	mu sync.Mutex

	byID map[string]domain.User

	getByIDErr     error
	getByEmailErr  error
	createErr      error
	listErr        error
	setRoleErr     error
	setBanErr      error
	countByRoleErr error

	getByIDCalls int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byID: map[string]domain.User{}}
}

func (f *fakeUserRepo) put(u domain.User) domain.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u.Role == "" {
		u.Role = domain.RoleUser
	}
	u.Email = domain.NormalizeEmail(u.Email)
	f.byID[u.ID] = u
	return u
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getByEmailErr != nil {
		return domain.User{}, f.getByEmailErr
	}
	for _, u := range f.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrUserNotFound()
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getByIDCalls++
	if f.getByIDErr != nil {
		return domain.User{}, f.getByIDErr
	}
	u, ok := f.byID[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound()
	}
	return u, nil
}

func (f *fakeUserRepo) Create(ctx context.Context, u domain.User) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return domain.User{}, f.createErr
	}
	for _, existing := range f.byID {
		if existing.Email == u.Email {
			return domain.User{}, domain.ErrEmailAlreadyExists()
		}
	}
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	f.byID[u.ID] = u
	return u, nil
}

func (f *fakeUserRepo) List(ctx context.Context, limit, offset int) ([]domain.User, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, 0, f.listErr
	}
	all := make([]domain.User, 0, len(f.byID))
	for _, u := range f.byID {
		all = append(all, u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	total := len(all)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (f *fakeUserRepo) SetRole(ctx context.Context, id string, role domain.Role) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setRoleErr != nil {
		return domain.User{}, f.setRoleErr
	}
	u, ok := f.byID[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound()
	}
	u.Role = role
	f.byID[id] = u
	return u, nil
}

func (f *fakeUserRepo) SetBan(ctx context.Context, id string, ban domain.Ban) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setBanErr != nil {
		return domain.User{}, f.setBanErr
	}
	u, ok := f.byID[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound()
	}
	u.Banned, u.BanReason, u.BanExpires = ban.Banned, ban.Reason, ban.Expires
	f.byID[id] = u
	return u, nil
}

func (f *fakeUserRepo) CountByRole(ctx context.Context, role domain.Role) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.countByRoleErr != nil {
		return 0, f.countByRoleErr
	}
	n := 0
	for _, u := range f.byID {
		if u.Role == role {
			n++
		}
	}
	return n, nil
}

type fakeHasher struct {
	hashErr error
}

func (h *fakeHasher) Hash(pw string) (string, error) {
	if h.hashErr != nil {
		return "", h.hashErr
	}
	return "HASH(" + pw + ")", nil
}

func (h *fakeHasher) Compare(hash, pw string) error {
	if hash != "HASH("+pw+")" {
		return errors.New("mismatch")
	}
	return nil
}

type fakeSessionStore struct {
	mu       sync.Mutex
	n        int
	sessions map[string]SessionRecord

	createErr    error
	getErr       error
	revokeAllErr error

	revokedAll []string
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: map[string]SessionRecord{}}
}

func (f *fakeSessionStore) Create(ctx context.Context, userID string, ttl time.Duration) (SessionRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return SessionRecord{}, f.createErr
	}
	f.n++
	rec := SessionRecord{
		Token:     "tok-" + userID + "-" + strconv.Itoa(f.n),
		UserID:    userID,
		ExpiresAt: time.Now().Add(ttl),
	}
	f.sessions[rec.Token] = rec
	return rec, nil
}

func (f *fakeSessionStore) Get(ctx context.Context, token string) (SessionRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return SessionRecord{}, f.getErr
	}
	rec, ok := f.sessions[token]
	if !ok {
		return SessionRecord{}, domain.ErrSessionInvalid()
	}
	return rec, nil
}

func (f *fakeSessionStore) Revoke(ctx context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, token)
	return nil
}

func (f *fakeSessionStore) RevokeAll(ctx context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revokedAll = append(f.revokedAll, userID)
	if f.revokeAllErr != nil {
		return f.revokeAllErr
	}
	for tok, rec := range f.sessions {
		if rec.UserID == userID {
			delete(f.sessions, tok)
		}
	}
	return nil
}

type fakePublisher struct {
	mu     sync.Mutex
	err    error
	events []UserEvent
}

func (p *fakePublisher) PublishUserEvent(ctx context.Context, evt UserEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, evt)
	return nil
}

type testEnv struct {
	svc      *Service
	users    *fakeUserRepo
	hasher   *fakeHasher
	sessions *fakeSessionStore
	pub      *fakePublisher
	audits   *auditLog
	now      time.Time
}

func newSvcForTest(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		users:    newFakeUserRepo(),
		hasher:   &fakeHasher{},
		sessions: newFakeSessionStore(),
		pub:      &fakePublisher{},
		audits:   &auditLog{},
		now:      time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	env.svc = NewService(env.users, env.hasher, env.sessions, env.pub, Config{SessionTTL: time.Hour}).
		WithAudit(env.audits.record).
		WithClock(func() time.Time { return env.now })
	return env
}

func requireDomainCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error code=%q, got nil", code)
	}
	if !domain.Is(err, code) {
		t.Fatalf("expected code=%q, got err=%v", code, err)
	}
}

func admin(id string) domain.User {
	return domain.User{ID: id, Email: id + "@example.com", Role: domain.RoleAdmin}
}
