// Package query caches RPC reads per client instance and invalidates them
// after mutations.
package query

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/singleflight"

	"github.com/baechuer/newslink/internal/client/rpcclient"
)

const (
	DefaultRetries    = 3
	defaultRetryDelay = 200 * time.Millisecond
	defaultMaxDelay   = 5 * time.Second
)

type Config struct {
	// StaleTime is how long fetched data is served without refetching.
	// Zero refetches on every Fetch.
	StaleTime time.Duration
	// Retries bounds retries of transient failures. Zero means
	// DefaultRetries; negative disables retrying.
	Retries    int
	RetryDelay time.Duration
	// Retryable defaults to rpcclient.IsTransient.
	Retryable func(error) bool
	// OnQueryError is called once per failed fetch, after retries.
	OnQueryError func(key string, err error)
}

type entry struct {
	data      any
	fetchedAt time.Time
	stale     bool
}

// Client is an explicitly owned query cache. The zero value is not usable;
// call New.
type Client struct {
	cfg   Config
	now   func() time.Time
	group singleflight.Group

	mu      sync.Mutex
	entries map[string]*entry
	// gens is bumped by Invalidate; a fetch that began under an older
	// generation lands in the cache already stale.
	gens   map[string]uint64
	timers map[*time.Timer]struct{}
	closed bool
}

func New(cfg Config) *Client {
	if cfg.Retries == 0 {
		cfg.Retries = DefaultRetries
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = defaultRetryDelay
	}
	if cfg.Retryable == nil {
		cfg.Retryable = rpcclient.IsTransient
	}
	return &Client{
		cfg:     cfg,
		now:     time.Now,
		entries: map[string]*entry{},
		gens:    map[string]uint64{},
		timers:  map[*time.Timer]struct{}{},
	}
}

// Fetch returns the cached value for key while it is fresh and otherwise
// calls fn. Concurrent fetches of one key share a single call, made with the
// first caller's context. A failed fetch keeps the previous value in place.
func Fetch[T any](ctx context.Context, c *Client, key string, fn func(context.Context) (T, error)) (T, error) {
	if v, ok := c.fresh(key); ok {
		if t, ok := v.(T); ok {
			return t, nil
		}
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		// a call that finished while we waited for the group may have filled it
		if v, ok := c.fresh(key); ok {
			if _, ok := v.(T); ok {
				return v, nil
			}
		}
		gen := c.generation(key)
		out, err := retry(ctx, c.cfg, fn)
		if err != nil {
			if c.cfg.OnQueryError != nil {
				c.cfg.OnQueryError(key, err)
			}
			return nil, err
		}
		c.store(key, out, gen)
		return out, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	t, _ := v.(T)
	return t, nil
}

// Peek returns whatever is cached for key, stale or not.
func Peek[T any](c *Client, key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	e, ok := c.entries[key]
	if !ok {
		return zero, false
	}
	t, ok := e.data.(T)
	return t, ok
}

// Invalidate marks every key starting with prefix as stale, including keys
// whose fetch is still in flight.
func (c *Client) Invalidate(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, e := range c.entries {
		if strings.HasPrefix(k, prefix) {
			e.stale = true
		}
	}
	for k := range c.gens {
		if strings.HasPrefix(k, prefix) {
			c.gens[k]++
		}
	}
}

func (c *Client) InvalidateAll() {
	c.Invalidate("")
}

// Close stops pending delayed invalidations.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	for t := range c.timers {
		t.Stop()
	}
	c.timers = map[*time.Timer]struct{}{}
}

func (c *Client) fresh(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || e.stale {
		return nil, false
	}
	if c.now().Sub(e.fetchedAt) >= c.cfg.StaleTime {
		return nil, false
	}
	return e.data, true
}

func (c *Client) generation(key string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	g, ok := c.gens[key]
	if !ok {
		c.gens[key] = 0
	}
	return g
}

func (c *Client) store(key string, v any, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = &entry{data: v, fetchedAt: c.now(), stale: c.gens[key] != gen}
}

func (c *Client) invalidateAfter(delay time.Duration, keys []string) {
	if delay <= 0 {
		for _, k := range keys {
			c.Invalidate(k)
		}
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	var t *time.Timer
	t = time.AfterFunc(delay, func() {
		c.mu.Lock()
		delete(c.timers, t)
		c.mu.Unlock()
		for _, k := range keys {
			c.Invalidate(k)
		}
	})
	c.timers[t] = struct{}{}
}

func retry[T any](ctx context.Context, cfg Config, fn func(context.Context) (T, error)) (T, error) {
	var out T
	op := func() error {
		v, err := fn(ctx)
		if err != nil {
			if !cfg.Retryable(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		out = v
		return nil
	}

	if cfg.Retries < 0 {
		return out, unwrapPermanent(op())
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = cfg.RetryDelay
	eb.MaxInterval = defaultMaxDelay
	eb.MaxElapsedTime = 0

	b := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(cfg.Retries)), ctx)
	return out, backoff.Retry(op, b)
}

func unwrapPermanent(err error) error {
	var p *backoff.PermanentError
	if errors.As(err, &p) {
		return p.Err
	}
	return err
}
