// Package rpcclient talks to the newslink HTTP API: the auth routes and the
// /rpc procedures.
package rpcclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/baechuer/newslink/internal/logger"
	appCtx "github.com/baechuer/newslink/internal/pkg/context"
)

const (
	headerRequestID = "X-Request-Id"
	rpcPrefix       = "/rpc/"
)

// Config holds configuration for the API client.
type Config struct {
	BaseURL string
	// ReadTimeout is used for GET requests
	ReadTimeout time.Duration
	// WriteTimeout is used for POST requests
	WriteTimeout time.Duration
	// Token is a bearer token from an earlier sign-in, if any.
	Token string
	// Origin is sent on every request when set. Browser-like surfaces need it
	// to pass the server's trusted-origin check.
	Origin string
	// Transport defaults to a TracingTransport over http.DefaultTransport.
	Transport http.RoundTripper
}

func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:      baseURL,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
}

// Client keeps cookies in a jar and, after sign-in, the bearer token. It is
// safe for concurrent use.
type Client struct {
	base   *url.URL
	http   *http.Client
	config Config

	mu    sync.RWMutex
	token string
}

func New(cfg Config) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("rpcclient: bad base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("rpcclient: base url must be http or https, got %q", cfg.BaseURL)
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 5 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if cfg.Transport == nil {
		cfg.Transport = &TracingTransport{Base: http.DefaultTransport}
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	return &Client{
		base: base,
		// no global timeout; per-request timeouts come from the method
		http:   &http.Client{Transport: cfg.Transport, Jar: jar},
		config: cfg,
		token:  cfg.Token,
	}, nil
}

func (c *Client) BaseURL() string { return c.base.String() }

// Token returns the bearer token currently in use.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Query calls a read procedure with GET ?input=. out may be nil.
func (c *Client) Query(ctx context.Context, procedure string, in, out any) error {
	u := c.endpoint(rpcPrefix + strings.Trim(procedure, "/"))
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		q := u.Query()
		q.Set("input", string(raw))
		u.RawQuery = q.Encode()
	}
	return c.do(ctx, http.MethodGet, u, nil, out)
}

// Mutate calls a write procedure with a JSON POST body. out may be nil.
func (c *Client) Mutate(ctx context.Context, procedure string, in, out any) error {
	return c.post(ctx, rpcPrefix+strings.Trim(procedure, "/"), in, out)
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	return c.do(ctx, http.MethodPost, c.endpoint(path), body, out)
}

func (c *Client) endpoint(path string) *url.URL {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + path
	return &u
}

type dataEnvelope struct {
	Data json.RawMessage `json:"data"`
}

func (c *Client) do(ctx context.Context, method string, u *url.URL, body io.Reader, out any) error {
	timeout := c.config.ReadTimeout
	if method != http.MethodGet {
		timeout = c.config.WriteTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	reqID := appCtx.GetRequestID(ctx)
	if reqID == "" {
		reqID = uuid.NewString()
	}
	req.Header.Set(headerRequestID, reqID)

	if c.config.Origin != "" {
		req.Header.Set("Origin", c.config.Origin)
	}
	if tok := c.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	log := logger.WithCtx(ctx).With().
		Str("method", method).
		Str("path", u.Path).
		Str("request_id", reqID).
		Logger()

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		log.Warn().Err(err).Dur("duration", time.Since(start)).Msg("rpc_request_failed")
		return mapTransportError(err)
	}
	defer resp.Body.Close()

	log.Debug().Int("status", resp.StatusCode).Dur("duration", time.Since(start)).Msg("rpc_request_completed")

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	var env dataEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("rpcclient: decode response: %w", err)
	}
	if len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("rpcclient: decode data: %w", err)
	}
	return nil
}

func mapTransportError(err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	case errors.Is(err, context.Canceled):
		return context.Canceled
	default:
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
}
