// Package api is the HTTP JSON client for the scheduling backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	appLog "github.com/sadopc/asap/internal/log"
)

const defaultTimeout = 15 * time.Second

var (
	ErrNetwork      = errors.New("network error")
	ErrServer       = errors.New("server error")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
)

// StatusError is a non-2xx response.
type StatusError struct {
	Op         string
	StatusCode int
	Detail     string
}

func (e *StatusError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Op, e.StatusCode, e.Detail)
}

func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrServer:
		return true
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	}
	return false
}

type Client struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

type Option func(*Client)

func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

type request struct {
	op     string
	method string
	path   string
	query  url.Values
	body   any
	noAuth bool
}

func (c *Client) do(ctx context.Context, r request, out any) error {
	u := c.baseURL + r.path
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}

	var body io.Reader
	if r.body != nil {
		data, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("%s: encode body: %w", r.op, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u, body)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", r.op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.Token(); tok != "" && !r.noAuth {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		appLog.Error("api request failed", err, "op", r.op, "method", r.method, "path", r.path)
		return fmt.Errorf("%s: %w: %w", r.op, ErrNetwork, err)
	}
	defer resp.Body.Close()

	appLog.Debug("api request", "op", r.op, "status", resp.StatusCode, "took", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Op: r.op, StatusCode: resp.StatusCode, Detail: readDetail(resp.Body)}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", r.op, err)
	}
	return nil
}

// readDetail extracts the backend's {"detail": ...} message, falling back to
// the raw body.
func readDetail(r io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(r, 4096))
	var payload struct {
		Detail any    `json:"detail"`
		Error  string `json:"error"`
	}
	if json.Unmarshal(data, &payload) == nil {
		switch d := payload.Detail.(type) {
		case string:
			return d
		case nil:
		default:
			b, _ := json.Marshal(d)
			return string(b)
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	return strings.TrimSpace(string(data))
}

func idPath(prefix string, id int64, suffix ...string) string {
	p := fmt.Sprintf("%s/%d", prefix, id)
	for _, s := range suffix {
		p += "/" + s
	}
	return p
}

func userQuery(userID int64) url.Values {
	return url.Values{"userID": []string{fmt.Sprint(userID)}}
}
