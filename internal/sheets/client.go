// Package sheets is the typed client for the spreadsheet-backed booking
// API. Every action is dispatched through one base URL: reads as GET with
// an action query parameter, writes as POST with a JSON body carrying the
// action. Responses are wrapped in {success, data, error}.
package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"net/url"
	"time"
)

const (
	DefaultTimeout  = 30 * time.Second
	DefaultCacheTTL = 2 * time.Minute
)

// Client talks to the booking API. GET responses are cached per full URL
// for CacheTTL; any successful POST clears the cache because it may have
// changed availability.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	cache   ResponseCache
	ttl     time.Duration
	timeout time.Duration
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.http = hc } }

// WithResponseCache replaces the in-process response cache.
func WithResponseCache(rc ResponseCache) Option { return func(c *Client) { c.cache = rc } }

// WithCacheTTL sets how long GET responses stay cached.
func WithCacheTTL(d time.Duration) Option { return func(c *Client) { c.ttl = d } }

// WithTimeout bounds every remote call.
func WithTimeout(d time.Duration) Option { return func(c *Client) { c.timeout = d } }

// New builds a Client for the API deployed at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("sheets: invalid base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("sheets: base url %q must be absolute", baseURL)
	}
	c := &Client{
		baseURL: u,
		http:    &http.Client{},
		cache:   NewMemoryResponseCache(),
		ttl:     DefaultCacheTTL,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

// Get performs a cached GET for action and returns the envelope's data.
func (c *Client) Get(ctx context.Context, action string, params url.Values) (json.RawMessage, error) {
	u := c.actionURL(action, params)
	if data, ok := c.cache.Get(ctx, u); ok {
		log.Printf("sheets: GET %s (cached)", action)
		return data, nil
	}
	data, err := c.get(ctx, action, u)
	if err != nil {
		return nil, err
	}
	c.cache.Set(ctx, u, data, c.ttl)
	return data, nil
}

// Post sends {action, ...fields} and returns the envelope's data. The
// response cache is cleared on success.
func (c *Client) Post(ctx context.Context, action string, fields map[string]any) (json.RawMessage, error) {
	body := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		body[k] = v
	}
	body["action"] = action
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("sheets: encode %s: %w", action, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL.String(), bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("sheets: build %s request: %w", action, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	log.Printf("sheets: POST %s", action)
	data, err := c.do(req, action)
	if err != nil {
		return nil, err
	}
	c.cache.Clear(ctx)
	return data, nil
}

// ClearCache drops every cached GET response.
func (c *Client) ClearCache(ctx context.Context) { c.cache.Clear(ctx) }

func (c *Client) get(ctx context.Context, action, u string) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("sheets: build %s request: %w", action, err)
	}
	req.Header.Set("Accept", "application/json")
	log.Printf("sheets: GET %s", action)
	return c.do(req, action)
}

func (c *Client) actionURL(action string, params url.Values) string {
	u := *c.baseURL
	q := u.Query()
	q.Set("action", action)
	for k, vs := range params {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func (c *Client) do(req *http.Request, action string) (json.RawMessage, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, c.transportError(action, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.transportError(action, err)
	}

	var env envelope
	decodeErr := json.Unmarshal(body, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
		if decodeErr == nil && env.Error != "" {
			msg = env.Error
		}
		log.Printf("sheets: %s failed: %s", action, msg)
		return nil, &APIError{Action: action, Status: resp.StatusCode, Message: msg}
	}
	if decodeErr != nil {
		log.Printf("sheets: %s returned malformed body: %v", action, decodeErr)
		return nil, &NetworkError{Action: action, Err: fmt.Errorf("decode response: %w", decodeErr)}
	}
	if !env.Success {
		msg := env.Error
		if msg == "" {
			msg = "Unknown error"
		}
		log.Printf("sheets: %s rejected: %s", action, msg)
		return nil, &APIError{Action: action, Status: resp.StatusCode, Message: msg}
	}
	return env.Data, nil
}

func (c *Client) transportError(action string, err error) error {
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		log.Printf("sheets: %s timed out after %s", action, c.timeout)
		return &TimeoutError{Action: action, After: c.timeout, Err: err}
	}
	log.Printf("sheets: %s unreachable: %v", action, err)
	return &NetworkError{Action: action, Err: err}
}
