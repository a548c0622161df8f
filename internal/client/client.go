package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	apierr "aqve/internal/errors"
	"aqve/internal/metrics"
)

const (
	DefaultBaseURL = "http://localhost:3000/api"
	DefaultTimeout = 30 * time.Second
	userAgent      = "aqve-go/1.0"
)

type httpClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// TokenSource supplies the bearer token for each request. An empty token
// means the request goes out unauthenticated.
type TokenSource interface {
	Token() string
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func() string

func (f TokenFunc) Token() string { return f() }

// StaticToken always returns the same token.
type StaticToken string

func (s StaticToken) Token() string { return string(s) }

type tokenKey struct{}

// WithToken makes requests sent with ctx carry token instead of the one from
// the installed TokenSource.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient httpClient
	Logger     *zap.SugaredLogger
	Metrics    *metrics.ClientMetrics

	// RateLimit caps requests per second. Zero disables the limiter.
	RateLimit rate.Limit
	Burst     int
}

// Client talks JSON to the parking backend. Every failure it returns is an
// *errors.APIError.
type Client struct {
	baseURL string
	http    httpClient
	log     *zap.SugaredLogger
	metrics *metrics.ClientMetrics
	limiter *rate.Limiter

	mu     sync.RWMutex
	tokens TokenSource

	Auth          *AuthAPI
	Parking       *ParkingAPI
	Bookings      *BookingsAPI
	Payments      *PaymentsAPI
	Users         *UsersAPI
	Notifications *NotificationsAPI
}

func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop().Sugar()
	}

	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    cfg.HTTPClient,
		log:     cfg.Logger,
		metrics: cfg.Metrics,
	}
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(cfg.RateLimit, burst)
	}
	c.Auth = &AuthAPI{c: c}
	c.Parking = &ParkingAPI{c: c}
	c.Bookings = &BookingsAPI{c: c}
	c.Payments = &PaymentsAPI{c: c}
	c.Users = &UsersAPI{c: c}
	c.Notifications = &NotificationsAPI{c: c}
	return c
}

// SetTokenSource installs the source consulted on every request.
func (c *Client) SetTokenSource(ts TokenSource) {
	c.mu.Lock()
	c.tokens = ts
	c.mu.Unlock()
}

func (c *Client) token(ctx context.Context) string {
	if token, ok := ctx.Value(tokenKey{}).(string); ok {
		return token
	}
	c.mu.RLock()
	ts := c.tokens
	c.mu.RUnlock()
	if ts == nil {
		return ""
	}
	return ts.Token()
}

// Do sends body as JSON to path and decodes a successful response into out.
// A 204 response, or a nil out, leaves out untouched.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return apierr.Transport(fmt.Errorf("encode request: %w", err))
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return apierr.Transport(err)
	}
	requestID := uuid.NewString()
	c.addHeaders(req, requestID)

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return apierr.Transport(fmt.Errorf("rate limit: %w", err))
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.Observe(method, 0, time.Since(start))
		c.log.Debugf("%s %s failed after %s: %v (request %s)", method, path, time.Since(start), err, requestID)
		return apierr.Transport(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.Observe(method, 0, time.Since(start))
		return apierr.Transport(fmt.Errorf("read response: %w", err))
	}
	c.metrics.Observe(method, resp.StatusCode, time.Since(start))
	c.log.Debugf("%s %s -> %d in %s (request %s)", method, path, resp.StatusCode, time.Since(start), requestID)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apierr.FromResponse(resp.StatusCode, statusText(resp), raw)
	}
	if resp.StatusCode == http.StatusNoContent || out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return apierr.Transport(fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func (c *Client) addHeaders(req *http.Request, requestID string) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Request-ID", requestID)
	if token := c.token(req.Context()); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

// statusText strips the code from resp.Status ("404 Not Found" -> "Not Found").
func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}

func Get[T any](ctx context.Context, c *Client, path string) (T, error) {
	var out T
	err := c.Do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

func Post[T any](ctx context.Context, c *Client, path string, body any) (T, error) {
	var out T
	err := c.Do(ctx, http.MethodPost, path, body, &out)
	return out, err
}

func Put[T any](ctx context.Context, c *Client, path string, body any) (T, error) {
	var out T
	err := c.Do(ctx, http.MethodPut, path, body, &out)
	return out, err
}

func Patch[T any](ctx context.Context, c *Client, path string, body any) (T, error) {
	var out T
	err := c.Do(ctx, http.MethodPatch, path, body, &out)
	return out, err
}

func Delete[T any](ctx context.Context, c *Client, path string) (T, error) {
	var out T
	err := c.Do(ctx, http.MethodDelete, path, nil, &out)
	return out, err
}

// empty is sent where the backend expects a JSON object but takes no fields.
var empty = struct{}{}
