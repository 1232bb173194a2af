package backend

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

	"github.com/dmitrijs2005/taskboard/internal/common"
	"github.com/dmitrijs2005/taskboard/internal/logging"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

const (
	defaultBaseURL   = "http://127.0.0.1:8080"
	defaultUserAgent = "taskboard-client/0.1"
	defaultTimeout   = 10 * time.Second
	maxErrorBody     = 4 << 10
)

// Client talks to the board REST API. It is safe for concurrent use.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	log       logging.Logger
	now       func() time.Time
	requestID func() string

	mu           sync.Mutex
	accessToken  string
	refreshToken string
	onTokens     func(access, refresh string)

	refreshes singleflight.Group
}

type Option func(*Client)

// WithHTTPClient replaces the underlying client; its Timeout is then used as is.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithLogger(l logging.Logger) Option {
	return func(c *Client) { c.log = l }
}

func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// NewClient builds a Client for baseURL. A non-positive timeout uses the default.
func NewClient(baseURL string, timeout time.Duration, opts ...Option) (*Client, error) {
	base, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	c := &Client{
		baseURL:   base,
		http:      &http.Client{Timeout: timeout},
		userAgent: defaultUserAgent,
		log:       logging.Discard(),
		now:       time.Now,
		requestID: uuid.NewString,
	}
	for _, o := range opts {
		o(c)
	}
	c.log = c.log.With("module", "backend")
	return c, nil
}

// SetTokens installs the credentials used for subsequent requests.
func (c *Client) SetTokens(access, refresh string) {
	c.mu.Lock()
	c.accessToken = access
	c.refreshToken = refresh
	c.mu.Unlock()
}

func (c *Client) Tokens() (access, refresh string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accessToken, c.refreshToken
}

// OnTokens registers fn to be told about tokens rotated by a refresh.
func (c *Client) OnTokens(fn func(access, refresh string)) {
	c.mu.Lock()
	c.onTokens = fn
	c.mu.Unlock()
}

type request struct {
	method string
	path   string
	query  url.Values
	body   any
	// refreshable requests may trigger a token refresh. Auth endpoints never do.
	refreshable bool
}

func (c *Client) send(ctx context.Context, req request, dest any) error {
	if req.refreshable {
		access, refresh := c.Tokens()
		if refresh != "" && tokenExpired(access, c.now()) {
			if err := c.Refresh(ctx); err != nil {
				c.log.Warn(ctx, "proactive token refresh failed", "error", err)
			}
		}
	}

	err := c.roundTrip(ctx, req, dest)
	if err == nil || !req.refreshable || !errors.Is(err, ErrUnauthorized) {
		return err
	}
	if _, refresh := c.Tokens(); refresh == "" {
		return err
	}
	if rerr := c.Refresh(ctx); rerr != nil {
		c.log.Warn(ctx, "token refresh failed", "error", rerr)
		return err
	}
	return c.roundTrip(ctx, req, dest)
}

func (c *Client) roundTrip(ctx context.Context, r request, dest any) error {
	reqURL := c.baseURL.JoinPath(r.path)
	if len(r.query) > 0 {
		reqURL.RawQuery = r.query.Encode()
	}

	var body io.Reader
	if r.body != nil {
		b, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, reqURL.String(), body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	requestID := c.requestID()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(common.RequestIDHeaderName, requestID)
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if access, _ := c.Tokens(); access != "" {
		req.Header.Set(common.AuthorizationHeaderName, "Bearer "+access)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(ctxErr, context.DeadlineExceeded) {
			return fmt.Errorf("execute request: %w", ctxErr)
		}
		return fmt.Errorf("%w: %s %s: %w", ErrUnavailable, r.method, r.path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.log.Debug(ctx, "api call", "method", r.method, "path", r.path, "status", resp.StatusCode, "request_id", requestID)

	if resp.StatusCode >= 400 {
		return &APIError{
			Method:     r.method,
			Path:       r.path,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(resp.Body),
		}
	}
	if dest == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// errorMessage extracts {"message": ...} or {"error": ...} from an error body,
// falling back to the raw text.
func errorMessage(r io.Reader) string {
	b, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil || len(b) == 0 {
		return ""
	}
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(b, &payload) == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	return strings.TrimSpace(string(b))
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = defaultBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse base url %q: %w", raw, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse base url %q: missing host", raw)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
