package imageboard

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"ihaboard/internal/errors"
)

// ── Fetch client ───────────────────────────────────────────
// One Client per board instance. It owns a single *http.Client that
// is released by Close exactly once. No retries: one attempt per call.

var (
	// ErrTransport marks connection, timeout and body read failures.
	ErrTransport = errors.New("transport error")
	// ErrUnsupportedMethod marks a request method the client does not speak.
	ErrUnsupportedMethod = errors.New("unsupported request method")
	// ErrClientClosed is returned by Fetch after Close.
	ErrClientClosed = errors.New("client closed")
	// ErrBodyTooLarge marks a response over the max body size. It is
	// also marked ErrTransport.
	ErrBodyTooLarge = errors.New("response body too large")
)

const (
	DefaultUserAgent    = "ihaBoard/1.0"
	DefaultTimeout      = 30 * time.Second
	DefaultMaxBodyBytes = 5 << 20
)

// Method is a request method the client supports.
type Method int

const (
	MethodGet Method = iota + 1
	MethodPost
)

func (m Method) String() string {
	switch m {
	case MethodGet:
		return http.MethodGet
	case MethodPost:
		return http.MethodPost
	default:
		return "UNKNOWN"
	}
}

// ParseMethod maps a method name (any case) to a Method.
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(s) {
	case "get":
		return MethodGet, nil
	case "post":
		return MethodPost, nil
	default:
		return 0, errors.Wrapf(ErrUnsupportedMethod, "method %q", s)
	}
}

// Params is an ordered list of query parameters.
type Params struct {
	pairs []param
}

type param struct {
	key, value string
	raw        bool
}

// Add appends key=value; value is query-escaped.
func (p *Params) Add(key, value string) *Params {
	p.pairs = append(p.pairs, param{key: key, value: value})
	return p
}

// AddRaw appends key=value without escaping value.
// Callers escape the parts themselves (see JoinTags).
func (p *Params) AddRaw(key, value string) *Params {
	p.pairs = append(p.pairs, param{key: key, value: value, raw: true})
	return p
}

// Flag appends a bare key with no value.
func (p *Params) Flag(key string) *Params {
	p.pairs = append(p.pairs, param{key: key})
	return p
}

// Len reports the number of parameters.
func (p *Params) Len() int {
	if p == nil {
		return 0
	}
	return len(p.pairs)
}

// Encode renders the parameters in insertion order.
func (p *Params) Encode() string {
	if p == nil {
		return ""
	}
	var b strings.Builder
	for i, kv := range p.pairs {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(kv.key))
		if kv.value == "" && !kv.raw {
			continue
		}
		b.WriteByte('=')
		if kv.raw {
			b.WriteString(kv.value)
		} else {
			b.WriteString(url.QueryEscape(kv.value))
		}
	}
	return b.String()
}

// Response is a raw upstream response.
type Response struct {
	Body       []byte
	StatusCode int
	Header     http.Header
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithMaxBodyBytes caps how much of a response body is read.
func WithMaxBodyBytes(n int64) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.maxBody = n
		}
	}
}

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// Client issues requests against one upstream base URL.
type Client struct {
	baseURL   string
	userAgent string
	maxBody   int64
	http      *http.Client

	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once
}

// NewClient returns a Client for baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: DefaultUserAgent,
		maxBody:   DefaultMaxBodyBytes,
		http: &http.Client{
			Timeout:   DefaultTimeout,
			Transport: http.DefaultTransport.(*http.Transport).Clone(),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the upstream base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// Fetch sends one request to baseURL/path and returns the raw response.
// Non-200 statuses are not errors.
func (c *Client) Fetch(ctx context.Context, method Method, path string, params *Params) (*Response, error) {
	if method != MethodGet && method != MethodPost {
		return nil, errors.Wrapf(ErrUnsupportedMethod, "method %d", int(method))
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return nil, ErrClientClosed
	}

	target := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if q := params.Encode(); q != "" {
		target += "?" + q
	}

	req, err := http.NewRequestWithContext(ctx, method.String(), target, nil)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "%s %s", method, c.baseURL), ErrTransport)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "read body"), ErrTransport)
	}
	if int64(len(body)) > c.maxBody {
		return nil, errors.Mark(errors.Wrapf(ErrBodyTooLarge, "%s %s: over %d bytes", method, c.baseURL, c.maxBody), ErrTransport)
	}

	return &Response{Body: body, StatusCode: resp.StatusCode, Header: resp.Header}, nil
}

// Close releases idle connections. Safe to call more than once.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()
		c.http.CloseIdleConnections()
	})
	return nil
}
