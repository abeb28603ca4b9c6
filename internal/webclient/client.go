// SPDX-License-Identifier: MPL-2.0

package webclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"
)

const (
	// maxBodyBytes bounds how much of a response body is kept in memory.
	maxBodyBytes = 8 << 20

	// DefaultUserAgent is sent when no WithUserAgent option is given.
	DefaultUserAgent = "chores/dev"

	// DefaultTimeout bounds a whole request, redirects and body included.
	DefaultTimeout = 30 * time.Second
)

type (
	// Client performs requests within one cookie session.
	Client struct {
		httpClient *http.Client
		userAgent  string
		username   string
		password   string
		basicAuth  bool
	}

	// Option configures a Client during construction.
	Option func(*Client)

	// RequestOption adjusts a single outgoing request.
	RequestOption func(*http.Request)

	// Page is a fully read response.
	Page struct {
		// URL is the final location after redirects.
		URL    *url.URL
		Status int
		Header http.Header
		Body   []byte
	}

	// StatusError is returned for responses outside the 2xx range. The page
	// is returned alongside it.
	StatusError struct {
		Method string
		URL    string
		Code   int
	}
)

// WithHTTPClient sets the underlying HTTP client. A client without a cookie
// jar gets the session jar.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		jar := c.httpClient.Jar
		clone := *hc
		if clone.Jar == nil {
			clone.Jar = jar
		}
		c.httpClient = &clone
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithTimeout replaces DefaultTimeout. Zero disables the limit.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithJar replaces the session cookie jar.
func WithJar(jar http.CookieJar) Option {
	return func(c *Client) {
		c.httpClient.Jar = jar
	}
}

// WithBasicAuth attaches HTTP basic credentials to every request.
func WithBasicAuth(username, password string) Option {
	return func(c *Client) {
		c.username = username
		c.password = password
		c.basicAuth = true
	}
}

// WithReferer sets the Referer header of a request.
func WithReferer(ref string) RequestOption {
	return func(r *http.Request) {
		r.Header.Set("Referer", ref)
	}
}

// WithHeader sets an arbitrary header of a request.
func WithHeader(key, value string) RequestOption {
	return func(r *http.Request) {
		r.Header.Set(key, value)
	}
}

// New creates a Client with an empty cookie jar scoped by the public suffix list.
func New(opts ...Option) (*Client, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	c := &Client{
		httpClient: &http.Client{Jar: jar, Timeout: DefaultTimeout},
		userAgent:  DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Get fetches rawURL.
func (c *Client) Get(ctx context.Context, rawURL string, opts ...RequestOption) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	return c.Do(req, opts...)
}

// PostForm submits values as application/x-www-form-urlencoded.
func (c *Client) PostForm(ctx context.Context, rawURL string, values url.Values, opts ...RequestOption) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, strings.NewReader(values.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.Do(req, opts...)
}

// Do sends req with the session headers and reads the whole body.
func (c *Client) Do(req *http.Request, opts ...RequestOption) (*Page, error) {
	req.Header.Set("User-Agent", c.userAgent)
	if c.basicAuth {
		req.SetBasicAuth(c.username, c.password)
	}
	for _, opt := range opts {
		opt(req)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, redactURL(req.URL), err)
	}
	defer func() { _ = resp.Body.Close() }() // read-only response body

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%s %s: reading body: %w", req.Method, redactURL(req.URL), err)
	}

	page := &Page{
		URL:    resp.Request.URL,
		Status: resp.StatusCode,
		Header: resp.Header,
		Body:   body,
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return page, &StatusError{Method: req.Method, URL: redactURL(req.URL), Code: resp.StatusCode}
	}
	return page, nil
}

// SetCookie stores a cookie for u in the session jar.
func (c *Client) SetCookie(u *url.URL, name, value string) {
	c.httpClient.Jar.SetCookies(u, []*http.Cookie{{Name: name, Value: value, Path: "/"}})
}

// Cookies returns the session cookies that would be sent to u.
func (c *Client) Cookies(u *url.URL) []*http.Cookie {
	return c.httpClient.Jar.Cookies(u)
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d %s", e.Method, e.URL, e.Code, http.StatusText(e.Code))
}

// redactURL drops userinfo and the query string, which may carry tokens.
func redactURL(u *url.URL) string {
	if u == nil {
		return ""
	}
	clean := *u
	clean.User = nil
	clean.RawQuery = ""
	return clean.String()
}
