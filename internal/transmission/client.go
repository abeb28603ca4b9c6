// SPDX-License-Identifier: MPL-2.0

package transmission

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"
)

const (
	// DefaultURL is the RPC endpoint of a local daemon.
	DefaultURL = "http://localhost:9091/transmission/rpc"

	// SessionHeader carries the CSRF token the daemon hands out with 409.
	SessionHeader = "X-Transmission-Session-Id"

	// maxHandshakes bounds how many 409 replies are accepted per call.
	maxHandshakes = 3

	maxResponseBytes = 1 << 20
)

// ErrSessionHandshake is returned when the daemon keeps answering 409.
var ErrSessionHandshake = errors.New("transmission: session id handshake did not settle")

type (
	// Client is a Transmission RPC client. It remembers the session id
	// between calls.
	Client struct {
		httpClient *http.Client
		url        string
		username   string
		password   string
		sessionID  atomic.Value
		tag        atomic.Int64
		log        *slog.Logger
	}

	// ClientOption configures a Client during construction.
	ClientOption func(*Client)

	// RPCError is a reply whose result is not "success".
	RPCError struct {
		Method string
		Result string
	}

	// StatusError is an HTTP status other than 200 or 409.
	StatusError struct {
		Code int
	}

	// AddResult describes the torrent the daemon added or already had.
	AddResult struct {
		Added     bool
		Duplicate bool
		ID        int
		Name      string
		Hash      string
	}

	request struct {
		Method    string `json:"method"`
		Arguments any    `json:"arguments,omitempty"`
		Tag       int64  `json:"tag"`
	}

	response struct {
		Result    string          `json:"result"`
		Arguments json.RawMessage `json:"arguments"`
		Tag       int64           `json:"tag"`
	}

	torrentInfo struct {
		ID         int    `json:"id"`
		Name       string `json:"name"`
		HashString string `json:"hashString"`
	}

	addArguments struct {
		Added     *torrentInfo `json:"torrent-added"`
		Duplicate *torrentInfo `json:"torrent-duplicate"`
	}
)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(t *Client) {
		t.httpClient = c
	}
}

// WithBasicAuth sets the RPC credentials.
func WithBasicAuth(username, password string) ClientOption {
	return func(t *Client) {
		t.username = username
		t.password = password
	}
}

// NewClient creates a client for the RPC endpoint rpcURL.
func NewClient(rpcURL string, opts ...ClientOption) *Client {
	if rpcURL == "" {
		rpcURL = DefaultURL
	}
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		url:        rpcURL,
		log:        slog.Default().With("component", "transmission"),
	}
	c.sessionID.Store("")
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AddTorrent asks the daemon to download the torrent at filename (a URL or
// a path on the daemon host).
func (c *Client) AddTorrent(ctx context.Context, filename string) (*AddResult, error) {
	var args addArguments
	if err := c.call(ctx, "torrent-add", map[string]any{"filename": filename}, &args); err != nil {
		return nil, err
	}

	switch {
	case args.Added != nil:
		return &AddResult{Added: true, ID: args.Added.ID, Name: args.Added.Name, Hash: args.Added.HashString}, nil
	case args.Duplicate != nil:
		return &AddResult{Duplicate: true, ID: args.Duplicate.ID, Name: args.Duplicate.Name, Hash: args.Duplicate.HashString}, nil
	default:
		return &AddResult{}, nil
	}
}

// call performs one RPC, negotiating the session id when the daemon asks for it.
func (c *Client) call(ctx context.Context, method string, arguments, out any) error {
	payload, err := json.Marshal(request{Method: method, Arguments: arguments, Tag: c.tag.Add(1)})
	if err != nil {
		return fmt.Errorf("encoding %s request: %w", method, err)
	}

	for range maxHandshakes {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		if id := c.sessionID.Load().(string); id != "" {
			req.Header.Set(SessionHeader, id)
		}
		if c.username != "" {
			req.SetBasicAuth(c.username, c.password)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("%s: %w", method, err)
		}

		switch resp.StatusCode {
		case http.StatusConflict:
			id := resp.Header.Get(SessionHeader)
			_ = resp.Body.Close()
			if id == "" {
				return fmt.Errorf("%s: 409 without %s", method, SessionHeader)
			}
			c.log.Debug("session id refreshed", "method", method)
			c.sessionID.Store(id)
			continue
		case http.StatusOK:
			err := decodeResponse(method, resp.Body, out)
			_ = resp.Body.Close()
			return err
		default:
			_ = resp.Body.Close()
			return fmt.Errorf("%s: %w", method, &StatusError{Code: resp.StatusCode})
		}
	}

	return fmt.Errorf("%s: %w", method, ErrSessionHandshake)
}

func decodeResponse(method string, body io.Reader, out any) error {
	var resp response
	if err := json.NewDecoder(io.LimitReader(body, maxResponseBytes)).Decode(&resp); err != nil {
		return fmt.Errorf("decoding %s response: %w", method, err)
	}
	if resp.Result != "success" {
		return &RPCError{Method: method, Result: resp.Result}
	}
	if out == nil || len(resp.Arguments) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Arguments, out); err != nil {
		return fmt.Errorf("decoding %s arguments: %w", method, err)
	}
	return nil
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("transmission %s: %s", e.Method, e.Result)
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d %s", e.Code, http.StatusText(e.Code))
}
