// SPDX-License-Identifier: MPL-2.0

// Package pushbullet sends note and link pushes through the Pushbullet v2 API.
package pushbullet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultBaseURL is the public API root.
	DefaultBaseURL = "https://api.pushbullet.com/v2"

	maxResponseBytes = 1 << 20
)

const (
	// TypeNote is a push with a title and a body.
	TypeNote PushType = "note"
	// TypeLink is a push carrying a URL.
	TypeLink PushType = "link"
)

type (
	// PushType is the kind of push.
	PushType string

	// Push is an outgoing push. Without a target it goes to all devices of
	// the token owner.
	Push struct {
		Type             PushType `json:"type"`
		Title            string   `json:"title,omitempty"`
		Body             string   `json:"body,omitempty"`
		URL              string   `json:"url,omitempty"`
		DeviceIden       string   `json:"device_iden,omitempty"`
		SourceDeviceIden string   `json:"source_device_iden,omitempty"`
		// GUID makes the push idempotent on the server; generated when empty.
		GUID string `json:"guid,omitempty"`
	}

	// Result is the stored push returned by the API.
	Result struct {
		Iden      string
		Created   time.Time
		Dismissed bool
	}

	// APIError is a non-2xx reply.
	APIError struct {
		Status  int
		Type    string
		Message string
		Cta     string
	}

	// Client sends pushes for one access token.
	Client struct {
		httpClient *http.Client
		baseURL    string
		token      string
	}

	// ClientOption configures a Client during construction.
	ClientOption func(*Client)

	pushReply struct {
		Iden      string  `json:"iden"`
		Created   float64 `json:"created"`
		Dismissed bool    `json:"dismissed"`
	}

	errorReply struct {
		Error struct {
			Type    string `json:"type"`
			Message string `json:"message"`
			Cta     string `json:"cta"`
		} `json:"error"`
	}
)

// NewNote builds a note push.
func NewNote(title, body string) Push {
	return Push{Type: TypeNote, Title: title, Body: body}
}

// NewLink builds a link push.
func NewLink(title, url string) Push {
	return Push{Type: TypeLink, Title: title, URL: url}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(p *Client) {
		p.httpClient = c
	}
}

// WithBaseURL overrides the API root, primarily for test servers.
func WithBaseURL(base string) ClientOption {
	return func(p *Client) {
		if base != "" {
			p.baseURL = strings.TrimRight(base, "/")
		}
	}
}

// NewClient creates a Client for token.
func NewClient(token string, opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    DefaultBaseURL,
		token:      token,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Send creates the push.
func (c *Client) Send(ctx context.Context, p Push) (*Result, error) {
	if p.Type == "" {
		p.Type = TypeNote
	}
	if p.GUID == "" {
		p.GUID = uuid.NewString()
	}

	payload, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encoding push: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/pushes", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Access-Token", c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending push: %w", err)
	}
	defer func() { _ = resp.Body.Close() }() // read-only response body

	body := io.LimitReader(resp.Body, maxResponseBytes)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, decodeError(resp.StatusCode, body)
	}

	var reply pushReply
	if err := json.NewDecoder(body).Decode(&reply); err != nil {
		return nil, fmt.Errorf("decoding push reply: %w", err)
	}

	sec := int64(reply.Created)
	return &Result{
		Iden:      reply.Iden,
		Created:   time.Unix(sec, int64((reply.Created-float64(sec))*1e9)),
		Dismissed: reply.Dismissed,
	}, nil
}

func decodeError(status int, body io.Reader) error {
	apiErr := &APIError{Status: status}
	var reply errorReply
	if err := json.NewDecoder(body).Decode(&reply); err == nil {
		apiErr.Type = reply.Error.Type
		apiErr.Message = reply.Error.Message
		apiErr.Cta = reply.Error.Cta
	}
	return apiErr
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("pushbullet: status %d", e.Status)
	}
	return fmt.Sprintf("pushbullet: %s (%s, status %d)", e.Message, e.Type, e.Status)
}
