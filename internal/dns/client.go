// SPDX-License-Identifier: MPL-2.0

package dns

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the PDD v2 DNS API root.
	DefaultBaseURL = "https://pddimp.yandex.ru/api2/admin/dns"

	// TokenHeader carries the PDD access token.
	TokenHeader = "PddToken"

	successOK    = "ok"
	successError = "error"

	maxResponseBytes = 4 << 20
)

var errRecordMissing = errors.New("decoding reply: record missing")

type (
	// Client talks to the PDD v2 DNS API.
	Client struct {
		httpClient *http.Client
		baseURL    string
		token      string
	}

	// ClientOption configures a Client during construction.
	ClientOption func(*Client)

	// StatusError is an HTTP status the API does not explain in its body.
	StatusError struct {
		Code int
	}

	envelope struct {
		Success  string          `json:"success"`
		Error    string          `json:"error"`
		Domain   string          `json:"domain"`
		RecordID uint64          `json:"record_id"`
		Records  []Record        `json:"records"`
		Record   json.RawMessage `json:"record"`
	}
)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(d *Client) {
		d.httpClient = c
	}
}

// WithBaseURL overrides the API root.
func WithBaseURL(base string) ClientOption {
	return func(d *Client) {
		if base != "" {
			d.baseURL = strings.TrimRight(base, "/")
		}
	}
}

// NewClient creates a Client authenticated with token.
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

// List returns all records of domain.
func (c *Client) List(ctx context.Context, domain string) ([]Record, error) {
	env, err := c.call(ctx, http.MethodGet, "list", url.Values{"domain": {domain}})
	if err != nil {
		return nil, err
	}
	for i := range env.Records {
		if env.Records[i].Domain == "" {
			env.Records[i].Domain = domain
		}
	}
	return env.Records, nil
}

// Add creates a record and returns it as stored.
func (c *Client) Add(ctx context.Context, req AddRequest) (Record, error) {
	if err := req.Type.Validate(); err != nil {
		return Record{}, err
	}
	env, err := c.call(ctx, http.MethodPost, "add", req.Values())
	if err != nil {
		return Record{}, err
	}
	return env.record()
}

// Edit changes a record and returns it as stored.
func (c *Client) Edit(ctx context.Context, req EditRequest) (Record, error) {
	env, err := c.call(ctx, http.MethodPost, "edit", req.Values())
	if err != nil {
		return Record{}, err
	}
	return env.record()
}

// Delete removes a record and returns the id the API confirmed.
func (c *Client) Delete(ctx context.Context, req DeleteRequest) (uint64, error) {
	env, err := c.call(ctx, http.MethodPost, "delete", req.Values())
	if err != nil {
		return 0, err
	}
	return env.RecordID, nil
}

func (c *Client) call(ctx context.Context, method, fn string, args url.Values) (*envelope, error) {
	endpoint := c.baseURL + "/" + fn
	var body io.Reader
	if method == http.MethodGet {
		endpoint += "?" + args.Encode()
	} else {
		body = strings.NewReader(args.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("creating %s request: %w", fn, err)
	}
	req.Header.Set(TokenHeader, c.token)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling %s: %w", fn, err)
	}
	defer func() { _ = resp.Body.Close() }() // read-only response body

	var env envelope
	decodeErr := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&env)
	switch {
	case decodeErr == nil && env.Success == successError:
		return nil, &APIError{Domain: env.Domain, RecordID: env.RecordID, Code: ErrorCode(env.Error)}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, &StatusError{Code: resp.StatusCode}
	case decodeErr != nil:
		return nil, fmt.Errorf("decoding %s reply: %w", fn, decodeErr)
	case env.Success != successOK:
		return nil, fmt.Errorf("decoding %s reply: unexpected success %q", fn, env.Success)
	}
	return &env, nil
}

func (e *envelope) record() (Record, error) {
	var r Record
	if len(e.Record) == 0 {
		return r, errRecordMissing
	}
	if err := json.Unmarshal(e.Record, &r); err != nil {
		return r, fmt.Errorf("decoding record: %w", err)
	}
	if r.Domain == "" {
		r.Domain = e.Domain
	}
	return r, nil
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("registrar: unexpected status %d", e.Code)
}
