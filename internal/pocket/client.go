// SPDX-License-Identifier: MPL-2.0

// Package pocket forwards URLs to the Pocket read-it-later service.
package pocket

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the v3 API root.
	DefaultBaseURL = "https://getpocket.com/v3"

	maxResponseBytes = 1 << 20
)

type (
	// Item is a saved article as returned by the add call.
	Item struct {
		ID          string
		GivenURL    string
		NormalURL   string
		ResolvedURL string
		Title       string
	}

	// APIError is a non-2xx reply, described by the X-Error headers.
	APIError struct {
		Status  int
		Code    int
		Message string
	}

	// Client adds items for one consumer key and access token.
	Client struct {
		httpClient  *http.Client
		baseURL     string
		consumerKey string
		accessToken string
	}

	// ClientOption configures a Client during construction.
	ClientOption func(*Client)

	addRequest struct {
		URL         string `json:"url"`
		ConsumerKey string `json:"consumer_key"`
		AccessToken string `json:"access_token"`
	}

	addReply struct {
		Item struct {
			ItemID      json.Number `json:"item_id"`
			GivenURL    string      `json:"given_url"`
			NormalURL   string      `json:"normal_url"`
			ResolvedURL string      `json:"resolved_url"`
			Title       string      `json:"title"`
		} `json:"item"`
		Status int `json:"status"`
	}
)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(p *Client) {
		p.httpClient = c
	}
}

// WithBaseURL overrides the API root.
func WithBaseURL(base string) ClientOption {
	return func(p *Client) {
		if base != "" {
			p.baseURL = strings.TrimRight(base, "/")
		}
	}
}

// NewClient creates a Client.
func NewClient(consumerKey, accessToken string, opts ...ClientOption) *Client {
	c := &Client{
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		baseURL:     DefaultBaseURL,
		consumerKey: consumerKey,
		accessToken: accessToken,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Add saves rawURL.
func (c *Client) Add(ctx context.Context, rawURL string) (*Item, error) {
	payload, err := json.Marshal(addRequest{URL: rawURL, ConsumerKey: c.consumerKey, AccessToken: c.accessToken})
	if err != nil {
		return nil, fmt.Errorf("encoding add request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/add", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")
	req.Header.Set("X-Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("adding %s: %w", rawURL, err)
	}
	defer func() { _ = resp.Body.Close() }() // read-only response body

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		code, _ := strconv.Atoi(resp.Header.Get("X-Error-Code"))
		return nil, &APIError{Status: resp.StatusCode, Code: code, Message: resp.Header.Get("X-Error")}
	}

	var reply addReply
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&reply); err != nil {
		return nil, fmt.Errorf("decoding add reply: %w", err)
	}
	item := &Item{
		ID:          reply.Item.ItemID.String(),
		GivenURL:    reply.Item.GivenURL,
		NormalURL:   reply.Item.NormalURL,
		ResolvedURL: reply.Item.ResolvedURL,
		Title:       reply.Item.Title,
	}
	if item.GivenURL == "" {
		item.GivenURL = rawURL
	}
	return item, nil
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("pocket: status %d", e.Status)
	}
	return fmt.Sprintf("pocket: %s (code %d, status %d)", e.Message, e.Code, e.Status)
}
