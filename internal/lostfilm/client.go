// SPDX-License-Identifier: MPL-2.0

package lostfilm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	"github.com/kstep/chores/internal/webclient"
	"github.com/kstep/chores/pkg/types"
)

const (
	// DefaultBaseURL is the tracker site; paths are appended to it verbatim.
	DefaultBaseURL = "http://www.lostfilm.tv/"
	// DefaultLoginURL is the single sign-on endpoint of the tracker.
	DefaultLoginURL = "http://login1.bogi.ru/login.php"
)

var (
	// ErrLoginFailed is returned when the sign-on reply has no continuation form.
	ErrLoginFailed = errors.New("lostfilm: login failed")
	// ErrNoTorrentLink is returned when a release page does not lead to a torrent.
	ErrNoTorrentLink = errors.New("lostfilm: torrent link not found")

	downloadAnchorRe = regexp.MustCompile(`<a href="javascript:\{\};" onMouseOver="setCookie\('(\w+)','([a-f0-9]+)'\)" title="Искать" alt="Искать" class="a_download" onClick="ShowAllReleases\('([0-9]+)','([0-9.]+)','([0-9]+)'\)"></a>`)
	torrentLinkRe    = regexp.MustCompile(`href="(http://tracktor\.in/td\.php\?s=[^"]+)"`)
)

type (
	// Options locates the tracker.
	Options struct {
		BaseURL   string
		LoginURL  string
		UserAgent string
	}

	// Client is a logged-in (after Login) tracker session.
	Client struct {
		web      *webclient.Client
		baseURL  string
		loginURL string
		log      *slog.Logger
	}
)

// NewClient creates a tracker session. Empty Options fields use the defaults.
func NewClient(opts Options, webOpts ...webclient.Option) (*Client, error) {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(opts.BaseURL, "/") {
		opts.BaseURL += "/"
	}
	if opts.LoginURL == "" {
		opts.LoginURL = DefaultLoginURL
	}
	if opts.UserAgent != "" {
		webOpts = append([]webclient.Option{webclient.WithUserAgent(opts.UserAgent)}, webOpts...)
	}

	web, err := webclient.New(webOpts...)
	if err != nil {
		return nil, err
	}
	return &Client{
		web:      web,
		baseURL:  opts.BaseURL,
		loginURL: opts.LoginURL,
		log:      slog.Default().With("component", "lostfilm"),
	}, nil
}

// Login signs in through the sign-on site and submits the continuation form
// it returns, which sets the tracker session cookies.
func (c *Client) Login(ctx context.Context, creds types.Credentials) error {
	if err := creds.Validate("lostfilm"); err != nil {
		return err
	}

	loginURL, err := url.Parse(c.loginURL)
	if err != nil {
		return fmt.Errorf("parsing login url: %w", err)
	}
	q := loginURL.Query()
	q.Set("referer", c.baseURL)
	loginURL.RawQuery = q.Encode()

	form := url.Values{
		"login":    {creds.Username},
		"password": {creds.Password},
		"module":   {"1"},
		"target":   {c.baseURL},
		"repage":   {"user"},
		"act":      {"login"},
	}
	page, err := c.web.PostForm(ctx, loginURL.String(), form, webclient.WithReferer(c.baseURL))
	if err != nil {
		return fmt.Errorf("signing in: %w", err)
	}

	next, err := ParseForm(page.Text(webclient.CP1251), page.URL)
	if err != nil {
		return err
	}
	c.log.Debug("submitting continuation form", "action", next.Action, "fields", len(next.Values))

	if _, err := c.web.PostForm(ctx, next.Action, next.Values, webclient.WithReferer(c.loginURL)); err != nil {
		return fmt.Errorf("completing sign in: %w", err)
	}
	return nil
}

// Feed downloads and parses the release feed.
func (c *Client) Feed(ctx context.Context) ([]Item, error) {
	page, err := c.web.Get(ctx, c.baseURL+"rssdd.xml")
	if err != nil {
		return nil, fmt.Errorf("fetching feed: %w", err)
	}
	return ParseFeed(page.Body)
}

// TorrentLink resolves a release details page to the torrent download URL.
func (c *Client) TorrentLink(ctx context.Context, detailsURL string) (string, error) {
	page, err := c.web.Get(ctx, detailsURL, webclient.WithReferer(c.baseURL))
	if err != nil {
		return "", fmt.Errorf("fetching details: %w", err)
	}

	m := downloadAnchorRe.FindStringSubmatch(page.Text(webclient.CP1251))
	if m == nil {
		return "", fmt.Errorf("%w: no download anchor on %s", ErrNoTorrentLink, detailsURL)
	}
	cookieName, cookieValue, cat, season, episode := m[1], m[2], m[3], m[4], m[5]

	base, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("parsing base url: %w", err)
	}
	c.web.SetCookie(base, cookieName+"_2", cookieValue)

	q := url.Values{"c": {cat}, "s": {season}, "e": {episode}}
	redirect := c.baseURL + "nrdr.php?" + q.Encode()
	page, err = c.web.Get(ctx, redirect, webclient.WithReferer(detailsURL))
	if err != nil {
		return "", fmt.Errorf("fetching release list: %w", err)
	}

	m = torrentLinkRe.FindStringSubmatch(page.Text(webclient.CP1251))
	if m == nil {
		return "", fmt.Errorf("%w: no tracker link on %s", ErrNoTorrentLink, redirect)
	}
	return m[1], nil
}
