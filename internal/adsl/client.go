// SPDX-License-Identifier: MPL-2.0

package adsl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/kstep/chores/internal/webclient"
	"github.com/kstep/chores/pkg/types"
)

// DefaultBaseURL is the provider site.
const DefaultBaseURL = "https://www.adsl.by"

// creditEnabledMarker is present in the credit.js reply when the switch worked.
const creditEnabledMarker = "stat: 'Включен'"

// ErrUnauthorized is returned when the provider rejects the credentials.
var ErrUnauthorized = errors.New("adsl: credentials rejected")

// Client talks to the provider site with basic auth.
type Client struct {
	web     *webclient.Client
	baseURL string
	log     *slog.Logger
}

// NewClient creates a Client for creds. baseURL may be empty for the default.
func NewClient(creds types.Credentials, baseURL string, opts ...webclient.Option) (*Client, error) {
	if err := creds.Validate("adsl"); err != nil {
		return nil, err
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	web, err := webclient.New(append([]webclient.Option{webclient.WithBasicAuth(creds.Username, creds.Password)}, opts...)...)
	if err != nil {
		return nil, err
	}

	return &Client{
		web:     web,
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     slog.Default().With("component", "adsl"),
	}, nil
}

// FetchStatus downloads and parses the statistics page.
func (c *Client) FetchStatus(ctx context.Context) (AccountInfo, error) {
	page, err := c.web.Get(ctx, c.baseURL+"/001.htm")
	if err != nil {
		return AccountInfo{}, fmt.Errorf("requesting account stats: %w", classify(err))
	}
	c.log.Debug("fetched stats page", "bytes", len(page.Body))

	return ParseStatus(page.Text(webclient.CP1251)), nil
}

// EnableCredit asks the provider to switch on the overdraft and reports
// whether the account is enabled afterwards.
func (c *Client) EnableCredit(ctx context.Context) (bool, error) {
	page, err := c.web.Get(ctx, c.baseURL+"/credit.js?credit=on", webclient.WithReferer(c.baseURL))
	if err != nil {
		return false, fmt.Errorf("enabling credit: %w", classify(err))
	}
	// The script has been served both as UTF-8 and in the page encoding.
	ok := strings.Contains(page.Text(webclient.UTF8), creditEnabledMarker) ||
		strings.Contains(page.Text(webclient.CP1251), creditEnabledMarker)
	return ok, nil
}

// Report is the outcome of a Check.
type Report struct {
	Info AccountInfo
	// CreditTried is set when the account was disabled and credit was requested.
	CreditTried   bool
	CreditEnabled bool
}

// Check fetches the account state and, when the account is disabled and
// tryCredit is set, attempts to enable the credit. A credit failure returns
// the report gathered so far together with the error.
func (c *Client) Check(ctx context.Context, tryCredit bool) (Report, error) {
	info, err := c.FetchStatus(ctx)
	if err != nil {
		return Report{}, err
	}

	r := Report{Info: info}
	if info.Enabled || !tryCredit {
		return r, nil
	}

	r.CreditTried = true
	r.CreditEnabled, err = c.EnableCredit(ctx)
	return r, err
}

// ExitCode maps the report to the process status: 0 when the account is
// usable, 1 otherwise.
func (r Report) ExitCode() types.ExitCode {
	if r.Info.Enabled || r.CreditEnabled {
		return types.ExitOK
	}
	return types.ExitFailure
}

func classify(err error) error {
	var se *webclient.StatusError
	if errors.As(err, &se) && se.Code == http.StatusUnauthorized {
		return fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}
	return err
}
