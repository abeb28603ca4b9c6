// SPDX-License-Identifier: MPL-2.0

package dns

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"
)

// DefaultLegacyURL is the PDD v1 nsapi root.
const DefaultLegacyURL = "https://pddimp.yandex.ru/nsapi"

// LegacyClient reads record lists from the PDD v1 XML API. The token travels
// in the query string there.
type LegacyClient struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// NewLegacyClient creates a LegacyClient rooted at baseURL; an empty baseURL
// selects DefaultLegacyURL.
func NewLegacyClient(token, baseURL string, httpClient *http.Client) *LegacyClient {
	if baseURL == "" {
		baseURL = DefaultLegacyURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &LegacyClient{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
	}
}

// List returns all records of domain.
func (c *LegacyClient) List(ctx context.Context, domain string) ([]Record, error) {
	q := url.Values{"token": {c.token}, "domain": {domain}}
	endpoint := c.baseURL + "/get_domain_records.xml?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		// The URL carries the token; report the operation only.
		return nil, fmt.Errorf("fetching legacy record list: %w", unwrapURLError(err))
	}
	defer func() { _ = resp.Body.Close() }() // read-only response body

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode}
	}
	return ParseLegacyRecords(io.LimitReader(resp.Body, maxResponseBytes), domain)
}

// ParseLegacyRecords decodes a get_domain_records.xml page.
func ParseLegacyRecords(r io.Reader, domain string) ([]Record, error) {
	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("parsing legacy record list: %w", err)
	}

	domains := doc.FindElement("//domains")
	if domains == nil {
		return nil, fmt.Errorf("parsing legacy record list: no domains element")
	}
	if e := domains.SelectElement("error"); e != nil {
		if code := strings.TrimSpace(e.Text()); code != successOK {
			return nil, &APIError{Domain: domain, Code: ErrorCode(code)}
		}
	}

	var records []Record
	for _, d := range domains.SelectElements("domain") {
		name := domain
		if n := d.SelectElement("name"); n != nil {
			name = strings.TrimSpace(n.Text())
		}
		for _, el := range d.FindElements("response/record") {
			records = append(records, legacyRecord(el, name))
		}
	}
	return records, nil
}

func legacyRecord(el *etree.Element, domain string) Record {
	id, _ := strconv.ParseUint(el.SelectAttrValue("id", ""), 10, 64)
	ttl, _ := strconv.Atoi(el.SelectAttrValue("ttl", ""))
	return Record{
		ID:        id,
		Type:      RecordType(strings.ToUpper(el.SelectAttrValue("type", ""))),
		Domain:    domain,
		Subdomain: el.SelectAttrValue("subdomain", ""),
		FQDN:      el.SelectAttrValue("domain", ""),
		Content:   ParseContent(strings.TrimSpace(el.Text())),
		TTL:       ttl,
		Priority:  attrInt(el, "priority"),
		Refresh:   attrInt(el, "refresh"),
		AdminMail: el.SelectAttrValue("admin_mail", ""),
		Expire:    attrInt(el, "expire"),
		MinTTL:    attrInt(el, "minttl"),
		Retry:     attrInt(el, "retry"),
		Weight:    attrInt(el, "weight"),
		Port:      attrInt(el, "port"),
	}
}

func attrInt(el *etree.Element, name string) *int {
	v, err := strconv.Atoi(strings.TrimSpace(el.SelectAttrValue(name, "")))
	if err != nil {
		return nil
	}
	return &v
}

func unwrapURLError(err error) error {
	if ue, ok := err.(*url.Error); ok { //nolint:errorlint // only the top-level error carries the URL
		return ue.Err
	}
	return err
}
