// SPDX-License-Identifier: MPL-2.0

package dns

import (
	"net/url"
	"strconv"
)

const (
	defaultSubdomain = "@"
	defaultTTL       = 21600
	defaultPriority  = 10
)

type (
	// AddRequest creates a record. Every field is sent.
	AddRequest struct {
		Domain    string
		Type      RecordType
		Subdomain string
		Content   string
		TTL       int
		// Priority is required for MX and SRV records.
		Priority int
		// Weight, Port and Target are required for SRV records.
		Weight int
		Port   int
		Target string
		// AdminMail is required for SOA records.
		AdminMail string
	}

	// EditRequest changes a record. Only non-nil fields are sent.
	EditRequest struct {
		Domain    string
		RecordID  uint64
		Subdomain *string
		TTL       *int
		Refresh   *int
		Retry     *int
		Expire    *int
		NegCache  *int
		AdminMail *string
		Content   *string
		Priority  *int
		Port      *int
		Weight    *int
		Target    *string
	}

	// DeleteRequest removes a record.
	DeleteRequest struct {
		Domain   string
		RecordID uint64
	}
)

// NewAddRequest returns a request with the registrar defaults: subdomain "@",
// ttl 21600 and priority 10.
func NewAddRequest(t RecordType, domain string) AddRequest {
	return AddRequest{
		Domain:    domain,
		Type:      t,
		Subdomain: defaultSubdomain,
		TTL:       defaultTTL,
		Priority:  defaultPriority,
	}
}

// Values encodes the request form.
func (r AddRequest) Values() url.Values {
	return url.Values{
		"domain":     {r.Domain},
		"type":       {string(r.Type)},
		"admin_mail": {r.AdminMail},
		"content":    {r.Content},
		"priority":   {strconv.Itoa(r.Priority)},
		"weight":     {strconv.Itoa(r.Weight)},
		"port":       {strconv.Itoa(r.Port)},
		"target":     {r.Target},
		"subdomain":  {r.Subdomain},
		"ttl":        {strconv.Itoa(r.TTL)},
	}
}

// Values encodes the request form, skipping unset fields.
func (r EditRequest) Values() url.Values {
	v := url.Values{
		"domain":    {r.Domain},
		"record_id": {strconv.FormatUint(r.RecordID, 10)},
	}
	setString(v, "subdomain", r.Subdomain)
	setString(v, "admin_mail", r.AdminMail)
	setString(v, "content", r.Content)
	setString(v, "target", r.Target)
	setInt(v, "ttl", r.TTL)
	setInt(v, "refresh", r.Refresh)
	setInt(v, "retry", r.Retry)
	setInt(v, "expire", r.Expire)
	setInt(v, "neg_cache", r.NegCache)
	setInt(v, "priority", r.Priority)
	setInt(v, "port", r.Port)
	setInt(v, "weight", r.Weight)
	return v
}

// Values encodes the request form.
func (r DeleteRequest) Values() url.Values {
	return url.Values{
		"domain":    {r.Domain},
		"record_id": {strconv.FormatUint(r.RecordID, 10)},
	}
}

// AddRequest recreates the record, for instance in another domain.
func (r Record) AddRequest() AddRequest {
	req := AddRequest{
		Domain:    r.Domain,
		Type:      r.Type,
		Subdomain: r.Subdomain,
		Content:   r.Content.String(),
		TTL:       r.TTL,
		Priority:  valueOr(r.Priority, defaultPriority),
		Weight:    valueOr(r.Weight, 0),
		Port:      valueOr(r.Port, 0),
		AdminMail: r.AdminMail,
	}
	if req.Subdomain == "" {
		req.Subdomain = defaultSubdomain
	}
	if req.TTL == 0 {
		req.TTL = defaultTTL
	}
	return req
}

// EditRequest returns a request that rewrites the record with its current
// values; callers change the fields they need.
func (r Record) EditRequest() EditRequest {
	content := r.Content.String()
	subdomain := r.Subdomain
	ttl := r.TTL
	req := EditRequest{
		Domain:    r.Domain,
		RecordID:  r.ID,
		Subdomain: &subdomain,
		TTL:       &ttl,
		Refresh:   r.Refresh,
		Retry:     r.Retry,
		Expire:    r.Expire,
		Content:   &content,
		Priority:  r.Priority,
		Port:      r.Port,
		Weight:    r.Weight,
	}
	if r.AdminMail != "" {
		mail := r.AdminMail
		req.AdminMail = &mail
	}
	return req
}

// DeleteRequest returns the request removing the record.
func (r Record) DeleteRequest() DeleteRequest {
	return DeleteRequest{Domain: r.Domain, RecordID: r.ID}
}

func setString(v url.Values, key string, s *string) {
	if s != nil {
		v.Set(key, *s)
	}
}

func setInt(v url.Values, key string, i *int) {
	if i != nil {
		v.Set(key, strconv.Itoa(*i))
	}
}

func valueOr(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}
