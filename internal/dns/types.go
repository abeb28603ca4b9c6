// SPDX-License-Identifier: MPL-2.0

package dns

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/netip"
	"slices"
	"strconv"
	"strings"
)

// Record types supported by the registrar.
const (
	TypeSRV   RecordType = "SRV"
	TypeTXT   RecordType = "TXT"
	TypeNS    RecordType = "NS"
	TypeMX    RecordType = "MX"
	TypeSOA   RecordType = "SOA"
	TypeA     RecordType = "A"
	TypeAAAA  RecordType = "AAAA"
	TypeCNAME RecordType = "CNAME"
)

// Kinds of record content.
const (
	ContentText ContentKind = iota
	ContentIPv4
	ContentIPv6
)

var (
	// ErrInvalidRecordType is returned for a type the registrar does not know.
	ErrInvalidRecordType = errors.New("invalid record type")
	// ErrRecordNotFound is returned when no record matches a lookup.
	ErrRecordNotFound = errors.New("record not found")

	recordTypes = []RecordType{TypeSRV, TypeTXT, TypeNS, TypeMX, TypeSOA, TypeA, TypeAAAA, TypeCNAME}
)

type (
	// RecordType is a DNS record type.
	RecordType string

	// ContentKind classifies record content.
	ContentKind int

	// Content is a record value: an address for A/AAAA records, text otherwise.
	Content struct {
		raw  string
		addr netip.Addr
	}

	// Record is a DNS record as stored by the registrar. Pointer fields are
	// nil when the registrar does not report them.
	Record struct {
		ID        uint64
		Type      RecordType
		Domain    string
		Subdomain string
		FQDN      string
		Content   Content
		TTL       int
		Priority  *int

		// SOA fields.
		Refresh   *int
		AdminMail string
		Expire    *int
		MinTTL    *int
		Retry     *int

		// SRV fields.
		Weight *int
		Port   *int

		// Operation is set on edit replies.
		Operation string
	}

	// tolerantInt decodes a JSON number or numeric string; anything else,
	// including "", decodes as absent.
	tolerantInt struct {
		v     int
		valid bool
	}

	recordWire struct {
		RecordID  uint64      `json:"record_id"`
		Type      string      `json:"type"`
		Domain    string      `json:"domain"`
		Subdomain string      `json:"subdomain"`
		FQDN      string      `json:"fqdn"`
		Content   string      `json:"content"`
		TTL       tolerantInt `json:"ttl"`
		Priority  tolerantInt `json:"priority"`
		Refresh   tolerantInt `json:"refresh"`
		AdminMail string      `json:"admin_mail"`
		Expire    tolerantInt `json:"expire"`
		MinTTL    tolerantInt `json:"minttl"`
		Retry     tolerantInt `json:"retry"`
		Weight    tolerantInt `json:"weight"`
		Port      tolerantInt `json:"port"`
		Operation string      `json:"operation"`
	}
)

// ParseRecordType parses a case-insensitive record type name.
func ParseRecordType(s string) (RecordType, error) {
	t := RecordType(strings.ToUpper(strings.TrimSpace(s)))
	if err := t.Validate(); err != nil {
		return "", err
	}
	return t, nil
}

// RecordTypes returns the supported record types.
func RecordTypes() []RecordType {
	return slices.Clone(recordTypes)
}

// Validate returns ErrInvalidRecordType for unknown types.
func (t RecordType) Validate() error {
	if !slices.Contains(recordTypes, t) {
		return fmt.Errorf("%w: %q", ErrInvalidRecordType, string(t))
	}
	return nil
}

func (t RecordType) String() string { return string(t) }

// ParseContent classifies s as an IPv4 address, an IPv6 address or text.
func ParseContent(s string) Content {
	c := Content{raw: s}
	if addr, err := netip.ParseAddr(s); err == nil && addr.Zone() == "" {
		c.addr = addr
	}
	return c
}

// Kind reports what the content holds.
func (c Content) Kind() ContentKind {
	switch {
	case c.addr.Is4():
		return ContentIPv4
	case c.addr.Is6():
		return ContentIPv6
	default:
		return ContentText
	}
}

// Addr returns the address held by the content, if any.
func (c Content) Addr() (netip.Addr, bool) {
	return c.addr, c.addr.IsValid()
}

// String returns the canonical form: addresses are normalized, text is kept.
func (c Content) String() string {
	if c.addr.IsValid() {
		return c.addr.String()
	}
	return c.raw
}

// Equal compares contents by canonical form.
func (c Content) Equal(other Content) bool {
	return c.String() == other.String()
}

func (ti *tolerantInt) UnmarshalJSON(data []byte) error {
	*ti = tolerantInt{}
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil //nolint:nilerr // malformed values are treated as absent
		}
		data = []byte(strings.TrimSpace(s))
	}
	if v, err := strconv.Atoi(string(data)); err == nil {
		*ti = tolerantInt{v: v, valid: true}
	}
	return nil
}

func (ti tolerantInt) ptr() *int {
	if !ti.valid {
		return nil
	}
	v := ti.v
	return &v
}

// UnmarshalJSON decodes the registrar record representation.
func (r *Record) UnmarshalJSON(data []byte) error {
	var w recordWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*r = Record{
		ID:        w.RecordID,
		Type:      RecordType(strings.ToUpper(w.Type)),
		Domain:    w.Domain,
		Subdomain: w.Subdomain,
		FQDN:      w.FQDN,
		Content:   ParseContent(w.Content),
		TTL:       w.TTL.v,
		Priority:  w.Priority.ptr(),
		Refresh:   w.Refresh.ptr(),
		AdminMail: w.AdminMail,
		Expire:    w.Expire.ptr(),
		MinTTL:    w.MinTTL.ptr(),
		Retry:     w.Retry.ptr(),
		Weight:    w.Weight.ptr(),
		Port:      w.Port.ptr(),
		Operation: w.Operation,
	}
	return nil
}

// Name returns the fully qualified name, derived from the subdomain when the
// registrar did not report it.
func (r Record) Name() string {
	if r.FQDN != "" {
		return r.FQDN
	}
	if r.Subdomain == "" || r.Subdomain == "@" {
		return r.Domain
	}
	return r.Subdomain + "." + r.Domain
}

// FindRecord returns the first record with the given type and subdomain.
func FindRecord(records []Record, t RecordType, subdomain string) (Record, error) {
	for _, r := range records {
		if r.Type == t && r.Subdomain == subdomain {
			return r, nil
		}
	}
	return Record{}, fmt.Errorf("%w: %s %s", ErrRecordNotFound, t, subdomain)
}
