// SPDX-License-Identifier: MPL-2.0

// Package ddns keeps one A record of a registrar-hosted domain pointed at the
// current external address of this host.
package ddns

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/netip"

	"github.com/kstep/chores/internal/dns"
)

// DefaultProbeAddr is dialed over UDP to pick the outbound interface.
const DefaultProbeAddr = "8.8.8.8:53"

// ErrNoIPv4 is returned when no IPv4 address could be determined.
var ErrNoIPv4 = errors.New("ddns: no IPv4 address")

type (
	// Registrar is the part of the registrar API the updater needs.
	Registrar interface {
		List(ctx context.Context, domain string) ([]dns.Record, error)
		Add(ctx context.Context, req dns.AddRequest) (dns.Record, error)
		Edit(ctx context.Context, req dns.EditRequest) (dns.Record, error)
	}

	// Updater points Subdomain of Domain at an address.
	Updater struct {
		Registrar Registrar
		Domain    string
		Subdomain string
		Log       *slog.Logger
	}

	// Outcome describes what Update did.
	Outcome struct {
		Record  dns.Record
		Created bool
		Changed bool
	}
)

// DetectIP returns the local IPv4 address of a UDP socket connected to
// probeAddr. No packet is sent.
func DetectIP(ctx context.Context, probeAddr string) (netip.Addr, error) {
	if probeAddr == "" {
		probeAddr = DefaultProbeAddr
	}
	var d net.Dialer
	conn, err := d.DialContext(ctx, "udp4", probeAddr)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("ddns: probing route to %s: %w", probeAddr, err)
	}
	defer func() { _ = conn.Close() }()

	udp, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok {
		return netip.Addr{}, ErrNoIPv4
	}
	addr, ok := netip.AddrFromSlice(udp.IP)
	if !ok {
		return netip.Addr{}, ErrNoIPv4
	}
	addr = addr.Unmap()
	if !addr.Is4() || addr.IsUnspecified() {
		return netip.Addr{}, ErrNoIPv4
	}
	return addr, nil
}

// IPFromArgs returns the local address passed to a pppd ip-up script:
// interface, tty, speed, local address, remote address. args excludes the
// program name.
func IPFromArgs(args []string) (netip.Addr, bool) {
	if len(args) < 4 {
		return netip.Addr{}, false
	}
	addr, err := netip.ParseAddr(args[3])
	if err != nil || !addr.Is4() {
		return netip.Addr{}, false
	}
	return addr, true
}

// Resolve prefers the pppd argument and falls back to DetectIP.
func Resolve(ctx context.Context, args []string, probeAddr string) (netip.Addr, error) {
	if addr, ok := IPFromArgs(args); ok {
		return addr, nil
	}
	return DetectIP(ctx, probeAddr)
}

// Update points the A record at ip, creating it when missing. An existing
// record that already holds ip is left alone.
func (u *Updater) Update(ctx context.Context, ip netip.Addr) (Outcome, error) {
	log := u.Log
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "ddns", "domain", u.Domain, "subdomain", u.Subdomain)

	records, err := u.Registrar.List(ctx, u.Domain)
	if err != nil {
		return Outcome{}, fmt.Errorf("listing records: %w", err)
	}

	content := ip.String()
	rec, err := dns.FindRecord(records, dns.TypeA, u.Subdomain)
	switch {
	case errors.Is(err, dns.ErrRecordNotFound):
		req := dns.NewAddRequest(dns.TypeA, u.Domain)
		req.Subdomain = u.Subdomain
		req.Content = content
		created, err := u.Registrar.Add(ctx, req)
		if err != nil {
			return Outcome{}, fmt.Errorf("adding A record: %w", err)
		}
		log.Info("record created", "ip", content, "id", created.ID)
		return Outcome{Record: created, Created: true, Changed: true}, nil
	case err != nil:
		return Outcome{}, err
	}

	if addr, ok := rec.Content.Addr(); ok && addr == ip {
		log.Debug("record unchanged", "ip", content, "id", rec.ID)
		return Outcome{Record: rec}, nil
	}

	edit := rec.EditRequest()
	edit.Content = &content
	updated, err := u.Registrar.Edit(ctx, edit)
	if err != nil {
		return Outcome{}, fmt.Errorf("editing record %d: %w", rec.ID, err)
	}
	log.Info("record updated", "ip", content, "previous", rec.Content.String(), "id", rec.ID)
	return Outcome{Record: updated, Changed: true}, nil
}
