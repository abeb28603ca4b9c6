// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kstep/chores/internal/ddns"
	"github.com/kstep/chores/internal/issue"
	"github.com/kstep/chores/internal/mail"
)

func newDDNSCommand(app *App) *cobra.Command {
	var (
		domain    string
		subdomain string
		quiet     bool
	)

	cmd := &cobra.Command{
		Use:   "ddns [pppd args...]",
		Short: "Point the home A record at the current external address",
		Long: `Point dns.subdomain of dns.domain at the current external IPv4 address
and announce the change.

Installed as a pppd ip-up script the local address comes from the fourth
argument; otherwise it is the address of the outbound interface. The
announcement is a Pushbullet note, with email through mail.smtp_addr as the
fallback.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDDNS(cmd.Context(), app, args, domain, subdomain, quiet)
		},
	}
	cmd.Flags().StringVar(&domain, "domain", "", "domain to update (default dns.domain)")
	cmd.Flags().StringVarP(&subdomain, "subdomain", "s", "", "subdomain to update (default dns.subdomain)")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "skip the announcement")
	return cmd
}

func runDDNS(ctx context.Context, app *App, args []string, domain, subdomain string, quiet bool) error {
	cfg, domain, client, err := app.dnsClients(ctx, domain)
	if err != nil {
		return err
	}
	if subdomain == "" {
		subdomain = cfg.DNS.Subdomain
	}

	ip, err := ddns.Resolve(ctx, args, cfg.DNS.ProbeAddr)
	if err != nil {
		return app.report(issue.NewErrorContext().
			WithOperation("determine the external address").
			WithResource(cfg.DNS.ProbeAddr).
			WithIssue(issue.NetworkUnreachableId).
			Wrap(err).
			BuildError())
	}
	fmt.Fprintf(app.stdout, "ip address: %s\n", ip)

	updater := &ddns.Updater{Registrar: client, Domain: domain, Subdomain: subdomain}
	outcome, err := updater.Update(ctx, ip)
	if err != nil {
		return app.report(dnsError("update "+subdomain+" A record", domain, err))
	}
	switch {
	case outcome.Created:
		fmt.Fprintf(app.stdout, "created record %d: %s\n", outcome.Record.ID, outcome.Record.Name())
	case outcome.Changed:
		fmt.Fprintf(app.stdout, "updated record %d: %s\n", outcome.Record.ID, outcome.Record.Name())
	default:
		fmt.Fprintf(app.stdout, "record %d already points at %s\n", outcome.Record.ID, ip)
		return nil
	}
	if quiet {
		return nil
	}

	announcer := &ddns.Announcer{
		DeviceIden: cfg.Pushbullet.DeviceIden,
		Mailer:     &mail.Sender{Addr: cfg.Mail.SMTPAddr},
		MailFrom:   cfg.Mail.From,
		MailTo:     cfg.Mail.To,
		MailName:   cfg.Mail.ToName,
		Out:        app.stdout,
	}
	if pb := app.pushbulletClient(cfg); pb != nil {
		announcer.Pusher = pb
	}
	if err := announcer.Announce(ctx, ip); err != nil {
		return app.report(issue.NewErrorContext().
			WithOperation("announce the new address").
			WithResource(ip.String()).
			WithIssue(issue.NotificationFailedId).
			Wrap(err).
			BuildError())
	}
	return nil
}
