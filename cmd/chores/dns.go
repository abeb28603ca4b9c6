// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/kstep/chores/internal/config"
	"github.com/kstep/chores/internal/dns"
	"github.com/kstep/chores/internal/issue"
)

type (
	dnsListOptions struct {
		recordType string
		subdomain  string
	}

	dnsRecordFlags struct {
		subdomain string
		content   string
		ttl       int
		priority  int
		weight    int
		port      int
		target    string
		adminMail string
		refresh   int
		retry     int
		expire    int
		negCache  int
	}
)

func newDNSCommand(app *App) *cobra.Command {
	var domain string

	dnsCmd := &cobra.Command{
		Use:   "dns",
		Short: "Manage records of the registrar-hosted domain",
		Long: `Manage DNS records of a domain hosted by the Yandex PDD registrar.

The domain defaults to dns.domain and the token to dns.token (or the
YANDEX_PDD_TOKEN environment variable).`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	dnsCmd.PersistentFlags().StringVar(&domain, "domain", "", "domain to manage (default dns.domain)")

	var listOpts dnsListOptions
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the records of the domain",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDNSList(cmd.Context(), app, domain, listOpts, false)
		},
	}
	listCmd.Flags().StringVarP(&listOpts.recordType, "type", "t", "", "only records of this type")
	listCmd.Flags().StringVarP(&listOpts.subdomain, "subdomain", "s", "", "only records of this subdomain")

	legacyCmd := &cobra.Command{
		Use:   "legacy-list",
		Short: "List the records through the v1 XML API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDNSList(cmd.Context(), app, domain, listOpts, true)
		},
	}
	legacyCmd.Flags().StringVarP(&listOpts.recordType, "type", "t", "", "only records of this type")
	legacyCmd.Flags().StringVarP(&listOpts.subdomain, "subdomain", "s", "", "only records of this subdomain")

	var addFlags dnsRecordFlags
	addCmd := &cobra.Command{
		Use:   "add <type> <content>",
		Short: "Add a record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDNSAdd(cmd.Context(), app, domain, args[0], args[1], addFlags)
		},
	}
	addFlags.register(addCmd.Flags(), false)

	var editFlags dnsRecordFlags
	editCmd := &cobra.Command{
		Use:   "edit <record-id>",
		Short: "Change fields of a record; only the given flags are sent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDNSEdit(cmd.Context(), app, domain, args[0], cmd.Flags(), editFlags)
		},
	}
	editFlags.register(editCmd.Flags(), true)

	deleteCmd := &cobra.Command{
		Use:   "delete <record-id>",
		Short: "Delete a record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDNSDelete(cmd.Context(), app, domain, args[0])
		},
	}

	dnsCmd.AddCommand(listCmd, legacyCmd, addCmd, editCmd, deleteCmd)
	return dnsCmd
}

func (f *dnsRecordFlags) register(fs *pflag.FlagSet, edit bool) {
	subdomainDefault := "@"
	if edit {
		subdomainDefault = ""
		fs.StringVar(&f.content, "content", "", "record content")
		fs.IntVar(&f.refresh, "refresh", 0, "SOA refresh interval")
		fs.IntVar(&f.retry, "retry", 0, "SOA retry interval")
		fs.IntVar(&f.expire, "expire", 0, "SOA expire interval")
		fs.IntVar(&f.negCache, "neg-cache", 0, "SOA negative caching ttl")
	}
	fs.StringVarP(&f.subdomain, "subdomain", "s", subdomainDefault, "subdomain")
	fs.IntVar(&f.ttl, "ttl", 21600, "time to live in seconds")
	fs.IntVar(&f.priority, "priority", 10, "MX and SRV priority")
	fs.IntVar(&f.weight, "weight", 0, "SRV weight")
	fs.IntVar(&f.port, "port", 0, "SRV port")
	fs.StringVar(&f.target, "target", "", "SRV target host")
	fs.StringVar(&f.adminMail, "admin-mail", "", "SOA administrator mail")
}

// dnsClients builds the API clients for the configured token.
func (a *App) dnsClients(ctx context.Context, domain string) (*config.Config, string, *dns.Client, error) {
	cfg, err := a.loadConfig(ctx)
	if err != nil {
		return nil, "", nil, a.report(err)
	}
	if domain == "" {
		domain = cfg.DNS.Domain
	}
	if err := requireValues("dns.domain", domain, "dns.token", cfg.DNS.Token); err != nil {
		return nil, "", nil, a.report(err)
	}

	opts := []dns.ClientOption{dns.WithBaseURL(cfg.DNS.BaseURL)}
	if a.HTTPClient != nil {
		opts = append(opts, dns.WithHTTPClient(a.HTTPClient))
	}
	return cfg, domain, dns.NewClient(cfg.DNS.Token, opts...), nil
}

func runDNSList(ctx context.Context, app *App, domain string, opts dnsListOptions, legacy bool) error {
	var filterType dns.RecordType
	if opts.recordType != "" {
		t, err := dns.ParseRecordType(opts.recordType)
		if err != nil {
			return err
		}
		filterType = t
	}

	cfg, domain, client, err := app.dnsClients(ctx, domain)
	if err != nil {
		return err
	}

	var records []dns.Record
	if legacy {
		records, err = dns.NewLegacyClient(cfg.DNS.Token, cfg.DNS.LegacyURL, app.HTTPClient).List(ctx, domain)
	} else {
		records, err = client.List(ctx, domain)
	}
	if err != nil {
		return app.report(dnsError("list records", domain, err))
	}

	t := newTable("ID", "Type", "Name", "Content", "TTL", "Priority")
	for _, r := range records {
		if filterType != "" && r.Type != filterType {
			continue
		}
		if opts.subdomain != "" && r.Subdomain != opts.subdomain {
			continue
		}
		t.Row(strconv.FormatUint(r.ID, 10), r.Type.String(), r.Name(), r.Content.String(), strconv.Itoa(r.TTL), optInt(r.Priority))
	}
	fmt.Fprintln(app.stdout, t.Render())
	return nil
}

func runDNSAdd(ctx context.Context, app *App, domain, rawType, content string, f dnsRecordFlags) error {
	recordType, err := dns.ParseRecordType(rawType)
	if err != nil {
		return err
	}
	_, domain, client, err := app.dnsClients(ctx, domain)
	if err != nil {
		return err
	}

	req := dns.NewAddRequest(recordType, domain)
	req.Content = content
	req.Subdomain = f.subdomain
	req.TTL = f.ttl
	req.Priority = f.priority
	req.Weight = f.weight
	req.Port = f.port
	req.Target = f.target
	req.AdminMail = f.adminMail

	rec, err := client.Add(ctx, req)
	if err != nil {
		return app.report(dnsError("add record", domain, err))
	}
	fmt.Fprintf(app.stdout, "added record %d: %s %s %s\n", rec.ID, rec.Type, rec.Name(), rec.Content)
	return nil
}

func runDNSEdit(ctx context.Context, app *App, domain, rawID string, fs *pflag.FlagSet, f dnsRecordFlags) error {
	id, err := strconv.ParseUint(rawID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid record id %q: %w", rawID, err)
	}
	_, domain, client, err := app.dnsClients(ctx, domain)
	if err != nil {
		return err
	}

	req := dns.EditRequest{Domain: domain, RecordID: id}
	strFlag := func(name string, v string) *string {
		if !fs.Changed(name) {
			return nil
		}
		return &v
	}
	intFlag := func(name string, v int) *int {
		if !fs.Changed(name) {
			return nil
		}
		return &v
	}
	req.Content = strFlag("content", f.content)
	req.Subdomain = strFlag("subdomain", f.subdomain)
	req.AdminMail = strFlag("admin-mail", f.adminMail)
	req.Target = strFlag("target", f.target)
	req.TTL = intFlag("ttl", f.ttl)
	req.Priority = intFlag("priority", f.priority)
	req.Weight = intFlag("weight", f.weight)
	req.Port = intFlag("port", f.port)
	req.Refresh = intFlag("refresh", f.refresh)
	req.Retry = intFlag("retry", f.retry)
	req.Expire = intFlag("expire", f.expire)
	req.NegCache = intFlag("neg-cache", f.negCache)

	rec, err := client.Edit(ctx, req)
	if err != nil {
		return app.report(dnsError("edit record "+rawID, domain, err))
	}
	fmt.Fprintf(app.stdout, "updated record %d: %s %s %s\n", rec.ID, rec.Type, rec.Name(), rec.Content)
	return nil
}

func runDNSDelete(ctx context.Context, app *App, domain, rawID string) error {
	id, err := strconv.ParseUint(rawID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid record id %q: %w", rawID, err)
	}
	_, domain, client, err := app.dnsClients(ctx, domain)
	if err != nil {
		return err
	}

	deleted, err := client.Delete(ctx, dns.DeleteRequest{Domain: domain, RecordID: id})
	if err != nil {
		return app.report(dnsError("delete record "+rawID, domain, err))
	}
	fmt.Fprintf(app.stdout, "deleted record %d\n", deleted)
	return nil
}

func dnsError(op, domain string, err error) error {
	ec := issue.NewErrorContext().WithOperation(op).WithResource(domain).Wrap(err)
	var apiErr *dns.APIError
	if errors.As(err, &apiErr) && apiErr.Code.IsAuth() {
		ec = ec.WithIssue(issue.AuthFailedId).
			WithSuggestion("Check dns.token or the YANDEX_PDD_TOKEN environment variable")
	} else {
		ec = ec.WithIssue(issue.RemoteAPIErrorId)
	}
	return ec.BuildError()
}

func optInt(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}
