// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/kstep/chores/internal/issue"
	"github.com/kstep/chores/internal/nginxcache"
)

type nginxCacheOptions struct {
	all     bool
	details bool
}

func newNginxCacheCommand(app *App) *cobra.Command {
	var opts nginxCacheOptions

	cacheCmd := &cobra.Command{
		Use:   "nginx-cache [dir]",
		Short: "List the URLs stored in an nginx cache directory",
		Long: `List the entries of an nginx proxy cache as "<file> -> <url>" lines.

The directory defaults to nginx_cache.dir. Entries whose key is not an
absolute URL are skipped unless --all is given; --details prints a table with
the stored status, content type and the detected type of the body.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := ""
			if len(args) == 1 {
				dir = args[0]
			}
			return runNginxCache(cmd.Context(), app, dir, opts)
		},
	}

	cacheCmd.Flags().BoolVarP(&opts.all, "all", "a", false, "include entries whose key is not a URL")
	cacheCmd.Flags().BoolVarP(&opts.details, "details", "d", false, "print a table with response details")

	return cacheCmd
}

func runNginxCache(ctx context.Context, app *App, dir string, opts nginxCacheOptions) error {
	if dir == "" {
		cfg, err := app.loadConfig(ctx)
		if err != nil {
			return app.report(err)
		}
		dir = cfg.NginxCache.Dir
	}

	var entries []*nginxcache.Entry
	err := nginxcache.Walk(ctx, dir, func(e *nginxcache.Entry) error {
		if e.URL == nil && !opts.all {
			return nil
		}
		if !opts.details {
			fmt.Fprintf(app.stdout, "%s -> %s\n", e.Path, entryTarget(e))
			return nil
		}
		entries = append(entries, e)
		return nil
	})
	if err != nil {
		return app.report(issue.NewErrorContext().
			WithOperation("read the nginx cache directory").
			WithResource(dir).
			WithSuggestion("Pass the cache directory as an argument or set nginx_cache.dir").
			Wrap(err).
			BuildError())
	}

	if opts.details {
		t := newTable("File", "Key", "Status", "Content-Type", "Body", "Size")
		for _, e := range entries {
			status := ""
			if e.Status != 0 {
				status = strconv.Itoa(e.Status)
			}
			t.Row(e.Path, entryTarget(e), status, e.ContentType, e.BodyMIME, strconv.FormatInt(e.BodySize, 10))
		}
		fmt.Fprintln(app.stdout, t.Render())
	}
	return nil
}

func entryTarget(e *nginxcache.Entry) string {
	if e.URL != nil {
		return e.URL.String()
	}
	return e.Key
}
