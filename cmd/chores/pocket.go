// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kstep/chores/internal/config"
	"github.com/kstep/chores/internal/issue"
	"github.com/kstep/chores/internal/pocket"
)

func newPocketCommand(app *App) *cobra.Command {
	pocketCmd := &cobra.Command{
		Use:   "pocket",
		Short: "Forward queued URLs to Pocket",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	var drainOnStart bool
	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the queue file and add every new URL",
		Long: `Watch pocket.queue and add every URL written to it to Pocket.

URLs that could not be added stay in the queue; the rest are removed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPocketWatch(cmd.Context(), app, drainOnStart)
		},
	}
	watchCmd.Flags().BoolVar(&drainOnStart, "drain-on-start", false, "forward queued URLs before waiting for changes")

	drainCmd := &cobra.Command{
		Use:   "drain",
		Short: "Forward the queued URLs once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPocketDrain(cmd.Context(), app)
		},
	}

	pocketCmd.AddCommand(watchCmd, drainCmd)
	return pocketCmd
}

func (a *App) pocketForwarder(ctx context.Context) (*config.Config, *pocket.Forwarder, error) {
	cfg, err := a.loadConfig(ctx)
	if err != nil {
		return nil, nil, a.report(err)
	}
	if err := requireValues(
		"pocket.consumer_key", cfg.Pocket.ConsumerKey,
		"pocket.access_token", cfg.Pocket.AccessToken,
		"pocket.queue", cfg.Pocket.Queue,
	); err != nil {
		return nil, nil, a.report(err)
	}

	opts := []pocket.ClientOption{pocket.WithBaseURL(cfg.Pocket.BaseURL)}
	if a.HTTPClient != nil {
		opts = append(opts, pocket.WithHTTPClient(a.HTTPClient))
	}
	return cfg, &pocket.Forwarder{
		Adder: pocket.NewClient(cfg.Pocket.ConsumerKey, cfg.Pocket.AccessToken, opts...),
		Queue: cfg.Pocket.Queue,
		Out:   a.stdout,
	}, nil
}

func runPocketWatch(ctx context.Context, app *App, drainOnStart bool) error {
	cfg, fwd, err := app.pocketForwarder(ctx)
	if err != nil {
		return err
	}

	err = fwd.Watch(ctx, pocket.WatchOptions{
		DrainOnStart: drainOnStart,
		Ready: func() {
			fmt.Fprintf(app.stdout, "watching %s for changes...\n", cfg.Pocket.Queue)
		},
	})
	if err != nil && ctx.Err() == nil {
		return app.report(issue.NewErrorContext().
			WithOperation("watch the queue").
			WithResource(cfg.Pocket.Queue).
			WithIssue(issue.WatcherFailedId).
			Wrap(err).
			BuildError())
	}
	return nil
}

func runPocketDrain(ctx context.Context, app *App) error {
	cfg, fwd, err := app.pocketForwarder(ctx)
	if err != nil {
		return err
	}
	res, err := fwd.Drain(ctx)
	if err != nil {
		return app.report(issue.NewErrorContext().
			WithOperation("drain the queue").
			WithResource(cfg.Pocket.Queue).
			WithIssue(issue.RemoteAPIErrorId).
			Wrap(err).
			BuildError())
	}
	app.logger.Debug("queue drained", "added", res.Added, "failed", res.Failed)
	return nil
}
