// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/kstep/chores/internal/issue"
	"github.com/kstep/chores/internal/notify"
	"github.com/kstep/chores/internal/transmission"
)

func newNotifyCommand(app *App) *cobra.Command {
	notifyCmd := &cobra.Command{
		Use:   "notify",
		Short: "Send Pushbullet notifications",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	notifyCmd.AddCommand(&cobra.Command{
		Use:   "torrent-done",
		Short: "Announce a finished Transmission download",
		Long: `Announce a finished download. Configure it as the Transmission
script-torrent-done-filename; the daemon passes the torrent in the
TR_TORRENT_NAME and TR_TORRENT_DIR environment variables.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTorrentDone(cmd.Context(), app)
		},
	})

	return notifyCmd
}

func runTorrentDone(ctx context.Context, app *App) error {
	completion, err := transmission.TorrentDoneFromEnv(app.Getenv)
	if err != nil {
		return app.report(issue.NewErrorContext().
			WithOperation("read the torrent-done environment").
			WithSuggestion("Set script-torrent-done-filename in the Transmission settings; the daemon exports TR_TORRENT_NAME and TR_TORRENT_DIR").
			Wrap(err).
			BuildError())
	}

	cfg, err := app.loadConfig(ctx)
	if err != nil {
		return app.report(err)
	}
	if err := requireValues("pushbullet.access_token", cfg.Pushbullet.AccessToken); err != nil {
		return app.report(err)
	}

	_, err = notify.SendTorrentDone(ctx, app.pushbulletClient(cfg), completion, cfg.Pushbullet.DeviceIden, app.stdout)
	if err != nil {
		return app.report(issue.NewErrorContext().
			WithOperation("send the completion notification").
			WithResource(completion.Path()).
			WithIssue(issue.NotificationFailedId).
			Wrap(err).
			BuildError())
	}
	return nil
}
