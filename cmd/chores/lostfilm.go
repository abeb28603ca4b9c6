// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/kstep/chores/internal/config"
	"github.com/kstep/chores/internal/issue"
	"github.com/kstep/chores/internal/lostfilm"
	"github.com/kstep/chores/internal/transmission"
	"github.com/kstep/chores/internal/webclient"
	"github.com/kstep/chores/pkg/types"
)

func newLostFilmCommand(app *App) *cobra.Command {
	lfCmd := &cobra.Command{
		Use:   "lostfilm",
		Short: "Watch the LostFilm release feed",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	lfCmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Queue new matching releases in Transmission",
		Long: `Log in to the tracker, read the release feed and queue every release whose
title matches lostfilm.include (and none of lostfilm.exclude) in Transmission.
Newly added torrents are announced through Pushbullet when an access token is
configured.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLostFilmCheck(cmd.Context(), app)
		},
	})

	return lfCmd
}

func runLostFilmCheck(ctx context.Context, app *App) error {
	cfg, err := app.loadConfig(ctx)
	if err != nil {
		return app.report(err)
	}
	if err := requireCredentials(cfg.LostFilm.Credentials, "lostfilm"); err != nil {
		return app.report(err)
	}

	tracker, err := lostfilm.NewClient(lostfilm.Options{
		BaseURL:   cfg.LostFilm.BaseURL,
		LoginURL:  cfg.LostFilm.LoginURL,
		UserAgent: cfg.LostFilm.UserAgent,
	}, app.webOptions()...)
	if err != nil {
		return err
	}

	checker := &lostfilm.Checker{
		Tracker:     tracker,
		Downloader:  app.transmissionClient(cfg),
		Credentials: cfg.LostFilm.Credentials,
		Include:     cfg.LostFilm.Include,
		Exclude:     cfg.LostFilm.Exclude,
		Out:         app.stdout,
		Log:         slog.Default().With("component", "lostfilm"),
	}
	if pb := app.pushbulletClient(cfg); pb != nil {
		checker.Notifier = pb
	}

	sum, err := checker.Run(ctx)
	app.logger.Info("feed checked", "matched", sum.Matched, "added", sum.Added, "failed", sum.Failed)
	switch {
	case errors.Is(err, lostfilm.ErrItemsFailed):
		return exitWith(types.ExitFailure, err)
	case err != nil:
		return app.report(lostFilmError(cfg, err))
	}
	return nil
}

func (a *App) transmissionClient(cfg *config.Config) *transmission.Client {
	var opts []transmission.ClientOption
	if a.HTTPClient != nil {
		opts = append(opts, transmission.WithHTTPClient(a.HTTPClient))
	}
	if cfg.Transmission.Username != "" {
		opts = append(opts, transmission.WithBasicAuth(cfg.Transmission.Username, cfg.Transmission.Password))
	}
	return transmission.NewClient(cfg.Transmission.URL, opts...)
}

func lostFilmError(cfg *config.Config, err error) error {
	ec := issue.NewErrorContext().Wrap(err)
	var statusErr *webclient.StatusError
	switch {
	case errors.Is(err, lostfilm.ErrLoginFailed):
		ec = ec.WithOperation("log in to the tracker").
			WithResource(cfg.LostFilm.LoginURL).
			WithIssue(issue.AuthFailedId).
			WithSuggestion("Check lostfilm.username and lostfilm.password")
	case errors.As(err, &statusErr):
		ec = ec.WithOperation("read the release feed").
			WithResource(cfg.LostFilm.BaseURL).
			WithIssue(issue.RemoteAPIErrorId)
	default:
		ec = ec.WithOperation("check the release feed").
			WithResource(cfg.LostFilm.BaseURL).
			WithIssue(issue.PageFormatChangedId)
	}
	return ec.BuildError()
}
