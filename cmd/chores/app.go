// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/kstep/chores/internal/config"
	"github.com/kstep/chores/internal/issue"
	"github.com/kstep/chores/internal/pushbullet"
	"github.com/kstep/chores/internal/webclient"
	"github.com/kstep/chores/pkg/types"
)

type (
	// App wires CLI services and shared dependencies. All Cobra handlers
	// receive an App reference and reach configuration, HTTP and the process
	// environment through it.
	App struct {
		Config     config.Provider
		HTTPClient *http.Client
		Getenv     func(string) string
		stdout     io.Writer
		stderr     io.Writer
		logger     *log.Logger

		verbose    bool
		configPath string
		// exitCode is the status for outcomes that are not errors, such as a
		// disabled ADSL account.
		exitCode types.ExitCode
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config     config.Provider
		HTTPClient *http.Client
		Getenv     func(string) string
		Stdout     io.Writer
		Stderr     io.Writer
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) (*App, error) {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.Getenv == nil {
		deps.Getenv = os.Getenv
	}

	logger := log.NewWithOptions(deps.Stderr, log.Options{
		Prefix:          config.AppName,
		ReportTimestamp: true,
		Level:           log.InfoLevel,
	})

	return &App{
		Config:     deps.Config,
		HTTPClient: deps.HTTPClient,
		Getenv:     deps.Getenv,
		stdout:     deps.Stdout,
		stderr:     deps.Stderr,
		logger:     logger,
	}, nil
}

// ExitCode is the status recorded by the last command that finished
// without an error.
func (a *App) ExitCode() types.ExitCode { return a.exitCode }

// setVerbose switches the logger to debug level and installs it as the
// slog default so library packages log through it.
func (a *App) setVerbose(verbose bool) {
	a.verbose = a.verbose || verbose
	if a.verbose {
		a.logger.SetLevel(log.DebugLevel)
	}
	slog.SetDefault(slog.New(a.logger))
}

// loadConfig loads the configuration honoring --config. ui.verbose enables
// debug logging when --verbose was not given.
func (a *App) loadConfig(ctx context.Context) (*config.Config, error) {
	cfg, err := a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: types.FilesystemPath(a.configPath)})
	if err != nil {
		return nil, err
	}
	if cfg.UI.Verbose && !a.verbose {
		a.setVerbose(true)
	}
	a.logger.Debug("configuration loaded", "sources", cfg.Sources)
	return cfg, nil
}

// webOptions returns the webclient options shared by scraping tools.
func (a *App) webOptions(extra ...webclient.Option) []webclient.Option {
	var opts []webclient.Option
	if a.HTTPClient != nil {
		opts = append(opts, webclient.WithHTTPClient(a.HTTPClient))
	}
	return append(opts, extra...)
}

// pushbulletClient returns nil when no access token is configured.
func (a *App) pushbulletClient(cfg *config.Config) *pushbullet.Client {
	if cfg.Pushbullet.AccessToken == "" {
		return nil
	}
	opts := []pushbullet.ClientOption{pushbullet.WithBaseURL(cfg.Pushbullet.BaseURL)}
	if a.HTTPClient != nil {
		opts = append(opts, pushbullet.WithHTTPClient(a.HTTPClient))
	}
	return pushbullet.NewClient(cfg.Pushbullet.AccessToken, opts...)
}

// report renders err for the terminal: suggestions always, the catalog
// entry of its issue in verbose mode. It returns err unchanged.
func (a *App) report(err error) error {
	if err == nil {
		return nil
	}
	var ae *issue.ActionableError
	if errors.As(err, &ae) && len(ae.Suggestions) > 0 {
		fmt.Fprintln(a.stderr, WarningStyle.Render(ae.Format(a.verbose)))
	}
	if !a.verbose {
		return err
	}
	if entry := issue.Get(issue.IssueOf(err)); entry != nil {
		rendered, renderErr := entry.Render("dark")
		if renderErr != nil {
			a.logger.Warn("failed to render issue catalog entry", "issueID", entry.Id(), "err", renderErr)
		} else {
			fmt.Fprint(a.stderr, rendered)
		}
	}
	return err
}

// requireValues returns an actionable error for the first missing key.
func requireValues(pairs ...string) error {
	err := config.Require(pairs...)
	if err == nil {
		return nil
	}
	var mv *config.MissingValueError
	if !errors.As(err, &mv) {
		return err
	}
	return missingValue(mv.Key, err)
}

// requireCredentials is requireValues for a credentials section.
func requireCredentials(creds types.Credentials, section string) error {
	err := creds.Validate(section)
	if err == nil {
		return nil
	}
	key := section
	var mc *types.MissingCredentialsError
	if errors.As(err, &mc) {
		key = mc.Section + "." + mc.Field
	}
	return missingValue(key, err)
}

func missingValue(key string, err error) error {
	return issue.NewErrorContext().
		WithOperation("read configuration").
		WithResource(key).
		WithSuggestion(fmt.Sprintf("Set %s in %s or export %s", key, config.ConfigFileName+"."+config.ConfigFileExt, envName(key))).
		WithIssue(issue.ConfigMissingValueId).
		Wrap(err).
		BuildError()
}

// envName returns the environment variable overriding key.
func envName(key string) string {
	return config.EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}
