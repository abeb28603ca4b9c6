// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/kstep/chores/internal/config"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// NewRootCommand builds the command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:   config.AppName,
		Short: "Small system administration chores",
		Long: TitleStyle.Render("chores") + SubtitleStyle.Render(" - small system administration chores") + `

One binary for the scripts that keep a home server running: checking the
ADSL account, fetching new tracker releases, announcing finished torrents,
keeping the home DNS record current, naming removable drives and forwarding
saved links.

` + SubtitleStyle.Render("Examples:") + `
  chores adsl credit         Show the account, enable credit when disabled
  chores lostfilm check      Queue new releases in Transmission
  chores dns list            List the records of the configured domain
  chores pocket watch        Forward the vimb queue to Pocket
  chores config show         Show the merged configuration`,
		SilenceUsage: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			app.setVerbose(verbose)
			return nil
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&app.configPath, "config", "", "config file (default is $XDG_CONFIG_HOME/chores/config.toml)")

	rootCmd.AddCommand(
		newADSLCommand(app),
		newLostFilmCommand(app),
		newNginxCacheCommand(app),
		newNotifyCommand(app),
		newDNSCommand(app),
		newDDNSCommand(app),
		newAutomountCommand(app),
		newPocketCommand(app),
		newConfigCommand(app),
	)
	return rootCmd
}

// Execute runs the CLI and exits with the resulting status.
// This is called by main.main().
func Execute() {
	app, err := NewApp(Dependencies{})
	if err != nil {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: ")+err.Error())
		os.Exit(1)
	}

	// fang overrides rootCmd.Version, so the version goes through WithVersion.
	if err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(int(exitCodeOf(err)))
	}
	os.Exit(int(app.ExitCode()))
}
