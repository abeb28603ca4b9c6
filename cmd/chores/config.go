// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kstep/chores/internal/config"
	"github.com/kstep/chores/pkg/types"
)

// newConfigCommand creates the `chores config` command tree.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage chores configuration",
		Long: `Manage chores configuration.

Configuration is stored in $XDG_CONFIG_HOME/chores/config.toml. The per-tool
files of older installs (adsl/creds.toml, lostfilm/config.toml and friends)
are read from the same directory and overridden by config.toml.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration with secrets masked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return showConfig(cmd.Context(), app)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create the default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return initConfig(app)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show the configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			path, err := app.configFilePath()
			if err != nil {
				return err
			}
			fmt.Fprintln(app.stdout, path)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output the effective configuration as TOML, secrets included",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := app.loadConfig(cmd.Context())
			if err != nil {
				return app.report(err)
			}
			data, err := config.Render(cfg)
			if err != nil {
				return err
			}
			_, err = app.stdout.Write(data)
			return err
		},
	})

	return cfgCmd
}

func (a *App) configFilePath() (string, error) {
	return config.FilePath(config.LoadOptions{ConfigFilePath: types.FilesystemPath(a.configPath)})
}

func showConfig(ctx context.Context, app *App) error {
	cfg, err := app.loadConfig(ctx)
	if err != nil {
		return app.report(err)
	}

	fmt.Fprintln(app.stdout, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(app.stdout)

	if len(cfg.Sources) == 0 {
		fmt.Fprintf(app.stdout, "%s: %s\n", KeyStyle.Render("Config files"), SubtitleStyle.Render("(using defaults)"))
	} else {
		fmt.Fprintf(app.stdout, "%s:\n", KeyStyle.Render("Config files"))
		for _, src := range cfg.Sources {
			fmt.Fprintf(app.stdout, "  - %s\n", src)
		}
	}
	fmt.Fprintln(app.stdout)

	data, err := config.Render(cfg.Redacted())
	if err != nil {
		return err
	}
	_, err = app.stdout.Write(data)
	return err
}

func initConfig(app *App) error {
	path, err := app.configFilePath()
	if err != nil {
		return err
	}

	created, err := config.CreateDefaultConfig(path)
	if err != nil {
		return fmt.Errorf("failed to create config: %w", err)
	}
	if !created {
		fmt.Fprintf(app.stdout, "%s Configuration already exists at %s\n", WarningStyle.Render("!"), path)
		return nil
	}

	fmt.Fprintf(app.stdout, "%s Created default configuration at %s\n", SuccessStyle.Render("✓"), path)
	return nil
}
