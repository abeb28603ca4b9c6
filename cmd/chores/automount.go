// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kstep/chores/internal/automount"
	"github.com/kstep/chores/internal/issue"
)

func newAutomountCommand(app *App) *cobra.Command {
	var mediaDir string

	amCmd := &cobra.Command{
		Use:   "automount [device]",
		Short: "Name the mount point of a removable device",
		Long: `Print the mount point name for a device announced by udev and the
systemd-escaped "<DEVNAME> <media dir>/<name>" instance argument of the
mount unit, one per line.

The name is ID_FS_LABEL, else ID_FS_UUID, else <ID_VENDOR>_<ID_MODEL>_<device>;
underscores are appended while the name is taken by another mount. The
device argument is only needed for that last fallback.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			device := ""
			if len(args) == 1 {
				device = args[0]
			}
			return runAutomount(cmd.Context(), app, device, mediaDir)
		},
	}

	amCmd.Flags().StringVar(&mediaDir, "media-dir", "", "directory mount points are created in (default automount.media_dir)")

	return amCmd
}

var errNoDevName = errors.New("environment variable DEVNAME is not set")

func runAutomount(ctx context.Context, app *App, device, mediaDir string) error {
	if mediaDir == "" {
		mediaDir = automount.DefaultMediaDir
		cfg, err := app.loadConfig(ctx)
		if err != nil {
			// udev runs this before any user config exists; the default will do.
			app.logger.Debug("using default media dir", "err", err)
		} else if cfg.Automount.MediaDir != "" {
			mediaDir = cfg.Automount.MediaDir
		}
	}

	devName := app.Getenv("DEVNAME")
	if devName == "" {
		return app.report(udevError(errNoDevName, "Run it from a udev rule, which exports DEVNAME and the ID_* properties"))
	}

	name, err := automount.Name(app.Getenv, device)
	if err != nil {
		return app.report(udevError(err, "Pass the device name (for example sdb1) when ID_FS_LABEL and ID_FS_UUID are empty"))
	}
	name = automount.UniqueName(mediaDir, name, automount.IsMount)

	fmt.Fprintln(app.stdout, name)
	fmt.Fprintln(app.stdout, automount.UnitArgument(devName, mediaDir, name))
	return nil
}

func udevError(err error, suggestion string) error {
	return issue.NewErrorContext().
		WithOperation("name the mount point").
		WithSuggestion(suggestion).
		Wrap(err).
		BuildError()
}
