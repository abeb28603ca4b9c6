// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the CLI commands for chores.
//
// Every tool is a subcommand of the single chores binary. Handlers load the
// configuration through the App's provider, call into the internal packages
// and map outcomes to process exit codes with ExitError.
package cmd
