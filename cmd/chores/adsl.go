// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kstep/chores/internal/adsl"
	"github.com/kstep/chores/internal/issue"
	"github.com/kstep/chores/pkg/types"
)

func newADSLCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "adsl [credit]",
		Short: "Show the ADSL account status",
		Long: `Show the ADSL account status scraped from the provider stats page.

Exit status is 0 when the account is enabled, 1 when it is disabled and 2 on
errors. With the "credit" argument a disabled account gets its credit
enabled; the exit status is then 0 when that worked.`,
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"credit"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runADSL(cmd.Context(), app, len(args) == 1)
		},
	}
}

func runADSL(ctx context.Context, app *App, tryCredit bool) error {
	cfg, err := app.loadConfig(ctx)
	if err == nil {
		err = requireCredentials(cfg.ADSL.Credentials, "adsl")
	}
	if err != nil {
		fmt.Fprintln(app.stdout, "Config file load error.")
		return exitWith(types.ExitError, app.report(err))
	}

	client, err := adsl.NewClient(cfg.ADSL.Credentials, cfg.ADSL.BaseURL, app.webOptions()...)
	if err != nil {
		return exitWith(types.ExitError, err)
	}

	rep, err := client.Check(ctx, tryCredit)
	if err != nil && !rep.CreditTried {
		return exitWith(types.ExitError, app.report(adslError("fetch account status", cfg.ADSL.BaseURL, err)))
	}

	fmt.Fprint(app.stdout, rep.Info.String())
	if rep.CreditTried {
		if err != nil {
			return exitWith(types.ExitError, app.report(adslError("enable credit", cfg.ADSL.BaseURL, err)))
		}
		if rep.CreditEnabled {
			fmt.Fprintln(app.stdout, "Credit was enabled.")
		} else {
			fmt.Fprintln(app.stdout, "Credit was not enabled.")
		}
	}

	app.exitCode = rep.ExitCode()
	return nil
}

func adslError(op, resource string, err error) error {
	ec := issue.NewErrorContext().WithOperation(op).WithResource(resource).Wrap(err)
	if errors.Is(err, adsl.ErrUnauthorized) {
		ec = ec.WithIssue(issue.AuthFailedId).
			WithSuggestion("Check adsl.username and adsl.password")
	} else {
		ec = ec.WithIssue(issue.RemoteAPIErrorId)
	}
	return ec.BuildError()
}
