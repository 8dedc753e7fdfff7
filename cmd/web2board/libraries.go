// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/web2board/web2board/internal/transfer"
)

type librariesParams struct {
	stdout io.Writer
	stderr io.Writer
	svc    *services
	check  bool
}

func newLibrariesCommand(app *App) *cobra.Command {
	libCmd := &cobra.Command{
		Use:   "libraries",
		Short: "Manage the board libraries",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	updateCmd := &cobra.Command{
		Use:   "update",
		Short: "Install the latest board libraries release",
		Long: `Install the latest board libraries release.

Libraries contained in the release replace installed libraries of the same
name. Other libraries in the directory are kept.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceErrors = true
			cmd.SilenceUsage = true

			check, _ := cmd.Flags().GetBool("check")

			svc, err := app.services(cmd.Context())
			if err != nil {
				printError(cmd.ErrOrStderr(), formatErrorForDisplay(err, app.verbose))
				return &ExitError{Code: 1, Err: err}
			}

			p := librariesParams{stdout: cmd.OutOrStdout(), stderr: cmd.ErrOrStderr(), svc: svc, check: check}
			if err := runLibrariesUpdate(cmd.Context(), p); err != nil {
				printError(cmd.ErrOrStderr(), formatUpdateError("update libraries", err, app.verbose))
				return &ExitError{Code: classifyUpdateExitCode(err), Err: err}
			}
			return nil
		},
	}
	updateCmd.Flags().Bool("check", false, "check for a new release without installing it")

	libCmd.AddCommand(updateCmd)
	return libCmd
}

func runLibrariesUpdate(ctx context.Context, p librariesParams) error {
	if p.svc.cfg.Libraries.VersionURL == "" {
		return errNoLibrariesVersionURL
	}

	libs := p.svc.libraries
	current := libs.Current()
	latest, err := libs.DownloadOnlineVersionInfo(ctx)
	if err != nil {
		return err
	}

	if !libs.IsNecessaryToUpdate(&latest) {
		fmt.Fprintf(p.stdout, "%s (%s)\n", SuccessStyle.Render("Libraries are up to date."), current.Version)
		return nil
	}
	if p.check {
		fmt.Fprintf(p.stdout, "A libraries update is available: %s → %s\n", current.Version, latest.Version)
		return nil
	}

	fmt.Fprintf(p.stdout, "Downloading libraries %s...\n", latest.Version)
	if err := libs.Update(ctx, latest, progressPrinter(p.stderr)); err != nil {
		return err
	}
	fmt.Fprintln(p.stdout, SuccessStyle.Render(fmt.Sprintf("Libraries updated to %s in %s", latest.Version, libs.Destination())))
	return nil
}

// progressPrinter reports download progress in steps of ten percent, or
// per megabyte when the size is unknown.
func progressPrinter(w io.Writer) transfer.ProgressFunc {
	last := int64(-1)
	return func(p transfer.Progress) {
		if pct := p.Percent(); pct >= 0 {
			if step := int64(pct) / 10; step > last {
				last = step
				fmt.Fprintf(w, "  %3d%%\n", step*10)
			}
			return
		}
		if mb := p.Done >> 20; mb > last {
			last = mb
			fmt.Fprintf(w, "  %d MiB\n", mb)
		}
	}
}
