// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/web2board/web2board/internal/issue"
	"github.com/web2board/web2board/internal/selfupdate"
	"github.com/web2board/web2board/internal/updater"
	"github.com/web2board/web2board/internal/version"
)

var (
	errNoVersionURL          = errors.New("no version URL configured (update.version_url)")
	errNoLibrariesVersionURL = errors.New("no version URL configured (libraries.version_url)")
)

// updateParams bundles the dependencies and flags for the update command,
// so runUpdate can be tested without a Cobra command.
type updateParams struct {
	stdout io.Writer
	svc    *services
	check  bool
}

func newUpdateCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update web2board to the latest release",
		Long: `Update web2board to the latest release.

The release archive is downloaded and staged next to the installation. An
auxiliary copy of web2board is then started; it waits for this process to
exit, replaces the installation with the staged release and starts the new
version.`,
		Example: `  # Check for updates without installing
  web2board update --check

  # Install the latest release
  web2board update`,
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

			p := updateParams{stdout: cmd.OutOrStdout(), svc: svc, check: check}
			if err := runUpdate(cmd.Context(), p); err != nil {
				printError(cmd.ErrOrStderr(), formatUpdateError("update web2board", err, app.verbose))
				return &ExitError{Code: classifyUpdateExitCode(err), Err: err}
			}
			return nil
		},
	}

	cmd.Flags().Bool("check", false, "check for a new release without installing it")
	return cmd
}

// runUpdate is the core of the update command.
//
// Flow:
//  1. Without a version URL there is nothing to check.
//  2. With --check, report current and latest release.
//  3. Otherwise run the original's half of the self-update. When an update
//     starts, the auxiliary copy ends this process; a return is a failure.
func runUpdate(ctx context.Context, p updateParams) error {
	if p.svc.cfg.Update.VersionURL == "" {
		return errNoVersionURL
	}

	if p.check {
		chk, err := p.svc.self.Check(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(p.stdout, "Current version: %s\n", chk.Current.Version)
		fmt.Fprintf(p.stdout, "Latest version:  %s\n", chk.Latest.Version)
		if !chk.UpdateAvailable {
			fmt.Fprintln(p.stdout, "\n"+SuccessStyle.Render("web2board is up to date."))
			return nil
		}
		fmt.Fprintf(p.stdout, "\nAn update is available: %s → %s\n", chk.Current.Version, chk.Latest.Version)
		if chk.Role != selfupdate.RoleOriginal {
			fmt.Fprintln(p.stdout, WarningStyle.Render("This executable is not an installation and cannot update itself."))
			return nil
		}
		fmt.Fprintf(p.stdout, "Run %s to install.\n", CmdStyle.Render("web2board update"))
		return nil
	}

	started, err := p.svc.self.CheckAndUpdate(ctx)
	if err != nil {
		return err
	}
	if !started {
		fmt.Fprintf(p.stdout, "%s (%s)\n", SuccessStyle.Render("web2board is up to date."), p.svc.self.Current().Version)
	}
	return nil
}

// classifyUpdateExitCode maps an update error to the process exit code:
// 1 for problems the user has to fix, 3 for a handoff that did not complete,
// 2 for everything else (network, disk, archive).
func classifyUpdateExitCode(err error) int {
	switch {
	case errors.Is(err, errNoVersionURL),
		errors.Is(err, errNoLibrariesVersionURL),
		errors.Is(err, selfupdate.ErrUnmanagedInstall),
		errors.Is(err, selfupdate.ErrInvalidApplyContext),
		errors.Is(err, version.ErrMalformedVersion),
		errors.Is(err, os.ErrPermission):
		return 1
	case errors.Is(err, selfupdate.ErrHandoffTimeout):
		return 3
	default:
		return 2
	}
}

// formatUpdateError renders err with remediation tailored to the failed
// protocol step.
func formatUpdateError(operation string, err error, verbose bool) string {
	ctx := issue.NewErrorContext().WithOperation(operation).Wrap(err)

	var dlErr *updater.DownloadError
	switch {
	case errors.Is(err, errNoVersionURL):
		ctx.Suggest(
			"Set update.version_url in config.toml",
			"Or export WEB2BOARD_UPDATE_VERSION_URL=<url>",
		)
	case errors.Is(err, errNoLibrariesVersionURL):
		ctx.Suggest(
			"Set libraries.version_url in config.toml",
			"Or export WEB2BOARD_LIBRARIES_VERSION_URL=<url>",
		)
	case errors.As(err, &dlErr):
		ctx.WithResource(dlErr.URL).Suggest(
			"Check your network connection and try again",
			"Verify update.download_url_template with 'web2board config show'",
		)
	case errors.Is(err, updater.ErrNoDownloadURL):
		ctx.Suggest("Set update.download_url_template; the release descriptor has no archive for this platform")
	case errors.Is(err, updater.ErrExtractionFailed):
		ctx.Suggest("The downloaded archive is damaged; run 'web2board update' again")
	case errors.Is(err, selfupdate.ErrUnmanagedInstall):
		ctx.Suggest("Run the web2board executable from its installation directory")
	case errors.Is(err, selfupdate.ErrCopyCreation):
		ctx.Suggest(
			"Make sure the directory containing the installation is writable",
			"Close programs that keep files of a previous update open",
		)
	case errors.Is(err, selfupdate.ErrHandoffTimeout):
		ctx.Suggest(
			"Close every other web2board window and start web2board again",
			"The output of the auxiliary copy is in "+childLogFile+" in the config directory",
		)
	case errors.Is(err, selfupdate.ErrInvalidApplyContext):
		ctx.Suggest("--" + selfupdate.ApplyFlag + " is only used by the auxiliary copy; run 'web2board update' instead")
	case errors.Is(err, selfupdate.ErrStageIncomplete):
		ctx.Suggest("Run 'web2board update' to download the release again")
	case errors.Is(err, os.ErrPermission):
		ctx.Suggest("Run web2board as a user that can write to the installation directory")
	}

	return ctx.Build().Format(verbose)
}
