// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/web2board/web2board/internal/issue"
	"github.com/web2board/web2board/internal/selfupdate"
)

var (
	// Version is the release version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// launchParams bundles what runLauncher needs, so the normal start can be
// tested without a Cobra command.
type launchParams struct {
	stdout  io.Writer
	stderr  io.Writer
	svc     *services
	verbose bool
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// newRootCommand creates the root command and its subcommands.
func newRootCommand(app *App) *cobra.Command {
	var applyVersion string

	root := &cobra.Command{
		Use:   "web2board",
		Short: "Compile and upload sketches to your board, keeping web2board up to date",
		Long: TitleStyle.Render("web2board") + SubtitleStyle.Render(" - compile and upload sketches to your board") + `

Started without a subcommand, web2board checks for a new release (when
update.check_on_start is set), installs it, and then reports the selected
board and port.

` + SubtitleStyle.Render("Examples:") + `
  web2board update --check    Check for a new release
  web2board compile blink.ino Compile a sketch for the selected board
  web2board upload blink.ino  Compile and flash a sketch
  web2board config show       Show the effective configuration`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			svc, err := app.services(cmd.Context())
			if err != nil {
				return err
			}
			if applyVersion != "" {
				return runApply(cmd.Context(), cmd.ErrOrStderr(), svc, applyVersion, app.verbose)
			}
			return runLauncher(cmd.Context(), launchParams{
				stdout:  cmd.OutOrStdout(),
				stderr:  cmd.ErrOrStderr(),
				svc:     svc,
				verbose: app.verbose,
			})
		},
	}

	root.PersistentFlags().BoolVarP(&app.verbose, "verbose", "v", false, "enable verbose output")
	root.PersistentFlags().StringVar(&app.configFile, "config", "", "config file (default is $HOME/.config/web2board/config.toml)")
	root.Flags().StringVar(&applyVersion, selfupdate.ApplyFlag, "", "apply the staged release `VERSION` (used by the auxiliary copy)")
	_ = root.Flags().MarkHidden(selfupdate.ApplyFlag)

	root.SetOut(app.stdout)
	root.SetErr(app.stderr)

	root.AddCommand(
		newUpdateCommand(app),
		newLibrariesCommand(app),
		newVersionCommand(app),
		newConfigCommand(app),
		newCompileCommand(app),
		newUploadCommand(app),
		newPortsCommand(app),
	)
	return root
}

// Execute runs the CLI. It is called by main.main().
func Execute() {
	app := NewApp(Dependencies{})
	if err := fang.Execute(
		context.Background(),
		newRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

// runApply is the auxiliary copy's half of the self-update. ApplyUpdate
// terminates the process; it only returns when the exit function was
// replaced.
func runApply(ctx context.Context, stderr io.Writer, svc *services, v string, verbose bool) error {
	staged := svc.self.Layout().StagedPath(v)
	if err := svc.self.ApplyUpdate(ctx, staged); err != nil {
		printError(stderr, formatUpdateError("apply update", err, verbose))
		return &ExitError{Code: classifyUpdateExitCode(err), Err: err}
	}
	return nil
}

// runLauncher is the normal start: optional self-update, then a status
// report. A failed check is not fatal; a failed handoff is.
func runLauncher(ctx context.Context, p launchParams) error {
	layout := p.svc.self.Layout()
	role := layout.Role()
	update := p.svc.cfg.Update

	switch {
	case role == selfupdate.RoleCopy:
		p.svc.logger.Warn("running from the auxiliary copy; start web2board from its installation directory",
			"original", layout.OriginalExecutable())
	case !update.CheckOnStart:
		p.svc.logger.Debug("update check on start disabled")
	case update.VersionURL == "":
		p.svc.logger.Debug("no version URL configured, skipping update check")
	case role == selfupdate.RoleUnmanaged:
		p.svc.logger.Debug("not running from an installation, skipping update check", "dir", layout.MainDir)
	default:
		started, err := p.svc.self.CheckAndUpdate(ctx)
		if err != nil && started {
			printError(p.stderr, formatUpdateError("update web2board", err, p.verbose))
			return &ExitError{Code: classifyUpdateExitCode(err), Err: err}
		}
		if err != nil {
			p.svc.logger.Warn("update check failed", "err", err)
		}
	}

	port := p.svc.tools.Port()
	if port == "" {
		port = SubtitleStyle.Render("(auto-detect)")
	}
	fmt.Fprintf(p.stdout, "%s %s\n", TitleStyle.Render("web2board"), CmdStyle.Render(p.svc.tools.Version()))
	fmt.Fprintf(p.stdout, "  board: %s\n", p.svc.tools.Board())
	fmt.Fprintf(p.stdout, "  port:  %s\n", port)
	fmt.Fprintf(p.stdout, "\nUse %s or %s to work with your board.\n",
		CmdStyle.Render("web2board compile"), CmdStyle.Render("web2board upload"))
	return nil
}

// formatErrorForDisplay formats an error for user display, using the
// ActionableError formatting when available.
func formatErrorForDisplay(err error, verbose bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verbose)
	}
	return err.Error()
}
