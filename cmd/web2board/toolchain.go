// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/web2board/web2board/internal/toolchain"
)

// sketchParams bundles the inputs of compile and upload.
type sketchParams struct {
	stdout io.Writer
	stderr io.Writer
	tools  *toolchain.Facade
	file   string
	board  string
	port   string
	upload bool
}

func newCompileCommand(app *App) *cobra.Command {
	return newSketchCommand(app, false)
}

func newUploadCommand(app *App) *cobra.Command {
	return newSketchCommand(app, true)
}

func newSketchCommand(app *App, upload bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compile FILE",
		Short: "Compile a sketch for the selected board",
		Args:  cobra.ExactArgs(1),
	}
	if upload {
		cmd.Use = "upload FILE"
		cmd.Short = "Compile a sketch and flash it onto the board"
	}

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		board, _ := cmd.Flags().GetString("board")
		port, _ := cmd.Flags().GetString("port")

		svc, err := app.services(cmd.Context())
		if err != nil {
			return err
		}
		return runSketch(cmd.Context(), sketchParams{
			stdout: cmd.OutOrStdout(),
			stderr: cmd.ErrOrStderr(),
			tools:  svc.tools,
			file:   args[0],
			board:  board,
			port:   port,
			upload: upload,
		})
	}

	cmd.Flags().String("board", "", "board identifier (default from toolchain.board)")
	if upload {
		cmd.Flags().String("port", "", "serial port (default: toolchain.port, else auto-detect)")
	}
	return cmd
}

// runSketch compiles or uploads p.file. A failing toolchain command exits
// with the command's own status.
func runSketch(ctx context.Context, p sketchParams) error {
	code, err := os.ReadFile(p.file)
	if err != nil {
		return fmt.Errorf("reading sketch: %w", err)
	}

	if p.board != "" {
		if err := p.tools.SetBoard(p.board); err != nil {
			return err
		}
	}
	if p.port != "" {
		p.tools.SetPort(p.port)
	}

	run, done := p.tools.Compile, "Compiled"
	if p.upload {
		run, done = p.tools.Upload, "Uploaded"
	}

	res, err := run(ctx, string(code))
	if res != nil {
		fmt.Fprint(p.stdout, res.Output)
		fmt.Fprint(p.stderr, res.ErrOutput)
	}
	var cmdErr *toolchain.CommandError
	if errors.As(err, &cmdErr) {
		return &ExitError{Code: cmdErr.Result.ExitCode, Err: err}
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(p.stdout, SuccessStyle.Render(fmt.Sprintf("%s %s for %s", done, p.file, p.tools.Board())))
	return nil
}

func newPortsCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "ports",
		Short: "List serial ports a board may be connected to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := app.services(cmd.Context())
			if err != nil {
				return err
			}
			ports, err := svc.tools.ListPorts(cmd.Context())
			if err != nil {
				return err
			}
			if len(ports) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), SubtitleStyle.Render("No serial ports found"))
				return nil
			}
			for _, p := range ports {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		},
	}
}
