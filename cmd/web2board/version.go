// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newVersionCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the installed release and installation layout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := app.services(cmd.Context())
			if err != nil {
				return err
			}
			printVersion(cmd.OutOrStdout(), svc)
			return nil
		},
	}
}

func printVersion(w io.Writer, svc *services) {
	layout := svc.self.Layout()
	row := func(key, value string) {
		fmt.Fprintf(w, "%-18s %s\n", CmdStyle.Render(key+":"), value)
	}

	fmt.Fprintln(w, TitleStyle.Render("web2board")+" "+getVersionString())
	fmt.Fprintln(w)
	row("Installed release", svc.self.Current().Version)
	row("Libraries", svc.libraries.Current().Version)
	row("Running as", layout.Role().String())
	row("Installation", layout.OriginalDir)
	row("Auxiliary copy", layout.CopyDir)
	row("Staging", layout.StageDir)
	row("State file", svc.store.Path())
}
