// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/web2board/web2board/internal/config"
)

// newConfigCommand creates the `web2board config` command tree.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage web2board configuration",
		Long: `Manage web2board configuration.

Configuration is stored in:
  - Linux: ~/.config/web2board/config.toml
  - macOS: ~/Library/Application Support/web2board/config.toml
  - Windows: %APPDATA%\web2board\config.toml

Every key can be overridden with WEB2BOARD_<SECTION>_<KEY>, also from a .env
file in the same directory.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := app.loadConfig(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			source := cfg.Source
			if source == "" {
				source = SubtitleStyle.Render("(using defaults)")
			}
			fmt.Fprintf(out, "%s: %s\n\n", CmdStyle.Render("Config file"), source)

			data, err := config.GenerateTOML(cfg)
			if err != nil {
				return err
			}
			_, err = out.Write(data)
			return err
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create the default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgDir := app.configDir
			if cfgDir == "" {
				dir, err := config.ConfigDir()
				if err != nil {
					return err
				}
				cfgDir = dir
			}

			path, created, err := config.CreateDefaultConfig(cfgDir)
			if err != nil {
				return err
			}
			if !created {
				fmt.Fprintf(cmd.OutOrStdout(), "Configuration file already exists: %s\n", path)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), SuccessStyle.Render("Created configuration file: ")+path)
			return nil
		},
	})

	return cfgCmd
}
