// SPDX-License-Identifier: MPL-2.0

// Package config handles application configuration using Viper with TOML as
// the file format.
//
// Configuration is loaded from ~/.config/web2board/config.toml (or the XDG
// equivalent on Linux, ~/Library/Application Support/web2board/config.toml on
// macOS, %APPDATA%\web2board\config.toml on Windows). A .env file in the same
// directory is loaded into the environment first, and every key can be
// overridden with a WEB2BOARD_<SECTION>_<KEY> variable.
package config
