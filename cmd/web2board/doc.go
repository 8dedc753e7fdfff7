// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the CLI commands for web2board.
//
// The root command is also the entry point of the self-update handoff: the
// auxiliary copy is started as "web2board --update2version <v>" and applies
// the staged release before relaunching the original executable.
package cmd
