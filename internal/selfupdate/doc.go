// SPDX-License-Identifier: MPL-2.0

// Package selfupdate replaces the running web2board installation with a new
// release.
//
// A running program cannot delete its own files on every platform, so the
// update is handed to a second process running from a copy of the
// installation:
//
//  1. The original checks the remote descriptor and stages the new release
//     under <stageDir>/<version>, marked complete by <version>.confirm.
//  2. It copies its own tree to the copy directory, renaming the executable
//     to web2board_copy, starts that copy with --update2version <version>
//     and waits to be killed.
//  3. The copy kills any remaining original process, replaces the original
//     tree with the staged one, records the new version, relaunches the
//     original executable and exits.
//
// The package is organized into these concerns:
//   - layout.go: installation paths and process role detection
//   - state.go: the protocol state machine
//   - url.go: archive URL resolution from descriptors and templates
//   - download.go: asynchronous staging of a release
//   - handoff.go: auxiliary copy creation and launch
//   - apply.go: the replace-and-relaunch step run by the copy
//   - selfupdate.go: SelfUpdater and the check-and-update entry point
package selfupdate
