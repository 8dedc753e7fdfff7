// SPDX-License-Identifier: MPL-2.0

// Package updater implements the generic "compare, download, extract,
// install, persist" flow shared by every updatable component.
//
// An Updater owns no install semantics of its own. Where the extracted files
// end up is decided by an Installer:
//
//   - MergeInstaller merges archive contents into a directory (board libraries)
//   - the selfupdate package stages archives and swaps installation trees
//     through its own process-handoff protocol
//
// The persisted VersionInfo changes only through Commit, after the install
// step succeeded.
package updater
