// SPDX-License-Identifier: MPL-2.0

// Package store persists the VersionInfo of the currently installed release.
//
// A Store owns one JSON state file. The file is created on first use from a
// seed descriptor (the bundled res/config.json of the installation, or a
// built-in default reporting version 0.0.0) and afterwards changes only
// through Commit. Commits replace the file with a write-to-temp-then-rename
// sequence so a crash never leaves a half-written state file behind.
package store
