// SPDX-License-Identifier: MPL-2.0

// Package launch starts detached processes and terminates processes by name.
//
// The self-update protocol needs both: the original executable starts its
// auxiliary copy and must be able to exit without taking the child down, and
// the copy must get rid of any original instance still holding files open
// before it deletes the installation tree.
//
// Detachment is platform specific (a new session on unix, a detached
// process group on Windows) and lives in build-tagged files.
package launch
