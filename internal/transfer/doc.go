// SPDX-License-Identifier: MPL-2.0

// Package transfer moves release artifacts from a release server onto disk.
//
// It provides two capabilities used by the updaters:
//
//   - Client fetches small JSON descriptors (Fetch) and streams archives to a
//     file while reporting progress (Download).
//   - ZipExtractor unpacks a downloaded archive into a directory, refusing
//     entries that would escape it.
//
// Both are deliberately free of version semantics; the updater package
// decides what to fetch and where the results go.
package transfer
