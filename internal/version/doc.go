// SPDX-License-Identifier: MPL-2.0

// Package version models release descriptors and the ordinal comparison used
// to decide whether an installation is out of date.
//
// A version string such as "1.2.10" is compared by removing the dots and
// reading the remaining digits as a base-10 integer (1210). Two releases
// differ when their ordinals differ; there is no notion of "older" beyond
// that. "1.2.10" and "1.21.0" share the ordinal 1210 and therefore compare
// equal, which is a known limitation of the descriptor format.
//
// Descriptors (remote and persisted) share one JSON shape:
//
//	{"version": "1.1.0", "file2DownloadUrl": "<url>" | {"<os>-<arch>": "<url>"}, "librariesNames": ["..."]}
//
// ParseDescriptor validates that shape against an embedded CUE schema before
// decoding it into an Info.
package version
