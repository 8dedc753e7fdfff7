// SPDX-License-Identifier: MPL-2.0

// Package toolchain wraps the external compiler and uploader used to build
// sketches and flash them onto boards. Commands come from the configuration
// and are split with shell quoting rules; no shell is started.
package toolchain
