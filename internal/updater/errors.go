// SPDX-License-Identifier: MPL-2.0

package updater

import (
	"errors"
	"fmt"
)

var (
	// ErrDownloadFailed is the sentinel error wrapped by DownloadError.
	ErrDownloadFailed = errors.New("update: download failed")

	// ErrExtractionFailed is the sentinel error wrapped by ExtractionError.
	ErrExtractionFailed = errors.New("update: extraction failed")

	// ErrNoInstaller is returned by Update when the Updater was built without
	// an Installer.
	ErrNoInstaller = errors.New("update: no installer configured")

	// ErrNoDownloadURL is returned when a release has no archive for the
	// running platform.
	ErrNoDownloadURL = errors.New("update: no download URL for platform")
)

type (
	// DownloadError records a failed archive download.
	DownloadError struct {
		URL string
		Err error
	}

	// ExtractionError records a failed archive extraction.
	ExtractionError struct {
		Archive string
		Err     error
	}
)

// Error implements the error interface.
func (e *DownloadError) Error() string {
	return fmt.Sprintf("downloading %s: %v", e.URL, e.Err)
}

// Unwrap returns both the sentinel and the underlying cause.
func (e *DownloadError) Unwrap() []error { return []error{ErrDownloadFailed, e.Err} }

// Error implements the error interface.
func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extracting %s: %v", e.Archive, e.Err)
}

// Unwrap returns both the sentinel and the underlying cause.
func (e *ExtractionError) Unwrap() []error { return []error{ErrExtractionFailed, e.Err} }
