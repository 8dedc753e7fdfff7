// SPDX-License-Identifier: MPL-2.0

package selfupdate

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrCopyCreation is the sentinel error wrapped by CopyCreationError.
	ErrCopyCreation = errors.New("self-update: creating auxiliary copy failed")

	// ErrHandoffTimeout is the sentinel error wrapped by HandoffTimeoutError.
	ErrHandoffTimeout = errors.New("self-update: original process was not terminated")

	// ErrInvalidApplyContext is the sentinel error wrapped by InvalidApplyContextError.
	ErrInvalidApplyContext = errors.New("self-update: apply must run from the auxiliary copy")

	// ErrOverlappingLayout is returned when the copy tree and the original
	// tree resolve to the same directory.
	ErrOverlappingLayout = errors.New("self-update: copy directory must differ from the original directory")

	// ErrCopyNotReady is returned when the copy is launched before it was created.
	ErrCopyNotReady = errors.New("self-update: auxiliary copy has not been created")

	// ErrStageIncomplete is returned when applying a release whose confirmation
	// marker is missing.
	ErrStageIncomplete = errors.New("self-update: staged release is incomplete")

	// ErrUnmanagedInstall is returned when a self-update is requested from an
	// executable outside the managed installation tree.
	ErrUnmanagedInstall = errors.New("self-update: executable is not part of the managed installation")
)

type (
	// CopyCreationError records a failure while building the copy tree.
	CopyCreationError struct {
		Source string
		Target string
		Err    error
	}

	// HandoffTimeoutError is returned when the original process is still
	// alive after the grace period that follows launching the copy.
	HandoffTimeoutError struct {
		PID   int // PID of the launched copy
		Grace time.Duration
	}

	// InvalidApplyContextError is returned when ApplyUpdate runs from any
	// directory other than the copy tree, or when the copy tree is the
	// original tree.
	InvalidApplyContextError struct {
		MainDir     string
		CopyDir     string
		OriginalDir string
	}
)

// Error implements the error interface.
func (e *CopyCreationError) Error() string {
	return fmt.Sprintf("creating auxiliary copy %s from %s: %v", e.Target, e.Source, e.Err)
}

// Unwrap returns both the sentinel and the underlying cause.
func (e *CopyCreationError) Unwrap() []error { return []error{ErrCopyCreation, e.Err} }

// Error implements the error interface.
func (e *HandoffTimeoutError) Error() string {
	return fmt.Sprintf("auxiliary copy (pid %d) did not terminate this process within %s", e.PID, e.Grace)
}

// Unwrap returns ErrHandoffTimeout so callers can use errors.Is for detection.
func (e *HandoffTimeoutError) Unwrap() error { return ErrHandoffTimeout }

// Error implements the error interface.
func (e *InvalidApplyContextError) Error() string {
	if samePath(e.CopyDir, e.OriginalDir) {
		return fmt.Sprintf("auxiliary copy %s is the original tree", e.CopyDir)
	}
	return fmt.Sprintf("apply running from %s, expected the auxiliary copy at %s", e.MainDir, e.CopyDir)
}

// Unwrap returns ErrInvalidApplyContext so callers can use errors.Is for detection.
func (e *InvalidApplyContextError) Unwrap() error { return ErrInvalidApplyContext }
