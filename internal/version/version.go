// SPDX-License-Identifier: MPL-2.0

package version

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// None is the version reported when nothing has been installed yet.
const None = "0.0.0"

// ErrMalformedVersion is the sentinel error wrapped by MalformedVersionError.
var ErrMalformedVersion = errors.New("malformed version")

type (
	// MalformedVersionError is returned when a version string cannot be
	// reduced to a numeric ordinal.
	MalformedVersionError struct {
		Version string
		Reason  string
	}

	// Info describes one release: its version, where to download its archive
	// and which top-level names must exist once it is installed.
	//
	// Info values are treated as immutable; use Clone before modifying one
	// that is shared.
	Info struct {
		Version        string   `json:"version"`
		Download       Locator  `json:"file2DownloadUrl,omitzero"`
		ExpectedAssets []string `json:"librariesNames"`
	}
)

// Error implements the error interface.
func (e *MalformedVersionError) Error() string {
	return fmt.Sprintf("malformed version %q: %s", e.Version, e.Reason)
}

// Unwrap returns ErrMalformedVersion so callers can use errors.Is for detection.
func (e *MalformedVersionError) Unwrap() error { return ErrMalformedVersion }

// ParseOrdinal strips every '.' from v and parses the remaining digits as a
// base-10 integer. Signs, spaces and any other characters are rejected, as is
// a string with no digits at all.
func ParseOrdinal(v string) (int64, error) {
	digits := strings.ReplaceAll(v, ".", "")
	if digits == "" {
		return 0, &MalformedVersionError{Version: v, Reason: "no digits"}
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0, &MalformedVersionError{Version: v, Reason: fmt.Sprintf("unexpected character %q", r)}
		}
	}

	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, &MalformedVersionError{Version: v, Reason: "ordinal overflows int64"}
	}
	return n, nil
}

// IsNewer reports whether candidate should replace current. Any difference in
// ordinal counts, so publishing an older descriptor rolls installations back.
func IsNewer(candidate, current string) (bool, error) {
	c, err := ParseOrdinal(candidate)
	if err != nil {
		return false, fmt.Errorf("candidate: %w", err)
	}
	cur, err := ParseOrdinal(current)
	if err != nil {
		return false, fmt.Errorf("current: %w", err)
	}
	return c != cur, nil
}

// Validate checks that the version parses under the ordinal rule.
func (i Info) Validate() error {
	_, err := ParseOrdinal(i.Version)
	return err
}

// Clone returns a deep copy of i.
func (i Info) Clone() Info {
	out := i
	out.Download = i.Download.clone()
	if i.ExpectedAssets != nil {
		out.ExpectedAssets = append([]string(nil), i.ExpectedAssets...)
	}
	return out
}

// String returns the version string.
func (i Info) String() string { return i.Version }
