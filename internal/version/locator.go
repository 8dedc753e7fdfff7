// SPDX-License-Identifier: MPL-2.0

package version

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"strings"
)

// Locator says where a release archive can be downloaded. It is either a
// single URL used on every platform or a map keyed by "<os>-<arch>".
type Locator struct {
	URL        string
	ByPlatform map[string]string
}

// IsZero reports whether the locator carries no URL at all.
func (l Locator) IsZero() bool {
	return l.URL == "" && len(l.ByPlatform) == 0
}

// Resolve returns the archive URL for the given platform. Platform keys are
// matched case-insensitively in this order: "<goos>-<goarch>",
// "<goos>-<bits>" and plain "<goos>". A single-URL locator matches every
// platform.
func (l Locator) Resolve(goos, goarch string) (string, bool) {
	if len(l.ByPlatform) == 0 {
		return l.URL, l.URL != ""
	}

	candidates := []string{
		goos + "-" + goarch,
		goos + "-" + ArchBits(goarch),
		goos,
	}
	for _, want := range candidates {
		for key, u := range l.ByPlatform {
			if strings.EqualFold(key, want) && u != "" {
				return u, true
			}
		}
	}
	return "", false
}

// MarshalJSON encodes the locator as a string or an object, mirroring the
// shape it was decoded from.
func (l Locator) MarshalJSON() ([]byte, error) {
	if len(l.ByPlatform) > 0 {
		return json.Marshal(l.ByPlatform)
	}
	return json.Marshal(l.URL)
}

// UnmarshalJSON accepts a string, an object of strings, or null.
func (l *Locator) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	switch {
	case bytes.Equal(trimmed, []byte("null")):
		*l = Locator{}
		return nil
	case len(trimmed) > 0 && trimmed[0] == '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return fmt.Errorf("decoding download URL: %w", err)
		}
		*l = Locator{URL: s}
		return nil
	case len(trimmed) > 0 && trimmed[0] == '{':
		var m map[string]string
		if err := json.Unmarshal(trimmed, &m); err != nil {
			return fmt.Errorf("decoding per-platform download URLs: %w", err)
		}
		*l = Locator{ByPlatform: m}
		return nil
	default:
		return fmt.Errorf("download URL must be a string or an object, got %s", trimmed)
	}
}

// ArchBits maps a GOARCH value to the "32"/"64" label used by release
// archives.
func ArchBits(goarch string) string {
	switch goarch {
	case "386", "arm", "mips", "mipsle", "wasm":
		return "32"
	default:
		return "64"
	}
}

func (l Locator) clone() Locator {
	return Locator{URL: l.URL, ByPlatform: maps.Clone(l.ByPlatform)}
}
