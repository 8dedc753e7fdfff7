// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"errors"
	"fmt"
	"strings"

	cueerrors "cuelang.org/go/cue/errors"
)

var (
	// ErrSchemaViolation is the sentinel error wrapped by SchemaError.
	ErrSchemaViolation = errors.New("document does not match schema")

	// ErrDocumentTooLarge is returned when a document exceeds the configured size limit.
	ErrDocumentTooLarge = errors.New("document too large")
)

type (
	// Violation is a single schema violation.
	Violation struct {
		// Path is the JSON path to the invalid value (e.g. "file2DownloadUrl").
		Path    string
		Message string
	}

	// SchemaError lists every violation found in one document.
	SchemaError struct {
		Source     string
		Violations []Violation
	}
)

// Error implements the error interface.
func (e *SchemaError) Error() string {
	lines := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		if v.Path != "" {
			lines = append(lines, v.Path+": "+v.Message)
		} else {
			lines = append(lines, v.Message)
		}
	}
	if len(lines) == 1 {
		return fmt.Sprintf("%s: %s", e.Source, lines[0])
	}
	return fmt.Sprintf("%s: validation failed:\n  %s", e.Source, strings.Join(lines, "\n  "))
}

// Unwrap returns ErrSchemaViolation so callers can use errors.Is for detection.
func (e *SchemaError) Unwrap() error { return ErrSchemaViolation }

// FormatError converts a CUE error into a *SchemaError carrying JSON-path
// locations. Errors that did not originate in CUE are wrapped with source.
func FormatError(err error, source string) error {
	if err == nil {
		return nil
	}

	list := cueerrors.Errors(err)
	if len(list) == 0 {
		return fmt.Errorf("%s: %w", source, err)
	}

	out := &SchemaError{Source: source}
	for _, e := range list {
		path := formatPath(cueerrors.Path(e))
		msg := e.Error()
		// CUE often repeats the path at the front of the message.
		if path != "" && strings.HasPrefix(msg, path) {
			msg = strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(msg, path), ":"))
		}
		out.Violations = append(out.Violations, Violation{Path: path, Message: msg})
	}
	return out
}

// formatPath renders a CUE path (["assets", "0"]) in JSON-path notation
// ("assets[0]").
func formatPath(path []string) string {
	var b strings.Builder
	for i, part := range path {
		if i > 0 && isIndex(part) {
			b.WriteString("[" + part + "]")
			continue
		}
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(part)
	}
	return b.String()
}

func isIndex(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// CheckSize returns ErrDocumentTooLarge when data is larger than maxSize.
func CheckSize(data []byte, maxSize int64, source string) error {
	if int64(len(data)) > maxSize {
		return fmt.Errorf("%s: %d bytes exceeds maximum of %d bytes: %w", source, len(data), maxSize, ErrDocumentTooLarge)
	}
	return nil
}
