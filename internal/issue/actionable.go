// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"fmt"
	"strings"
)

type (
	// ActionableError is an error that tells the user what failed and what
	// to try next. Build one with NewErrorContext:
	//
	//	err := issue.NewErrorContext().
	//		WithOperation("load configuration").
	//		WithResource(path).
	//		Suggest("Run 'web2board config init' to create one").
	//		Wrap(cause).
	//		BuildError()
	ActionableError struct {
		// Operation is a verb phrase such as "apply update".
		Operation string
		// Resource is the file, directory or URL involved, if any.
		Resource string
		// Suggestions are printed one per line below the message.
		Suggestions []string
		// Cause is the underlying error, if any.
		Cause error
	}

	// ErrorContext accumulates the parts of an ActionableError.
	ErrorContext struct {
		operation   string
		resource    string
		suggestions []string
		cause       error
	}

	multiUnwrapper interface{ Unwrap() []error }
	unwrapper      interface{ Unwrap() error }
)

// NewErrorContext returns an empty builder.
func NewErrorContext() *ErrorContext {
	return &ErrorContext{}
}

// Error renders "failed to <operation>[: <resource>][: <cause>]".
func (e *ActionableError) Error() string {
	parts := []string{"failed to " + e.Operation}
	if e.Resource != "" {
		parts = append(parts, e.Resource)
	}
	if e.Cause != nil {
		parts = append(parts, e.Cause.Error())
	}
	return strings.Join(parts, ": ")
}

// Unwrap returns the cause.
func (e *ActionableError) Unwrap() error { return e.Cause }

// Format renders the message and the suggestions. With verbose set, every
// error in the cause tree follows, numbered in depth-first order; errors
// joined by one parent are indented one level below it.
func (e *ActionableError) Format(verbose bool) string {
	var b strings.Builder
	b.WriteString(e.Error())

	if len(e.Suggestions) > 0 {
		b.WriteString("\n")
		for _, s := range e.Suggestions {
			b.WriteString("\n  • " + s)
		}
	}

	if verbose && e.Cause != nil {
		b.WriteString("\n\nError chain:")
		n := 0
		writeChain(&b, e.Cause, 1, &n)
	}
	return b.String()
}

func writeChain(b *strings.Builder, err error, depth int, n *int) {
	for err != nil {
		*n++
		fmt.Fprintf(b, "\n%s%d. %s", strings.Repeat("  ", depth), *n, err)
		switch u := err.(type) {
		case multiUnwrapper:
			for _, inner := range u.Unwrap() {
				writeChain(b, inner, depth+1, n)
			}
			return
		case unwrapper:
			err = u.Unwrap()
		default:
			return
		}
	}
}

// WithOperation sets the operation.
func (c *ErrorContext) WithOperation(op string) *ErrorContext {
	c.operation = op
	return c
}

// WithResource sets the resource.
func (c *ErrorContext) WithResource(res string) *ErrorContext {
	c.resource = res
	return c
}

// Suggest appends suggestions.
func (c *ErrorContext) Suggest(suggestions ...string) *ErrorContext {
	c.suggestions = append(c.suggestions, suggestions...)
	return c
}

// Wrap sets the cause.
func (c *ErrorContext) Wrap(err error) *ErrorContext {
	c.cause = err
	return c
}

// Build returns the ActionableError, or nil when no operation was set.
// Suggestions added to c afterwards do not affect the result.
func (c *ErrorContext) Build() *ActionableError {
	if c.operation == "" {
		return nil
	}
	return &ActionableError{
		Operation:   c.operation,
		Resource:    c.resource,
		Suggestions: append([]string(nil), c.suggestions...),
		Cause:       c.cause,
	}
}

// BuildError is Build typed as error, so that a missing operation yields an
// untyped nil.
func (c *ErrorContext) BuildError() error {
	if ae := c.Build(); ae != nil {
		return ae
	}
	return nil
}
