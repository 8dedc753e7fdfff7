// SPDX-License-Identifier: MPL-2.0

package cueutil

// DefaultMaxDocumentSize is the default upper bound on validated documents (1 MiB).
const DefaultMaxDocumentSize int64 = 1 << 20

type (
	validateOptions struct {
		maxSize  int64
		concrete bool
		filename string
	}

	// Option configures validation behavior.
	Option func(*validateOptions)
)

func defaultOptions() validateOptions {
	return validateOptions{
		maxSize:  DefaultMaxDocumentSize,
		concrete: true,
		filename: "<input>",
	}
}

// WithMaxSize sets the maximum accepted document size in bytes.
func WithMaxSize(size int64) Option {
	return func(o *validateOptions) {
		o.maxSize = size
	}
}

// WithConcrete controls whether every value must be concrete after
// unification. Defaults to true.
func WithConcrete(concrete bool) Option {
	return func(o *validateOptions) {
		o.concrete = concrete
	}
}

// WithFilename sets the document name used in error messages, typically a
// file path or a redacted URL.
func WithFilename(name string) Option {
	return func(o *validateOptions) {
		if name != "" {
			o.filename = name
		}
	}
}
