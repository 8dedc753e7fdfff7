// SPDX-License-Identifier: MPL-2.0

// Package cueutil validates JSON documents against embedded CUE schemas.
//
// Descriptors downloaded from a release server and state files written by
// older builds are both untrusted input. Validating them against a schema
// before decoding turns a shape mismatch into a message that names the
// offending field instead of a generic decoding failure:
//
//	//go:embed descriptor_schema.cue
//	var schema []byte
//
//	if err := cueutil.Validate(schema, data, "#Descriptor", cueutil.WithFilename(url)); err != nil {
//	    return err // *cueutil.SchemaError, field paths included
//	}
//
// Decoding into Go types is left to the caller so that custom JSON
// unmarshalers keep working.
package cueutil
