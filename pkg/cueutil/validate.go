// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// Validate unifies data with the schema definition at definition (for
// example "#Descriptor") and reports the first set of violations.
//
// Schema compilation failures are programming errors and are returned as
// plain errors; problems with data are returned as *SchemaError.
func Validate(schema, data []byte, definition string, opts ...Option) error {
	options := defaultOptions()
	for _, opt := range opts {
		opt(&options)
	}

	if err := CheckSize(data, options.maxSize, options.filename); err != nil {
		return err
	}

	ctx := cuecontext.New()

	schemaValue := ctx.CompileBytes(schema)
	if schemaValue.Err() != nil {
		return fmt.Errorf("internal error: compiling schema: %w", schemaValue.Err())
	}

	root := schemaValue.LookupPath(cue.ParsePath(definition))
	if root.Err() != nil {
		return fmt.Errorf("internal error: schema definition %s not found: %w", definition, root.Err())
	}

	dataValue := ctx.CompileBytes(data, cue.Filename(options.filename))
	if dataValue.Err() != nil {
		return FormatError(dataValue.Err(), options.filename)
	}

	unified := root.Unify(dataValue)

	var err error
	if options.concrete {
		err = unified.Validate(cue.Concrete(true))
	} else {
		err = unified.Validate()
	}
	if err != nil {
		return FormatError(err, options.filename)
	}
	return nil
}
