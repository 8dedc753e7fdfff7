// SPDX-License-Identifier: MPL-2.0

package version

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/web2board/web2board/pkg/cueutil"
)

//go:embed descriptor_schema.cue
var descriptorSchema []byte

// ParseDescriptor validates data against the descriptor schema and decodes it
// into an Info. source names the document in error messages.
func ParseDescriptor(data []byte, source string) (Info, error) {
	if err := cueutil.Validate(descriptorSchema, data, "#Descriptor", cueutil.WithFilename(source)); err != nil {
		return Info{}, err
	}

	var info Info
	if err := json.Unmarshal(data, &info); err != nil {
		return Info{}, fmt.Errorf("%s: decoding descriptor: %w", source, err)
	}
	if err := info.Validate(); err != nil {
		return Info{}, fmt.Errorf("%s: %w", source, err)
	}
	return info, nil
}

// MarshalDescriptor encodes info in the descriptor format, indented for
// human inspection.
func MarshalDescriptor(info Info) ([]byte, error) {
	out := info.Clone()
	if out.ExpectedAssets == nil {
		out.ExpectedAssets = []string{}
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding descriptor: %w", err)
	}
	return append(data, '\n'), nil
}
