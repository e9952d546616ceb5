// Package format encodes document trees for inspection.
package format

import (
	"fmt"
	"io"

	"github.com/dhamidi/snek/markup"
)

type Encoder interface {
	Encode(doc *markup.Document) error
}

// Names lists the formats accepted by New.
var Names = []string{"json", "yaml", "tree"}

// New returns the encoder for the named format writing to w.
func New(name string, w io.Writer) (Encoder, error) {
	switch name {
	case "json":
		return NewASTJSONEncoder(w), nil
	case "yaml":
		return NewYAMLEncoder(w), nil
	case "tree":
		return NewLineEncoder(w), nil
	}
	return nil, fmt.Errorf("unknown format: %s", name)
}
