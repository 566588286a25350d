package jsonlines

import (
	"io"

	jsoncodec "github.com/arnodel/jsonlines/encoding/json"
)

// A Codec converts single JSON values to and from bytes.  The splitter never
// looks at the values: it only hands each line to Decode and collects what
// Encode writes.
type Codec interface {
	// Encode writes the JSON encoding of v to w, without a line terminator.
	Encode(w io.Writer, v any) error

	// Decode reads one JSON value from r and stores it in v, which is a
	// non-nil pointer.  r returns io.EOF at the end of the line.
	Decode(r io.Reader, v any) error
}

// DefaultCodec is used when a nil Codec is passed to this package.
var DefaultCodec Codec = jsoncodec.Codec{}

func codecOrDefault(c Codec) Codec {
	if c == nil {
		return DefaultCodec
	}
	return c
}
