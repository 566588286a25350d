// Package json provides the default JSON value codec for JSON Lines, backed by
// github.com/goccy/go-json.
package json

import (
	"errors"
	"io"

	"github.com/goccy/go-json"
)

// ErrTrailingData is returned by Decode when a line holds more than one JSON
// value.
var ErrTrailingData = errors.New("json: unexpected data after value")

// Codec encodes and decodes one JSON value per call.  The zero value is
// ready to use; it does not escape HTML characters and rejects trailing data
// after a value.
type Codec struct {
	// EscapeHTML escapes <, > and & in strings, like encoding/json.Marshal.
	EscapeHTML bool

	// DisallowUnknownFields makes decoding into a struct fail on object keys
	// that do not match a field.
	DisallowUnknownFields bool

	// UseNumber decodes numbers into an interface{} as json.Number instead
	// of float64.
	UseNumber bool

	// AllowTrailingData accepts input that holds more after the first value.
	// The extra data is left unread.
	AllowTrailingData bool
}

// Encode writes the JSON encoding of v to w.  No newline is appended.
func (c Codec) Encode(w io.Writer, v any) error {
	var (
		b   []byte
		err error
	)
	if c.EscapeHTML {
		b, err = json.Marshal(v)
	} else {
		b, err = json.MarshalNoEscape(v)
	}
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

// Decode reads one JSON value from r into v.
func (c Codec) Decode(r io.Reader, v any) error {
	dec := json.NewDecoder(r)
	if c.DisallowUnknownFields {
		dec.DisallowUnknownFields()
	}
	if c.UseNumber {
		dec.UseNumber()
	}
	if err := dec.Decode(v); err != nil {
		return err
	}
	if c.AllowTrailingData {
		return nil
	}
	switch _, err := dec.Token(); err {
	case io.EOF:
		return nil
	case nil:
		return ErrTrailingData
	default:
		return err
	}
}
