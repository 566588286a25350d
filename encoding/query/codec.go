// Package query provides a JSON Lines codec that validates each line with
// github.com/tidwall/gjson and can decode only part of it, selected by a
// gjson path.
package query

import (
	"bytes"
	"fmt"
	"io"

	jsoncodec "github.com/arnodel/jsonlines/encoding/json"
	"github.com/tidwall/gjson"
)

// A SyntaxError reports a line that is not valid JSON.
type SyntaxError struct {
	Line []byte
}

func (e *SyntaxError) Error() string {
	const maxShown = 40
	shown := e.Line
	if len(shown) > maxShown {
		shown = append(shown[:maxShown:maxShown], "..."...)
	}
	return fmt.Sprintf("query: invalid JSON: %q", shown)
}

// A Codec decodes a line by first checking that it is valid JSON, then
// selecting the value at Path (the whole line when Path is empty).  A line
// where Path matches nothing decodes to no value: the target is left as it
// was.
//
// Targets of type *gjson.Result and **gjson.Result receive the selected value
// directly.  Any other target is filled by Inner (the go-json codec when
// nil).
//
// Encoding is delegated to Inner.
type Codec struct {
	Path  string
	Inner ValueCodec
}

// ValueCodec is the shape of jsonlines.Codec.
type ValueCodec interface {
	Encode(w io.Writer, v any) error
	Decode(r io.Reader, v any) error
}

func (c Codec) inner() ValueCodec {
	if c.Inner == nil {
		return jsoncodec.Codec{}
	}
	return c.Inner
}

func (c Codec) Encode(w io.Writer, v any) error {
	return c.inner().Encode(w, v)
}

func (c Codec) Decode(r io.Reader, v any) error {
	line, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if !gjson.ValidBytes(line) {
		return &SyntaxError{Line: line}
	}
	var res gjson.Result
	if c.Path == "" {
		res = gjson.ParseBytes(line)
	} else {
		res = gjson.GetBytes(line, c.Path)
		if !res.Exists() {
			return nil
		}
	}
	switch target := v.(type) {
	case *gjson.Result:
		*target = res
		return nil
	case **gjson.Result:
		if res.Type == gjson.Null {
			*target = nil
		} else {
			*target = &res
		}
		return nil
	}
	if c.Path == "" {
		return c.inner().Decode(bytes.NewReader(line), v)
	}
	return c.inner().Decode(bytes.NewReader([]byte(res.Raw)), v)
}
