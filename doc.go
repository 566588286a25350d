// Package jsonlines reads and writes JSON Lines: a text format holding one
// JSON value per line.
//
// The package is organized into several parts:
//
//   - Splitter and Line: cut any io.Reader into lines, with bounded memory
//   - Decode, Encode, Decoder and Encoder: convert between lines and Go values
//   - encoding/json: the default Codec, backed by github.com/goccy/go-json
//   - encoding/query: a Codec that validates lines and selects a gjson path
//
// A Splitter never holds more than four chunks of input (16KiB each by
// default), however long a line is.  Lines may end with LF, CR or CRLF, and
// the last line needs no terminator.  Leading whitespace and blank lines are
// skipped, so
//
//	{"a": 1}\r\n
//	\r\n
//	   {"a": 2}
//
// holds two lines.  A line that holds a JSON null decodes to no value at all.
//
// Everything that may block on the source has a Context variant, which gives
// up waiting when the context is done.  The splitter is left unchanged by a
// cancelled call and the call can be retried.
//
// The CLI utility is in the directory cmd/jl. You can install it with:
//
//	go install github.com/arnodel/jsonlines/cmd/jl
package jsonlines
