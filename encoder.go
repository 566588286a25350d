package jsonlines

import (
	"context"
	"io"
)

var lineTerminator = []byte{'\n'}

// An Encoder writes values as JSON Lines, one value per line, each followed
// by a single '\n'.
type Encoder[T any] struct {
	w     io.Writer
	codec Codec
}

// NewEncoder returns an Encoder writing to w with the given codec (nil means
// DefaultCodec).
func NewEncoder[T any](w io.Writer, codec Codec) *Encoder[T] {
	return &Encoder[T]{w: w, codec: codecOrDefault(codec)}
}

// Encode writes v followed by a line terminator.
func (e *Encoder[T]) Encode(v T) error {
	if err := e.codec.Encode(e.w, v); err != nil {
		return err
	}
	_, err := e.w.Write(lineTerminator)
	return err
}

// Flush flushes the underlying writer if it has a Flush() error method (e.g.
// a *bufio.Writer).
func (e *Encoder[T]) Flush() error {
	if f, ok := e.w.(interface{ Flush() error }); ok {
		return f.Flush()
	}
	return nil
}

// Encode writes items to w as JSON Lines and flushes w once at the end.  An
// empty slice writes nothing.
func Encode[T any](w io.Writer, items []T, codec Codec) error {
	return EncodeContext(context.Background(), w, items, codec)
}

// EncodeContext is like Encode but stops before the next item once ctx is
// done.  Items already written are not undone.
func EncodeContext[T any](ctx context.Context, w io.Writer, items []T, codec Codec) error {
	if len(items) == 0 {
		return nil
	}
	enc := NewEncoder[T](w, codec)
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := enc.Encode(item); err != nil {
			return err
		}
	}
	return enc.Flush()
}
