package jsonlines

import (
	"context"
	"io"
)

// A Decoder reads JSON Lines one value at a time.  Lines holding a JSON null
// are skipped.
type Decoder[T any] struct {
	s     *Splitter
	codec Codec
}

// NewDecoder returns a Decoder reading from r with the given codec (nil means
// DefaultCodec).  The options configure the underlying Splitter.
func NewDecoder[T any](r io.Reader, codec Codec, opts ...Option) *Decoder[T] {
	return &Decoder[T]{
		s:     NewSplitter(r, opts...),
		codec: codecOrDefault(codec),
	}
}

// Next returns the next value, or io.EOF when the input is exhausted.  Errors
// from the codec are returned unchanged.
func (d *Decoder[T]) Next() (T, error) {
	return d.NextContext(context.Background())
}

// NextContext is like Next but gives up waiting on the source when ctx is
// done.
func (d *Decoder[T]) NextContext(ctx context.Context) (T, error) {
	var zero T
	for {
		line, err := d.s.NextContext(ctx)
		if err != nil {
			return zero, err
		}
		// A null line leaves p nil.
		var p *T
		err = d.codec.Decode(line.withContext(ctx), &p)
		closeErr := line.closeContext(ctx)
		if err != nil {
			return zero, err
		}
		if closeErr != nil {
			return zero, closeErr
		}
		if p != nil {
			return *p, nil
		}
	}
}

// Close closes the underlying Splitter.
func (d *Decoder[T]) Close() error {
	return d.s.Close()
}

// Decode reads all the values in r.  Lines holding a JSON null are skipped.
// If any line fails to decode, Decode returns a nil slice and the error.
func Decode[T any](r io.Reader, codec Codec, opts ...Option) ([]T, error) {
	return DecodeContext[T](context.Background(), r, codec, opts...)
}

// DecodeContext is like Decode but gives up waiting on the source when ctx is
// done.
func DecodeContext[T any](ctx context.Context, r io.Reader, codec Codec, opts ...Option) ([]T, error) {
	d := NewDecoder[T](r, codec, opts...)
	defer d.Close()
	var values []T
	for {
		v, err := d.NextContext(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	if err := d.Close(); err != nil {
		return nil, err
	}
	return values, nil
}
