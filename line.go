package jsonlines

import (
	"context"
	"io"
)

// A LineReader reads the bytes of a single line.  It deliberately offers no
// way to seek, write or query a length.
type LineReader interface {
	io.ReadCloser
	ReadContext(ctx context.Context, p []byte) (int, error)
}

// A Line is a read-only view of the current line of a Splitter.  It borrows
// the splitter's buffer, so it is only valid until it is closed or read to
// the end.
type Line struct {
	s   *Splitter
	gen uint64

	// Set once Read has returned io.EOF.  The line then stays at its end even
	// if more bytes are buffered, since they belong to the next line.
	ended  bool
	closed bool
}

var _ LineReader = (*Line)(nil)

// Read reads up to len(p) bytes of the line.  It returns io.EOF at the end of
// the line.
func (l *Line) Read(p []byte) (int, error) {
	return l.ReadContext(context.Background(), p)
}

// ReadContext is like Read but gives up waiting on the source when ctx is
// done.
func (l *Line) ReadContext(ctx context.Context, p []byte) (int, error) {
	s := l.s
	if !s.enter() {
		return 0, ErrConcurrentUse
	}
	defer s.leave()
	if l.closed || !s.current(l) {
		return 0, ErrLineClosed
	}
	if l.ended {
		return 0, io.EOF
	}
	n, err := s.buf.ReadLine(ctx, p)
	if err == io.EOF {
		l.ended = true
	}
	return n, err
}

// Close ends the line.  Bytes of the line that were not read are skipped, so
// they never show up in the next line.  Closing a line twice is harmless.
func (l *Line) Close() error {
	return l.closeContext(context.Background())
}

// closeContext is like Close but stops skipping when ctx is done.  The
// splitter then finishes the skip on its next NextContext.
func (l *Line) closeContext(ctx context.Context) error {
	s := l.s
	if !s.enter() {
		return ErrConcurrentUse
	}
	defer s.leave()
	if l.closed {
		return nil
	}
	current := s.current(l)
	s.release(l)
	if !current || l.ended {
		return nil
	}
	l.ended = true
	if err := s.buf.DiscardLine(ctx); err != nil {
		s.discardPending = true
		return err
	}
	return nil
}

// withContext adapts l to an io.Reader whose reads are bound to ctx.
func (l *Line) withContext(ctx context.Context) io.Reader {
	if ctx.Done() == nil {
		return l
	}
	return contextLine{ctx: ctx, l: l}
}

type contextLine struct {
	ctx context.Context
	l   *Line
}

func (r contextLine) Read(p []byte) (int, error) {
	return r.l.ReadContext(r.ctx, p)
}
