package jsonlines

import (
	"context"
	"io"
	"sync/atomic"

	"github.com/arnodel/jsonlines/internal/linebuf"
)

// A Splitter cuts a byte source into lines.  Each call to Next returns a Line
// that reads the bytes of one line, without its terminator and without
// leading whitespace.  LF, CR and CRLF all end a line, and blank lines are
// skipped.
//
// A Splitter is meant for a single goroutine.  Only one Line can be open at a
// time: it must be read until io.EOF or closed before Next is called again.
type Splitter struct {
	src         io.Reader
	buf         *linebuf.Buffer
	closeSource bool

	closed bool
	active *Line

	// Incremented for every new line so that stale Line values can be
	// recognised.
	gen uint64

	// Set when skipping the rest of a closed line was interrupted.
	discardPending bool

	busy atomic.Bool
}

// NewSplitter returns a Splitter reading from r.
func NewSplitter(r io.Reader, opts ...Option) *Splitter {
	c := newConfig(opts)
	return &Splitter{
		src:         r,
		buf:         linebuf.New(linebuf.NewFetcher(r), c.chunkSize),
		closeSource: c.closeSource,
	}
}

// Next returns the next non-empty line, or io.EOF when there are no more.
// Once io.EOF has been returned, all later calls return io.EOF too.
func (s *Splitter) Next() (*Line, error) {
	return s.NextContext(context.Background())
}

// NextContext is like Next but gives up waiting on the source when ctx is
// done.  A cancelled call leaves the splitter as it was, and can be retried.
func (s *Splitter) NextContext(ctx context.Context) (*Line, error) {
	if !s.enter() {
		return nil, ErrConcurrentUse
	}
	defer s.leave()
	if s.closed {
		return nil, ErrClosed
	}
	if s.active != nil {
		if !s.active.ended {
			return nil, ErrLineOpen
		}
		s.release(s.active)
	}
	if s.discardPending {
		if err := s.buf.DiscardLine(ctx); err != nil {
			return nil, err
		}
		s.discardPending = false
	}
	ok, err := s.buf.Prefetch(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, io.EOF
	}
	s.gen++
	s.active = &Line{s: s, gen: s.gen}
	return s.active, nil
}

// Close releases the splitter.  If it was created with WithCloseSource the
// source is closed as well and its error returned.  Close is idempotent.
func (s *Splitter) Close() error {
	if !s.enter() {
		return ErrConcurrentUse
	}
	defer s.leave()
	if s.closed {
		return nil
	}
	s.closed = true
	s.active = nil
	s.gen++
	if s.closeSource {
		if c, ok := s.src.(io.Closer); ok {
			return c.Close()
		}
	}
	return nil
}

func (s *Splitter) enter() bool {
	return s.busy.CompareAndSwap(false, true)
}

func (s *Splitter) leave() {
	s.busy.Store(false)
}

func (s *Splitter) release(l *Line) {
	l.closed = true
	if s.active == l {
		s.active = nil
	}
}

// current reports whether l is the line the splitter is positioned on.
func (s *Splitter) current(l *Line) bool {
	return !s.closed && s.active == l && s.gen == l.gen
}
