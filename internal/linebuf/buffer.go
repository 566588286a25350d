// Package linebuf implements the chunked buffer that splits one byte source
// into lines.  A Buffer holds a window of unread bytes, knows (or can find)
// where the current line ends, and refills itself from the source one chunk
// at a time.
package linebuf

import (
	"context"
	"fmt"
	"io"

	"github.com/arnodel/jsonlines/internal/debug"
)

const (
	DefaultChunkSize = 16 * 1024

	// The backing array holds this many chunks.
	bufferChunks = 4

	// The window is moved back to offset 0 before a refill once its end is
	// past this many chunks.
	compactChunks = 3

	maxConsecutiveEmptyReads = 100
)

// An InvariantError is raised (by panicking) when the buffer's accounting
// becomes impossible.  It always indicates a bug in this package or its
// callers.
type InvariantError struct {
	Op  string
	Msg string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("linebuf: invariant violated in %s: %s", e.Op, e.Msg)
}

func invariant(op, format string, args ...any) {
	panic(&InvariantError{Op: op, Msg: fmt.Sprintf(format, args...)})
}

// Buffer is not safe for concurrent use.
type Buffer struct {
	fetch *Fetcher
	chunk int
	buf   []byte

	// The valid window is buf[start:start+length]
	// 0 <= start, 0 <= length, start+length <= len(buf)
	start  int
	length int

	// Offset from start of the next line terminator, or -1 if unknown.
	boundary int

	// Number of bytes from start known to contain no terminator.  It lets
	// FindBoundary only look at bytes it has not seen yet.
	// 0 <= scanned <= length
	scanned int

	// Sticky: once the source is exhausted it stays so.
	eof bool
}

// New returns a Buffer reading from f in chunks of chunkSize bytes.  A
// chunkSize <= 0 selects DefaultChunkSize.
func New(f *Fetcher, chunkSize int) *Buffer {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Buffer{
		fetch:    f,
		chunk:    chunkSize,
		buf:      make([]byte, bufferChunks*chunkSize),
		boundary: -1,
	}
}

func (b *Buffer) ChunkSize() int {
	return b.chunk
}

// Len returns the number of unread bytes in the window.
func (b *Buffer) Len() int {
	return b.length
}

// Start returns the offset of the window in the backing array.
func (b *Buffer) Start() int {
	return b.start
}

// Boundary returns the offset of the next terminator relative to the start of
// the window, and whether it is known.
func (b *Buffer) Boundary() (int, bool) {
	return b.boundary, b.boundary >= 0
}

// EOF reports whether the source has been exhausted.
func (b *Buffer) EOF() bool {
	return b.eof
}

// Window returns the unread bytes.  The slice is only valid until the next
// call that changes the buffer.
func (b *Buffer) Window() []byte {
	return b.buf[b.start : b.start+b.length]
}

// Refill reads at most n bytes from the source into the tail of the window.
// It does nothing once the source is exhausted.  Errors other than io.EOF are
// returned unchanged; bytes that came with them are kept.  If ctx is done
// before the source delivers, the window is left as it was.
func (b *Buffer) Refill(ctx context.Context, n int) error {
	if b.eof {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	end := b.start + b.length
	if end > compactChunks*b.chunk {
		b.compact()
		end = b.length
	}
	if free := len(b.buf) - end; n > free {
		n = free
	}
	if n <= 0 {
		invariant("Refill", "no room left (start=%d, length=%d)", b.start, b.length)
	}
	for i := maxConsecutiveEmptyReads; i > 0; i-- {
		k, err := b.fetch.Fetch(ctx, b.buf[end:end+n])
		if k > 0 {
			b.length += k
			if b.boundary < 0 {
				b.FindBoundary()
			}
		}
		if err == io.EOF {
			if debug.On {
				debug.Printf("end of source, %d bytes left in window", b.length)
			}
			b.eof = true
			return nil
		}
		if err != nil || k > 0 {
			return err
		}
	}
	return io.ErrNoProgress
}

func (b *Buffer) compact() {
	if debug.On {
		debug.Printf("compacting window start=%d length=%d", b.start, b.length)
	}
	copy(b.buf, b.buf[b.start:b.start+b.length])
	b.start = 0
}

// SkipWhitespace drops leading spaces, tabs, CRs and LFs from the window.  If
// anything was dropped the boundary becomes unknown.  It reports whether
// anything was dropped.
func (b *Buffer) SkipWhitespace() bool {
	i := 0
	for i < b.length && IsSpace(b.buf[b.start+i]) {
		i++
	}
	if i == 0 {
		return false
	}
	b.boundary = -1
	b.Advance(i)
	return true
}

// FindBoundary locates the first terminator in the window and reports whether
// there is one.
func (b *Buffer) FindBoundary() bool {
	for i := b.scanned; i < b.length; i++ {
		if IsTerminator(b.buf[b.start+i]) {
			b.boundary = i
			b.scanned = i
			return true
		}
	}
	b.boundary = -1
	b.scanned = b.length
	return false
}

// Advance consumes n bytes from the front of the window.  A known boundary
// moves left by n.
func (b *Buffer) Advance(n int) {
	if n < 0 || n > b.length {
		invariant("Advance", "cannot consume %d bytes out of %d", n, b.length)
	}
	b.length -= n
	if b.length == 0 {
		b.start = 0
	} else {
		b.start += n
	}
	if b.boundary >= 0 {
		b.boundary = max(b.boundary-n, -1)
	}
	b.scanned = max(b.scanned-n, 0)
}

// CopyOut copies as many bytes as possible into p without crossing the
// boundary, and consumes them.  A return of 0 only means nothing is available
// right now.
func (b *Buffer) CopyOut(p []byte) int {
	n := min(len(p), b.length)
	if b.boundary >= 0 {
		n = min(n, b.boundary)
	}
	if n == 0 {
		return 0
	}
	copy(p, b.buf[b.start:b.start+n])
	b.Advance(n)
	return n
}

// Prefetch positions the window at the start of the next non-empty line and
// reports whether there is one.  The terminator of the previous line and any
// blank lines are consumed on the way.
func (b *Buffer) Prefetch(ctx context.Context) (bool, error) {
	if b.boundary >= 0 {
		b.SkipWhitespace()
	}
	if b.length == 0 {
		if err := b.Refill(ctx, b.chunk); err != nil {
			return false, err
		}
	}
	for {
		b.SkipWhitespace()
		if b.length > 0 {
			b.FindBoundary()
			return true, nil
		}
		if b.eof {
			return false, nil
		}
		if err := b.Refill(ctx, b.chunk); err != nil {
			return false, err
		}
	}
}

// ReadLine copies bytes of the current line into p.  It returns io.EOF when
// the line has no more bytes.  At most one refill is issued per call.
func (b *Buffer) ReadLine(ctx context.Context, p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	switch {
	case b.boundary == 0:
		b.SkipWhitespace()
		return 0, io.EOF
	case b.boundary > 0:
		return b.CopyOut(p), nil
	case b.eof:
		if b.length == 0 {
			return 0, io.EOF
		}
		return b.CopyOut(p), nil
	}

	// From here on the window holds no terminator.
	if len(p) > b.chunk {
		p = p[:b.chunk]
	}
	switch {
	case b.length >= len(p):
	case b.length > 0 && b.start+b.length > compactChunks*b.chunk:
		// Serve what is buffered rather than compacting mid-line.
	default:
		if err := b.Refill(ctx, len(p)); err != nil {
			return 0, err
		}
		if b.boundary == 0 {
			b.SkipWhitespace()
			return 0, io.EOF
		}
		if b.length == 0 {
			return 0, io.EOF
		}
	}
	return b.CopyOut(p), nil
}

// DiscardLine consumes the rest of the current line, including its
// terminator.
func (b *Buffer) DiscardLine(ctx context.Context) error {
	for {
		if b.boundary >= 0 {
			b.Advance(b.boundary)
			b.SkipWhitespace()
			return nil
		}
		b.Advance(b.length)
		if b.eof {
			return nil
		}
		if err := b.Refill(ctx, b.chunk); err != nil {
			return err
		}
	}
}
