package jsonlines

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"
)

func strSplitter(s string, opts ...Option) *Splitter {
	return NewSplitter(strings.NewReader(s), opts...)
}

// readLine reads l to the end, readSize bytes at a time.
func readLine(t *testing.T, l *Line, readSize int) []byte {
	t.Helper()
	var line []byte
	p := make([]byte, readSize)
	for {
		n, err := l.Read(p)
		line = append(line, p[:n]...)
		if err == io.EOF {
			return line
		}
		if err != nil {
			t.Fatalf("Read: unexpected error %s", err)
		}
	}
}

func splitAll(t *testing.T, s *Splitter, readSize int) []string {
	t.Helper()
	var lines []string
	for {
		l, err := s.Next()
		if err == io.EOF {
			return lines
		}
		if err != nil {
			t.Fatalf("Next: unexpected error %s", err)
		}
		lines = append(lines, string(readLine(t, l, readSize)))
	}
}

func assertNext(t *testing.T, s *Splitter, xerr error) *Line {
	t.Helper()
	l, err := s.Next()
	if !errors.Is(err, xerr) {
		t.Fatalf("Next: expected err = %v, got %v", xerr, err)
	}
	if (err == nil) != (l != nil) {
		t.Fatalf("Next: expected a line iff err is nil, got %v, %v", l, err)
	}
	return l
}

func TestSplitterSkipsIndentation(t *testing.T) {
	s := strSplitter("1234\n  1234\n 1234", WithChunkSize(4))
	lines := splitAll(t, s, 400)
	if strings.Join(lines, "|") != "1234|1234|1234" {
		t.Fatalf("expected three lines %q, got %q", "1234", lines)
	}
}

func TestSplitterFixedRecords(t *testing.T) {
	input := []byte{
		1, 2, 3, 4, 1, 2, 3, 4, 13, 10,
		11, 12, 12, 14, 11, 12, 12, 14, 13,
		21, 22, 23, 24, 21, 22, 23, 24, 10,
		31, 32, 33, 34, 31, 32, 33, 34, 13, 10,
		41, 42, 43, 44, 41, 42, 43, 44, 13, 10,
	}
	for _, readSize := range []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 300} {
		s := NewSplitter(bytes.NewReader(input), WithChunkSize(4))
		lines := splitAll(t, s, readSize)
		if len(lines) != 5 {
			t.Fatalf("read size %d: expected 5 lines, got %d", readSize, len(lines))
		}
		for i, line := range lines {
			first := byte(1)
			if i > 0 {
				first = byte(10*i + 1)
			}
			if len(line) != 8 || line[0] != first {
				t.Fatalf("read size %d: line %d: unexpected content %v", readSize, i, []byte(line))
			}
			if strings.ContainsAny(line, "\r\n") {
				t.Fatalf("read size %d: line %d contains a terminator", readSize, i)
			}
		}
	}
}

func TestSplitterSingleLine(t *testing.T) {
	content := bytes.Repeat([]byte{1, 2, 3, 4}, 5)
	s := NewSplitter(bytes.NewReader(content), WithChunkSize(4))
	l := assertNext(t, s, nil)
	if got := readLine(t, l, 4); !bytes.Equal(got, content) {
		t.Fatalf("expected %v, got %v", content, got)
	}
	if n, err := l.Read(make([]byte, 4)); n != 0 || err != io.EOF {
		t.Fatalf("Read after end: expected 0, EOF, got %d, %v", n, err)
	}
	assertNext(t, s, io.EOF)
}

func TestSplitterExhaustionIsIdempotent(t *testing.T) {
	s := strSplitter("a\n\n  \n")
	l := assertNext(t, s, nil)
	readLine(t, l, 10)
	for i := 0; i < 5; i++ {
		assertNext(t, s, io.EOF)
	}
}

func TestSplitterRejectsOverlappingLines(t *testing.T) {
	s := strSplitter("first\nsecond\nthird")
	l := assertNext(t, s, nil)
	assertNext(t, s, ErrLineOpen)
	if _, err := s.Next(); !errors.Is(err, ErrMisuse) {
		t.Fatalf("expected ErrLineOpen to be an ErrMisuse, got %v", err)
	}
	// A partly read line is still open.
	if n, err := l.Read(make([]byte, 2)); n != 2 || err != nil {
		t.Fatalf("Read: expected 2 bytes, got %d, %v", n, err)
	}
	assertNext(t, s, ErrLineOpen)

	if err := l.Close(); err != nil {
		t.Fatalf("Close: unexpected error %s", err)
	}
	l = assertNext(t, s, nil)
	if got := string(readLine(t, l, 3)); got != "second" {
		t.Fatalf("expected %q, got %q", "second", got)
	}
	// Reading to the end releases the line without Close.
	l = assertNext(t, s, nil)
	if got := string(readLine(t, l, 3)); got != "third" {
		t.Fatalf("expected %q, got %q", "third", got)
	}
	assertNext(t, s, io.EOF)
}

func TestLineCloseSkipsUnreadBytes(t *testing.T) {
	s := strSplitter(`{"a": 1} trailing junk`+"\n"+`{"b": 2}`, WithChunkSize(4))
	l := assertNext(t, s, nil)
	if _, err := l.Read(make([]byte, 3)); err != nil {
		t.Fatalf("Read: unexpected error %s", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close: unexpected error %s", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("second Close: unexpected error %s", err)
	}
	if _, err := l.Read(make([]byte, 3)); !errors.Is(err, ErrLineClosed) {
		t.Fatalf("Read after Close: expected %v, got %v", ErrLineClosed, err)
	}
	l = assertNext(t, s, nil)
	if got := string(readLine(t, l, 5)); got != `{"b": 2}` {
		t.Fatalf("expected %q, got %q", `{"b": 2}`, got)
	}
}

func TestStaleLineCannotBeRead(t *testing.T) {
	s := strSplitter("a\nb\n")
	first := assertNext(t, s, nil)
	readLine(t, first, 1)
	assertNext(t, s, nil)
	if _, err := first.Read(make([]byte, 1)); !errors.Is(err, ErrLineClosed) {
		t.Fatalf("expected %v, got %v", ErrLineClosed, err)
	}
	// Closing a stale line must not release the current one.
	if err := first.Close(); err != nil {
		t.Fatalf("Close: unexpected error %s", err)
	}
	assertNext(t, s, ErrLineOpen)
}

type closeCounter struct {
	io.Reader
	closed int
}

func (c *closeCounter) Close() error {
	c.closed++
	return nil
}

func TestSplitterClose(t *testing.T) {
	borrowed := &closeCounter{Reader: strings.NewReader("a\nb\n")}
	s := NewSplitter(borrowed)
	l := assertNext(t, s, nil)
	if err := s.Close(); err != nil {
		t.Fatalf("Close: unexpected error %s", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second Close: unexpected error %s", err)
	}
	if borrowed.closed != 0 {
		t.Fatalf("a borrowed source must not be closed")
	}
	assertNext(t, s, ErrClosed)
	if _, err := l.Read(make([]byte, 1)); !errors.Is(err, ErrLineClosed) {
		t.Fatalf("Read on a closed splitter: expected %v, got %v", ErrLineClosed, err)
	}

	owned := &closeCounter{Reader: strings.NewReader("a\n")}
	s = NewSplitter(owned, WithCloseSource())
	s.Close()
	s.Close()
	if owned.closed != 1 {
		t.Fatalf("expected an owned source to be closed once, got %d", owned.closed)
	}
}

func TestSplitterPropagatesSourceErrors(t *testing.T) {
	ioErr := errors.New("connection reset")
	s := NewSplitter(io.MultiReader(strings.NewReader("ok\n"), errReader{ioErr}))
	l := assertNext(t, s, nil)
	readLine(t, l, 8)
	if _, err := s.Next(); err != ioErr {
		t.Fatalf("expected the source error unchanged, got %v", err)
	}
}

type errReader struct{ err error }

func (r errReader) Read([]byte) (int, error) { return 0, r.err }

func TestNextContextCancellation(t *testing.T) {
	pr, pw := io.Pipe()
	s := NewSplitter(pr)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := s.NextContext(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("NextContext: expected %v, got %v", context.DeadlineExceeded, err)
	}

	go func() {
		pw.Write([]byte("  hello\n"))
		pw.Close()
	}()
	l := assertNext(t, s, nil)
	if got := string(readLine(t, l, 2)); got != "hello" {
		t.Fatalf("expected %q, got %q", "hello", got)
	}
	assertNext(t, s, io.EOF)
}

// blockingReader signals when a Read starts and blocks until released.
type blockingReader struct {
	started chan struct{}
	release chan struct{}
}

func (r *blockingReader) Read(p []byte) (int, error) {
	close(r.started)
	<-r.release
	return 0, io.EOF
}

func TestSplitterDetectsConcurrentUse(t *testing.T) {
	src := &blockingReader{started: make(chan struct{}), release: make(chan struct{})}
	s := NewSplitter(src)
	done := make(chan error, 1)
	go func() {
		_, err := s.Next()
		done <- err
	}()
	<-src.started
	if _, err := s.Next(); !errors.Is(err, ErrConcurrentUse) {
		t.Fatalf("expected %v, got %v", ErrConcurrentUse, err)
	}
	if err := s.Close(); !errors.Is(err, ErrConcurrentUse) {
		t.Fatalf("expected %v, got %v", ErrConcurrentUse, err)
	}
	close(src.release)
	if err := <-done; err != io.EOF {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}
