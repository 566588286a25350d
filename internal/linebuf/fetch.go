package linebuf

import (
	"context"
	"io"
)

// A ContextReader is a source whose reads can be abandoned when a context is
// done.  Sources that implement it are read directly in cancellable mode.
type ContextReader interface {
	ReadContext(ctx context.Context, p []byte) (int, error)
}

// A Fetcher is the single primitive through which a Buffer pulls bytes from
// its source.  With a context that can never be done it is a plain blocking
// Read.  Otherwise, for sources that are not ContextReaders, the read runs on
// a helper goroutine into a private scratch slice; if the context is done
// first the read stays pending and its result is handed to the next Fetch,
// so no source bytes are ever dropped.
type Fetcher struct {
	r io.Reader

	// Non-nil while a read started by an earlier Fetch has not been collected.
	pending chan fetchResult
	scratch []byte

	// Bytes (and the error that came with them) from a collected read that did
	// not fit in the caller's slice.
	stash    []byte
	stashErr error
}

type fetchResult struct {
	data []byte
	err  error
}

func NewFetcher(r io.Reader) *Fetcher {
	return &Fetcher{r: r}
}

// Fetch reads up to len(p) bytes into p, following the io.Reader contract.
// When ctx is done before any bytes arrive it returns 0 and ctx.Err().
func (f *Fetcher) Fetch(ctx context.Context, p []byte) (int, error) {
	if len(f.stash) > 0 || f.stashErr != nil {
		return f.unstash(p), f.takeStashErr()
	}
	if f.pending == nil {
		if cr, ok := f.r.(ContextReader); ok {
			return cr.ReadContext(ctx, p)
		}
		if ctx.Done() == nil {
			return f.r.Read(p)
		}
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		f.start(len(p))
	}
	select {
	case res := <-f.pending:
		f.pending = nil
		f.stash, f.stashErr = res.data, res.err
		return f.unstash(p), f.takeStashErr()
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// Pending reports whether an abandoned read has yet to be collected.
func (f *Fetcher) Pending() bool {
	return f.pending != nil
}

func (f *Fetcher) start(n int) {
	if cap(f.scratch) < n {
		f.scratch = make([]byte, n)
	}
	buf := f.scratch[:n]
	ch := make(chan fetchResult, 1)
	go func() {
		k, err := f.r.Read(buf)
		ch <- fetchResult{data: buf[:k], err: err}
	}()
	f.pending = ch
}

func (f *Fetcher) unstash(p []byte) int {
	n := copy(p, f.stash)
	f.stash = f.stash[n:]
	return n
}

// takeStashErr returns the stashed error once all stashed bytes are gone.
func (f *Fetcher) takeStashErr() error {
	if len(f.stash) > 0 {
		return nil
	}
	err := f.stashErr
	f.stash, f.stashErr = nil, nil
	return err
}
