// Package follow reads a file that is still being written to, in the manner
// of tail -f.
package follow

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/fsnotify/fsnotify"
)

// A Reader returns the contents of a file and, instead of reporting io.EOF
// when it catches up with the writer, waits for the file to grow.  It reports
// io.EOF once the file is removed or renamed.
type Reader struct {
	path    string
	f       *os.File
	watcher *fsnotify.Watcher
}

// Open opens path for following.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		f.Close()
		return nil, err
	}
	if err := w.Add(path); err != nil {
		w.Close()
		f.Close()
		return nil, err
	}
	return &Reader{path: path, f: f, watcher: w}, nil
}

func (r *Reader) Read(p []byte) (int, error) {
	return r.ReadContext(context.Background(), p)
}

// ReadContext waits for data until ctx is done.
func (r *Reader) ReadContext(ctx context.Context, p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	for {
		n, err := r.f.Read(p)
		if n > 0 {
			return n, nil
		}
		if err != nil && err != io.EOF {
			return 0, err
		}
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case ev, ok := <-r.watcher.Events:
			if !ok || ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) || r.gone() {
				return 0, io.EOF
			}
		case err, ok := <-r.watcher.Errors:
			if !ok {
				return 0, io.EOF
			}
			return 0, err
		}
	}
}

// gone reports whether the file was unlinked.  While it is held open, the
// unlink may only show up as a Chmod event.
func (r *Reader) gone() bool {
	_, err := os.Stat(r.path)
	return errors.Is(err, os.ErrNotExist)
}

func (r *Reader) Close() error {
	return errors.Join(r.watcher.Close(), r.f.Close())
}
