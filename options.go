package jsonlines

import "github.com/arnodel/jsonlines/internal/linebuf"

// DefaultChunkSize is the chunk size used when none is given.
const DefaultChunkSize = linebuf.DefaultChunkSize

// An Option configures a Splitter.
type Option func(*config)

type config struct {
	chunkSize   int
	closeSource bool
}

func newConfig(opts []Option) config {
	var c config
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// WithChunkSize sets how many bytes are requested from the source at a time.
// The splitter buffers at most four chunks.  A size <= 0 selects
// DefaultChunkSize.
func WithChunkSize(n int) Option {
	return func(c *config) {
		c.chunkSize = n
	}
}

// WithCloseSource makes the splitter own its source: closing the splitter
// closes the source if it implements io.Closer.  By default the source is
// left open.
func WithCloseSource() Option {
	return func(c *config) {
		c.closeSource = true
	}
}
