package jsonlines

import (
	"errors"
	"fmt"
)

// ErrMisuse is wrapped by every error caused by using a Splitter or a Line
// out of protocol.  These are programming errors and should not be retried.
var ErrMisuse = errors.New("jsonlines: protocol misuse")

var (
	// ErrLineOpen is returned when a new line is requested while the previous
	// one has neither been read to the end nor closed.
	ErrLineOpen = fmt.Errorf("%w: previous line is still open", ErrMisuse)

	// ErrClosed is returned when using a Splitter after Close.
	ErrClosed = fmt.Errorf("%w: splitter is closed", ErrMisuse)

	// ErrLineClosed is returned when reading a Line after it was closed or
	// after the splitter moved past it.
	ErrLineClosed = fmt.Errorf("%w: line is closed", ErrMisuse)

	// ErrConcurrentUse is returned when a Splitter (or one of its lines) is
	// entered while another call on it is still running.
	ErrConcurrentUse = fmt.Errorf("%w: concurrent use of a splitter", ErrMisuse)
)
