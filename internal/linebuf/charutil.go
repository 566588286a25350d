package linebuf

// IsSpace reports whether b is whitespace that may precede a line's content.
func IsSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\r' || b == '\n'
}

// IsTerminator reports whether b ends a line.  CRLF is not treated as a unit:
// each of its bytes is a terminator on its own.
func IsTerminator(b byte) bool {
	return b == '\n' || b == '\r'
}
