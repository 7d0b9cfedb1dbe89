package utils

import (
	"io"
)

// Close closes c and ignores any error.
// Use for best-effort cleanup in defer where error handling is not critical,
// such as read-only files and drained response bodies.
func Close(c io.Closer) {
	if c == nil {
		return
	}
	_ = c.Close()
}
