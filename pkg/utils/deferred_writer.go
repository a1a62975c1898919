// Package utils holds small io helpers.
package utils

import (
	"bytes"
	"io"
	"sync"
)

// DefaultDeferredLimit bounds a DeferredWriter created with a zero Limit.
const DefaultDeferredLimit = 16 << 10

// DeferredWriter holds output produced while the terminal is owned by the
// reader and replays it afterwards. Only the last Limit bytes are kept,
// cut at a line boundary when possible. Safe for concurrent use.
type DeferredWriter struct {
	Limit int

	mu        sync.Mutex
	buf       bytes.Buffer
	truncated bool
}

// Write stores p, discarding the oldest output beyond the limit.
func (d *DeferredWriter) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	limit := d.Limit
	if limit <= 0 {
		limit = DefaultDeferredLimit
	}

	d.buf.Write(p)
	if over := d.buf.Len() - limit; over > 0 {
		rest := d.buf.Bytes()[over:]
		if i := bytes.IndexByte(rest, '\n'); i >= 0 && i < len(rest)-1 {
			rest = rest[i+1:]
		}
		kept := append([]byte(nil), rest...)
		d.buf.Reset()
		d.buf.Write(kept)
		d.truncated = true
	}
	return len(p), nil
}

// Truncated reports whether output was dropped since the last Flush.
func (d *DeferredWriter) Truncated() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.truncated
}

// Flush writes the retained output to w and clears the buffer.
func (d *DeferredWriter) Flush(w io.Writer) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.truncated = false
	if d.buf.Len() == 0 {
		return nil
	}

	_, err := d.buf.WriteTo(w)
	return err
}
