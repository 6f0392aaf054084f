package logio

import (
	"bytes"
	"sync"
)

// Writer turns a byte stream, such as console output, into one Logf call per
// line. Each line is given Prefix; trailing carriage returns are dropped.
type Writer struct {
	Logf   func(string, ...interface{})
	Prefix string

	mu  sync.Mutex
	buf bytes.Buffer
}

// Write buffers p, logging every line it completes.
func (lw *Writer) Write(p []byte) (n int, err error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	lw.buf.Write(p)
	for {
		i := bytes.IndexByte(lw.buf.Bytes(), '\n')
		if i < 0 {
			break
		}
		lw.logLine(lw.buf.Next(i + 1)[:i])
	}
	return len(p), nil
}

// Sync logs any partial line left in the buffer.
func (lw *Writer) Sync() error {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	if lw.buf.Len() > 0 {
		lw.logLine(lw.buf.Next(lw.buf.Len()))
	}
	return nil
}

// Close calls Sync.
func (lw *Writer) Close() error {
	return lw.Sync()
}

func (lw *Writer) logLine(line []byte) {
	line = bytes.TrimRight(line, "\r")
	lw.Logf("%s%s", lw.Prefix, line)
}
