// Package console provides the character device consumed by the runtime: a
// blocking byte source fed from a queue of input streams, and a buffered byte
// sink.
package console

import (
	"io"
)

// Device is a blocking, byte-at-a-time character device.
type Device interface {
	// GetChar blocks until one byte is available.
	GetChar() (byte, error)

	// PutChar writes one byte.
	PutChar(c byte) error
}

// Console implements Device around an Input queue and a flushable output.
// Pending output is flushed before every blocking read.
type Console struct {
	Input
	out     WriteFlusher
	closers []io.Closer
}

// New returns a Console reading from the given streams, in order, and writing
// to out.
func New(out io.Writer, in ...io.Reader) *Console {
	con := &Console{out: NewWriteFlusher(out)}
	con.Queue = append(con.Queue, in...)
	return con
}

// SetOutput flushes any prior output stream, and then replaces it.
func (con *Console) SetOutput(w io.Writer) error {
	var err error
	if con.out != nil {
		err = con.out.Flush()
	}
	con.out = NewWriteFlusher(w)
	return err
}

// Tee adds another output stream that receives a copy of all output.
func (con *Console) Tee(w io.Writer) {
	con.out = WriteFlushers(con.out, NewWriteFlusher(w))
}

// AddCloser registers a resource to be closed by Close.
func (con *Console) AddCloser(cl io.Closer) {
	con.closers = append(con.closers, cl)
}

// GetChar flushes output, and then reads the next byte of input.
func (con *Console) GetChar() (byte, error) {
	if err := con.Flush(); err != nil {
		return 0, err
	}
	return con.Input.ReadByte()
}

// PutChar writes one byte of output.
func (con *Console) PutChar(c byte) error {
	if con.out == nil {
		return nil
	}
	if bw, ok := con.out.(io.ByteWriter); ok {
		return bw.WriteByte(c)
	}
	_, err := con.out.Write([]byte{c})
	return err
}

// PutString writes each byte of s.
func (con *Console) PutString(s string) error {
	for i := 0; i < len(s); i++ {
		if err := con.PutChar(s[i]); err != nil {
			return err
		}
	}
	return nil
}

// Flush any buffered output.
func (con *Console) Flush() error {
	if con.out == nil {
		return nil
	}
	return con.out.Flush()
}

// Close flushes output, and then closes any registered resources in reverse
// order, returning the first error encountered.
func (con *Console) Close() (err error) {
	err = con.Flush()
	for i := len(con.closers) - 1; i >= 0; i-- {
		if cerr := con.closers[i].Close(); err == nil {
			err = cerr
		}
	}
	con.closers = nil
	return err
}
