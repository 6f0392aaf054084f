package console

import (
	"bufio"
	"fmt"
	"io"
)

// Location names a line in an Input stream.
type Location struct {
	Name string
	Line int
}

func (loc Location) String() string { return fmt.Sprintf("%v:%v", loc.Name, loc.Line) }

// Input implements sequential byte reading through a Queue of one or more
// input streams, tracking the location of the byte most recently read.
type Input struct {
	Queue []io.Reader

	cur io.ByteReader
	src io.Reader
	loc Location
}

// Location returns where the next byte will be read from.
func (in *Input) Location() Location { return in.loc }

// ReadByte reads one byte from the current stream, moving on to the next
// queued stream at end of file. Returns io.EOF once all streams are
// exhausted.
func (in *Input) ReadByte() (byte, error) {
	for {
		if in.cur == nil && !in.nextIn() {
			return 0, io.EOF
		}
		c, err := in.cur.ReadByte()
		if err == nil {
			if c == '\n' {
				in.loc.Line++
			}
			return c, nil
		}
		if err != io.EOF {
			return 0, err
		}
		in.closeCur()
	}
}

func (in *Input) closeCur() {
	if cl, ok := in.src.(io.Closer); ok {
		cl.Close()
	}
	in.cur, in.src = nil, nil
}

func (in *Input) nextIn() bool {
	if len(in.Queue) == 0 {
		return false
	}
	r := in.Queue[0]
	in.Queue = in.Queue[1:]
	in.src = r
	if br, ok := r.(io.ByteReader); ok {
		in.cur = br
	} else {
		in.cur = bufio.NewReader(r)
	}
	in.loc = Location{Name: nameOf(r), Line: 1}
	return true
}

// NamedReader attaches a name to r, used in input Locations.
func NamedReader(name string, r io.Reader) io.Reader {
	return namedReader{r, name}
}

type namedReader struct {
	io.Reader
	name string
}

func (nr namedReader) Name() string { return nr.name }

func (nr namedReader) Close() error {
	if cl, ok := nr.Reader.(io.Closer); ok {
		return cl.Close()
	}
	return nil
}

func nameOf(obj interface{}) string {
	if nom, ok := obj.(interface{ Name() string }); ok {
		return nom.Name()
	}
	return fmt.Sprintf("<unnamed %T>", obj)
}
