package main

import (
	"bytes"
	"io"
)

var kernel = kernelSource{}

type kernelSource struct{}

func (kernelSource) Name() string { return "kernel.fs" }

// WriteTo writes the Forth half of the system: words that are more naturally
// expressed with the compiler than as primitives.
func (kernelSource) WriteTo(w io.Writer) (n int64, err error) {
	var buf bytes.Buffer
	line := func(parts ...string) {
		if err != nil {
			return
		}
		for _, s := range parts {
			buf.WriteString(s)
		}
		buf.WriteByte('\n')
		var m int64
		m, err = buf.WriteTo(w)
		n += m
	}

	// H is a system variable, so HERE is just its value.
	line(`: HERE ( -- addr ) H @ ;`)

	// Variables are created cells with one zeroed cell of storage.
	line(`: VARIABLE ( "name" -- ) CREATE 0 , ;`)

	// Constants store their value in the created cell, and share code that
	// fetches it back out.
	line(`: CONSTANT ( x "name" -- ) CREATE , DOES> @ ;`)

	line(`-1 CONSTANT TRUE`)
	line(`0 CONSTANT FALSE`)
	line(`32 CONSTANT BL`)

	line(`: 2DUP ( a b -- a b a b ) OVER OVER ;`)
	line(`: 2DROP ( a b -- ) DROP DROP ;`)
	line(`: NOT ( x -- flag ) 0= ;`)
	line(`: ? ( addr -- ) @ . ;`)

	line(`: SPACES ( n -- )`,
		` BEGIN DUP 0 > WHILE`,
		` SPACE 1-`,
		` REPEAT DROP ;`)

	return n, err
}
