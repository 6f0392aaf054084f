package main

import (
	"bytes"
	"io"

	"github.com/jcorbin/tinyforth/internal/console"
)

// VMOption configures a VM under New.
type VMOption interface{ apply(vm *VM) }

var defaultOptions = VMOptions(
	withKernel{kernel},
	withEcho(true),
	withStackPadding(defaultStackPad),
)

// VMOptions combines any number of options into one.
func VMOptions(opts ...VMOption) VMOption {
	var all vmOptions
	for _, opt := range opts {
		switch impl := opt.(type) {
		case nil:
		case vmOptions:
			all = append(all, impl...)
		default:
			all = append(all, opt)
		}
	}
	if len(all) == 1 {
		return all[0]
	}
	return all
}

type vmOptions []VMOption

func (opts vmOptions) apply(vm *VM) {
	for _, opt := range opts {
		opt.apply(vm)
	}
}

type withLogfn func(mess string, args ...interface{})

func (logfn withLogfn) apply(vm *VM) {
	vm.logfn = logfn
}

type inputOption struct{ io.Reader }
type inputWriterOption struct{ io.WriterTo }
type outputOption struct{ io.Writer }
type teeOption struct{ io.Writer }
type withEcho bool
type withStackLimits struct{ data, ret int }
type withStackPadding int
type withCheckInterval int
type withMemLimit uint
type withCodeLimit int
type withLineSize int
type withNumberParser func(token string) (uint16, bool)
type withImage struct{ *Image }
type withKernel struct{ io.WriterTo }

func (i inputOption) apply(vm *VM) {
	vm.Queue = append(vm.Queue, i.Reader)
}

func (i inputWriterOption) apply(vm *VM) {
	var buf bytes.Buffer
	if _, err := i.WriteTo(&buf); err != nil {
		vm.Queue = append(vm.Queue, errReader{err})
		return
	}
	vm.Queue = append(vm.Queue, console.NamedReader(nameOf(i.WriterTo), &buf))
}

type errReader struct{ err error }

func (er errReader) Read([]byte) (int, error) { return 0, er.err }

func (o outputOption) apply(vm *VM) {
	vm.SetOutput(o.Writer)
}

func (o teeOption) apply(vm *VM) {
	vm.Tee(o.Writer)
}

func (echo withEcho) apply(vm *VM) { vm.echo = bool(echo) }

func (lim withStackLimits) apply(vm *VM) {
	vm.dataLimit = lim.data
	vm.retLimit = lim.ret
}

func (pad withStackPadding) apply(vm *VM) { vm.stackPad = int(pad) }
func (n withCheckInterval) apply(vm *VM)  { vm.checkInterval = int(n) }
func (lim withMemLimit) apply(vm *VM)     { vm.mem.Limit = uint(lim) }
func (lim withCodeLimit) apply(vm *VM)    { vm.codeLimit = int(lim) }
func (n withLineSize) apply(vm *VM)       { vm.lineSize = int(n) }
func (fn withNumberParser) apply(vm *VM)  { vm.parseNumber = fn }
func (img withImage) apply(vm *VM)        { vm.image = img.Image }
func (k withKernel) apply(vm *VM)         { vm.kernel = k.WriterTo }
