package main

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/jcorbin/tinyforth/internal/panicerr"
)

// New creates a VM; it boots lazily, on the first call to Run, Evaluate,
// Load, or Snapshot.
func New(opts ...VMOption) *VM {
	var vm VM
	defaultOptions.apply(&vm)
	VMOptions(opts...).apply(&vm)
	return &vm
}

// Run interprets console input until it is exhausted, BYE is executed, or
// ctx is done. Returns nil on a normal halt.
func (vm *VM) Run(ctx context.Context) error {
	vm.ctx = ctx
	return haltCause(panicerr.Recover("VM", func() error {
		if err := vm.boot(); err != nil {
			return err
		}
		vm.quit()
		return nil
	}))
}

// Evaluate interprets src silently; returns the cause of any abort.
func (vm *VM) Evaluate(src string) error {
	return vm.evaluateSource("<evaluate>", src)
}

// Load interprets all of r silently, like Evaluate.
func (vm *VM) Load(name string, r io.Reader) error {
	var sb strings.Builder
	if _, err := io.Copy(&sb, r); err != nil {
		return err
	}
	return vm.evaluateSource(name, sb.String())
}

func (vm *VM) evaluateSource(name, src string) error {
	return haltCause(panicerr.Recover(name, func() error {
		if err := vm.boot(); err != nil {
			return err
		}
		return vm.evaluate(name, src)
	}))
}

func haltCause(err error) error {
	var halt haltError
	if errors.As(err, &halt) {
		err = halt.error
	}
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func WithInput(r io.Reader) VMOption         { return inputOption{r} }
func WithInputWriter(w io.WriterTo) VMOption { return inputWriterOption{w} }
func WithOutput(w io.Writer) VMOption        { return outputOption{w} }
func WithTee(w io.Writer) VMOption           { return teeOption{w} }
func WithEcho(echo bool) VMOption            { return withEcho(echo) }
func WithMemLimit(cells uint) VMOption       { return withMemLimit(cells) }
func WithCodeLimit(atoms int) VMOption       { return withCodeLimit(atoms) }
func WithLineSize(n int) VMOption            { return withLineSize(n) }
func WithImage(img *Image) VMOption          { return withImage{img} }
func WithoutKernel() VMOption                { return withKernel{} }

// WithStackLimits sets the logical depth of the data and return stacks.
func WithStackLimits(data, ret int) VMOption { return withStackLimits{data, ret} }

// WithStackPadding sets how many slack slots surround each stack.
func WithStackPadding(n int) VMOption { return withStackPadding(n) }

// WithBoundsCheckInterval makes only every n-th word dispatch validate stack
// bounds; the outer interpreter still checks after every token.
func WithBoundsCheckInterval(n int) VMOption { return withCheckInterval(n) }

// WithNumberParser replaces the builtin number routine, used for tokens that
// do not name a word whenever 'NUMBER is 0.
func WithNumberParser(parse func(token string) (uint16, bool)) VMOption {
	return withNumberParser(parse)
}

func WithLogf(logfn func(mess string, args ...interface{})) VMOption { return withLogfn(logfn) }
