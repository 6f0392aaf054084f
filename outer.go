package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/jcorbin/tinyforth/internal/console"
	"github.com/jcorbin/tinyforth/internal/panicerr"
)

// lineSource refills the VM's line buffer.
type lineSource interface {
	// refill replaces vm.line with the next line of input, returning false
	// once input is exhausted.
	refill(vm *VM) bool

	// interactive sources get line acknowledgements and abort diagnostics.
	interactive() bool

	// location names the current line for trace logs.
	location(vm *VM) string
}

// consoleSource reads lines from the character device, echoing what it
// accepts and handling destructive backspace.
type consoleSource struct{}

func (consoleSource) interactive() bool { return true }

func (consoleSource) location(vm *VM) string { return vm.lineLoc.String() }

func (consoleSource) refill(vm *VM) bool {
	if vm.ackPending {
		vm.ackPending = false
		if vm.state() != 0 {
			vm.putString(" compiled\n")
		} else {
			vm.putString(" ok\n")
		}
	}

	vm.line = vm.line[:0]
	vm.cursor = 0
	if vm.eof {
		return false
	}

	first := true
readLine:
	for len(vm.line) < vm.lineSize {
		c, err := vm.GetChar()
		if err == io.EOF || (err == nil && c == console.EOT) {
			vm.eof = true
			if len(vm.line) == 0 {
				return false
			}
			break
		}
		vm.haltif(err)
		vm.haltif(vm.ctx.Err())
		if first {
			first = false
			vm.lineLoc = vm.Location()
		}

		if c == console.LF && vm.skipLF {
			vm.skipLF = false
			continue
		}
		vm.skipLF = c == console.CR

		switch {
		case c == console.CR || c == console.LF:
			break readLine

		case c == console.BS || c == console.DEL:
			if n := len(vm.line); n > 0 {
				vm.line = vm.line[:n-1]
				if vm.echo {
					vm.putString("\b \b")
				}
			}

		case c == '\t':
			vm.accept(' ')

		case console.IsControl(c):
			vm.logf(">", "ignored %v %v", console.Name(c), console.CaretForm(c))

		default:
			vm.accept(c)
		}
	}

	if vm.echo {
		vm.putChar(' ')
	}
	vm.ackPending = true
	return true
}

func (vm *VM) accept(c byte) {
	vm.line = append(vm.line, c)
	if vm.echo {
		vm.putChar(c)
	}
}

// textSource feeds lines from a string, silently.
type textSource struct {
	name   string
	lineNo int
	lines  []string
}

func newTextSource(name, text string) *textSource {
	text = strings.TrimSuffix(text, "\n")
	return &textSource{
		name:  name,
		lines: strings.Split(text, "\n"),
	}
}

func (src *textSource) interactive() bool { return false }

func (src *textSource) location(*VM) string { return fmt.Sprintf("%v:%v", src.name, src.lineNo) }

func (src *textSource) refill(vm *VM) bool {
	if len(src.lines) == 0 {
		return false
	}
	line := strings.TrimSuffix(src.lines[0], "\r")
	src.lines = src.lines[1:]
	src.lineNo++
	vm.line = append(vm.line[:0], line...)
	vm.cursor = 0
	return true
}

// word scans the next whitespace delimited token from the current line,
// leaving the cursor past its trailing delimiter. Returns "" at end of
// line.
func (vm *VM) word() string {
	for vm.cursor < len(vm.line) && console.IsSpace(vm.line[vm.cursor]) {
		vm.cursor++
	}
	start := vm.cursor
	for vm.cursor < len(vm.line) && !console.IsSpace(vm.line[vm.cursor]) {
		vm.cursor++
	}
	token := string(vm.line[start:vm.cursor])
	if vm.cursor < len(vm.line) {
		vm.cursor++
	}
	if token != "" {
		vm.logf(">", "%v", token)
	}
	return token
}

// nextToken is like word, but refills across line boundaries; it returns
// "" only once input is exhausted.
func (vm *VM) nextToken() string {
	for {
		if token := vm.word(); token != "" {
			return token
		}
		if !vm.src.refill(vm) {
			return ""
		}
	}
}

// parse returns the text from the cursor up to delim, leaving the cursor
// past it. If delim does not occur, the rest of the line is returned.
func (vm *VM) parse(delim byte) (text string, found bool) {
	rest := vm.line[vm.cursor:]
	for i, c := range rest {
		if c == delim {
			vm.cursor += i + 1
			return string(rest[:i]), true
		}
	}
	vm.cursor = len(vm.line)
	return string(rest), false
}

// interpret executes or pushes every remaining token on the current line.
func (vm *VM) interpret() {
	for {
		token := vm.word()
		if token == "" {
			return
		}
		vm.interpretToken(token)
	}
}

func (vm *VM) interpretToken(token string) {
	if h := vm.find(token); h != 0 {
		vm.run(h)
	} else if val, ok := vm.number(token); ok {
		vm.push(val)
	} else {
		vm.abort(unknownWord(token))
	}
	vm.checkStacks(stackEffect{})
}

// interpretLine interprets the current line, recovering from any abort.
// The abort cause is returned after recovery.
func (vm *VM) interpretLine() (err error) {
	if e := panicerr.Trap(vm.interpret, isAbort); e != nil {
		err = e.(abortError).error
		vm.recoverAbort(err)
	}
	return err
}

// recoverAbort is the single sink every abort converges on: it discards the
// rest of the line, resets both stacks, leaves compile state, and reports.
// A definition in progress is left as far as it got.
func (vm *VM) recoverAbort(err error) {
	vm.cursor = len(vm.line)
	vm.stack.reset()
	vm.rstack.reset()
	vm.unchecked = 0
	vm.ackPending = false
	if serr := vm.mem.Stor(addrState, 0); serr != nil {
		vm.halt(serr)
	}
	if vm.src.interactive() {
		vm.printf(" %v\n", err)
	}
}

// quit runs the read-interpret loop over the console until input ends.
func (vm *VM) quit() {
	vm.src = consoleSource{}
	for vm.src.refill(vm) {
		vm.interpretLine()
	}
	vm.halt(io.EOF)
}

// evaluate interprets text silently, stopping at the first abort.
func (vm *VM) evaluate(name, text string) error {
	defer func(src lineSource, line []byte, cursor int) {
		vm.src, vm.line, vm.cursor = src, line, cursor
	}(vm.src, vm.line, vm.cursor)

	src := newTextSource(name, text)
	vm.src = src
	vm.line = nil
	vm.cursor = 0
	for src.refill(vm) {
		if err := vm.interpretLine(); err != nil {
			return errors.Wrapf(err, "%v:%v", src.name, src.lineNo)
		}
	}
	return nil
}

func (vm *VM) loadKernel(wto io.WriterTo) error {
	var sb strings.Builder
	if _, err := wto.WriteTo(&sb); err != nil {
		return errors.Wrap(err, "unable to write kernel source")
	}
	if err := vm.evaluate(nameOf(wto), sb.String()); err != nil {
		return errors.Wrap(err, "kernel aborted")
	}
	return nil
}

func nameOf(obj interface{}) string {
	if nom, ok := obj.(interface{ Name() string }); ok {
		return nom.Name()
	}
	return "<unnamed>"
}
