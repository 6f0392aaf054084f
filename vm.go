package main

import (
	"context"
	"io"

	"github.com/jcorbin/tinyforth/internal/console"
	"github.com/jcorbin/tinyforth/internal/mem"
)

// VM is a Forth runtime: an entry arena forming the dictionary, a code arena
// of atoms that compiled words thread through, a paged cell memory for data,
// and the parameter and return stacks.
type VM struct {
	Core

	mem  mem.Cells
	dict []entry
	code []atom

	// oldest entry of each primitive, by id
	primHandles []uint16

	stack  stack[uint16]
	rstack stack[uint16]
	ip     uint16
	csp    int // stack depth when the current definition began

	// bounds checks run on every checkInterval-th dispatch
	checkInterval int
	unchecked     int

	dataLimit int
	retLimit  int
	stackPad  int
	codeLimit int

	src        lineSource
	line       []byte
	cursor     int
	lineSize   int
	echo       bool
	skipLF     bool
	eof        bool
	lineLoc    console.Location
	ackPending bool

	parseNumber func(token string) (uint16, bool)

	image  *Image
	kernel io.WriterTo
	booted bool
	ctx    context.Context
}

// Low memory layout.
const (
	addrHere   = 0 // H: next free data cell
	addrLatest = 1 // LATEST: handle of the newest entry
	addrState  = 2 // STATE: non-zero while compiling
	addrNumber = 3 // 'NUMBER: handle of a Forth number parser, 0 for the builtin
	addrCP     = 4 // CP: size of the code arena

	addrPad  = 16  // scratch area for token text
	padSize  = 112 // cells
	addrDict = 128 // start of dictionary data
)

const (
	defaultDataLimit     = 256
	defaultRetLimit      = 128
	defaultStackPad      = 8
	defaultCheckInterval = 1
	defaultLineSize      = 80
	defaultMemLimit      = 0x10000
	defaultCodeLimit     = 0xff00
)

func (vm *VM) abort(err error) {
	if vm.src != nil {
		vm.logf("!", "abort at %v: %v", vm.src.location(vm), err)
	} else {
		vm.logf("!", "abort: %v", err)
	}
	panic(abortError{err})
}

func (vm *VM) load(addr uint16) uint16 {
	val, err := vm.mem.Load(uint(addr))
	if err != nil {
		vm.memFault(err)
	}
	return val
}

func (vm *VM) stor(addr uint16, values ...uint16) {
	if err := vm.mem.Stor(uint(addr), values...); err != nil {
		vm.memFault(err)
	}
}

func (vm *VM) memFault(err error) {
	vm.logf("!", "%v", err)
	vm.abort(errOutOfMemory)
}

func (vm *VM) here() uint16   { return vm.load(addrHere) }
func (vm *VM) latest() uint16 { return vm.load(addrLatest) }
func (vm *VM) state() uint16  { return vm.load(addrState) }

func (vm *VM) setState(compiling bool) {
	vm.stor(addrState, truth(compiling))
}

// comma appends one cell of data at HERE.
func (vm *VM) comma(val uint16) {
	h := vm.here()
	if h == 0xffff {
		vm.abort(errOutOfMemory)
	}
	vm.stor(h, val)
	vm.stor(addrHere, h+1)
}

// allot advances HERE by n cells, zeroing them.
func (vm *VM) allot(n uint16) uint16 {
	h := vm.here()
	end := uint(h) + uint(n)
	if end > 0xffff {
		vm.abort(errOutOfMemory)
	}
	if n > 0 {
		vm.stor(h, make([]uint16, n)...)
	}
	vm.stor(addrHere, uint16(end))
	return h
}

func (vm *VM) push(val uint16) {
	if err := vm.stack.push(val); err != nil {
		vm.abort(err)
	}
}

func (vm *VM) pop() uint16 {
	val, err := vm.stack.pop()
	if err != nil {
		vm.abort(err)
	}
	return val
}

func (vm *VM) rpush(val uint16) {
	if err := vm.rstack.push(val); err != nil {
		vm.abort(err)
	}
}

func (vm *VM) rpop() uint16 {
	val, err := vm.rstack.pop()
	if err != nil {
		vm.abort(err)
	}
	return val
}

func (vm *VM) init() {
	if vm.dataLimit == 0 {
		vm.dataLimit = defaultDataLimit
	}
	if vm.retLimit == 0 {
		vm.retLimit = defaultRetLimit
	}
	if vm.checkInterval < 1 {
		vm.checkInterval = defaultCheckInterval
	}
	if vm.lineSize < 1 {
		vm.lineSize = defaultLineSize
	}
	if vm.codeLimit == 0 || vm.codeLimit > defaultCodeLimit {
		vm.codeLimit = defaultCodeLimit
	}
	if vm.mem.Limit == 0 || vm.mem.Limit > defaultMemLimit {
		vm.mem.Limit = defaultMemLimit
	}
	if vm.parseNumber == nil {
		vm.parseNumber = parseNumber
	}
	if vm.ctx == nil {
		vm.ctx = context.Background()
	}
	if vm.src == nil {
		vm.src = consoleSource{}
	}
	vm.stack = newStack[uint16](vm.dataLimit, vm.stackPad, errStackUnderflow, errStackOverflow)
	vm.rstack = newStack[uint16](vm.retLimit, vm.stackPad, errRetUnderflow, errRetOverflow)
	vm.line = make([]byte, 0, vm.lineSize)
}

// boot runs once before any interpretation: it either adopts a bootstrap
// image, or builds the primitive dictionary and compiles the kernel.
func (vm *VM) boot() error {
	if vm.booted {
		return nil
	}
	vm.booted = true
	vm.init()

	if vm.image != nil {
		vm.logf("#", "boot from image, %v entries", len(vm.image.Dict))
		return vm.adoptImage(vm.image)
	}

	if vm.here() == 0 {
		vm.stor(addrHere, addrDict)
	}
	vm.compilePrimitives()
	if vm.kernel != nil {
		return vm.loadKernel(vm.kernel)
	}
	return nil
}

func truth(b bool) uint16 {
	if b {
		return 0xffff
	}
	return 0
}
