package main

import (
	"fmt"
	"strconv"
)

type atomKind uint8

const (
	atomExit atomKind = iota
	atomCall
	atomNumber
	atomString
	atomBranchForward
	atomBranchBackward
	atomKindMax
)

// atom is one element of a compiled body. Branch offsets are relative to
// the branch atom's own position.
type atom struct {
	kind atomKind
	arg  uint16
	text string
}

// retSentinel is the IP pushed beneath the outermost frame of a top level
// dispatch; popping it back into the IP ends that dispatch.
const retSentinel = 0xffff

// run executes the word h from the outer interpreter, stepping through any
// compiled code until its frame returns.
func (vm *VM) run(h uint16) {
	defer func(ip uint16) { vm.ip = ip }(vm.ip)
	vm.ip = retSentinel
	vm.execute(h)
	if vm.ip != retSentinel && vm.logfn != nil {
		defer vm.withLogPrefix("  ")()
	}
	for vm.ip != retSentinel {
		vm.step()
	}
}

// execute dispatches on the kind of word h.
func (vm *VM) execute(h uint16) {
	e := vm.entry(h)
	switch e.kind {
	case kindNative:
		p := &primitives[e.prim]
		vm.checkBounds(p.effect)
		p.fn(vm)

	case kindCompiled:
		vm.checkBounds(callEffect)
		vm.call(e.code)

	case kindCell:
		vm.checkBounds(pushEffect)
		vm.push(e.addr)

	case kindSysVar:
		vm.checkBounds(pushEffect)
		vm.push(vm.load(e.addr))

	case kindDoesProto:
		vm.checkBounds(doesEffect)
		vm.push(e.addr)
		vm.call(e.code)

	default:
		vm.abort(badHandle(h))
	}
}

func (vm *VM) call(ip uint16) {
	vm.rpush(vm.ip)
	vm.ip = ip
}

// step fetches the atom at IP, advances past it, and dispatches it.
func (vm *VM) step() {
	pos := vm.ip
	if int(pos) >= len(vm.code) {
		vm.abort(errInvalidProgram)
	}
	a := vm.code[pos]
	vm.ip++

	if vm.logfn != nil {
		vm.logf("@", "%v %v -- r:%v s:%v", pos, vm.formatAtom(a), vm.rstack.values(), vm.stack.values())
	}

	switch a.kind {
	case atomExit:
		vm.ip = vm.rpop()
	case atomCall:
		vm.execute(a.arg)
	case atomNumber:
		vm.checkBounds(pushEffect)
		vm.push(a.arg)
	case atomString:
		vm.putString(a.text)
	case atomBranchForward:
		vm.ip = pos + a.arg
	case atomBranchBackward:
		vm.ip = pos - a.arg
	default:
		vm.abort(errInvalidProgram)
	}

	vm.haltif(vm.ctx.Err())
}

// skip advances IP past the next atom.
func (vm *VM) skip() {
	vm.ip += vm.atomWidth(vm.ip)
}

// atomWidth returns how many code slots the atom at pos occupies; atoms are
// held structurally, string text included, so every kind is one slot wide.
func (vm *VM) atomWidth(pos uint16) uint16 {
	if int(pos) >= len(vm.code) {
		vm.abort(errInvalidProgram)
	}
	return 1
}

// checkBounds validates both stacks against an upcoming dispatch, aborting
// if its effect would run either one out of bounds. Only every
// checkInterval-th dispatch is checked; stack padding absorbs any drift in
// between.
func (vm *VM) checkBounds(fx stackEffect) {
	if vm.unchecked++; vm.unchecked < vm.checkInterval {
		return
	}
	vm.unchecked = 0
	vm.checkStacks(fx)
}

func (vm *VM) checkStacks(fx stackEffect) {
	if err := vm.stack.check(fx.in, fx.out); err != nil {
		vm.abort(err)
	}
	if err := vm.rstack.check(fx.rin, fx.rout); err != nil {
		vm.abort(err)
	}
}

var (
	pushEffect = stackEffect{out: 1}
	callEffect = stackEffect{rout: 1}
	doesEffect = stackEffect{out: 1, rout: 1}
)

// appendAtom adds an atom to the code arena, returning its position.
func (vm *VM) appendAtom(a atom) uint16 {
	if len(vm.code) >= vm.codeLimit {
		vm.abort(errDictFull)
	}
	pos := uint16(len(vm.code))
	vm.code = append(vm.code, a)
	vm.stor(addrCP, uint16(len(vm.code)))
	return pos
}

func (vm *VM) formatAtom(a atom) string {
	switch a.kind {
	case atomExit:
		return "EXIT"
	case atomCall:
		return vm.nameOf(a.arg)
	case atomNumber:
		return strconv.Itoa(int(int16(a.arg)))
	case atomString:
		return fmt.Sprintf(".\" %v\"", a.text)
	case atomBranchForward:
		return fmt.Sprintf("BRANCH+%v", a.arg)
	case atomBranchBackward:
		return fmt.Sprintf("BRANCH-%v", a.arg)
	default:
		return fmt.Sprintf("INVALID_%v(%v)", a.kind, a.arg)
	}
}
