package main

import (
	"io"
	"strings"
)

// primitive is a word implemented in Go. Its position in the primitives
// table is the id persisted in images, so entries are only ever appended.
type primitive struct {
	name   string
	flags  uint8
	effect stackEffect
	fn     func(vm *VM)
}

// stackEffect counts the values a word consumes and produces on each stack.
type stackEffect struct {
	in, out   int
	rin, rout int
}

// parseEffect reads a stack comment like "( a b -- c )", optionally
// followed by a return stack comment like "( R: x -- )".
func parseEffect(s string) (fx stackEffect) {
	for _, group := range strings.Split(s, ")") {
		fields := strings.Fields(strings.TrimPrefix(strings.TrimSpace(group), "("))
		if len(fields) == 0 {
			continue
		}
		in, out := &fx.in, &fx.out
		if fields[0] == "R:" {
			in, out = &fx.rin, &fx.rout
			fields = fields[1:]
		}
		after := false
		for _, f := range fields {
			switch {
			case f == "--":
				after = true
			case after:
				*out++
			default:
				*in++
			}
		}
	}
	return fx
}

func prim(name, effect string, fn func(vm *VM)) primitive {
	return primitive{name: name, effect: parseEffect(effect), fn: fn}
}

func immediate(p primitive) primitive {
	p.flags |= flagImmediate
	return p
}

var primitives []primitive

func init() {
	primitives = []primitive{
		// stack
		prim("DUP", "( x -- x x )", (*VM).dup),
		prim("DROP", "( x -- )", (*VM).drop),
		prim("SWAP", "( a b -- b a )", (*VM).swap),
		prim("OVER", "( a b -- a b a )", (*VM).over),
		prim("ROT", "( a b c -- b c a )", (*VM).rot),
		prim("NIP", "( a b -- b )", (*VM).nip),
		prim("TUCK", "( a b -- b a b )", (*VM).tuck),
		prim("?DUP", "( x -- x x )", (*VM).qdup),
		prim("PICK", "( u -- x )", (*VM).pick),
		prim("DEPTH", "( -- n )", (*VM).depth),
		prim(">R", "( x -- ) ( R: -- x )", (*VM).toR),
		prim("R>", "( -- x ) ( R: x -- )", (*VM).fromR),
		prim("R@", "( -- x ) ( R: x -- x )", (*VM).fetchR),
		prim(".S", "( -- )", (*VM).dotS),

		// arithmetic and logic
		prim("+", "( a b -- c )", (*VM).add),
		prim("-", "( a b -- c )", (*VM).sub),
		prim("*", "( a b -- c )", (*VM).mul),
		prim("/", "( a b -- c )", (*VM).div),
		prim("MOD", "( a b -- c )", (*VM).mod),
		prim("/MOD", "( a b -- rem quot )", (*VM).divMod),
		prim("NEGATE", "( n -- n )", (*VM).negate),
		prim("1+", "( n -- n )", (*VM).incr),
		prim("1-", "( n -- n )", (*VM).decr),
		prim("2*", "( n -- n )", (*VM).double),
		prim("AND", "( a b -- c )", (*VM).and),
		prim("OR", "( a b -- c )", (*VM).or),
		prim("XOR", "( a b -- c )", (*VM).xor),
		prim("INVERT", "( x -- x )", (*VM).invert),
		prim("=", "( a b -- flag )", (*VM).equal),
		prim("<>", "( a b -- flag )", (*VM).notEqual),
		prim("<", "( a b -- flag )", (*VM).less),
		prim(">", "( a b -- flag )", (*VM).greater),
		prim("U<", "( a b -- flag )", (*VM).uless),
		prim("0=", "( x -- flag )", (*VM).zeroEqual),
		prim("0<", "( n -- flag )", (*VM).zeroLess),
		prim("MIN", "( a b -- c )", (*VM).min),
		prim("MAX", "( a b -- c )", (*VM).max),

		// memory
		prim("@", "( addr -- x )", (*VM).fetch),
		prim("!", "( x addr -- )", (*VM).store),
		prim("+!", "( n addr -- )", (*VM).plusStore),
		prim(",", "( x -- )", (*VM).commaWord),
		prim("ALLOT", "( n -- )", (*VM).allotWord),
		prim("CELLS", "( n -- n )", func(vm *VM) {}),

		// character i/o
		prim("EMIT", "( c -- )", (*VM).emit),
		prim("KEY", "( -- c )", (*VM).key),
		prim("CR", "( -- )", func(vm *VM) { vm.putChar('\n') }),
		prim("SPACE", "( -- )", func(vm *VM) { vm.putChar(' ') }),
		prim(".", "( n -- )", (*VM).dot),
		prim("U.", "( u -- )", (*VM).udot),
		immediate(prim(".\"", "( -- )", (*VM).dotQuote)),
		immediate(prim("(", "( -- )", (*VM).paren)),
		immediate(prim("\\", "( -- )", (*VM).backslash)),

		// dictionary and compiler
		immediate(prim(":", "( -- )", (*VM).colon)),
		prim("IMMEDIATE", "( -- )", (*VM).immediateWord),
		prim("CREATE", "( -- )", (*VM).create),
		prim("DOES>", "( -- )", (*VM).does),
		prim("'", "( -- h )", (*VM).tick),
		prim("EXECUTE", "( h -- )", (*VM).executeWord),
		immediate(prim("LITERAL", "( x -- )", (*VM).literal)),
		immediate(prim("[COMPILE]", "( -- )", (*VM).bracketCompile)),
		prim("COMPILE,", "( h -- )", (*VM).compileComma),
		immediate(prim("RECURSE", "( -- )", (*VM).recurse)),
		immediate(prim("EXIT", "( -- )", (*VM).exit)),
		prim("WORDS", "( -- )", (*VM).words),
		prim("SEE", "( -- )", (*VM).see),

		// control flow
		immediate(prim("IF", "( -- orig )", (*VM).ifWord)),
		immediate(prim("ELSE", "( orig -- orig )", (*VM).elseWord)),
		immediate(prim("THEN", "( orig -- )", (*VM).thenWord)),
		immediate(prim("BEGIN", "( -- dest )", (*VM).begin)),
		immediate(prim("UNTIL", "( dest -- )", (*VM).until)),
		immediate(prim("AGAIN", "( dest -- )", (*VM).again)),
		immediate(prim("WHILE", "( dest -- orig dest )", (*VM).while)),
		immediate(prim("REPEAT", "( orig dest -- )", (*VM).repeat)),
		prim("?SKIP", "( flag -- )", (*VM).qskip),

		// session
		prim("ABORT", "( -- )", func(vm *VM) { vm.abort(errAborted) }),
		prim("BYE", "( -- )", func(vm *VM) { vm.halt(nil) }),
	}
	primZeroEqual = primID("0=")
	primSkip = primID("?SKIP")
}

// Primitives that control flow words compile calls to.
var primZeroEqual, primSkip uint16

func primID(name string) uint16 {
	for id, p := range primitives {
		if p.name == name {
			return uint16(id)
		}
	}
	panic("no such primitive " + name)
}

// sysVars name the low memory variables exposed to Forth.
var sysVars = []struct {
	name string
	addr uint16
}{
	{"H", addrHere},
	{"LATEST", addrLatest},
	{"STATE", addrState},
	{"'NUMBER", addrNumber},
	{"CP", addrCP},
}

// compilePrimitives creates a Native entry for every primitive, followed by
// a SysVar entry for every system variable.
func (vm *VM) compilePrimitives() {
	for id, p := range primitives {
		h := vm.createEntry(p.name, kindNative)
		e := &vm.dict[h-1]
		e.prim = uint16(id)
		e.flags = p.flags
	}
	for _, sv := range sysVars {
		addr := vm.here()
		vm.comma(sv.addr)
		h := vm.createEntry(sv.name, kindSysVar)
		vm.dict[h-1].addr = addr
	}
	vm.indexPrimitives()
}

// indexPrimitives records the oldest entry for each primitive, which is what
// compiling words reference regardless of later redefinitions.
func (vm *VM) indexPrimitives() {
	vm.primHandles = make([]uint16, len(primitives))
	for i := range vm.dict {
		if e := &vm.dict[i]; e.kind == kindNative && vm.primHandles[e.prim] == 0 {
			vm.primHandles[e.prim] = uint16(i + 1)
		}
	}
}

func (vm *VM) compilePrim(id uint16) {
	h := vm.primHandles[id]
	if h == 0 {
		vm.abort(errImageBadPrim)
	}
	vm.appendAtom(atom{kind: atomCall, arg: h})
}

//// stack

func (vm *VM) dup()  { x := vm.pop(); vm.push(x); vm.push(x) }
func (vm *VM) drop() { vm.pop() }
func (vm *VM) swap() { b, a := vm.pop(), vm.pop(); vm.push(b); vm.push(a) }
func (vm *VM) over() { b, a := vm.pop(), vm.pop(); vm.push(a); vm.push(b); vm.push(a) }
func (vm *VM) rot()  { c, b, a := vm.pop(), vm.pop(), vm.pop(); vm.push(b); vm.push(c); vm.push(a) }
func (vm *VM) nip()  { b := vm.pop(); vm.pop(); vm.push(b) }
func (vm *VM) tuck() { b, a := vm.pop(), vm.pop(); vm.push(b); vm.push(a); vm.push(b) }

func (vm *VM) qdup() {
	x := vm.pop()
	vm.push(x)
	if x != 0 {
		vm.push(x)
	}
}

func (vm *VM) pick() {
	u := vm.pop()
	x, err := vm.stack.peek(int(u))
	if err != nil {
		vm.abort(err)
	}
	vm.push(x)
}

func (vm *VM) depth() {
	d := vm.stack.depth()
	if d < 0 {
		vm.abort(errStackUnderflow)
	}
	vm.push(uint16(d))
}

func (vm *VM) toR()    { vm.rpush(vm.pop()) }
func (vm *VM) fromR()  { vm.push(vm.rpop()) }
func (vm *VM) fetchR() { x := vm.rpop(); vm.rpush(x); vm.push(x) }

func (vm *VM) dotS() {
	values := vm.stack.values()
	vm.printf("<%v> ", len(values))
	for _, val := range values {
		vm.printf("%v ", int16(val))
	}
}

//// arithmetic and logic

func (vm *VM) add()    { b, a := vm.pop(), vm.pop(); vm.push(a + b) }
func (vm *VM) sub()    { b, a := vm.pop(), vm.pop(); vm.push(a - b) }
func (vm *VM) mul()    { b, a := vm.pop(), vm.pop(); vm.push(a * b) }
func (vm *VM) negate() { vm.push(-vm.pop()) }
func (vm *VM) incr()   { vm.push(vm.pop() + 1) }
func (vm *VM) decr()   { vm.push(vm.pop() - 1) }
func (vm *VM) double() { vm.push(vm.pop() << 1) }
func (vm *VM) and()    { b, a := vm.pop(), vm.pop(); vm.push(a & b) }
func (vm *VM) or()     { b, a := vm.pop(), vm.pop(); vm.push(a | b) }
func (vm *VM) xor()    { b, a := vm.pop(), vm.pop(); vm.push(a ^ b) }
func (vm *VM) invert() { vm.push(^vm.pop()) }

func (vm *VM) divisor() int16 {
	b := int16(vm.pop())
	if b == 0 {
		vm.abort(errDivZero)
	}
	return b
}

func (vm *VM) div() { b := vm.divisor(); a := int16(vm.pop()); vm.push(uint16(a / b)) }
func (vm *VM) mod() { b := vm.divisor(); a := int16(vm.pop()); vm.push(uint16(a % b)) }

func (vm *VM) divMod() {
	b := vm.divisor()
	a := int16(vm.pop())
	vm.push(uint16(a % b))
	vm.push(uint16(a / b))
}

func (vm *VM) equal()     { b, a := vm.pop(), vm.pop(); vm.push(truth(a == b)) }
func (vm *VM) notEqual()  { b, a := vm.pop(), vm.pop(); vm.push(truth(a != b)) }
func (vm *VM) less()      { b, a := int16(vm.pop()), int16(vm.pop()); vm.push(truth(a < b)) }
func (vm *VM) greater()   { b, a := int16(vm.pop()), int16(vm.pop()); vm.push(truth(a > b)) }
func (vm *VM) uless()     { b, a := vm.pop(), vm.pop(); vm.push(truth(a < b)) }
func (vm *VM) zeroEqual() { vm.push(truth(vm.pop() == 0)) }
func (vm *VM) zeroLess()  { vm.push(truth(int16(vm.pop()) < 0)) }

func (vm *VM) min() {
	b, a := int16(vm.pop()), int16(vm.pop())
	if b < a {
		a = b
	}
	vm.push(uint16(a))
}

func (vm *VM) max() {
	b, a := int16(vm.pop()), int16(vm.pop())
	if b > a {
		a = b
	}
	vm.push(uint16(a))
}

//// memory

func (vm *VM) fetch()     { vm.push(vm.load(vm.pop())) }
func (vm *VM) store()     { addr := vm.pop(); vm.stor(addr, vm.pop()) }
func (vm *VM) plusStore() { addr := vm.pop(); n := vm.pop(); vm.stor(addr, vm.load(addr)+n) }
func (vm *VM) commaWord() { vm.comma(vm.pop()) }
func (vm *VM) allotWord() { vm.allot(vm.pop()) }

//// character i/o

func (vm *VM) emit() { vm.putChar(byte(vm.pop())) }

func (vm *VM) key() {
	c, err := vm.GetChar()
	if err == io.EOF {
		vm.halt(nil)
	}
	vm.haltif(err)
	vm.push(uint16(c))
}

func (vm *VM) dot()  { vm.printf("%v ", int16(vm.pop())) }
func (vm *VM) udot() { vm.printf("%v ", vm.pop()) }

func (vm *VM) dotQuote() {
	text, found := vm.parse('"')
	if !found {
		vm.abort(errUnterminated)
	}
	if vm.state() != 0 {
		vm.appendAtom(atom{kind: atomString, text: text})
	} else {
		vm.putString(text)
	}
}

func (vm *VM) paren()     { vm.parse(')') }
func (vm *VM) backslash() { vm.cursor = len(vm.line) }
