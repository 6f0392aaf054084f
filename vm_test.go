package main

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"reflect"
	"runtime"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jcorbin/tinyforth/internal/console"
	"github.com/jcorbin/tinyforth/internal/logio"
	"github.com/jcorbin/tinyforth/internal/panicerr"
)

func Test_VM(t *testing.T) {
	var testCases vmTestCases

	// primitive tests that work by driving individual VM methods
	var (
		sub    = (*VM).sub
		div    = (*VM).div
		mod    = (*VM).mod
		divMod = (*VM).divMod
		mul    = (*VM).mul
		less   = (*VM).less
		uless  = (*VM).uless
		pick   = (*VM).pick
		rot    = (*VM).rot
		over   = (*VM).over
		tuck   = (*VM).tuck
		nip    = (*VM).nip
		qdup   = (*VM).qdup
		toR    = (*VM).toR
		fromR  = (*VM).fromR
		fetch  = (*VM).fetch
		store  = (*VM).store
		pstore = (*VM).plusStore
		zeq    = (*VM).zeroEqual
		negate = (*VM).negate
	)
	testCases = append(testCases,
		// binary integer operation on the stack
		vmTest("sub").withStack(5, 3, 1).do(sub).expectStack(5, 2),
		vmTest("sub wraps").withStack(1, 2).do(sub).expectStack(-1),
		vmTest("div").withStack(7, 13, 3).do(div).expectStack(7, 4),
		vmTest("div signed").withStack(-7, 2).do(div).expectStack(-3),
		vmTest("div by zero").withStack(1, 0).do(div).expectError(errDivZero),
		vmTest("mod").withStack(7, 3).do(mod).expectStack(1),
		vmTest("/mod").withStack(7, 3).do(divMod).expectStack(1, 2),
		vmTest("mul").withStack(11, 5, 6).do(mul).expectStack(11, 30),
		vmTest("negate").withStack(5).do(negate).expectStack(-5),

		// comparisons leave all-bits flags
		vmTest("less true").withStack(-3, 2).do(less).expectStack(-1),
		vmTest("less false").withStack(2, -3).do(less).expectStack(0),
		vmTest("unsigned less").withStack(2, -3).do(uless).expectStack(-1),
		vmTest("0= true").withStack(0).do(zeq).expectStack(-1),
		vmTest("0= false").withStack(9).do(zeq).expectStack(0),

		// pop top of stack, use as index into stack and copy up that element
		vmTest("pick 0").withStack(1, 2, 3, 4, 5, 0).do(pick).expectStack(1, 2, 3, 4, 5, 5),
		vmTest("pick 1").withStack(1, 2, 3, 4, 5, 1).do(pick).expectStack(1, 2, 3, 4, 5, 4),
		vmTest("pick 4").withStack(1, 2, 3, 4, 5, 4).do(pick).expectStack(1, 2, 3, 4, 5, 1),
		vmTest("pick below bottom").withStack(9, 1).do(pick).expectError(errStackUnderflow),

		// shuffles
		vmTest("rot").withStack(1, 2, 3).do(rot).expectStack(2, 3, 1),
		vmTest("over").withStack(1, 2).do(over).expectStack(1, 2, 1),
		vmTest("tuck").withStack(1, 2).do(tuck).expectStack(2, 1, 2),
		vmTest("nip").withStack(1, 2).do(nip).expectStack(2),
		vmTest("?dup zero").withStack(0).do(qdup).expectStack(0),
		vmTest("?dup non-zero").withStack(5).do(qdup).expectStack(5, 5),

		// return stack transfer
		vmTest(">r").withStack(7).do(toR).expectStack().expectRStack(7),
		vmTest(">r r>").withStack(7).do(toR, fromR).expectStack(7).expectRStack(),

		// memory
		vmTest("fetch").withMemAt(200, 99, 42, 108).withStack(201).do(fetch).expectStack(42),
		vmTest("store").withStack(108, 201).do(store).expectMemAt(200, 0, 108, 0),
		vmTest("plus store").withMemAt(200, 5).withStack(3, 200).do(pstore).expectMemAt(200, 8),
	)

	// interpreter tests that work by feeding console input
	testCases = append(testCases,
		vmTest("add and print").
			withInput("2 3 + .\n").
			expectOutput("5  ok\n").
			expectStack(),

		vmTest("stack print").
			withInput("1 -2 3 .S\n").
			expectOutput("<3> 1 -2 3  ok\n").
			expectStack(1, -2, 3),

		vmTest("unsigned print").
			withInput("-1 U.\n").
			expectOutput("65535  ok\n"),

		vmTest("emit").
			withInput("72 EMIT 105 EMIT CR\n").
			expectOutput("Hi\n ok\n"),

		vmTest("print string").
			withInput(`." hello" SPACE ." world"` + "\n").
			expectOutput("hello world ok\n"),

		vmTest("unterminated string").
			withInput(`." hello` + "\n").
			expectOutput(" unterminated string\n"),

		vmTest("comments").
			withInput("1 ( 2 ) 3 \\ 4 5\n6\n").
			expectStack(1, 3, 6),

		vmTest("case insensitive").
			withInput("3 dup * Dup\n").
			expectStack(9, 9),

		vmTest("key").
			withInput("KEY\nA").
			expectStack(65).
			expectOutput(" ok\n"),

		vmTest("bye").
			withInput("1 BYE 2\n3\n").
			expectStack(1).
			expectOutput(""),

		vmTest("abort").
			withInput("1 2 ABORT 3\n4\n").
			expectStack(4).
			expectOutput(" aborted\n ok\n"),

		vmTest("unknown word").
			withInput("1 FOO 2\n").
			expectStack().
			expectOutput(" FOO ?\n"),

		vmTest("stack underflow").
			withInput("1 2 + + 5\n7\n").
			expectStack(7).
			expectOutput(" stack underflow\n ok\n"),

		vmTest("pick past bottom").
			withInput("9 1 PICK\n").
			expectStack().
			expectOutput(" stack underflow\n"),

		vmTest("pick empty stack").
			withInput("5 PICK\n8\n").
			expectStack(8).
			expectOutput(" stack underflow\n ok\n"),

		vmTest("stack overflow").
			withOptions(WithStackLimits(4, 8)).
			withInput("1 2 3 4 5 6\n").
			expectStack().
			expectOutput(" stack overflow\n"),

		vmTest("return stack overflow").
			withInput(": DEEP RECURSE ; DEEP\n42\n").
			expectStack(42).
			expectRStack().
			expectOutput(" return stack overflow\n ok\n"),

		vmTest("division by zero").
			withInput("1 0 /\n").
			expectOutput(" division by zero\n"),

		vmTest("out of memory").
			withOptions(WithMemLimit(200)).
			withInput("100 ALLOT\n1\n").
			expectStack(1).
			expectOutput(" out of memory\n ok\n"),

		vmTest("execute").
			withInput("3 ' DUP EXECUTE *\n").
			expectStack(9),

		vmTest("execute bad handle").
			withInput("0 EXECUTE\n").
			expectOutput(" invalid word handle 0\n"),

		vmTest("does at top level").
			withInput("DOES>\n").
			expectOutput(" compile only\n"),

		vmTest("spin until timeout").
			withInput(": SPIN BEGIN AGAIN ; SPIN\n").
			withTimeout(50*time.Millisecond).
			expectError(context.DeadlineExceeded),
	)

	testCases.run(t)
}

func Test_VM_evaluate(t *testing.T) {
	vm := New()
	assert.NoError(t, vm.Evaluate(": SQUARE DUP * ;"))
	assert.NoError(t, vm.Evaluate("7 SQUARE"))
	assert.Equal(t, []uint16{49}, vm.stack.values())

	err := vm.Evaluate("1 2\n3 FROB 4")
	assert.EqualError(t, err, "<evaluate>:2: FROB ?")
	assert.True(t, errors.Is(err, unknownWord("FROB")), "expected an unknown word cause")
	assert.Equal(t, []uint16{}, vm.stack.values(), "expected abort to reset the stack")

	assert.NoError(t, vm.Load("extra.fs", strings.NewReader(": CUBE DUP SQUARE * ;\n3 CUBE\n")))
	assert.Equal(t, []uint16{27}, vm.stack.values())
}

type vmTestCases []vmTestCase

func (vmts vmTestCases) run(t *testing.T) {
	{
		var exclusive []vmTestCase
		for _, vmt := range vmts {
			if vmt.exclusive {
				exclusive = append(exclusive, vmt)
			}
		}
		if len(exclusive) > 0 {
			vmts = exclusive
		}
	}
	for _, vmt := range vmts {
		if !t.Run(vmt.name, vmt.run) {
			return
		}
	}
}

func vmTest(name string) (vmt vmTestCase) {
	vmt.name = name
	return vmt
}

type optFunc func(vm *VM)

func (f optFunc) apply(vm *VM) { f(vm) }

type vmTestCase struct {
	name    string
	opts    []interface{}
	setup   []func(vm *VM)
	ops     []func(vm *VM)
	expect  []func(t *testing.T, vm *VM)
	timeout time.Duration
	wantErr error

	exclusive   bool
	nextInputID int
}

func (vmt vmTestCase) apply(wraps ...func(vmTestCase) vmTestCase) vmTestCase {
	for _, wrap := range wraps {
		vmt = wrap(vmt)
	}
	return vmt
}

func (vmt vmTestCase) exclusiveTest() vmTestCase {
	vmt.exclusive = true
	return vmt
}

func (vmt vmTestCase) withOptions(opts ...VMOption) vmTestCase {
	for _, opt := range opts {
		vmt.opts = append(vmt.opts, opt)
	}
	return vmt
}

func (vmt vmTestCase) withStack(values ...int) vmTestCase {
	vmt.setup = append(vmt.setup, func(vm *VM) {
		for _, val := range values {
			vm.push(uint16(val))
		}
	})
	return vmt
}

func (vmt vmTestCase) withMemAt(addr uint16, values ...int) vmTestCase {
	if len(values) != 0 {
		vmt.setup = append(vmt.setup, func(vm *VM) {
			for i, val := range values {
				vm.stor(addr+uint16(i), uint16(val))
			}
		})
	}
	return vmt
}

func (vmt vmTestCase) withInput(input string) vmTestCase {
	vmt.opts = append(vmt.opts, func(vmt *vmTestCase, t *testing.T) VMOption {
		name := t.Name() + "/input"
		if id := vmt.nextInputID; id > 0 {
			name += "_" + strconv.Itoa(id+1)
		}
		vmt.nextInputID++
		return WithInput(console.NamedReader(name, strings.NewReader(input)))
	})
	return vmt
}

func (vmt vmTestCase) withNamedInput(name string, input string) vmTestCase {
	vmt.opts = append(vmt.opts, func(vmt *vmTestCase, t *testing.T) VMOption {
		return WithInput(console.NamedReader(name, strings.NewReader(input)))
	})
	return vmt
}

func (vmt vmTestCase) withInputWriter(w io.WriterTo) vmTestCase {
	vmt.opts = append(vmt.opts, WithInputWriter(w))
	return vmt
}

func (vmt vmTestCase) do(ops ...func(vm *VM)) vmTestCase {
	vmt.ops = append(vmt.ops, ops...)
	return vmt
}

func (vmt vmTestCase) withTimeout(timeout time.Duration) vmTestCase {
	vmt.timeout = timeout
	return vmt
}

func (vmt vmTestCase) expectError(err error) vmTestCase {
	vmt.wantErr = err
	return vmt
}

func (vmt vmTestCase) expectStack(values ...int) vmTestCase {
	vmt.expect = append(vmt.expect, func(t *testing.T, vm *VM) {
		assert.Equal(t, signed(values), signed(vm.stack.values()), "expected stack values")
	})
	return vmt
}

func (vmt vmTestCase) expectRStack(values ...int) vmTestCase {
	vmt.expect = append(vmt.expect, func(t *testing.T, vm *VM) {
		assert.Equal(t, signed(values), signed(vm.rstack.values()), "expected return stack values")
	})
	return vmt
}

func (vmt vmTestCase) expectMemAt(addr uint16, values ...int) vmTestCase {
	vmt.expect = append(vmt.expect, func(t *testing.T, vm *VM) {
		buf := make([]uint16, len(values))
		if assert.NoError(t, vm.mem.LoadInto(uint(addr), buf), "unexpected load error") {
			assert.Equal(t, signed(values), signed(buf), "expected memory values @%v", addr)
		}
	})
	return vmt
}

func (vmt vmTestCase) expectWord(name string, source string) vmTestCase {
	vmt.expect = append(vmt.expect, func(t *testing.T, vm *VM) {
		h := vm.find(name)
		if assert.NotEqual(t, uint16(0), h, "expected word %q to be defined", name) {
			assert.Equal(t, source, vm.formatEntry(h), "expected %q definition", name)
		}
	})
	return vmt
}

func (vmt vmTestCase) expectOutput(output string) vmTestCase {
	var out strings.Builder
	vmt.opts = append(vmt.opts, WithOutput(&out))
	vmt.expect = append(vmt.expect, func(t *testing.T, vm *VM) {
		assert.Equal(t, output, out.String(), "expected output")
	})
	return vmt
}

func (vmt vmTestCase) expectDump(dump string) vmTestCase {
	vmt.expect = append(vmt.expect, func(t *testing.T, vm *VM) {
		var out strings.Builder
		vmDumper{
			vm:  vm,
			out: &out,
		}.dump()
		assert.Equal(t, dump, out.String(), "expected dump")
	})
	return vmt
}

func (vmt vmTestCase) withTestDump() vmTestCase {
	vmt.expect = append(vmt.expect, vmt.dumpToTest)
	return vmt
}

func (vmt vmTestCase) withTestOutput() vmTestCase {
	vmt.opts = append(vmt.opts, func(vmt *vmTestCase, t *testing.T) VMOption {
		lw := &logio.Writer{Logf: t.Logf, Prefix: "out: "}
		return VMOptions(WithTee(lw), optFunc(func(vm *VM) { vm.AddCloser(lw) }))
	})
	return vmt
}

func (vmt vmTestCase) withTestHexOutput() vmTestCase {
	vmt.opts = append(vmt.opts, func(vmt *vmTestCase, t *testing.T) VMOption {
		lw := &logio.Writer{Logf: t.Logf, Prefix: "out: "}
		enc := hex.Dumper(lw)
		return VMOptions(WithTee(enc), optFunc(func(vm *VM) {
			vm.AddCloser(closerChain{enc, lw})
		}))
	})
	return vmt
}

func (vmt vmTestCase) run(t *testing.T) {
	defer func(then time.Time) {
		label := "PASS"
		if t.Failed() {
			label = "FAIL"
		}
		t.Logf("%v\t%v\t%v", label, t.Name(), time.Now().Sub(then))
	}(time.Now())

	var trace traceLog
	vm := vmt.buildVM(t)
	WithLogf(trace.logf).apply(vm)
	defer func() {
		if t.Failed() {
			trace.replay(t)
		}
	}()

	vmt.runVMTest(context.Background(), t, vm)
}

func (vmt vmTestCase) runVMTest(ctx context.Context, t *testing.T, vm *VM) {
	const defaultTimeout = time.Second
	timeout := vmt.timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	defer func() {
		if t.Failed() {
			vmt.dumpToTest(t, vm)
		}
	}()

	if err := vmt.runVM(ctx, vm); vmt.wantErr != nil {
		assert.True(t, errors.Is(err, vmt.wantErr), "expected error: %v\ngot: %+v", vmt.wantErr, err)
	} else {
		assert.NoError(t, err, "unexpected VM run error")
	}

	if !t.Failed() {
		for _, expect := range vmt.expect {
			expect(t, vm)
		}
	}
}

func (vmt vmTestCase) runVM(ctx context.Context, vm *VM) (rerr error) {
	defer func() {
		if err := vm.Close(); err != nil && rerr == nil {
			rerr = fmt.Errorf("vm.Close failed: %w", err)
		}
	}()

	if err := haltCause(panicerr.Recover("vmTestCase.setup", func() error {
		if err := vm.boot(); err != nil {
			return err
		}
		for _, setup := range vmt.setup {
			setup(vm)
		}
		return nil
	})); err != nil {
		return err
	}

	if len(vmt.ops) == 0 {
		return vm.Run(ctx)
	}

	names := make([]string, len(vmt.ops))
	for i, op := range vmt.ops {
		names[i] = runtime.FuncForPC(reflect.ValueOf(op).Pointer()).Name()
	}
	return haltCause(panicerr.Recover("vmTestCase.ops", func() error {
		vm.ctx = ctx
		for i, op := range vmt.ops {
			vm.logf(">", "do[%v] %v", i, names[i])
			op(vm)
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		return nil
	}))
}

func (vmt vmTestCase) buildVM(t *testing.T) *VM {
	opts := []VMOption{WithEcho(false)}
	for _, o := range vmt.opts {
		switch impl := o.(type) {
		case func(vmt *vmTestCase, t *testing.T) VMOption:
			opts = append(opts, impl(&vmt, t))
		case VMOption:
			opts = append(opts, impl)
		default:
			t.Logf("unsupported vmTestCase opt type %T", o)
			t.FailNow()
		}
	}
	return New(opts...)
}

func (vmt vmTestCase) dumpToTest(t *testing.T, vm *VM) {
	lw := logio.Writer{Logf: t.Logf}
	defer lw.Close()
	vmDumper{vm: vm, out: &lw}.dump()
}

//// utilities

// traceLog retains the most recent trace lines of a test run, so that they
// may be replayed only if it fails.
type traceLog struct {
	lines []string
}

const traceLimit = 4096

func (tl *traceLog) logf(mess string, args ...interface{}) {
	if len(tl.lines) >= traceLimit {
		tl.lines = append(tl.lines[:0], tl.lines[traceLimit/2:]...)
	}
	tl.lines = append(tl.lines, fmt.Sprintf(mess, args...))
}

func (tl *traceLog) replay(t *testing.T) {
	for _, line := range tl.lines {
		t.Log(line)
	}
}

type signedValues []int16

func signed[T int | uint16](values []T) signedValues {
	svs := make(signedValues, len(values))
	for i, val := range values {
		svs[i] = int16(val)
	}
	return svs
}

type closerChain []io.Closer

func (cc closerChain) Close() (rerr error) {
	for _, cl := range cc {
		if cerr := cl.Close(); rerr == nil {
			rerr = cerr
		}
	}
	return rerr
}

func lines(parts ...string) string {
	return strings.Join(parts, "\n") + "\n"
}
