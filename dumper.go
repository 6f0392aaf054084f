package main

import (
	"fmt"
	"io"
	"strings"
)

// decompile renders the atoms of a body starting at pos, through the Exit
// that ends it; an Exit skipped by some forward branch is an early EXIT.
func (vm *VM) decompile(buf *strings.Builder, pos uint16) {
	var reach uint16
	for int(pos) < len(vm.code) {
		a := vm.code[pos]
		switch a.kind {
		case atomExit:
			if pos >= reach {
				buf.WriteString(" ;")
				return
			}
		case atomBranchForward:
			if target := pos + a.arg; target > reach {
				reach = target
			}
		}
		buf.WriteByte(' ')
		buf.WriteString(vm.formatAtom(a))
		pos++
	}
	buf.WriteString(" ...")
}

func (vm *VM) formatEntry(h uint16) string {
	e := vm.entry(h)
	var buf strings.Builder
	switch e.kind {
	case kindNative:
		fmt.Fprintf(&buf, "%v ( native %v )", e.name, e.prim)
	case kindCompiled:
		fmt.Fprintf(&buf, ": %v", e.name)
		vm.decompile(&buf, e.code)
	case kindCell:
		fmt.Fprintf(&buf, "CREATE %v @%v", e.name, e.addr)
	case kindSysVar:
		fmt.Fprintf(&buf, "%v ( sysvar @%v )", e.name, vm.load(e.addr))
	case kindDoesProto:
		fmt.Fprintf(&buf, "CREATE %v @%v DOES>", e.name, e.addr)
		vm.decompile(&buf, e.code)
	}
	if e.immediate() {
		buf.WriteString(" IMMEDIATE")
	}
	return buf.String()
}

func (vm *VM) see() {
	name := vm.word()
	if name == "" {
		vm.abort(errMissingName)
	}
	h := vm.find(name)
	if h == 0 {
		vm.abort(unknownWord(name))
	}
	vm.putString(vm.formatEntry(h))
	vm.putChar('\n')
}

func (vm *VM) words() {
	for h := vm.latest(); h != 0; {
		e := vm.entry(h)
		vm.putString(e.name.String())
		vm.putChar(' ')
		h = e.link
	}
}

type vmDumper struct {
	vm  *VM
	out io.Writer

	natives bool
}

func (dump vmDumper) dump() {
	vm := dump.vm
	fmt.Fprintf(dump.out, "# VM Dump\n")
	fmt.Fprintf(dump.out, "  ip: %v\n", vm.ip)
	fmt.Fprintf(dump.out, "  stack: %v\n", vm.stack.values())
	fmt.Fprintf(dump.out, "  rstack: %v\n", vm.rstack.values())
	fmt.Fprintf(dump.out, "  line: %q @%v\n", vm.line, vm.cursor)

	fmt.Fprintf(dump.out, "# Low Memory\n")
	for _, sv := range sysVars {
		val, _ := vm.mem.Load(uint(sv.addr))
		fmt.Fprintf(dump.out, "  @%v %v %v\n", sv.addr, val, sv.name)
	}

	fmt.Fprintf(dump.out, "# Dictionary\n")
	natives := 0
	for i := range vm.dict {
		h := uint16(i + 1)
		if vm.dict[i].kind == kindNative && !dump.natives {
			natives++
			continue
		}
		fmt.Fprintf(dump.out, "  %v %v\n", h, vm.formatEntry(h))
	}
	if natives > 0 {
		fmt.Fprintf(dump.out, "  ... %v natives\n", natives)
	}

	fmt.Fprintf(dump.out, "# Code\n")
	for pos, a := range vm.code {
		fmt.Fprintf(dump.out, "  @%v %v\n", pos, vm.formatAtom(a))
	}
}
