package main

import (
	"bytes"
)

// nameWidth is the fixed width of an entry's name field. Longer names are
// truncated; names are folded to upper case, so lookup is case insensitive.
const nameWidth = 16

type wordName [nameWidth]byte

func makeName(s string) (name wordName) {
	for i := 0; i < len(s) && i < nameWidth; i++ {
		c := s[i]
		if 'a' <= c && c <= 'z' {
			c -= 'a' - 'A'
		}
		name[i] = c
	}
	return name
}

func (name wordName) String() string {
	if i := bytes.IndexByte(name[:], 0); i >= 0 {
		return string(name[:i])
	}
	return string(name[:])
}

type wordKind uint8

const (
	kindNative wordKind = iota
	kindCompiled
	kindCell
	kindSysVar
	kindDoesProto
	kindMax
)

var kindNames = [kindMax]string{
	"native",
	"compiled",
	"cell",
	"sysvar",
	"does",
}

func (k wordKind) String() string {
	if k < kindMax {
		return kindNames[k]
	}
	return "invalid"
}

const flagImmediate = 0x01

// entry is a dictionary word header plus its body.
//
// The body depends on kind:
//   - Native: prim indexes the primitive table
//   - Compiled: code is the index of the first atom
//   - Cell: addr is the data address pushed on execution
//   - SysVar: addr holds the address of a system variable
//   - DoesProto: addr like Cell, code is the shared DOES> code
type entry struct {
	name  wordName
	link  uint16
	flags uint8
	kind  wordKind

	prim uint16
	code uint16
	addr uint16
}

func (e *entry) immediate() bool { return e.flags&flagImmediate != 0 }

// Handles are 1-based indices into the entry arena, 0 marks chain end.
const maxEntries = 0xfffe

func (vm *VM) entry(h uint16) *entry {
	if h == 0 || int(h) > len(vm.dict) {
		vm.abort(badHandle(h))
	}
	return &vm.dict[h-1]
}

// find returns the handle of the newest entry named token, or 0.
func (vm *VM) find(token string) uint16 {
	name := makeName(token)
	for h := vm.latest(); h != 0; {
		e := vm.entry(h)
		if e.name == name {
			return h
		}
		h = e.link
	}
	return 0
}

// createEntry appends a new entry linked to LATEST, and makes it LATEST.
// A name already in use is shadowed; words compiled against the older entry
// keep referencing it.
func (vm *VM) createEntry(token string, kind wordKind) uint16 {
	if len(vm.dict) >= maxEntries {
		vm.abort(errDictFull)
	}
	if prior := vm.find(token); prior != 0 {
		vm.logf(":", "redefined %v", vm.dict[prior-1].name)
	}
	vm.dict = append(vm.dict, entry{
		name: makeName(token),
		link: vm.latest(),
		kind: kind,
	})
	h := uint16(len(vm.dict))
	vm.stor(addrLatest, h)
	return h
}

func (vm *VM) nameOf(h uint16) string {
	if h == 0 || int(h) > len(vm.dict) {
		return "?"
	}
	return vm.dict[h-1].name.String()
}
