package main

// colon compiles a definition: ": NAME ... ;".
//
// Tokens are read until ";", refilling across lines. IMMEDIATE words run as
// they are read; other words compile a call; anything else must parse as a
// number literal. A failure aborts without retracting what was already
// compiled.
func (vm *VM) colon() {
	if vm.state() != 0 {
		vm.abort(errNested)
	}
	name := vm.word()
	if name == "" {
		vm.abort(errMissingName)
	}

	h := vm.createEntry(name, kindCompiled)
	vm.dict[h-1].code = uint16(len(vm.code))
	vm.csp = vm.stack.depth()
	vm.setState(true)
	vm.logf(":", "define %v @%v", name, len(vm.code))

	for vm.state() != 0 {
		token := vm.nextToken()
		if token == "" {
			return
		}
		vm.compileToken(token)
	}
}

func (vm *VM) compileToken(token string) {
	if token == ";" {
		if vm.stack.depth() != vm.csp {
			vm.abort(errMismatch)
		}
		vm.appendAtom(atom{kind: atomExit})
		vm.setState(false)
		vm.logf(":", "end %v @%v", vm.nameOf(vm.latest()), len(vm.code))
		return
	}

	if h := vm.find(token); h != 0 {
		if vm.dict[h-1].immediate() {
			vm.run(h)
		} else {
			vm.appendAtom(atom{kind: atomCall, arg: h})
		}
		return
	}

	if val, ok := vm.number(token); ok {
		vm.appendAtom(atom{kind: atomNumber, arg: val})
		return
	}

	vm.abort(unknownWord(token))
}

func (vm *VM) compileOnly() {
	if vm.state() == 0 {
		vm.abort(errCompileOnly)
	}
}

func (vm *VM) immediateWord() {
	vm.entry(vm.latest()).flags |= flagImmediate
}

// create makes a Cell entry whose body starts at HERE.
func (vm *VM) create() {
	name := vm.word()
	if name == "" {
		vm.abort(errMissingName)
	}
	h := vm.createEntry(name, kindCell)
	vm.dict[h-1].addr = vm.here()
}

// does turns the newest created word into a DoesProto sharing the code after
// DOES> in the running definition, and then exits that definition.
func (vm *VM) does() {
	if vm.ip == retSentinel {
		vm.abort(errCompileOnly)
	}
	e := vm.entry(vm.latest())
	if e.kind != kindCell && e.kind != kindDoesProto {
		vm.abort(errNotCreated)
	}
	e.kind = kindDoesProto
	e.code = vm.ip
	vm.logf(":", "%v does @%v", e.name, e.code)
	vm.ip = vm.rpop()
}

func (vm *VM) tick() {
	name := vm.word()
	if name == "" {
		vm.abort(errMissingName)
	}
	h := vm.find(name)
	if h == 0 {
		vm.abort(unknownWord(name))
	}
	vm.push(h)
}

func (vm *VM) executeWord() { vm.execute(vm.pop()) }

func (vm *VM) literal() {
	vm.compileOnly()
	vm.appendAtom(atom{kind: atomNumber, arg: vm.pop()})
}

func (vm *VM) bracketCompile() {
	vm.compileOnly()
	vm.tick()
	vm.compileComma()
}

func (vm *VM) compileComma() {
	h := vm.pop()
	vm.entry(h)
	vm.appendAtom(atom{kind: atomCall, arg: h})
}

func (vm *VM) recurse() {
	vm.compileOnly()
	vm.appendAtom(atom{kind: atomCall, arg: vm.latest()})
}

func (vm *VM) exit() {
	vm.compileOnly()
	vm.appendAtom(atom{kind: atomExit})
}

//// control flow
//
// Conditionals compile as "0= ?SKIP BRANCH": a true flag becomes zero, so
// ?SKIP steps over the branch into the guarded code; a false flag takes the
// branch. Forward branches are compiled with a zero offset and patched once
// their target is known; their positions ride the data stack until then.

func (vm *VM) qskip() {
	if vm.pop() == 0 {
		vm.skip()
	}
}

func (vm *VM) compileCond() {
	vm.compilePrim(primZeroEqual)
	vm.compilePrim(primSkip)
}

func (vm *VM) markForward() uint16 {
	return vm.appendAtom(atom{kind: atomBranchForward})
}

func (vm *VM) resolveForward(orig uint16) {
	if int(orig) >= len(vm.code) {
		vm.abort(errMismatch)
	}
	if a := &vm.code[orig]; a.kind != atomBranchForward || a.arg != 0 {
		vm.abort(errMismatch)
	}
	vm.code[orig].arg = uint16(len(vm.code)) - orig
}

func (vm *VM) branchBack(dest uint16) {
	pos := uint16(len(vm.code))
	if dest > pos || dest < vm.entry(vm.latest()).code {
		vm.abort(errMismatch)
	}
	vm.appendAtom(atom{kind: atomBranchBackward, arg: pos - dest})
}

func (vm *VM) ifWord() {
	vm.compileOnly()
	vm.compileCond()
	vm.push(vm.markForward())
}

func (vm *VM) elseWord() {
	vm.compileOnly()
	orig := vm.pop()
	vm.push(vm.markForward())
	vm.resolveForward(orig)
}

func (vm *VM) thenWord() {
	vm.compileOnly()
	vm.resolveForward(vm.pop())
}

func (vm *VM) begin() {
	vm.compileOnly()
	vm.push(uint16(len(vm.code)))
}

func (vm *VM) until() {
	vm.compileOnly()
	dest := vm.pop()
	vm.compileCond()
	vm.branchBack(dest)
}

func (vm *VM) again() {
	vm.compileOnly()
	vm.branchBack(vm.pop())
}

func (vm *VM) while() {
	vm.compileOnly()
	dest := vm.pop()
	vm.compileCond()
	vm.push(vm.markForward())
	vm.push(dest)
}

func (vm *VM) repeat() {
	vm.compileOnly()
	dest, orig := vm.pop(), vm.pop()
	vm.branchBack(dest)
	vm.resolveForward(orig)
}
