package main

// parseDecimal consumes the longest run of decimal digits at the start of
// s, returning its value and length. At least one digit is required, and a
// value past 65535 fails rather than wrapping.
func parseDecimal(s string) (val uint16, n int, ok bool) {
	var acc uint32
	for n < len(s) {
		c := s[n]
		if c < '0' || c > '9' {
			break
		}
		acc = acc*10 + uint32(c-'0')
		if acc > 0xffff {
			return 0, n, false
		}
		n++
	}
	if n == 0 {
		return 0, 0, false
	}
	return uint16(acc), n, true
}

// parseNumber is the builtin number routine: an optionally negated decimal
// that must span the whole token. Negated values stop at -32768.
func parseNumber(token string) (uint16, bool) {
	neg := len(token) > 1 && token[0] == '-'
	if neg {
		token = token[1:]
	}
	val, n, ok := parseDecimal(token)
	if !ok || n != len(token) {
		return 0, false
	}
	if neg {
		if val > 0x8000 {
			return 0, false
		}
		val = -val
	}
	return val, true
}

// number converts a token that did not name a word. If 'NUMBER holds a
// handle, that Forth word is run on a copy of the token at PAD:
// ( addr len -- n flag ); otherwise the Go routine is used.
func (vm *VM) number(token string) (uint16, bool) {
	h := vm.load(addrNumber)
	if h == 0 {
		return vm.parseNumber(token)
	}

	if len(token) > padSize {
		return 0, false
	}
	text := make([]uint16, len(token))
	for i := 0; i < len(token); i++ {
		text[i] = uint16(token[i])
	}
	vm.stor(addrPad, text...)
	vm.push(addrPad)
	vm.push(uint16(len(token)))
	vm.run(h)
	ok := vm.pop() != 0
	val := vm.pop()
	return val, ok
}
