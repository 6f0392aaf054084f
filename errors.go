package main

import (
	"errors"
	"fmt"
)

// Abort causes. Every one of these is delivered through vm.abort, which
// unwinds to the outer interpreter; none escape the runtime as a returned
// error except through Evaluate.
var (
	errStackUnderflow = errors.New("stack underflow")
	errStackOverflow  = errors.New("stack overflow")
	errRetUnderflow   = errors.New("return stack underflow")
	errRetOverflow    = errors.New("return stack overflow")
	errOutOfMemory    = errors.New("out of memory")
	errDictFull       = errors.New("dictionary full")
	errDivZero        = errors.New("division by zero")
	errNested         = errors.New("nested definition")
	errMismatch       = errors.New("control structure mismatch")
	errCompileOnly    = errors.New("compile only")
	errMissingName    = errors.New("missing name")
	errAborted        = errors.New("aborted")
	errUnterminated   = errors.New("unterminated string")
	errNotCreated     = errors.New("not a created word")
	errInvalidProgram = errors.New("invalid program counter")
)

// unknownWord is the diagnostic for a token that is neither a word nor a
// number.
type unknownWord string

func (tok unknownWord) Error() string { return fmt.Sprintf("%v ?", string(tok)) }

// badHandle is the diagnostic for executing something that is not a
// dictionary entry.
type badHandle uint16

func (h badHandle) Error() string { return fmt.Sprintf("invalid word handle %v", uint16(h)) }

// abortError carries an abort cause up to the outer interpreter.
type abortError struct{ error }

func (err abortError) Unwrap() error { return err.error }

func isAbort(e interface{}) bool {
	_, ok := e.(abortError)
	return ok
}

// haltError carries a halt cause up to Run.
type haltError struct{ error }

func (err haltError) Error() string {
	if err.error != nil {
		return fmt.Sprintf("halted: %v", err.error)
	}
	return "halted"
}

func (err haltError) Unwrap() error { return err.error }
