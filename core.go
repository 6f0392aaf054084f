package main

import (
	"fmt"
	"strings"

	"github.com/jcorbin/tinyforth/internal/console"
)

// Core holds the VM's character device and trace logging.
type Core struct {
	logging
	console.Console
}

func (core *Core) halt(err error) {
	// ignore any panics while trying to flush output
	func() {
		defer func() { recover() }()
		if ferr := core.Flush(); err == nil {
			err = ferr
		}
	}()

	// ignore any panics while logging
	func() {
		defer func() { recover() }()
		if err == nil {
			core.logf("#", "halt")
		} else {
			core.logf("#", "halt error: %v", err)
		}
	}()

	panic(haltError{err})
}

func (core *Core) haltif(err error) {
	if err != nil {
		core.halt(err)
	}
}

func (core *Core) putChar(c byte) {
	core.haltif(core.PutChar(c))
}

func (core *Core) putString(s string) {
	core.haltif(core.PutString(s))
}

func (core *Core) printf(format string, args ...interface{}) {
	core.putString(fmt.Sprintf(format, args...))
}

type logging struct {
	logfn func(mess string, args ...interface{})

	markWidth int
}

func (log *logging) withLogPrefix(prefix string) func() {
	logfn := log.logfn
	log.logfn = func(mess string, args ...interface{}) {
		logfn(prefix+mess, args...)
	}
	return func() {
		log.logfn = logfn
	}
}

func (log *logging) logf(mark, mess string, args ...interface{}) {
	if log.logfn == nil {
		return
	}
	if n := log.markWidth - len(mark); n > 0 {
		mark = strings.Repeat(mark[:1], n) + mark
	} else if n < 0 {
		log.markWidth = len(mark)
	}
	if len(args) > 0 {
		mess = fmt.Sprintf(mess, args...)
	}
	log.logfn("%v %v", mark, mess)
}
