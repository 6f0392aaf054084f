package panicerr

import "runtime/debug"

// Recover runs f in a new goroutine, returning its error, or an error
// describing its panic or runtime.Goexit.
func Recover(name string, f func() error) error {
	errch := make(chan error, 1)
	go func() {
		returned := false
		defer close(errch)
		defer func() {
			if returned {
				return
			}
			ab := abnormal{name: name}
			if e := recover(); e != nil {
				ab.value, ab.stack = e, debug.Stack()
			} else {
				ab.exited = true
			}
			errch <- ab
		}()
		err := f()
		returned = true
		errch <- err
	}()
	return <-errch
}

// Trap runs f on the calling goroutine, recovering only panics whose value
// satisfies is; any other panic keeps unwinding. Returns the trapped value,
// or nil if f returned normally.
func Trap(f func(), is func(e interface{}) bool) (trapped interface{}) {
	defer func() {
		if e := recover(); e != nil {
			if !is(e) {
				panic(e)
			}
			trapped = e
		}
	}()
	f()
	return nil
}
