package panicerr

import (
	"errors"
	"fmt"
)

// abnormal is the error returned by Recover when its function panics or
// calls runtime.Goexit instead of returning.
type abnormal struct {
	name   string
	exited bool
	value  interface{}
	stack  []byte
}

func (ab abnormal) Error() string { return fmt.Sprint(ab) }

func (ab abnormal) Format(f fmt.State, c rune) {
	who := ab.name
	if who == "" {
		who = "goroutine"
	}
	if ab.exited {
		fmt.Fprintf(f, "%v exited via runtime.Goexit", who)
		return
	}
	fmt.Fprintf(f, "%v panicked: %v", who, ab.value)
	if c == 'v' && f.Flag('+') {
		fmt.Fprintf(f, "\nPanic stack: %s", ab.stack)
	}
}

// Unwrap returns the panic value if it was an error.
func (ab abnormal) Unwrap() error {
	err, _ := ab.value.(error)
	return err
}

// IsExit returns true if err indicates a recovered runtime.Goexit.
func IsExit(err error) bool {
	var ab abnormal
	return errors.As(err, &ab) && ab.exited
}

// IsPanic returns true if err indicates a recovered panic.
func IsPanic(err error) bool {
	var ab abnormal
	return errors.As(err, &ab) && !ab.exited
}

// PanicStack returns the stack captured when a recovered panic was raised,
// or "" if err is not one.
func PanicStack(err error) string {
	var ab abnormal
	if errors.As(err, &ab) && !ab.exited {
		return string(ab.stack)
	}
	return ""
}
