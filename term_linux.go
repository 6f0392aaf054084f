package main

import (
	"github.com/pkg/term/termios"
	"golang.org/x/sys/unix"
)

// setRawIO switches the terminal on fd to byte at a time input without
// echo, returning a function that restores its prior state.
func setRawIO(fd uintptr) (func(), error) {
	var tios unix.Termios
	if err := termios.Tcgetattr(fd, &tios); err != nil {
		return nil, err
	}
	a := tios
	a.Iflag &^= unix.BRKINT | unix.ISTRIP | unix.IXON | unix.IXOFF | unix.ICRNL
	a.Iflag |= unix.IGNBRK | unix.IGNPAR
	a.Lflag &^= unix.ICANON | unix.ISIG | unix.IEXTEN | unix.ECHO
	a.Cc[unix.VMIN] = 1
	a.Cc[unix.VTIME] = 0
	if err := termios.Tcsetattr(fd, termios.TCSANOW, &a); err != nil {
		termios.Tcsetattr(fd, termios.TCSANOW, &tios)
		return nil, err
	}
	return func() {
		termios.Tcsetattr(fd, termios.TCSANOW, &tios)
	}, nil
}
