package logio_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jcorbin/tinyforth/internal/logio"
)

func TestLogger(t *testing.T) {
	var out strings.Builder
	log := logio.NewLogger(&out)

	trace := log.Leveledf("TRACE")
	trace("> %v", "DUP")
	trace("no args")
	assert.Equal(t, 0, log.ExitCode(), "expected clean exit code")

	log.ErrorIf(nil)
	log.ErrorIf(errors.New("halted"))
	assert.Equal(t, 1, log.ExitCode(), "expected error exit code")

	assert.Equal(t, strings.Join([]string{
		"TRACE: > DUP",
		"TRACE: no args",
		"ERROR: halted",
		"",
	}, "\n"), out.String())
}

func TestWriter(t *testing.T) {
	var lines []string
	lw := &logio.Writer{Prefix: "out: ", Logf: func(mess string, args ...interface{}) {
		lines = append(lines, fmt.Sprintf(mess, args...))
	}}

	fmt.Fprintf(lw, "1 2 + . 3  ok\r\npartial")
	assert.Equal(t, []string{"out: 1 2 + . 3  ok"}, lines)

	fmt.Fprintf(lw, " line")
	assert.NoError(t, lw.Close())
	assert.Equal(t, []string{"out: 1 2 + . 3  ok", "out: partial line"}, lines)

	assert.NoError(t, lw.Close())
	assert.Len(t, lines, 2, "expected nothing more to flush")
}
