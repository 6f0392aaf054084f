package main

import (
	"bufio"
	"bytes"
	"context"
	"flag"
	"io"
	"os"
	"os/exec"
	"regexp"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/jcorbin/tinyforth/internal/logio"
)

type namedReader interface {
	io.ReadCloser
	Name() string
}

var (
	in  namedReader    = os.Stdin
	out io.WriteCloser = os.Stdout
)

func parseFlags() error {
	flag.Parse()

	args := flag.Args()

	if len(args) > 0 {
		name := args[0]
		f, err := os.Open(name)
		if err != nil {
			return errors.Wrapf(err, "failed to open %v", name)
		}
		args = args[1:]
		in = f
	}

	if len(args) > 0 {
		name := args[0]
		f, err := os.Create(name)
		if err != nil {
			return errors.Wrapf(err, "failed to create %v", name)
		}
		out = f
	}

	return nil
}

func main() {
	logger := logio.NewLogger(os.Stderr)
	logger.ErrorIf(generate(context.Background()))
	os.Exit(logger.ExitCode())
}

func generate(ctx context.Context) error {
	if err := parseFlags(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	eg, ctx := errgroup.WithContext(ctx)

	ready := make(chan struct{})

	eg.Go(func() error {
		goimports := exec.CommandContext(ctx, "goimports")
		fmtPipe, err := goimports.StdinPipe()
		if err != nil {
			return err
		}

		defer out.Close()
		goimports.Stdout = out
		goimports.Stderr = os.Stderr

		out = fmtPipe

		close(ready)
		return errors.Wrap(goimports.Run(), "goimports run failed")
	})

	eg.Go(func() (rerr error) {
		select {
		case <-ctx.Done():
		case <-ready:
		}

		defer func() {
			if cerr := in.Close(); rerr == nil {
				rerr = cerr
			}
			if cerr := out.Close(); rerr == nil {
				rerr = cerr
			}
		}()

		return run(ctx)
	})

	return eg.Wait()
}

// expectMethod matches vmTestCase builder methods like
// `func (vmt vmTestCase) expectStack(values ...int) vmTestCase`.
var expectMethod = regexp.MustCompile(`func \(vmt vmTestCase\) (expect)(.+?)\((.+?)\) vmTestCase`)

func run(ctx context.Context) error {
	var buf bytes.Buffer
	buf.Grow(1024)
	buf.WriteString("package main\n\n")

	buf.WriteString("// @generated from ")
	buf.WriteString(in.Name())
	buf.WriteString("\n\n")

	if args := flag.Args(); len(args) >= 2 {
		buf.WriteString("//go:generate go run scripts/gen_vm_expects.go --")
		for _, arg := range args {
			buf.WriteByte(' ')
			buf.WriteString(arg)
		}
		buf.WriteString("\n\n")
	}

	sc := bufio.NewScanner(in)
	for sc.Scan() {
		if match := expectMethod.FindSubmatch(sc.Bytes()); len(match) > 0 {
			writeExpectFunc(&buf, match[1], match[2], match[3])
		}

		if buf.Len() > 0 {
			if _, err := buf.WriteTo(out); err != nil {
				return err
			}
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return sc.Err()
}

// writeExpectFunc writes a wrapper usable with vmTestCase.apply, named like
// expectVMStack for the expectStack method.
func writeExpectFunc(buf *bytes.Buffer, baseName, whatName, args []byte) {
	buf.WriteString("func ")
	buf.Write(baseName)
	buf.WriteString("VM")
	buf.Write(whatName)
	buf.WriteString("(")
	buf.Write(args)
	buf.WriteString(") func(vmTestCase) vmTestCase {\n")
	buf.WriteString("  return func(vmt vmTestCase) vmTestCase {\n")
	buf.WriteString("    return vmt.")
	buf.Write(baseName)
	buf.Write(whatName)
	buf.WriteString("(")

	for i, part := range bytes.Split(args, []byte(",")) {
		if i > 0 {
			buf.WriteString(", ")
		}
		fields := bytes.Fields(bytes.Trim(part, " "))
		buf.Write(fields[0])
		if len(fields) > 1 && bytes.HasPrefix(fields[1], []byte("...")) {
			buf.WriteString("...")
		}
	}

	buf.WriteString(")\n")
	buf.WriteString("  }\n")
	buf.WriteString("}\n\n")
}
