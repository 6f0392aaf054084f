package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/jcorbin/tinyforth/internal/logio"
)

func main() {
	logger := logio.NewLogger(os.Stderr)
	logger.ErrorIf(run(logger))
	os.Exit(logger.ExitCode())
}

func run(logger *logio.Logger) error {
	var (
		configPath string
		imagePath  string
		savePath   string
		timeout    time.Duration
		trace      bool
		memLimit   uint
		noRaw      bool
	)
	flag.StringVar(&configPath, "config", "", "load a YAML config file")
	flag.StringVar(&imagePath, "image", "", "boot from a saved image")
	flag.StringVar(&savePath, "save", "", "save an image on exit")
	flag.DurationVar(&timeout, "timeout", 0, "specify a time limit")
	flag.BoolVar(&trace, "trace", false, "enable trace logging")
	flag.UintVar(&memLimit, "mem-limit", 0, "limit data memory to this many cells")
	flag.BoolVar(&noRaw, "noraw", false, "leave the terminal in cooked mode")
	flag.Parse()

	var cfg Config
	if configPath != "" {
		loaded, err := LoadConfig(configPath)
		if err != nil {
			return err
		}
		cfg = *loaded
	}
	if imagePath == "" {
		imagePath = cfg.Boot.Image
	}
	if savePath == "" {
		savePath = cfg.Boot.Save
	}

	raw := !noRaw && term.IsTerminal(int(os.Stdin.Fd()))
	if cfg.Console.Raw != nil {
		raw = raw && *cfg.Console.Raw
	}

	// the runtime echoes only when the terminal does not
	opts := []VMOption{
		WithEcho(raw),
		WithInput(os.Stdin),
		WithOutput(os.Stdout),
	}
	opts = append(opts, cfg.Options()...)
	if trace {
		opts = append(opts, WithLogf(logger.Leveledf("TRACE")))
	}
	if memLimit != 0 {
		opts = append(opts, WithMemLimit(memLimit))
	}
	if imagePath != "" {
		img, err := LoadImage(imagePath)
		if err != nil {
			return err
		}
		opts = append(opts, WithImage(img))
	}

	vm := New(opts...)
	defer vm.Close()

	for _, name := range append(cfg.Boot.Sources, flag.Args()...) {
		if err := loadFile(vm, name); err != nil {
			return err
		}
	}

	restore := func() {}
	if raw {
		var err error
		if restore, err = setRawIO(os.Stdin.Fd()); err != nil {
			logger.Printf("WARN", "unable to set raw mode: %v", err)
			restore = func() {}
		}
	}
	defer restore()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if timeout != 0 {
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigs)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		defer cancel()
		return vm.Run(ctx)
	})
	eg.Go(func() error {
		select {
		case <-egCtx.Done():
			return nil
		case sig := <-sigs:
			cancel()
			// the VM may be blocked reading input; a second signal exits
			go func() {
				<-sigs
				restore()
				os.Exit(2)
			}()
			return errors.Errorf("interrupted by %v", sig)
		}
	})
	if err := eg.Wait(); err != nil {
		return err
	}

	if savePath != "" {
		img, err := vm.Snapshot()
		if err != nil {
			return err
		}
		return img.Save(savePath)
	}
	return nil
}

func loadFile(vm *VM, name string) error {
	f, err := os.Open(name)
	if err != nil {
		return errors.Wrap(err, "unable to open source")
	}
	defer f.Close()
	return vm.Load(name, f)
}
