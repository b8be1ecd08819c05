package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/scott-cotton/cli"
	"github.com/signadot/docworker/processor"
)

func process(cfg *ProcessConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Process.Parse(cc, args)
	if err != nil {
		cfg.Process.Usage(cc, err)
		return cli.ExitCodeErr(1)
	}
	c, err := cfg.load()
	if err != nil {
		return err
	}
	a, err := newApp(c)
	if err != nil {
		return err
	}
	defer a.Close()

	var in io.Reader = cc.In
	if len(args) != 0 {
		readers := make([]io.Reader, 0, len(args))
		for _, file := range args {
			if file == "-" {
				readers = append(readers, cc.In)
				continue
			}
			f, err := os.Open(file)
			if err != nil {
				return fmt.Errorf("could not open %q: %w", file, err)
			}
			defer f.Close()
			readers = append(readers, f)
		}
		in = io.MultiReader(readers...)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	counts := make([]int, processor.OutcomeException+1)
	observe := func(rs []processor.Response) {
		for i := range rs {
			counts[rs[i].Outcome]++
		}
	}
	if err := pump(ctx, a.proc, in, cc.Out, time.Second, observe); err != nil {
		return err
	}
	if cfg.Summary {
		for o, n := range counts {
			if n == 0 {
				continue
			}
			fmt.Fprintf(os.Stderr, "%s: %d\n", processor.Outcome(o), n)
		}
	}
	return nil
}
