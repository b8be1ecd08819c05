package main

import (
	"fmt"
	"io"
	"os"

	"github.com/scott-cotton/cli"
	"github.com/signadot/docworker/document"
	"github.com/signadot/docworker/field"
	"github.com/signadot/docworker/wire"
)

func apply(cfg *ApplyConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Apply.Parse(cc, args)
	if err != nil {
		cfg.Apply.Usage(cc, err)
		return cli.ExitCodeErr(1)
	}
	if len(args) != 2 {
		return fmt.Errorf("%w: apply requires 2 arguments, a document and a change log", cli.ErrUsage)
	}
	base, err := getDocument(cc, args[0])
	if err != nil {
		return err
	}
	data, err := readInput(cc, args[1])
	if err != nil {
		return err
	}
	log, err := wire.DecodeChanges(data)
	if err != nil {
		return fmt.Errorf("error decoding %s: %w", args[1], err)
	}
	c, err := cfg.load()
	if err != nil {
		return err
	}
	s, closers, err := openStore(&c.Store)
	if err != nil {
		return err
	}
	defer closeAll(closers)

	d, err := document.FromWire(field.NewCodec(s), base)
	if err != nil {
		return fmt.Errorf("error loading %s: %w", args[0], err)
	}
	if err := d.ApplyChangeLog(log); err != nil {
		return fmt.Errorf("error applying %s: %w", args[1], err)
	}
	if cfg.Verify {
		if err := document.VerifyReplay(base, d); err != nil {
			return err
		}
	}
	var out any = d.ToWire()
	if cfg.Changes {
		out = d.Changes()
	}
	res, err := wire.MarshalIndent(out)
	if err != nil {
		return fmt.Errorf("error encoding result: %w", err)
	}
	res = append(res, '\n')
	_, err = cc.Out.Write(res)
	return err
}

func readInput(cc *cli.Context, path string) ([]byte, error) {
	var r io.Reader
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	} else {
		r = cc.In
	}
	d, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("error reading %q: %w", path, err)
	}
	return d, nil
}

func getDocument(cc *cli.Context, path string) (*wire.Document, error) {
	d, err := readInput(cc, path)
	if err != nil {
		return nil, err
	}
	doc, err := wire.DecodeDocument(d)
	if err != nil {
		return nil, fmt.Errorf("error decoding %s: %w", path, err)
	}
	return doc, nil
}
