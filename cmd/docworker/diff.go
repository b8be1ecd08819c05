package main

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"github.com/scott-cotton/cli"
	"github.com/signadot/docworker/field"
	"github.com/signadot/docworker/textdiff"
	"github.com/signadot/docworker/wire"
)

func diff(cfg *DiffConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Diff.Parse(cc, args)
	if err != nil {
		cfg.Diff.Usage(cc, err)
		return cli.ExitCodeErr(1)
	}
	if len(args) != 2 {
		return fmt.Errorf("%w: diff requires 2 args, got %v", cli.ErrUsage, args)
	}
	a, err := getDocument(cc, args[0])
	if err != nil {
		return err
	}
	b, err := getDocument(cc, args[1])
	if err != nil {
		return err
	}
	if cfg.Reverse {
		a, b = b, a
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

	differs, err := diffDocuments(context.Background(), field.NewCodec(s), a, b, cc.Out, cfg.Patch, cfg.colors(cc.Out))
	if err != nil {
		return err
	}
	if differs {
		return cli.ExitCodeErr(1)
	}
	return nil
}

// diffDocuments writes the differences between a and b to w, either as a
// JSON merge patch or as per-value text diffs of each document in the tree.
func diffDocuments(ctx context.Context, codec *field.Codec, a, b *wire.Document, w io.Writer, patch bool, colors *textdiff.Colors) (bool, error) {
	eq, err := wire.EqualDocuments(a, b)
	if err != nil {
		return false, err
	}
	if eq {
		return false, nil
	}
	if patch {
		p, err := wire.MergePatch(a, b)
		if err != nil {
			return false, fmt.Errorf("error computing patch: %w", err)
		}
		buf := &bytes.Buffer{}
		if err := json.Indent(buf, p, "", "  "); err != nil {
			return false, err
		}
		buf.WriteByte('\n')
		_, err = w.Write(buf.Bytes())
		return true, err
	}
	return true, diffTree(ctx, codec, "", a, b, w, colors)
}

func diffTree(ctx context.Context, codec *field.Codec, path string, a, b *wire.Document, w io.Writer, colors *textdiff.Colors) error {
	if a == nil {
		a = &wire.Document{}
	}
	if b == nil {
		b = &wire.Document{}
	}
	header := func() error {
		_, err := fmt.Fprintf(w, "@ %s\n", describe(path, a, b))
		return err
	}
	written := false
	if a.Reference != b.Reference {
		if err := header(); err != nil {
			return err
		}
		written = true
		fmt.Fprintf(w, "reference: %q -> %q\n", a.Reference, b.Reference)
	}
	at, err := fieldTexts(ctx, codec, a.Fields)
	if err != nil {
		return err
	}
	bt, err := fieldTexts(ctx, codec, b.Fields)
	if err != nil {
		return err
	}
	if vds := textdiff.Values(at, bt); len(vds) != 0 {
		if !written {
			if err := header(); err != nil {
				return err
			}
			written = true
		}
		if err := textdiff.FormatValues(w, vds, colors); err != nil {
			return err
		}
	}
	if len(a.Failures) != len(b.Failures) {
		if !written {
			if err := header(); err != nil {
				return err
			}
		}
		fmt.Fprintf(w, "failures: %d -> %d\n", len(a.Failures), len(b.Failures))
	}
	for i := range max(len(a.Subdocuments), len(b.Subdocuments)) {
		var x, y *wire.Document
		if i < len(a.Subdocuments) {
			x = a.Subdocuments[i]
		}
		if i < len(b.Subdocuments) {
			y = b.Subdocuments[i]
		}
		if err := diffTree(ctx, codec, fmt.Sprintf("%s/%d", path, i), x, y, w, colors); err != nil {
			return err
		}
	}
	return nil
}

func describe(path string, a, b *wire.Document) string {
	if path == "" {
		path = "/"
	}
	ref := b.Reference
	if ref == "" {
		ref = a.Reference
	}
	if ref == "" {
		return path
	}
	return path + " (" + ref + ")"
}

// fieldTexts decodes each field value to text. Storage references are shown
// as @ref when no store is configured.
func fieldTexts(ctx context.Context, codec *field.Codec, fs wire.Fields) (map[string][]string, error) {
	res := make(map[string][]string, len(fs))
	for name, wvs := range fs {
		vs, err := codec.FromWireList(wvs)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", name, err)
		}
		texts := make([]string, len(vs))
		for i, v := range vs {
			if rv, ok := v.(*field.ReferenceValue); ok && codec.Store() == nil {
				texts[i] = "@" + rv.Ref()
				continue
			}
			texts[i], err = field.Text(ctx, v)
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", name, err)
			}
		}
		res[name] = texts
	}
	return res, nil
}
