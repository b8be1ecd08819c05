// Package textdiff computes and renders differences between field value
// texts.
package textdiff

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/fatih/color"
	diffpatch "github.com/sergi/go-diff/diffmatchpatch"
)

type Op int

const (
	OpEqual Op = iota
	OpInsert
	OpDelete
	OpReplace
)

func (o Op) String() string {
	switch o {
	case OpEqual:
		return "equal"
	case OpInsert:
		return "insert"
	case OpDelete:
		return "delete"
	case OpReplace:
		return "replace"
	}
	return fmt.Sprintf("Op(%d)", int(o))
}

// Chunk is a run of text that is either common to both sides, only in the
// new text or only in the old text.
type Chunk struct {
	Op   Op
	Text string
}

// Edit is a change at Offset in the new text. A deletion directly followed
// by an insertion at the same place is a single OpReplace edit.
type Edit struct {
	Offset int
	Op     Op
	From   string
	To     string
}

type Diff struct {
	From, To  string
	Multiline bool
	// Whole is set when the edits cover so much of the text that showing
	// From and To in full is clearer.
	Whole  bool
	Chunks []Chunk
	Edits  []Edit
	size   int
}

// Strings returns the difference between from and to, or nil when they are
// equal.
func Strings(from, to string) *Diff {
	if from == to {
		return nil
	}
	dmp := diffpatch.New()
	multi := strings.Contains(from, "\n") && strings.Contains(to, "\n")
	diffs := dmp.DiffMain(from, to, multi)
	d := &Diff{From: from, To: to, Multiline: multi}
	ri := 0
	for i := range diffs {
		df := &diffs[i]
		switch df.Type {
		case diffpatch.DiffInsert:
			d.Chunks = append(d.Chunks, Chunk{Op: OpInsert, Text: df.Text})
			if n := len(d.Edits); n > 0 && d.Edits[n-1].Op == OpDelete && d.Edits[n-1].Offset == ri {
				// insert after delete -> replace
				e := &d.Edits[n-1]
				e.Op = OpReplace
				e.To = df.Text
				if len(df.Text) > len(e.From) {
					d.size += len(df.Text) - len(e.From)
				}
			} else {
				d.Edits = append(d.Edits, Edit{Offset: ri, Op: OpInsert, To: df.Text})
				d.size += len(df.Text)
			}
			ri += len(df.Text)
		case diffpatch.DiffDelete:
			d.Chunks = append(d.Chunks, Chunk{Op: OpDelete, Text: df.Text})
			d.Edits = append(d.Edits, Edit{Offset: ri, Op: OpDelete, From: df.Text})
			d.size += len(df.Text)
		case diffpatch.DiffEqual:
			d.Chunks = append(d.Chunks, Chunk{Op: OpEqual, Text: df.Text})
			ri += len(df.Text)
		}
	}
	d.Whole = d.size > min(len(from), len(to))/2
	return d
}

// Size is the number of bytes touched by the edits.
func (d *Diff) Size() int {
	return d.size
}

// Reverse returns the difference from d.To to d.From.
func (d *Diff) Reverse() *Diff {
	return Strings(d.To, d.From)
}

// Colors decorates rendered text. A nil *Colors renders plain text.
type Colors struct {
	Delete func(string, ...any) string
	Insert func(string, ...any) string
	Label  func(string, ...any) string
}

func NewColors() *Colors {
	return &Colors{
		Delete: color.RedString,
		Insert: color.GreenString,
		Label:  color.RGB(128, 168, 196).SprintfFunc(),
	}
}

func (c *Colors) paint(f func(string, ...any) string, s string) string {
	if c == nil || f == nil {
		return s
	}
	return f("%s", s)
}

// Format writes d to w. Whole diffs are written as the old lines prefixed
// with '-' followed by the new lines prefixed with '+'. Otherwise the text
// is written once with deletions as [-text-] and insertions as {+text+}.
func (d *Diff) Format(w io.Writer, c *Colors) error {
	var b strings.Builder
	if d.Whole {
		for _, line := range lines(d.From) {
			b.WriteString(c.paint(c.deleteFunc(), "-"+line))
			b.WriteByte('\n')
		}
		for _, line := range lines(d.To) {
			b.WriteString(c.paint(c.insertFunc(), "+"+line))
			b.WriteByte('\n')
		}
	} else {
		for _, ch := range d.Chunks {
			switch ch.Op {
			case OpEqual:
				b.WriteString(ch.Text)
			case OpDelete:
				b.WriteString(c.paint(c.deleteFunc(), "[-"+ch.Text+"-]"))
			case OpInsert:
				b.WriteString(c.paint(c.insertFunc(), "{+"+ch.Text+"+}"))
			}
		}
		if !strings.HasSuffix(d.To, "\n") {
			b.WriteByte('\n')
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func (c *Colors) deleteFunc() func(string, ...any) string {
	if c == nil {
		return nil
	}
	return c.Delete
}

func (c *Colors) insertFunc() func(string, ...any) string {
	if c == nil {
		return nil
	}
	return c.Insert
}

func lines(s string) []string {
	if s == "" {
		return []string{""}
	}
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}

// ValueDiff is the difference of one value of a field.
type ValueDiff struct {
	Field string
	Index int
	Diff  *Diff
}

// Values compares the texts of each field, value by value. A value present on
// only one side is compared against the empty string. The result is ordered
// by field name, then index.
func Values(from, to map[string][]string) []ValueDiff {
	names := make([]string, 0, len(from)+len(to))
	for name := range from {
		names = append(names, name)
	}
	for name := range to {
		if _, ok := from[name]; !ok {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	var res []ValueDiff
	for _, name := range names {
		a, b := from[name], to[name]
		for i := range max(len(a), len(b)) {
			var x, y string
			if i < len(a) {
				x = a[i]
			}
			if i < len(b) {
				y = b[i]
			}
			if d := Strings(x, y); d != nil {
				res = append(res, ValueDiff{Field: name, Index: i, Diff: d})
			}
		}
	}
	return res
}

// FormatValues writes each value difference under a "field[index]:" label.
func FormatValues(w io.Writer, vds []ValueDiff, c *Colors) error {
	for i := range vds {
		vd := &vds[i]
		label := fmt.Sprintf("%s[%d]:", vd.Field, vd.Index)
		var lf func(string, ...any) string
		if c != nil {
			lf = c.Label
		}
		if _, err := fmt.Fprintln(w, c.paint(lf, label)); err != nil {
			return err
		}
		if err := vd.Diff.Format(w, c); err != nil {
			return err
		}
	}
	return nil
}
