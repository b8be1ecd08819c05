package exprworker

import (
	"context"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/signadot/docworker/document"
	"github.com/signadot/docworker/field"
)

// envTypes returns an environment with the shape of the one built by newEnv,
// for type checking at compile time.
func envTypes() map[string]any {
	return map[string]any{
		"reference":       "",
		"isRoot":          false,
		"numSubdocuments": 0,
		"hasFailures":     false,
		"has":             func(string) bool { return false },
		"field":           func(string) string { return "" },
		"values":          func(string) []string { return nil },
		"custom":          func(string) string { return "" },
	}
}

// env exposes a document to expressions. Errors resolving values are kept
// and reported by run.
type env struct {
	ctx context.Context
	doc *document.Document
	err error
}

func newEnv(ctx context.Context, d *document.Document) *env {
	return &env{ctx: ctx, doc: d}
}

func (e *env) vars() map[string]any {
	d := e.doc
	return map[string]any{
		"reference":       d.Reference(),
		"isRoot":          d.IsRoot(),
		"numSubdocuments": d.NumSubdocuments(),
		"hasFailures":     d.HasFailures(),
		"has":             e.has,
		"field":           e.field,
		"values":          e.values,
		"custom":          e.custom,
	}
}

func (e *env) run(p *vm.Program) (any, error) {
	e.err = nil
	v, err := expr.Run(p, e.vars())
	if e.err != nil {
		return nil, e.err
	}
	return v, err
}

func (e *env) has(name string) bool {
	f, ok := e.doc.Lookup(name)
	return ok && f.HasValues()
}

func (e *env) field(name string) string {
	f, ok := e.doc.Lookup(name)
	if !ok || !f.HasValues() {
		return ""
	}
	s, err := field.Text(e.ctx, f.Values()[0])
	if err != nil && e.err == nil {
		e.err = err
	}
	return s
}

func (e *env) values(name string) []string {
	f, ok := e.doc.Lookup(name)
	if !ok {
		return nil
	}
	res, err := f.Texts(e.ctx)
	if err != nil && e.err == nil {
		e.err = err
	}
	return res
}

func (e *env) custom(key string) string {
	v, _ := e.doc.CustomData(key)
	return v
}
