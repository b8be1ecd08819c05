// Package exprworker provides a document worker driven by configured rules
// whose conditions and values are expr-lang expressions.
//
// Expressions see the current document through:
//
//	reference          the document reference
//	isRoot             whether the document is the root of its tree
//	numSubdocuments    the number of subdocuments
//	hasFailures        whether the document has failures
//	has(name)          whether field name has values
//	field(name)        the text of the first value of field name, or ""
//	values(name)       the text of each value of field name
//	custom(key)        the custom data entry key, or ""
//
// Storage references are only resolved when field or values reads them.
package exprworker

import (
	"context"
	"fmt"
	"reflect"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/signadot/docworker/config"
	"github.com/signadot/docworker/debug"
	"github.com/signadot/docworker/document"
	"github.com/signadot/docworker/logging"
	"github.com/signadot/docworker/worker"
	"go.uber.org/zap"
)

type rule struct {
	cfg     config.Rule
	when    *vm.Program
	value   *vm.Program
	message *vm.Program
}

type Worker struct {
	rules []*rule
	log   *zap.Logger
}

// Factory builds a Worker from the application's configured rules.
func Factory(app *worker.Application) (worker.Worker, error) {
	var rules []config.Rule
	if app.Config != nil {
		rules = app.Config.Rules
	}
	w, err := New(rules, app.Logger)
	if err != nil {
		return nil, err
	}
	return w, nil
}

func New(rules []config.Rule, log *zap.Logger) (*Worker, error) {
	w := &Worker{log: logging.OrNop(log)}
	for i := range rules {
		r, err := compile(&rules[i])
		if err != nil {
			return nil, fmt.Errorf("rule %d (%s): %w", i, rules[i].Name, err)
		}
		w.rules = append(w.rules, r)
	}
	return w, nil
}

func compile(c *config.Rule) (*rule, error) {
	r := &rule{cfg: *c}
	env := expr.Env(envTypes())
	var err error
	if c.When != "" {
		r.when, err = expr.Compile(c.When, env, expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("when: %w", err)
		}
	}
	switch c.Action {
	case config.ActionSet, config.ActionAdd:
		r.value, err = expr.Compile(c.Value, env)
		if err != nil {
			return nil, fmt.Errorf("value: %w", err)
		}
	case config.ActionFail:
		if c.Message != "" {
			r.message, err = expr.Compile(c.Message, env, expr.AsKind(reflect.String))
			if err != nil {
				return nil, fmt.Errorf("message: %w", err)
			}
		}
	default:
		return nil, fmt.Errorf("unknown action %q", c.Action)
	}
	return r, nil
}

// ProcessDocument applies each rule in order. Later rules see the changes
// made by earlier ones.
func (w *Worker) ProcessDocument(ctx context.Context, d *document.Document) error {
	for _, r := range w.rules {
		if err := w.apply(ctx, r, d); err != nil {
			return fmt.Errorf("rule %s: %w", r.cfg.Name, err)
		}
	}
	return nil
}

func (w *Worker) apply(ctx context.Context, r *rule, d *document.Document) error {
	e := newEnv(ctx, d)
	if r.when != nil {
		ok, err := e.run(r.when)
		if err != nil {
			return err
		}
		if !ok.(bool) {
			return nil
		}
	}
	switch r.cfg.Action {
	case config.ActionFail:
		msg := r.cfg.Name
		if r.message != nil {
			v, err := e.run(r.message)
			if err != nil {
				return err
			}
			msg = v.(string)
		}
		d.Fail(r.cfg.FailureID, msg)
		return nil
	}
	v, err := e.run(r.value)
	if err != nil {
		return err
	}
	texts, err := toTexts(v)
	if err != nil {
		return err
	}
	f := d.Field(r.cfg.Field)
	if r.cfg.Action == config.ActionSet {
		f.SetText(texts...)
	} else {
		for _, s := range texts {
			f.AddText(s)
		}
	}
	if debug.Rules() {
		debug.LogAny(map[string]any{"rule": r.cfg.Name, "reference": d.Reference(), "values": texts})
	}
	w.log.Debug("rule applied",
		zap.String("rule", r.cfg.Name),
		zap.String("reference", d.Reference()),
		zap.Strings("values", texts))
	return nil
}

func toTexts(v any) ([]string, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case string:
		return []string{x}, nil
	case []string:
		return x, nil
	case []any:
		res := make([]string, 0, len(x))
		for _, e := range x {
			s, err := toTexts(e)
			if err != nil {
				return nil, err
			}
			res = append(res, s...)
		}
		return res, nil
	case bool, int, int64, float64:
		return []string{fmt.Sprint(x)}, nil
	}
	return nil, fmt.Errorf("unsupported value type %T", v)
}

func (w *Worker) CheckHealth(context.Context, worker.HealthMonitor) {}

func (w *Worker) Close() error { return nil }
