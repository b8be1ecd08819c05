package processor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/signadot/docworker/changelog"
	"github.com/signadot/docworker/debug"
	"github.com/signadot/docworker/document"
	"github.com/signadot/docworker/field"
	"github.com/signadot/docworker/wire"
	"github.com/signadot/docworker/worker"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

// job carries one message through a batch.
type job struct {
	msg   *Message
	resp  *Response
	done  bool
	task  *wire.Task
	dtask *wire.DocumentTask
	doc   *document.Document
	// base is the document's wire form before processing, kept for replay
	// verification.
	base *wire.Document
	// poison jobs are completed without running the worker.
	poison bool
}

// unit is a document handed to a bulk worker and the job it belongs to.
type unit struct {
	job *job
	doc *document.Document
}

func (j *job) finish(o Outcome, err error) {
	j.resp.Outcome = o
	j.resp.Err = err
	j.done = true
}

// ProcessBatch processes msgs and returns one response per message, in
// order. Documents are isolated from each other: an error processing one
// only affects its own response. If ctx is canceled, messages not yet
// completed are abandoned and the context error is returned along with the
// responses.
func (p *Processor) ProcessBatch(ctx context.Context, msgs []Message) ([]Response, error) {
	if p.isClosed() {
		return nil, ErrClosed
	}
	p.metrics.batches.Inc()
	jobs := make([]*job, len(msgs))
	var runnable []*job
	for i := range msgs {
		j := p.prepare(&msgs[i])
		jobs[i] = j
		if !j.done && !j.poison {
			runnable = append(runnable, j)
		}
	}
	switch p.kind {
	case worker.KindBulk:
		bw := p.worker.(worker.BulkWorker)
		size := p.cfg.Processing.BatchSize
		for start := 0; start < len(runnable); start += size {
			end := min(start+size, len(runnable))
			p.runBulk(ctx, bw, runnable[start:end])
		}
	default:
		p.runSingle(ctx, p.worker.(worker.DocumentWorker), runnable)
	}
	for _, j := range jobs {
		if j.poison {
			p.complete(ctx, j)
		}
	}
	res := make([]Response, len(jobs))
	for i, j := range jobs {
		res[i] = *j.resp
		p.metrics.observe(j.resp)
		if debug.Route() {
			debug.Logf("route %s: %s %s (failed=%t)\n", j.msg.ID, j.resp.Outcome, j.resp.Queue, j.resp.Failed)
		}
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}
	return res, nil
}

func (p *Processor) prepare(msg *Message) *job {
	j := &job{msg: msg, resp: &Response{ID: msg.ID}}
	var (
		doc *document.Document
		err error
	)
	switch msg.Classifier {
	case wire.TaskClassifier:
		j.task, err = wire.DecodeTask(msg.Payload)
		if err != nil {
			p.invalid(j, err)
			return j
		}
		if err := p.validator.Validate(j.task); err != nil {
			p.invalid(j, err)
			return j
		}
		doc, err = document.FromTask(p.codec, j.task)
		if err == nil {
			doc.Baseline()
		}
	case wire.DocumentTaskClassifier:
		j.dtask, err = wire.DecodeDocumentTask(msg.Payload)
		if err != nil {
			p.invalid(j, err)
			return j
		}
		if err := p.validator.Validate(j.dtask); err != nil {
			p.invalid(j, err)
			return j
		}
		doc, err = document.FromDocumentTask(p.codec, j.dtask)
	default:
		p.invalid(j, fmt.Errorf("unknown classifier %q", msg.Classifier))
		return j
	}
	if err != nil {
		p.log.Warn("rejecting message", zap.String("id", msg.ID), zap.Error(err))
		j.finish(OutcomeRejected, err)
		return j
	}
	doc.SetWorkerName(p.cfg.Worker.Name)
	j.doc = doc
	if debug.Verify() {
		j.base = doc.ToWire()
	}
	if msg.Poison {
		p.log.Warn("message exceeded its delivery attempts", zap.String("id", msg.ID))
		doc.Fail(document.ProcessingFailedID,
			fmt.Sprintf("%s max processing attempts exceeded.", p.cfg.Worker.Name))
		j.poison = true
	}
	return j
}

func (p *Processor) invalid(j *job, err error) {
	var verr *wire.ValidationError
	if errors.As(err, &verr) {
		j.resp.Violations = verr.Violations
	} else {
		j.resp.Violations = []string{err.Error()}
	}
	p.log.Warn("invalid message", zap.String("id", j.msg.ID), zap.Strings("violations", j.resp.Violations))
	j.finish(OutcomeInvalid, err)
}

func (p *Processor) runSingle(ctx context.Context, dw worker.DocumentWorker, jobs []*job) {
	pl := pool.New().WithMaxGoroutines(p.cfg.Processing.Concurrency)
	for _, j := range jobs {
		pl.Go(func() {
			p.processJob(ctx, dw, j)
		})
	}
	pl.Wait()
}

func (p *Processor) processJob(ctx context.Context, dw worker.DocumentWorker, j *job) {
	if !p.processNode(ctx, dw, j, j.doc) {
		p.complete(ctx, j)
	}
}

// processNode runs dw on d. When subdocuments are processed separately, it
// then descends into the subdocuments d has once dw is done with it, so
// subdocuments added by dw are processed and removed ones are not. It
// returns whether j is finished.
func (p *Processor) processNode(ctx context.Context, dw worker.DocumentWorker, j *job, d *document.Document) bool {
	if ctx.Err() != nil {
		return false
	}
	err := p.callWorker(ctx, p.cfg.Processing.DocumentTimeout, func(ctx context.Context) error {
		return dw.ProcessDocument(ctx, d)
	})
	if err != nil && p.fail(ctx, j, d, err) {
		return true
	}
	if !p.cfg.Processing.ProcessSubdocumentsSeparately {
		return false
	}
	for _, sub := range d.Subdocuments() {
		// removed while processing an earlier sibling
		if sub.Parent() != d {
			continue
		}
		if p.processNode(ctx, dw, j, sub) {
			return true
		}
	}
	return false
}

// runBulk hands the documents of jobs to bw in one batch. When subdocuments
// are processed separately, each following batch holds the subdocuments of
// the documents in the previous one, as bw left them.
func (p *Processor) runBulk(ctx context.Context, bw worker.BulkWorker, jobs []*job) {
	level := make([]unit, len(jobs))
	for i, j := range jobs {
		level[i] = unit{job: j, doc: j.doc}
	}
	for len(level) != 0 && ctx.Err() == nil {
		p.runLevel(ctx, bw, level)
		if !p.cfg.Processing.ProcessSubdocumentsSeparately {
			break
		}
		var next []unit
		for _, u := range level {
			if u.job.done || (u.doc != u.job.doc && u.doc.Parent() == nil) {
				continue
			}
			for _, sub := range u.doc.Subdocuments() {
				next = append(next, unit{job: u.job, doc: sub})
			}
		}
		level = next
	}
	for _, j := range jobs {
		p.complete(ctx, j)
	}
}

func (p *Processor) runLevel(ctx context.Context, bw worker.BulkWorker, level []unit) {
	docs := make([]*document.Document, len(level))
	for i := range level {
		docs[i] = level[i].doc
	}
	b := worker.NewBatch(docs)
	err := p.callWorker(ctx, 0, func(ctx context.Context) error {
		return bw.ProcessBatch(ctx, b)
	})
	for i, u := range level {
		if u.job.done {
			continue
		}
		e := b.Err(i)
		if e == nil {
			e = err
		}
		if e != nil {
			p.fail(ctx, u.job, u.doc, e)
		}
	}
}

// callWorker runs fn, bounding it by timeout if positive, and turns panics
// into errors.
func (p *Processor) callWorker(ctx context.Context, timeout time.Duration, fn func(context.Context) error) (err error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	start := time.Now()
	defer func() {
		p.metrics.documentSeconds.Observe(time.Since(start).Seconds())
		if r := recover(); r != nil {
			err = pkgerrors.Errorf("worker panic: %v", r)
		}
	}()
	return fn(ctx)
}

func isFatal(err error) bool {
	return errors.Is(err, document.ErrInvalidChangeLog) ||
		errors.Is(err, field.ErrUnrecognizedEncoding) ||
		errors.Is(err, field.ErrMalformedData)
}

// fail handles an error returned by the worker for d, which belongs to j.
// It returns whether j is finished.
func (p *Processor) fail(ctx context.Context, j *job, d *document.Document, err error) bool {
	var verr *wire.ValidationError
	switch {
	case ctx.Err() != nil:
		j.finish(OutcomeAbandoned, ctx.Err())
	case worker.IsTransient(err), errors.Is(err, context.DeadlineExceeded):
		p.log.Info("retrying document", zap.String("id", j.msg.ID), zap.Error(err))
		j.finish(OutcomeRetry, err)
	case isFatal(err):
		p.log.Warn("rejecting document", zap.String("id", j.msg.ID), zap.Error(err))
		j.finish(OutcomeRejected, err)
	case errors.As(err, &verr):
		j.resp.Violations = verr.Violations
		j.finish(OutcomeInvalid, err)
	default:
		p.log.Warn("worker failed on document",
			zap.String("id", j.msg.ID),
			zap.String("reference", d.Reference()),
			zap.Error(err))
		p.metrics.generalFailures.Inc()
		d.FailWithError(document.GeneralFailureID, err)
		return false
	}
	return true
}

// complete derives j's result and routes it, unless j is already finished.
func (p *Processor) complete(ctx context.Context, j *job) {
	if j.done {
		return
	}
	if err := ctx.Err(); err != nil {
		j.finish(OutcomeAbandoned, err)
		return
	}
	changes := j.doc.Changes()
	if j.base != nil {
		if err := document.VerifyReplay(j.base, j.doc); err != nil {
			p.metrics.replayMismatch.Inc()
			p.log.Error("change log does not replay", zap.String("id", j.msg.ID), zap.Error(err))
		}
	}
	failed := changelog.HasFailures(changes)
	queue := p.cfg.Queues.Success
	if failed {
		queue = p.cfg.Queues.Failure
	}
	opts := j.doc.Response()
	if q := opts.QueueOverride(); q != "" {
		queue = q
	}
	if failed && p.cfg.Processing.ExceptionOnFailure {
		msgs := changelog.FailureMessages(changes)
		p.log.Info("answering with an exception", zap.String("id", j.msg.ID), zap.Strings("failures", msgs))
		j.resp.Payload = []byte(strings.Join(msgs, "\n"))
		j.resp.Queue = queue
		j.resp.Failed = true
		j.finish(OutcomeException, nil)
		return
	}
	var payload any
	if j.task != nil {
		fc, err := changelog.FieldChanges(changes)
		if err != nil {
			j.finish(OutcomeRejected, err)
			return
		}
		payload = &wire.Result{FieldChanges: fc, Failures: j.doc.Failures()}
	} else {
		cd := opts.CustomData()
		if cd == nil {
			cd = j.dtask.CustomData
		}
		payload = &wire.DocumentTask{
			Document:   j.dtask.Document,
			ChangeLog:  changelog.Append(j.dtask.ChangeLog, p.cfg.EntryName(), changes),
			CustomData: cd,
		}
	}
	data, err := wire.Marshal(payload)
	if err != nil {
		j.finish(OutcomeRejected, err)
		return
	}
	j.resp.Payload = data
	j.resp.Failed = failed
	j.resp.Queue = queue
	j.finish(OutcomeCompleted, nil)
}
