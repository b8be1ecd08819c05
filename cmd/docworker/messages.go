package main

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/goccy/go-json"
	"github.com/signadot/docworker/processor"
)

const maxMessageSize = 64 << 20

type messageJSON struct {
	ID         string          `json:"id"`
	Classifier string          `json:"classifier"`
	Payload    json.RawMessage `json:"payload"`
	Poison     bool            `json:"poison,omitempty"`
}

type responseJSON struct {
	ID         string          `json:"id"`
	Outcome    string          `json:"outcome"`
	Queue      string          `json:"queue,omitempty"`
	Failed     bool            `json:"failed,omitempty"`
	Error      string          `json:"error,omitempty"`
	Violations []string        `json:"violations,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	// Exception holds the payload of exception outcomes, which is text.
	Exception string `json:"exception,omitempty"`
}

// parseMessage decodes one input line. A line that is not a message is
// passed on without a classifier so that it is reported as invalid.
func parseMessage(line []byte, n int) processor.Message {
	m := &messageJSON{}
	if err := json.Unmarshal(line, m); err != nil {
		return processor.Message{ID: fmt.Sprintf("line-%d", n), Payload: line}
	}
	if m.ID == "" {
		m.ID = fmt.Sprintf("line-%d", n)
	}
	return processor.Message{ID: m.ID, Classifier: m.Classifier, Payload: m.Payload, Poison: m.Poison}
}

func toResponseJSON(r *processor.Response) *responseJSON {
	res := &responseJSON{
		ID:         r.ID,
		Outcome:    r.Outcome.String(),
		Queue:      r.Queue,
		Failed:     r.Failed,
		Violations: r.Violations,
	}
	if r.Outcome == processor.OutcomeException {
		res.Exception = string(r.Payload)
	} else {
		res.Payload = r.Payload
	}
	if r.Err != nil {
		res.Error = r.Err.Error()
	}
	return res
}

func writeResponses(w io.Writer, rs []processor.Response) error {
	for i := range rs {
		d, err := json.Marshal(toResponseJSON(&rs[i]))
		if err != nil {
			return fmt.Errorf("could not encode response %s: %w", rs[i].ID, err)
		}
		d = append(d, '\n')
		if _, err := w.Write(d); err != nil {
			return err
		}
	}
	return nil
}

// pump reads messages from r one per line and processes them in batches of
// the configured size, writing responses to w. A partial batch is processed
// once no message has arrived for flushEvery, or at the end of input. When
// ctx is done, pending messages are processed as abandoned and pump returns
// nil.
func pump(ctx context.Context, proc *processor.Processor, r io.Reader, w io.Writer, flushEvery time.Duration, observe func([]processor.Response)) error {
	lines := make(chan []byte)
	errc := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(r)
		sc.Buffer(make([]byte, 64*1024), maxMessageSize)
		for sc.Scan() {
			line := bytes.TrimSpace(sc.Bytes())
			if len(line) == 0 {
				continue
			}
			select {
			case lines <- bytes.Clone(line):
			case <-ctx.Done():
				errc <- nil
				return
			}
		}
		errc <- sc.Err()
	}()

	batchSize := proc.Config().Processing.BatchSize
	var pending []processor.Message
	flush := func() error {
		if len(pending) == 0 {
			return nil
		}
		rs, err := proc.ProcessBatch(ctx, pending)
		pending = nil
		if rs != nil {
			if observe != nil {
				observe(rs)
			}
			if werr := writeResponses(w, rs); werr != nil {
				return werr
			}
		}
		if err != nil && ctx.Err() == nil {
			return err
		}
		return nil
	}

	if flushEvery <= 0 {
		flushEvery = time.Second
	}
	t := time.NewTimer(flushEvery)
	defer t.Stop()
	n := 0
	for {
		select {
		case <-ctx.Done():
			return flush()
		case <-t.C:
			if err := flush(); err != nil {
				return err
			}
			t.Reset(flushEvery)
		case line, ok := <-lines:
			if !ok {
				if err := flush(); err != nil {
					return err
				}
				if err := <-errc; err != nil {
					return fmt.Errorf("error reading messages: %w", err)
				}
				return nil
			}
			n++
			pending = append(pending, parseMessage(line, n))
			if len(pending) >= batchSize {
				if err := flush(); err != nil {
					return err
				}
			}
			if !t.Stop() {
				select {
				case <-t.C:
				default:
				}
			}
			t.Reset(flushEvery)
		}
	}
}
