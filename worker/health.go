package worker

import (
	"errors"
	"strings"
	"sync"
)

var ErrUnhealthy = errors.New("unhealthy")

// HealthReport is a HealthMonitor collecting messages. It is safe for
// concurrent use.
type HealthReport struct {
	mu       sync.Mutex
	messages []string
}

func (r *HealthReport) ReportUnhealthy(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, message)
}

func (r *HealthReport) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.messages...)
}

// Err returns nil if nothing was reported.
func (r *HealthReport) Err() error {
	ms := r.Messages()
	if len(ms) == 0 {
		return nil
	}
	return &unhealthyError{msg: strings.Join(ms, "; ")}
}

type unhealthyError struct {
	msg string
}

func (e *unhealthyError) Error() string { return "unhealthy: " + e.msg }
func (e *unhealthyError) Is(target error) bool {
	return target == ErrUnhealthy
}
