package processor

import "fmt"

type Outcome int

const (
	// OutcomeCompleted means a result was produced and routed to Queue.
	OutcomeCompleted Outcome = iota
	// OutcomeRetry means a transient error occurred; the message should be
	// redelivered.
	OutcomeRetry
	// OutcomeRejected means the message can never be processed.
	OutcomeRejected
	// OutcomeInvalid means the message failed schema validation.
	OutcomeInvalid
	// OutcomeAbandoned means the batch was canceled before the message
	// completed.
	OutcomeAbandoned
	// OutcomeException means processing added failures and the processor
	// is configured to answer with an exception. Payload lists the
	// failures, one per line.
	OutcomeException
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCompleted:
		return "completed"
	case OutcomeRetry:
		return "retry"
	case OutcomeRejected:
		return "rejected"
	case OutcomeInvalid:
		return "invalid"
	case OutcomeAbandoned:
		return "abandoned"
	case OutcomeException:
		return "exception"
	}
	return fmt.Sprintf("<unknown outcome %d>", int(o))
}

// Message is an incoming task.
type Message struct {
	ID string
	// Classifier is wire.TaskClassifier or wire.DocumentTaskClassifier.
	Classifier string
	Payload    []byte
	// Poison marks a message which exceeded its delivery attempts. It is
	// answered with a failure without running the worker.
	Poison bool
}

// Response is the outcome of processing one Message.
type Response struct {
	ID      string
	Outcome Outcome
	// Queue and Payload are set for completed and exception outcomes.
	Queue   string
	Payload []byte
	// Failed is set when the result carries failures.
	Failed bool
	// Err is the cause of any other outcome.
	Err error
	// Violations lists schema violations of invalid messages.
	Violations []string
}
