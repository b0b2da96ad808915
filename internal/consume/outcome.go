package consume

// Outcome is the explicit result of handling one message. The dispatcher
// acts on it; there is no implicit acknowledgment path. A failed handling is
// therefore never indistinguishable from success.
type Outcome struct {
	decision decision
	err      error
}

type decision int

const (
	decisionAck decision = iota
	decisionRequeue
	decisionDeadLetter
)

// Ack reports successful processing; the message is removed from the queue.
func Ack() Outcome {
	return Outcome{decision: decisionAck}
}

// Requeue reports a transient failure; the message is nacked so the broker
// redelivers it.
func Requeue(err error) Outcome {
	return Outcome{decision: decisionRequeue, err: err}
}

// DeadLetter reports a permanent failure; the message is routed to the
// dead-letter queue for inspection instead of being retried or lost.
func DeadLetter(err error) Outcome {
	return Outcome{decision: decisionDeadLetter, err: err}
}

func (o Outcome) IsAck() bool        { return o.decision == decisionAck }
func (o Outcome) IsRequeue() bool    { return o.decision == decisionRequeue }
func (o Outcome) IsDeadLetter() bool { return o.decision == decisionDeadLetter }

// Err returns the failure attached to a Requeue or DeadLetter outcome.
func (o Outcome) Err() error { return o.err }
