// Package publish turns orders into broker messages and routes them to
// every queue bound to the order kind.
package publish

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	"orderpipe/internal/broker"
	"orderpipe/internal/ids"
	"orderpipe/internal/logging"
	"orderpipe/internal/order"
)

// PublishError reports a transport-level publish failure. The message never
// reached the broker's transport buffer.
type PublishError struct {
	Queue string
	Err   error
}

func (e *PublishError) Error() string {
	return "publish to " + e.Queue + " failed: " + e.Err.Error()
}

func (e *PublishError) Unwrap() error { return e.Err }

// Publisher serialises orders and hands them to the broker. Publishing is
// at-most-once from the producer's perspective: success means the message
// was accepted by the transport buffer, not that it was written to a queue.
type Publisher struct {
	publisher message.Publisher
	routes    *broker.RoutingTable
	logger    logging.ServiceLogger
}

// New constructs a Publisher on top of an existing transport publisher and
// routing table.
func New(publisher message.Publisher, routes *broker.RoutingTable, logger logging.ServiceLogger) *Publisher {
	return &Publisher{
		publisher: publisher,
		routes:    routes,
		logger:    logger,
	}
}

// Publish serialises the order and routes it to the queue bound to the
// order kind. Failures are reported as *PublishError.
func (p *Publisher) Publish(ctx context.Context, o order.Order) error {
	queue, err := p.routes.QueueFor(order.Kind, order.SchemaVersion)
	if err != nil {
		return &PublishError{Queue: "", Err: err}
	}

	msg, err := NewMessageFromOrder(o)
	if err != nil {
		return &PublishError{Queue: queue, Err: err}
	}
	if ctx != nil {
		msg.SetContext(ctx)
	}

	if err := p.publisher.Publish(queue, msg); err != nil {
		p.logger.Error("Failed to publish order", err, logging.LogFields{
			"order_id": o.ID,
			"queue":    queue,
		})
		return &PublishError{Queue: queue, Err: err}
	}

	p.logger.Info("Order published", logging.LogFields{
		"order_id":     o.ID,
		"product":      o.Product,
		"queue":        queue,
		"message_uuid": msg.UUID,
	})
	return nil
}

// NewMessageFromOrder converts an order into a broker message carrying the
// standard envelope metadata: schema kind and version, correlation ID, and
// publish timestamp.
func NewMessageFromOrder(o order.Order) (*message.Message, error) {
	payload, err := order.Encode(o)
	if err != nil {
		return nil, err
	}

	msg := message.NewMessage(ids.NewMessageID(), payload)
	msg.Metadata.Set(order.MetadataKeyKind, order.Kind)
	msg.Metadata.Set(order.MetadataKeySchemaVersion, order.SchemaVersion)
	msg.Metadata.Set(order.MetadataKeyCorrelationID, ids.NewMessageID())
	msg.Metadata.Set(order.MetadataKeyPublishedAt, time.Now().UTC().Format(time.RFC3339Nano))
	return msg, nil
}
