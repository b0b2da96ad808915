// Package payment holds the business logic invoked once per received order.
package payment

import (
	"context"

	"orderpipe/internal/consume"
	"orderpipe/internal/logging"
	"orderpipe/internal/order"
)

// Processor performs the payment side effect for one order. This minimal
// processor only records the event; a real gateway integration would report
// its failures through the same Outcome contract.
type Processor struct {
	logger logging.ServiceLogger
}

// NewProcessor constructs a Processor logging through the given logger.
func NewProcessor(logger logging.ServiceLogger) *Processor {
	return &Processor{logger: logger}
}

// Process handles one order. Safe to call concurrently; it keeps no mutable
// state between invocations.
func (p *Processor) Process(ctx context.Context, o order.Order) consume.Outcome {
	p.logger.Info("Processing payment", logging.LogFields{
		"order_id": o.ID,
		"product":  o.Product,
		"price":    o.Price,
	})
	return consume.Ack()
}
