// Package consume binds typed order handlers to queues and turns their
// explicit outcomes into broker acknowledgments.
package consume

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/plugin"

	"orderpipe/internal/broker"
	"orderpipe/internal/config"
	"orderpipe/internal/logging"
	"orderpipe/internal/order"
)

// OrderHandler processes one decoded order and reports the outcome. Handlers
// run concurrently up to the broker prefetch window and must not share
// mutable state.
type OrderHandler func(ctx context.Context, o order.Order) Outcome

// HandlerRegistration binds an OrderHandler to a queue.
type HandlerRegistration struct {
	Name    string
	Queue   string
	Handler OrderHandler
}

// Dispatcher subscribes to queues, decodes incoming messages, and invokes
// the registered handler once per received message.
type Dispatcher struct {
	conf   *config.Config
	logger logging.ServiceLogger

	transport broker.Transport
	router    *message.Router
}

// NewDispatcher wires a router over the given transport and installs the
// default middleware chain. Register handlers before calling Run.
func NewDispatcher(conf *config.Config, logger logging.ServiceLogger, transport broker.Transport) (*Dispatcher, error) {
	wmLogger := logging.NewWatermillAdapter(logger)

	router, err := message.NewRouter(message.RouterConfig{}, wmLogger)
	if err != nil {
		return nil, fmt.Errorf("create router: %w", err)
	}
	router.AddPlugin(plugin.SignalsHandler)

	d := &Dispatcher{
		conf:      conf,
		logger:    logger,
		transport: transport,
		router:    router,
	}

	for _, reg := range DefaultMiddlewares() {
		if err := d.RegisterMiddleware(reg); err != nil {
			return nil, fmt.Errorf("register middleware %s: %w", reg.Name, err)
		}
	}

	return d, nil
}

// Subscribe registers the handler for a queue. Message consumption begins
// when Run is called; the transport declares the queue idempotently before
// the first delivery.
func (d *Dispatcher) Subscribe(reg HandlerRegistration) error {
	if reg.Handler == nil {
		return ErrHandlerRequired
	}
	if reg.Queue == "" {
		return ErrQueueRequired
	}
	if reg.Name == "" {
		return ErrHandlerNameRequired
	}

	d.router.AddNoPublisherHandler(
		reg.Name,
		reg.Queue,
		d.transport.Subscriber,
		d.buildHandlerFunc(reg),
	)

	d.logger.Info("Handler subscribed", logging.LogFields{
		"handler": reg.Name,
		"queue":   reg.Queue,
	})
	return nil
}

// Run consumes messages until the context is cancelled, then closes the
// router so the broker redelivers unacknowledged messages elsewhere.
func (d *Dispatcher) Run(ctx context.Context) error {
	return d.router.Run(ctx)
}

// Running is closed once the router consumes from all subscriptions.
func (d *Dispatcher) Running() <-chan struct{} {
	return d.router.Running()
}

// Close stops the router and releases the transport.
func (d *Dispatcher) Close() error {
	if err := d.router.Close(); err != nil {
		return err
	}
	return d.transport.Close()
}

// buildHandlerFunc adapts a typed OrderHandler to the per-message cycle:
// decode, invoke, act on the outcome.
func (d *Dispatcher) buildHandlerFunc(reg HandlerRegistration) message.NoPublishHandlerFunc {
	return func(msg *message.Message) error {
		o, err := order.Decode(msg.Payload)
		if err != nil {
			// Undecodable payloads go to the dead-letter queue rather than
			// being lost or requeued forever.
			return &UnprocessableOrderError{payload: string(msg.Payload), err: err}
		}

		outcome := reg.Handler(msg.Context(), o)
		switch {
		case outcome.IsAck():
			return nil
		case outcome.IsDeadLetter():
			cause := outcome.Err()
			if cause == nil {
				cause = ErrHandlerFailed
			}
			return &UnprocessableOrderError{payload: string(msg.Payload), err: cause}
		default:
			cause := outcome.Err()
			if cause == nil {
				cause = ErrHandlerFailed
			}
			return fmt.Errorf("handler %s requeued order %d: %w", reg.Name, o.ID, cause)
		}
	}
}
