package consume

import (
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/components/metrics"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"orderpipe/internal/ids"
	"orderpipe/internal/logging"
	"orderpipe/internal/order"
)

// MiddlewareBuilder constructs a handler middleware using the dispatcher.
type MiddlewareBuilder func(*Dispatcher) (message.HandlerMiddleware, error)

// MiddlewareRegistration captures how a middleware is registered on the
// dispatcher's router.
type MiddlewareRegistration struct {
	Name       string
	Middleware message.HandlerMiddleware
	Builder    MiddlewareBuilder
}

// DefaultMiddlewares returns the standard middleware chain installed by
// NewDispatcher. Ordering matters: the poison queue sits inside the retry
// loop so dead-lettered messages are not retried first, and the recoverer
// sits innermost so a panicking handler surfaces as a requeueable error.
func DefaultMiddlewares() []MiddlewareRegistration {
	return []MiddlewareRegistration{
		CorrelationIDMiddleware(),
		LogMessagesMiddleware(nil),
		MetricsMiddleware(),
		TracerMiddleware(),
		RetryMiddleware(),
		PoisonQueueMiddleware(),
		RecovererMiddleware(),
	}
}

// RegisterMiddleware attaches the supplied middleware to the router.
func (d *Dispatcher) RegisterMiddleware(cfg MiddlewareRegistration) error {
	if d.router == nil {
		return errors.New("router is not initialised")
	}

	var mw message.HandlerMiddleware
	switch {
	case cfg.Middleware != nil:
		mw = cfg.Middleware
	case cfg.Builder != nil:
		var err error
		mw, err = cfg.Builder(d)
		if err != nil {
			return err
		}
	default:
		return errors.New("middleware registration requires Middleware or Builder")
	}

	if mw == nil {
		return nil
	}

	d.router.AddMiddleware(mw)
	return nil
}

// CorrelationIDMiddleware ensures each processed message carries a
// correlation identifier.
func CorrelationIDMiddleware() MiddlewareRegistration {
	return MiddlewareRegistration{
		Name: "correlation_id",
		Middleware: func(h message.HandlerFunc) message.HandlerFunc {
			return func(msg *message.Message) ([]*message.Message, error) {
				if msg.Metadata.Get(order.MetadataKeyCorrelationID) == "" {
					msg.Metadata.Set(order.MetadataKeyCorrelationID, ids.NewMessageID())
				}
				return h(msg)
			}
		},
	}
}

// LogMessagesMiddleware logs payload and metadata of handled messages.
func LogMessagesMiddleware(logger logging.ServiceLogger) MiddlewareRegistration {
	return MiddlewareRegistration{
		Name: "log_messages",
		Builder: func(d *Dispatcher) (message.HandlerMiddleware, error) {
			l := logger
			if l == nil {
				l = d.logger
			}
			if l == nil {
				return nil, errors.New("log messages middleware requires a logger")
			}
			return func(h message.HandlerFunc) message.HandlerFunc {
				return func(msg *message.Message) ([]*message.Message, error) {
					l.Debug("Processing message", logging.LogFields{
						"message_uuid": msg.UUID,
						"payload":      string(msg.Payload),
						"metadata":     msg.Metadata,
					})
					return h(msg)
				}
			}, nil
		},
	}
}

// MetricsMiddleware adds Prometheus metrics to the handler chain when
// metrics are enabled.
func MetricsMiddleware() MiddlewareRegistration {
	return MiddlewareRegistration{
		Name: "metrics",
		Builder: func(d *Dispatcher) (message.HandlerMiddleware, error) {
			if !d.conf.MetricsEnabled {
				return nil, nil
			}

			metricsBuilder := metrics.NewPrometheusMetricsBuilder(
				prometheus.DefaultRegisterer,
				"orderpipe",
				d.conf.Broker,
			)
			metricsBuilder.AddPrometheusRouterMetrics(d.router)

			return metricsBuilder.NewRouterMiddleware().Middleware, nil
		},
	}
}

// TracerMiddleware wraps message handling in an OpenTelemetry span.
func TracerMiddleware() MiddlewareRegistration {
	return MiddlewareRegistration{
		Name: "tracer",
		Middleware: func(h message.HandlerFunc) message.HandlerFunc {
			return func(msg *message.Message) ([]*message.Message, error) {
				tracer := otel.Tracer("orderpipe-dispatcher")
				ctx, span := tracer.Start(msg.Context(), "ProcessOrder")
				defer span.End()
				msg.SetContext(ctx)

				span.SetAttributes(
					attribute.String("message.uuid", msg.UUID),
					attribute.String("message.metadata", fmt.Sprintf("%v", msg.Metadata)),
				)
				return h(msg)
			}
		},
	}
}

// RetryMiddleware retries handler execution with exponential backoff using
// the configured bounds; zero values fall back to library defaults.
func RetryMiddleware() MiddlewareRegistration {
	return MiddlewareRegistration{
		Name: "retry",
		Builder: func(d *Dispatcher) (message.HandlerMiddleware, error) {
			maxRetries := d.conf.RetryMaxRetries
			if maxRetries <= 0 {
				maxRetries = 5
			}
			initialInterval := d.conf.RetryInitialInterval
			if initialInterval <= 0 {
				initialInterval = time.Second
			}
			maxInterval := d.conf.RetryMaxInterval
			if maxInterval <= 0 {
				maxInterval = 16 * time.Second
			}

			return middleware.Retry{
				MaxRetries:      maxRetries,
				InitialInterval: initialInterval,
				MaxInterval:     maxInterval,
				ShouldRetry: func(params middleware.RetryParams) bool {
					return !isUnprocessable(params.Err)
				},
			}.Middleware, nil
		},
	}
}

// PoisonQueueMiddleware publishes unprocessable messages to the dead-letter
// queue, then acknowledges the original so it is never silently lost.
func PoisonQueueMiddleware() MiddlewareRegistration {
	return MiddlewareRegistration{
		Name: "poison_queue",
		Builder: func(d *Dispatcher) (message.HandlerMiddleware, error) {
			if d.conf == nil {
				return nil, errors.New("dispatcher config is required for poison queue middleware")
			}
			if d.transport.Publisher == nil {
				return nil, errors.New("publisher is required for poison queue middleware")
			}

			return middleware.PoisonQueueWithFilter(
				d.transport.Publisher,
				d.conf.DeadLetterQueue,
				isUnprocessable,
			)
		},
	}
}

// RecovererMiddleware converts handler panics into errors so they can be
// retried or requeued instead of crashing the consumer.
func RecovererMiddleware() MiddlewareRegistration {
	return MiddlewareRegistration{
		Name:       "recoverer",
		Middleware: middleware.Recoverer,
	}
}

func isUnprocessable(err error) bool {
	var unprocessable *UnprocessableOrderError
	return errors.As(err, &unprocessable)
}
