// Package rabbitmq provides the AMQP transport for the order pipeline.
package rabbitmq

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-amqp/v3/pkg/amqp"
	"github.com/ThreeDotsLabs/watermill/message"

	"orderpipe/internal/broker"
)

// TransportName is the name used to register this transport.
const TransportName = "rabbitmq"

// ConnectionFactory allows overriding the connection creation for testing.
var ConnectionFactory = func(cfg amqp.ConnectionConfig, logger watermill.LoggerAdapter) (*amqp.ConnectionWrapper, error) {
	return amqp.NewConnection(cfg, logger)
}

// PublisherFactory allows overriding the publisher creation for testing.
var PublisherFactory = func(cfg amqp.Config, logger watermill.LoggerAdapter, conn *amqp.ConnectionWrapper) (message.Publisher, error) {
	return amqp.NewPublisherWithConnection(cfg, logger, conn)
}

// SubscriberFactory allows overriding the subscriber creation for testing.
var SubscriberFactory = func(cfg amqp.Config, logger watermill.LoggerAdapter, conn *amqp.ConnectionWrapper) (message.Subscriber, error) {
	return amqp.NewSubscriberWithConnection(cfg, logger, conn)
}

// Register registers the RabbitMQ transport with the default registry.
func Register() {
	broker.Register(TransportName, Build)
}

// Build creates the AMQP transport: one long-lived connection shared by the
// publisher and subscriber halves, with a durable pub/sub topology whose
// queue names equal the topic names in the routing table. Queues, exchanges
// and bindings are declared idempotently when a subscription starts.
func Build(ctx context.Context, cfg broker.Config, logger watermill.LoggerAdapter) (broker.Transport, error) {
	url := cfg.GetAMQPURL()

	amqpConfig := amqp.NewDurablePubSubConfig(
		url,
		amqp.GenerateQueueNameTopicName,
	)
	amqpConfig.Consume.Qos.PrefetchCount = cfg.GetPrefetchCount()

	conn, err := ConnectionFactory(amqp.ConnectionConfig{
		AmqpURI:   url,
		TLSConfig: nil,
		Reconnect: amqp.DefaultReconnectConfig(),
	}, logger)
	if err != nil {
		return broker.Transport{}, &broker.ConnectionError{URL: url, Err: err}
	}

	publisher, err := PublisherFactory(amqpConfig, logger, conn)
	if err != nil {
		return broker.Transport{}, &broker.ConnectionError{URL: url, Err: err}
	}

	subscriber, err := SubscriberFactory(amqpConfig, logger, conn)
	if err != nil {
		return broker.Transport{}, &broker.ConnectionError{URL: url, Err: err}
	}

	return broker.Transport{
		Publisher:  publisher,
		Subscriber: subscriber,
	}, nil
}
