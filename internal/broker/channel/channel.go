// Package channel provides an in-memory transport for the order pipeline,
// used by tests and local development.
package channel

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"orderpipe/internal/broker"
)

// TransportName is the name used to register this transport.
const TransportName = "channel"

// Factory allows overriding the channel creation for testing.
var Factory = func(cfg gochannel.Config, logger watermill.LoggerAdapter) (message.Publisher, message.Subscriber) {
	pubSub := gochannel.NewGoChannel(cfg, logger)
	return pubSub, pubSub
}

func init() {
	broker.Register(TransportName, Build)
}

// Build creates an in-memory transport backed by Go channels. Both halves
// are the same pub/sub instance, so closing one closes the other.
func Build(ctx context.Context, cfg broker.Config, logger watermill.LoggerAdapter) (broker.Transport, error) {
	pub, sub := Factory(gochannel.Config{}, logger)
	return broker.Transport{
		Publisher:  pub,
		Subscriber: sub,
	}, nil
}
