package channel

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderpipe/internal/broker"
)

type testConfig struct{}

func (testConfig) GetBroker() string     { return TransportName }
func (testConfig) GetAMQPURL() string    { return "" }
func (testConfig) GetPrefetchCount() int { return 0 }

func TestInitRegistersTransport(t *testing.T) {
	assert.True(t, broker.DefaultRegistry.Has(TransportName))
}

func TestBuildReturnsWorkingPubSub(t *testing.T) {
	tr, err := Build(context.Background(), testConfig{}, watermill.NopLogger{})
	require.NoError(t, err)
	require.NotNil(t, tr.Publisher)
	require.NotNil(t, tr.Subscriber)
	t.Cleanup(func() { _ = tr.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	messages, err := tr.Subscriber.Subscribe(ctx, "orderQueue")
	require.NoError(t, err)

	sent := message.NewMessage("id-1", []byte(`{"id":1}`))
	require.NoError(t, tr.Publisher.Publish("orderQueue", sent))

	select {
	case received := <-messages:
		assert.Equal(t, sent.UUID, received.UUID)
		assert.Equal(t, string(sent.Payload), string(received.Payload))
		received.Ack()
	case <-ctx.Done():
		t.Fatal("timed out waiting for message")
	}
}
