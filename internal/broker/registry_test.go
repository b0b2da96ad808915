package broker

import (
	"context"
	"errors"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryBuild(t *testing.T) {
	reg := NewRegistry()
	pub := &mockPublisher{}
	sub := &mockSubscriber{}

	reg.Register("fake", func(ctx context.Context, cfg Config, logger watermill.LoggerAdapter) (Transport, error) {
		return Transport{Publisher: pub, Subscriber: sub}, nil
	})

	tr, err := reg.Build(context.Background(), &mockConfig{broker: "fake"}, watermill.NopLogger{})
	require.NoError(t, err)
	assert.Equal(t, pub, tr.Publisher)
	assert.Equal(t, sub, tr.Subscriber)
}

func TestRegistryBuildUnknownTransport(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Build(context.Background(), &mockConfig{broker: "missing"}, watermill.NopLogger{})
	assert.ErrorContains(t, err, "unknown broker transport")
}

func TestRegistryBuildNilConfig(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Build(context.Background(), nil, watermill.NopLogger{})
	assert.Error(t, err)
}

func TestRegistryBuildPropagatesBuilderError(t *testing.T) {
	reg := NewRegistry()
	boom := errors.New("boom")
	reg.Register("fake", func(ctx context.Context, cfg Config, logger watermill.LoggerAdapter) (Transport, error) {
		return Transport{}, boom
	})

	_, err := reg.Build(context.Background(), &mockConfig{broker: "fake"}, watermill.NopLogger{})
	assert.ErrorIs(t, err, boom)
}

func TestRegistryHasAndNames(t *testing.T) {
	reg := NewRegistry()
	assert.False(t, reg.Has("fake"))

	reg.Register("fake", func(ctx context.Context, cfg Config, logger watermill.LoggerAdapter) (Transport, error) {
		return Transport{}, nil
	})

	assert.True(t, reg.Has("fake"))
	assert.Contains(t, reg.Names(), "fake")
}
